// Package checkers extracts the strings a plugin needs from its declaration
// files and from the methods of well-known class shapes.
package checkers

import (
	"fmt"

	"github.com/jenian/mpci/internal/discovery"
	"github.com/jenian/mpci/internal/filecache"
	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/plugin"
	"github.com/jenian/mpci/internal/strerr"
	"github.com/jenian/mpci/internal/stringref"
)

// Input is everything a checker may consult. All fields are owned by one
// validation run.
type Input struct {
	Plugin plugin.Plugin
	Files  *discovery.Discovery
	Cache  *filecache.Cache
	Parser *parser.Parser
}

// Checker finds the strings required by one convention.
//
// A checker returns no references and no error when its target file or class
// does not exist. Malformed targets are reported as *strerr.CheckerError.
type Checker interface {
	Name() string
	Check(in Input) ([]stringref.Reference, error)
}

// declaration is a parsed db/*.php file
type declaration struct {
	rel     string
	content string
	tree    *parser.Tree
}

// openDeclaration parses db/{file}. It returns nil without error when the
// plugin has no such file.
func openDeclaration(in Input, checker, file string) (*declaration, error) {
	path := in.Files.DBFile(file)
	if path == "" {
		return nil, nil
	}
	rel := in.Plugin.Rel(path)
	content, err := in.Cache.Get(path)
	if err != nil {
		// Discovered but unreadable: no findings, reported as a warning
		return nil, strerr.NewCheckerError(checker, "declaration file is not readable", map[string]any{"file": rel}).
			WithCause(strerr.NewFileError(strerr.FileNotReadable, rel, err)).
			AsWarning()
	}

	tree, err := in.Parser.ParsePHP(content)
	if err != nil {
		return nil, strerr.NewCheckerError(checker, "failed to parse declaration file", map[string]any{"file": rel}).
			WithCause(strerr.NewFileError(strerr.FileParseError, rel, err))
	}
	if tree.HasError() {
		tree.Close()
		return nil, strerr.NewCheckerError(checker, "declaration file has syntax errors", map[string]any{"file": rel})
	}
	return &declaration{rel: rel, content: content, tree: tree}, nil
}

func (d *declaration) Close() {
	d.tree.Close()
}

// array returns the literal array assigned to $variable. When required is
// false a missing assignment yields found == false without error.
func (d *declaration) array(checker, variable string, required bool) (value parser.Value, found bool, err error) {
	value, found, ok := parser.LiteralArrayAssignment(d.tree, variable)
	ctx := map[string]any{"file": d.rel, "variable": "$" + variable}
	if !found {
		if required {
			return parser.Value{}, false, strerr.NewCheckerError(checker, "expected variable is not defined", ctx)
		}
		return parser.Value{}, false, nil
	}
	if !ok {
		return parser.Value{}, true, strerr.NewCheckerError(checker, "expected a literal array", ctx)
	}
	return value, true, nil
}

// reference builds a reference to a string of the plugin itself
func reference(in Input, key, file string, line int, description string, args ...any) stringref.Reference {
	return stringref.Reference{
		Key:       key,
		Component: in.Plugin.Component,
		Context: stringref.Context{
			File:        file,
			Line:        line,
			Description: fmt.Sprintf(description, args...),
		},
	}
}

// eachClass parses every PHP file in files and calls fn for each class
// declared in it. Unreadable files are skipped.
func eachClass(in Input, checker string, files []string, fn func(tree *parser.Tree, class parser.Class, rel string)) error {
	for _, path := range files {
		content, err := in.Cache.Get(path)
		if err != nil {
			continue
		}
		rel := in.Plugin.Rel(path)
		tree, err := in.Parser.ParsePHP(content)
		if err != nil {
			return strerr.NewCheckerError(checker, "failed to parse class file", map[string]any{"file": rel}).
				WithCause(strerr.NewFileError(strerr.FileParseError, rel, err))
		}
		for _, class := range parser.Classes(tree) {
			fn(tree, class, rel)
		}
		tree.Close()
	}
	return nil
}

// base carries the registry name of a checker
type base struct {
	name string
}

func (b *base) Name() string {
	return b.name
}
