// Package langpack reads the strings a plugin defines in its language pack
package langpack

import (
	"path"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/jenian/mpci/internal/filecache"
	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/patterns"
	"github.com/jenian/mpci/internal/plugin"
	"github.com/jenian/mpci/internal/stringref"
)

// DefaultLanguage is the language every plugin must ship
const DefaultLanguage = "en"

// Pack holds the strings defined for one language
type Pack struct {
	Language    string
	File        string // Path of the language file relative to the plugin root
	Found       bool   // False when the plugin has no language file
	Definitions []stringref.Definition
	index       map[string]int
}

// Has reports whether key is defined
func (p *Pack) Has(key string) bool {
	_, ok := p.index[key]
	return ok
}

// Definition returns the first definition of key
func (p *Pack) Definition(key string) (stringref.Definition, bool) {
	i, ok := p.index[key]
	if !ok {
		return stringref.Definition{}, false
	}
	return p.Definitions[i], true
}

// Keys returns the defined keys in sorted order
func (p *Pack) Keys() []string {
	keys := make([]string, 0, len(p.index))
	for key := range p.index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (p *Pack) add(def stringref.Definition) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if _, ok := p.index[def.Key]; ok {
		return
	}
	p.index[def.Key] = len(p.Definitions)
	p.Definitions = append(p.Definitions, def)
}

// Loader reads language packs through the shared file cache
type Loader struct {
	cache  *filecache.Cache
	parser *parser.Parser
}

// NewLoader creates a new language pack loader
func NewLoader(cache *filecache.Cache, p *parser.Parser) *Loader {
	return &Loader{cache: cache, parser: p}
}

// candidates lists the possible language files of a plugin in lookup order.
// Activity modules may still use the legacy lang/{lang}/{name}.php.
func candidates(p plugin.Plugin, lang string) []string {
	files := []string{path.Join("lang", lang, p.Component+".php")}
	if p.Type == plugin.TypeModule {
		files = append(files, path.Join("lang", lang, p.Name+".php"))
	}
	return files
}

// Load returns the strings p defines for lang. A missing language file is
// not an error: the returned pack is empty with Found set to false.
func (l *Loader) Load(p plugin.Plugin, lang string) (*Pack, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	pack := &Pack{Language: lang, index: make(map[string]int)}

	for _, rel := range candidates(p, lang) {
		content, err := l.cache.Get(p.Path(rel))
		if err != nil {
			continue
		}
		pack.File = rel
		pack.Found = true
		l.parseDefinitions(pack, rel, content)
		break
	}
	return pack, nil
}

// parseDefinitions extracts every $string['key'] = ... assignment. When the
// file cannot be parsed, or has syntax errors that hide the assignments after
// them, the regular expression fallback is used.
func (l *Loader) parseDefinitions(pack *Pack, rel, content string) {
	tree, err := l.parser.ParsePHP(content)
	if err != nil {
		scanDefinitions(pack, rel, content)
		return
	}
	defer tree.Close()
	if tree.HasError() {
		scanDefinitions(pack, rel, content)
		return
	}

	parser.Walk(tree.Root, func(n *sitter.Node) bool {
		if n.Kind() != "assignment_expression" {
			return true
		}
		left := parser.Field(n, "left", "subscript_expression")
		if left == nil || left.Kind() != "subscript_expression" {
			return true
		}
		children := parser.NamedChildren(left)
		if len(children) != 2 || strings.TrimSpace(tree.Text(children[0])) != "$string" {
			return true
		}
		key, ok := parser.StringLiteral(children[1], tree.Source)
		if !ok || key == "" {
			return true
		}
		pack.add(stringref.Definition{
			Key:  key,
			File: rel,
			Line: int(children[1].StartPosition().Row) + 1,
		})
		return false
	})
}

// scanDefinitions finds definitions with the LangStringDefinition pattern
func scanDefinitions(pack *Pack, rel, content string) {
	for _, m := range patterns.LangStringDefinition.FindAllStringSubmatchIndex(content, -1) {
		pack.add(stringref.Definition{
			Key:  content[m[2]:m[3]],
			File: rel,
			Line: filecache.LineForOffset(content, m[0]),
		})
	}
}
