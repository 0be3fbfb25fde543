// Package usage finds the strings a plugin looks up in its PHP code,
// Mustache templates and AMD JavaScript modules.
package usage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jenian/mpci/internal/discovery"
	"github.com/jenian/mpci/internal/filecache"
	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/patterns"
	"github.com/jenian/mpci/internal/plugin"
	"github.com/jenian/mpci/internal/stringref"
)

// phpIdiom pairs a pattern with the usage it describes
type phpIdiom struct {
	pattern     *regexp.Regexp
	description string
	suffixes    []string // Extra strings implied by the call, e.g. _help
}

var phpIdioms = []phpIdiom{
	{pattern: patterns.GetString, description: "get_string call"},
	{pattern: patterns.PrintString, description: "print_string call"},
	{pattern: patterns.LangStringObject, description: "lang_string object"},
	{pattern: patterns.AddHelpButton, description: "help button", suffixes: []string{"_help"}},
}

// Finder scans the source files of a plugin for string lookups
type Finder struct {
	cache  *filecache.Cache
	parser *parser.Parser
}

// NewFinder creates a finder reading files through cache
func NewFinder(cache *filecache.Cache, p *parser.Parser) *Finder {
	return &Finder{cache: cache, parser: p}
}

// Find returns every lookup of a string owned by p. Lookups of other
// components are ignored.
func (f *Finder) Find(p plugin.Plugin, files *discovery.Discovery) ([]stringref.Reference, error) {
	var refs []stringref.Reference

	for _, path := range files.Files(discovery.CategoryPHP) {
		rel := p.Rel(path)
		// Language packs define strings, they do not use them
		if strings.HasPrefix(rel, "lang/") {
			continue
		}
		content, err := f.cache.Get(path)
		if err != nil {
			continue
		}
		refs = append(refs, findInPHP(p, rel, content)...)
	}

	for _, path := range files.Files(discovery.CategoryMustache) {
		content, err := f.cache.Get(path)
		if err != nil {
			continue
		}
		refs = append(refs, findInMustache(p, p.Rel(path), content)...)
	}

	for _, path := range files.Files(discovery.CategoryAMD) {
		content, err := f.cache.Get(path)
		if err != nil {
			continue
		}
		found, err := f.findInJS(p, p.Rel(path), content)
		if err != nil {
			return nil, err
		}
		refs = append(refs, found...)
	}

	return refs, nil
}

func newRef(key, component, rel string, line int, description string) stringref.Reference {
	return stringref.Reference{
		Key:       key,
		Component: component,
		Context:   stringref.Context{File: rel, Line: line, Description: description},
	}
}

func findInPHP(p plugin.Plugin, rel, content string) []stringref.Reference {
	var refs []stringref.Reference
	for _, idiom := range phpIdioms {
		for _, match := range patterns.FindReferences(idiom.pattern, content) {
			if !p.Owns(match.Component) {
				continue
			}
			line := filecache.LineForOffset(content, match.Offset)
			refs = append(refs, newRef(match.Key, match.Component, rel, line, idiom.description))
			for _, suffix := range idiom.suffixes {
				refs = append(refs, newRef(match.Key+suffix, match.Component, rel, line, idiom.description))
			}
		}
	}

	for _, m := range patterns.StringsForJS.FindAllStringSubmatchIndex(content, -1) {
		component := content[m[4]:m[5]]
		if !p.Owns(component) {
			continue
		}
		body := content[m[2]:m[3]]
		for _, q := range patterns.QuotedString.FindAllStringSubmatchIndex(body, -1) {
			key := body[q[2]:q[3]]
			if key == "" {
				continue
			}
			line := filecache.LineForOffset(content, m[2]+q[0])
			refs = append(refs, newRef(key, component, rel, line, "strings_for_js call"))
		}
	}
	return refs
}

func findInMustache(p plugin.Plugin, rel, content string) []stringref.Reference {
	var refs []stringref.Reference
	for _, match := range patterns.FindReferences(patterns.MustacheStr, content) {
		if !p.Owns(match.Component) {
			continue
		}
		line := filecache.LineForOffset(content, match.Offset)
		refs = append(refs, newRef(match.Key, match.Component, rel, line, "str helper"))
	}
	return refs
}

func (f *Finder) findInJS(p plugin.Plugin, rel, content string) ([]stringref.Reference, error) {
	var refs []stringref.Reference

	tree, err := f.parser.Parse([]byte(content), parser.LanguageJavaScript)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rel, err)
	}
	matches, err := f.parser.Query(tree, parser.LanguageJavaScript, JavaScriptQuery)
	tree.Close()
	if err != nil {
		return nil, err
	}
	for _, match := range ExtractStringCallsFromJS(matches) {
		if !p.Owns(match.Component) {
			continue
		}
		refs = append(refs, newRef(match.Key, match.Component, rel, match.Line, "get_string call"))
	}

	for _, match := range patterns.FindReferences(patterns.JSStringObject, content) {
		if !p.Owns(match.Component) {
			continue
		}
		line := filecache.LineForOffset(content, match.Offset)
		refs = append(refs, newRef(match.Key, match.Component, rel, line, "getStrings request"))
	}
	return refs, nil
}
