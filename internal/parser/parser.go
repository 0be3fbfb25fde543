package parser

import (
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser handles Tree-Sitter parsing of plugin sources
type Parser struct {
	languages map[string]*sitter.Language
	mu        sync.RWMutex
}

// Tree is a parsed source file. Nodes obtained from it are only valid until
// Close is called.
type Tree struct {
	Source []byte
	Root   *sitter.Node
	tree   *sitter.Tree
}

// Close releases the underlying syntax tree
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// HasError reports whether the parser had to recover from syntax errors
func (t *Tree) HasError() bool {
	return t.Root != nil && t.Root.HasError()
}

// Text returns the source text covered by n
func (t *Tree) Text(n *sitter.Node) string {
	return Text(n, t.Source)
}

// Capture is a single named capture of a query match
type Capture struct {
	Text      string
	StartByte int
	Line      int // 1-based
}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{
		languages: make(map[string]*sitter.Language),
	}
}

// getLanguage returns a language grammar for the given language, loading it if needed
func (p *Parser) getLanguage(lang string) (*sitter.Language, error) {
	p.mu.RLock()
	if language, ok := p.languages[lang]; ok {
		p.mu.RUnlock()
		return language, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if language, ok := p.languages[lang]; ok {
		return language, nil
	}

	language, err := loadLanguage(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
	}

	p.languages[lang] = language
	return language, nil
}

// Parse builds a syntax tree for content. The caller must Close the tree.
func (p *Parser) Parse(content []byte, lang string) (*Tree, error) {
	language, err := p.getLanguage(lang)
	if err != nil {
		return nil, err
	}

	// A fresh tree-sitter parser per file, they are not safe to share
	tsParser := sitter.NewParser()
	defer tsParser.Close()
	if err := tsParser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language %s: %w", lang, err)
	}

	tree := tsParser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse returned no tree for %s source", lang)
	}
	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, fmt.Errorf("parse returned no root node for %s source", lang)
	}

	return &Tree{Source: content, Root: root, tree: tree}, nil
}

// ParsePHP parses PHP source
func (p *Parser) ParsePHP(content string) (*Tree, error) {
	return p.Parse([]byte(content), LanguagePHP)
}

// Query runs a tree-sitter query against tree and returns one map per match,
// keyed by capture name.
func (p *Parser) Query(tree *Tree, lang string, queryStr string) ([]map[string]Capture, error) {
	language, err := p.getLanguage(lang)
	if err != nil {
		return nil, err
	}

	queryStr = strings.TrimSpace(queryStr)
	if queryStr == "" {
		return nil, fmt.Errorf("empty query for language: %s", lang)
	}

	query, queryErr := sitter.NewQuery(language, queryStr)
	if queryErr != nil {
		return nil, fmt.Errorf("invalid %s query: %v", lang, queryErr)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	matches := cursor.Matches(query, tree.Root, tree.Source)
	captureNames := query.CaptureNames()

	var results []map[string]Capture
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		captures := make(map[string]Capture)
		for _, capture := range match.Captures {
			if int(capture.Index) >= len(captureNames) {
				continue
			}
			node := &capture.Node
			captures[captureNames[capture.Index]] = Capture{
				Text:      Text(node, tree.Source),
				StartByte: int(node.StartByte()),
				Line:      int(node.StartPosition().Row) + 1,
			}
		}
		results = append(results, captures)
	}

	return results, nil
}

// Text returns the source text covered by n
func Text(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	start, end := int(n.StartByte()), int(n.EndByte())
	if start < 0 || end > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

// Walk visits n and its named descendants depth first. Returning false from
// fn skips the children of the visited node.
func Walk(n *sitter.Node, fn func(n *sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		Walk(n.NamedChild(i), fn)
	}
}

// NamedChildren returns the named children of n
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	children := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// ChildOfKind returns the first named child of n with one of the given kinds
func ChildOfKind(n *sitter.Node, kinds ...string) *sitter.Node {
	for _, child := range NamedChildren(n) {
		for _, kind := range kinds {
			if child.Kind() == kind {
				return child
			}
		}
	}
	return nil
}

// Field returns the child stored under field name, falling back to the first
// named child of one of kinds for grammars that do not name the field.
func Field(n *sitter.Node, field string, kinds ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	if child := n.ChildByFieldName(field); child != nil {
		return child
	}
	if len(kinds) > 0 {
		return ChildOfKind(n, kinds...)
	}
	return nil
}
