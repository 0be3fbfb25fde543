package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Class describes a PHP class declaration
type Class struct {
	Name       string
	Namespace  string
	Extends    string   // Fully qualified parent class, empty if none
	Implements []string // Fully qualified interfaces
	Line       int
	Node       *sitter.Node
	source     []byte
}

// FullName returns the namespaced class name without a leading backslash
func (c Class) FullName() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + `\` + c.Name
}

// Method returns the declaration of the named method
func (c Class) Method(name string) *sitter.Node {
	body := Field(c.Node, "body", "declaration_list")
	for _, member := range NamedChildren(body) {
		if member.Kind() != "method_declaration" {
			continue
		}
		methodName := Field(member, "name", "name")
		if methodName != nil && strings.EqualFold(Text(methodName, c.source), name) {
			return member
		}
	}
	return nil
}

// Classes returns every class declared in the tree with parent and interface
// names resolved against the file's namespace and use statements.
func Classes(tree *Tree) []Class {
	namespace := ""
	imports := make(map[string]string)
	var classes []Class

	Walk(tree.Root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "namespace_definition":
			if name := Field(n, "name", "namespace_name"); name != nil {
				namespace = strings.Trim(tree.Text(name), `\ `)
			}
			return true
		case "namespace_use_declaration":
			for _, clause := range NamedChildren(n) {
				if clause.Kind() != "namespace_use_clause" {
					continue
				}
				full, alias := splitUseClause(tree.Text(clause))
				imports[alias] = full
			}
			return false
		case "class_declaration":
			class := Class{
				Name:      tree.Text(Field(n, "name", "name")),
				Namespace: namespace,
				Line:      int(n.StartPosition().Row) + 1,
				Node:      n,
				source:    tree.Source,
			}
			if base := ChildOfKind(n, "base_clause"); base != nil {
				if parent := ChildOfKind(base, "name", "qualified_name"); parent != nil {
					class.Extends = resolveName(tree.Text(parent), namespace, imports)
				}
			}
			if ifaces := ChildOfKind(n, "class_interface_clause"); ifaces != nil {
				for _, iface := range NamedChildren(ifaces) {
					if iface.Kind() == "name" || iface.Kind() == "qualified_name" {
						class.Implements = append(class.Implements, resolveName(tree.Text(iface), namespace, imports))
					}
				}
			}
			classes = append(classes, class)
			return false
		}
		return true
	})
	return classes
}

// splitUseClause splits "a\b\c as d" into ("a\b\c", "d")
func splitUseClause(clause string) (full, alias string) {
	clause = strings.TrimSpace(clause)
	parts := strings.Fields(clause)
	if len(parts) == 3 && strings.EqualFold(parts[1], "as") {
		return strings.TrimPrefix(parts[0], `\`), parts[2]
	}
	full = strings.TrimPrefix(clause, `\`)
	return full, lastSegment(full)
}

// resolveName turns a class reference into a fully qualified name
func resolveName(name, namespace string, imports map[string]string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}
	first := name
	rest := ""
	if i := strings.Index(name, `\`); i >= 0 {
		first, rest = name[:i], name[i:]
	}
	if full, ok := imports[first]; ok {
		return full + rest
	}
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}

// ShortName returns the last segment of a qualified class name
func ShortName(name string) string {
	return lastSegment(name)
}

// Calls returns every call expression below n
func Calls(n *sitter.Node) []*sitter.Node {
	var calls []*sitter.Node
	Walk(n, func(child *sitter.Node) bool {
		switch child.Kind() {
		case "function_call_expression", "member_call_expression", "nullsafe_member_call_expression",
			"scoped_call_expression", "object_creation_expression":
			calls = append(calls, child)
		}
		return true
	})
	return calls
}

// ReturnValues returns the expressions returned below n
func ReturnValues(n *sitter.Node) []*sitter.Node {
	var values []*sitter.Node
	Walk(n, func(child *sitter.Node) bool {
		switch child.Kind() {
		case "anonymous_function", "anonymous_function_creation_expression", "arrow_function", "function_definition":
			// Returns inside closures belong to the closure
			return child == n
		case "return_statement":
			if children := NamedChildren(child); len(children) > 0 {
				values = append(values, children[0])
			}
			return false
		}
		return true
	})
	return values
}
