package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ValueKind is the kind of a decoded PHP literal
type ValueKind int

const (
	KindExpr ValueKind = iota // Anything that is not a literal
	KindString
	KindNumber
	KindBool
	KindNull
	KindArray
)

// Value is a PHP literal decoded from the syntax tree
type Value struct {
	Kind   ValueKind
	Str    string      // Decoded string, or raw source for other kinds
	Items  []ArrayItem // Elements of an array, in source order
	Offset int         // Byte offset of the literal in the source
	Line   int         // 1-based line of the literal
}

// ArrayItem is one element of a PHP array literal.
// Key is nil for list style elements.
type ArrayItem struct {
	Key   *Value
	Value Value
}

// IsString reports whether v is a string literal
func (v Value) IsString() bool {
	return v.Kind == KindString
}

// Get returns the value stored under the string key
func (v Value) Get(key string) (Value, bool) {
	for _, item := range v.Items {
		if item.Key != nil && item.Key.Kind == KindString && item.Key.Str == key {
			return item.Value, true
		}
	}
	return Value{}, false
}

// List returns the element values of an array in order
func (v Value) List() []Value {
	values := make([]Value, 0, len(v.Items))
	for _, item := range v.Items {
		values = append(values, item.Value)
	}
	return values
}

// StringKeys returns the string keys of an array in order
func (v Value) StringKeys() []Value {
	var keys []Value
	for _, item := range v.Items {
		if item.Key != nil && item.Key.Kind == KindString {
			keys = append(keys, *item.Key)
		}
	}
	return keys
}

var stringContentKinds = map[string]bool{
	"string_content":  true,
	"string_value":    true,
	"escape_sequence": true,
}

// StringLiteral decodes a single or double quoted PHP string without
// interpolation. ok is false for any other node.
func StringLiteral(n *sitter.Node, source []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	text := Text(n, source)
	switch n.Kind() {
	case "string":
		text = strings.TrimPrefix(text, "b")
		if len(text) < 2 || text[0] != '\'' || text[len(text)-1] != '\'' {
			return "", false
		}
		return unescapeSingle(text[1 : len(text)-1]), true
	case "encapsed_string":
		for _, child := range NamedChildren(n) {
			if !stringContentKinds[child.Kind()] {
				return "", false
			}
		}
		text = strings.TrimPrefix(text, "b")
		if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
			return "", false
		}
		return unescapeDouble(text[1 : len(text)-1]), true
	}
	return "", false
}

func unescapeSingle(s string) string {
	return strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(s)
}

func unescapeDouble(s string) string {
	return strings.NewReplacer(
		`\"`, `"`, `\\`, `\`, `\$`, `$`, `\n`, "\n", `\t`, "\t", `\r`, "\r",
	).Replace(s)
}

// DecodeValue converts an expression node into a Value. Nested expressions
// that are not literals are kept as KindExpr with their raw source.
func DecodeValue(n *sitter.Node, source []byte) Value {
	v := Value{
		Kind:   KindExpr,
		Str:    Text(n, source),
		Offset: int(n.StartByte()),
		Line:   int(n.StartPosition().Row) + 1,
	}

	if s, ok := StringLiteral(n, source); ok {
		v.Kind = KindString
		v.Str = s
		return v
	}

	switch n.Kind() {
	case "integer", "float":
		v.Kind = KindNumber
	case "boolean":
		v.Kind = KindBool
	case "null":
		v.Kind = KindNull
	case "parenthesized_expression":
		if inner := NamedChildren(n); len(inner) == 1 {
			return DecodeValue(inner[0], source)
		}
	case "array_creation_expression":
		v.Kind = KindArray
		for _, element := range NamedChildren(n) {
			if element.Kind() != "array_element_initializer" {
				continue
			}
			if item, ok := decodeArrayElement(element, source); ok {
				v.Items = append(v.Items, item)
			}
		}
	}
	return v
}

func decodeArrayElement(element *sitter.Node, source []byte) (ArrayItem, bool) {
	var before, after []*sitter.Node
	seenArrow := false
	for i := uint(0); i < element.ChildCount(); i++ {
		child := element.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "=>" {
			seenArrow = true
			continue
		}
		if !child.IsNamed() {
			continue
		}
		if seenArrow {
			after = append(after, child)
		} else {
			before = append(before, child)
		}
	}

	if seenArrow {
		if len(before) == 0 || len(after) == 0 {
			return ArrayItem{}, false
		}
		key := DecodeValue(before[0], source)
		return ArrayItem{Key: &key, Value: DecodeValue(after[len(after)-1], source)}, true
	}
	if len(before) == 0 {
		return ArrayItem{}, false
	}
	return ArrayItem{Value: DecodeValue(before[len(before)-1], source)}, true
}

// FindAssignment returns the right hand side of the first assignment to the
// variable $name anywhere in the tree.
func FindAssignment(tree *Tree, name string) *sitter.Node {
	var rhs *sitter.Node
	want := "$" + strings.TrimPrefix(name, "$")
	Walk(tree.Root, func(n *sitter.Node) bool {
		if rhs != nil {
			return false
		}
		if n.Kind() != "assignment_expression" {
			return true
		}
		left := Field(n, "left", "variable_name")
		if left != nil && left.Kind() == "variable_name" && strings.TrimSpace(tree.Text(left)) == want {
			rhs = Field(n, "right")
			if rhs == nil {
				if children := NamedChildren(n); len(children) == 2 {
					rhs = children[1]
				}
			}
			return false
		}
		return true
	})
	return rhs
}

// LiteralArrayAssignment decodes the array literal assigned to $name.
// found is false when the variable is never assigned; ok is false when it is
// assigned something other than a literal array.
func LiteralArrayAssignment(tree *Tree, name string) (value Value, found bool, ok bool) {
	rhs := FindAssignment(tree, name)
	if rhs == nil {
		return Value{}, false, false
	}
	value = DecodeValue(rhs, tree.Source)
	return value, true, value.Kind == KindArray
}

// CallArguments returns the value nodes of the arguments of a call node
func CallArguments(call *sitter.Node) []*sitter.Node {
	args := Field(call, "arguments", "arguments")
	if args == nil {
		return nil
	}
	var values []*sitter.Node
	for _, arg := range NamedChildren(args) {
		if arg.Kind() != "argument" {
			values = append(values, arg)
			continue
		}
		children := NamedChildren(arg)
		if len(children) == 0 {
			continue
		}
		values = append(values, children[len(children)-1])
	}
	return values
}

// CallName returns the called function or method name of a call node
func CallName(call *sitter.Node, source []byte) string {
	switch call.Kind() {
	case "function_call_expression":
		return lastSegment(Text(Field(call, "function", "name", "qualified_name"), source))
	case "member_call_expression", "nullsafe_member_call_expression", "scoped_call_expression":
		return Text(Field(call, "name", "name"), source)
	case "object_creation_expression":
		return lastSegment(Text(ChildOfKind(call, "name", "qualified_name"), source))
	}
	return ""
}

func lastSegment(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, `\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
