package checkers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/jenian/mpci/internal/discovery"
	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/stringref"
)

// Exceptions requires the error code strings that exception subclasses pass
// to their parent constructor with this plugin as component
type Exceptions struct{ base }

func (c *Exceptions) Check(in Input) ([]stringref.Reference, error) {
	var refs []stringref.Reference
	err := eachClass(in, c.Name(), in.Files.Files(discovery.CategoryClasses), func(tree *parser.Tree, class parser.Class, rel string) {
		if !strings.HasSuffix(strings.ToLower(parser.ShortName(class.Extends)), "exception") {
			return
		}
		constructor := class.Method("__construct")
		if constructor == nil {
			return
		}
		for _, call := range parser.Calls(constructor) {
			if call.Kind() != "scoped_call_expression" || !isParentCall(tree, call) {
				continue
			}
			if !strings.EqualFold(parser.CallName(call, tree.Source), "__construct") {
				continue
			}
			args := parser.CallArguments(call)
			if len(args) < 2 {
				continue
			}
			code, okCode := parser.StringLiteral(args[0], tree.Source)
			component, okComponent := parser.StringLiteral(args[1], tree.Source)
			if !okCode || !okComponent || !in.Plugin.Owns(component) {
				continue
			}
			ref := reference(in, code, rel, int(args[0].StartPosition().Row)+1,
				"exception `%s` error code", class.Name)
			ref.Component = component
			refs = append(refs, ref)
		}
	})
	return refs, err
}

func isParentCall(tree *parser.Tree, call *sitter.Node) bool {
	scope := parser.Field(call, "scope", "relative_scope", "name")
	return scope != nil && strings.EqualFold(strings.TrimSpace(tree.Text(scope)), "parent")
}

// Grades requires grade_{itemname}_name for every named grade item returned
// by get_itemname_mapping_for_component
type Grades struct{ base }

func (c *Grades) Check(in Input) ([]stringref.Reference, error) {
	var refs []stringref.Reference
	err := eachClass(in, c.Name(), in.Files.ClassFilesIn("grades"), func(tree *parser.Tree, class parser.Class, rel string) {
		method := class.Method("get_itemname_mapping_for_component")
		if method == nil {
			return
		}
		for _, ret := range parser.ReturnValues(method) {
			mapping := parser.DecodeValue(ret, tree.Source)
			if mapping.Kind != parser.KindArray {
				continue
			}
			for _, item := range mapping.List() {
				if !item.IsString() || item.Str == "" {
					continue
				}
				key := "grade_" + item.Str + "_name"
				refs = append(refs, reference(in, key, rel, item.Line, "grade item `%s`", item.Str))
			}
		}
	})
	return refs, err
}

// privacyCalls maps metadata collection methods to the argument positions of
// their string identifiers. Arrays at a position contribute every string
// value they hold.
var privacyCalls = map[string][]int{
	"add_database_table":         {1, 2},
	"add_external_location_link": {1, 2},
	"link_external_location":     {1, 2},
	"add_subsystem_link":         {1, 2},
	"add_plugintype_link":        {1, 2},
	"link_subsystem":             {1},
	"add_user_preference":        {1},
}

// privacyMetadata is the namespace of the provider interfaces
const privacyMetadata = `core_privacy\local\metadata\`

// isPrivacyProvider reports whether class implements a metadata provider
// interface
func isPrivacyProvider(class parser.Class) bool {
	for _, iface := range class.Implements {
		if strings.HasPrefix(iface, privacyMetadata) {
			return true
		}
	}
	return false
}

// Privacy requires the strings of privacy providers: the reason returned by
// get_reason and the summaries and field descriptions of get_metadata
type Privacy struct{ base }

func (c *Privacy) Check(in Input) ([]stringref.Reference, error) {
	var refs []stringref.Reference
	err := eachClass(in, c.Name(), in.Files.ClassFilesIn("privacy"), func(tree *parser.Tree, class parser.Class, rel string) {
		if !isPrivacyProvider(class) {
			return
		}
		if method := class.Method("get_reason"); method != nil {
			for _, ret := range parser.ReturnValues(method) {
				if key, ok := parser.StringLiteral(ret, tree.Source); ok {
					refs = append(refs, reference(in, key, rel, int(ret.StartPosition().Row)+1,
						"privacy provider `%s` reason", class.Name))
				}
			}
		}

		method := class.Method("get_metadata")
		if method == nil {
			return
		}
		for _, call := range parser.Calls(method) {
			name := parser.CallName(call, tree.Source)
			positions, ok := privacyCalls[name]
			if !ok {
				continue
			}
			args := parser.CallArguments(call)
			for _, pos := range positions {
				if pos >= len(args) {
					continue
				}
				value := parser.DecodeValue(args[pos], tree.Source)
				candidates := []parser.Value{value}
				if value.Kind == parser.KindArray {
					candidates = value.List()
				}
				for _, v := range candidates {
					if !v.IsString() || v.Str == "" {
						continue
					}
					refs = append(refs, reference(in, v.Str, rel, v.Line, "privacy metadata `%s`", name))
				}
			}
		}
	})
	return refs, err
}

// Search requires search:{area} for every search area class extending one of
// the core_search base classes
type Search struct{ base }

func (c *Search) Check(in Input) ([]stringref.Reference, error) {
	var refs []stringref.Reference
	err := eachClass(in, c.Name(), in.Files.ClassFilesIn("search"), func(tree *parser.Tree, class parser.Class, rel string) {
		if !strings.HasPrefix(class.Extends, `core_search\`) {
			return
		}
		refs = append(refs, reference(in, "search:"+class.Name, rel, class.Line,
			"search area `%s`", class.Name))
	})
	return refs, err
}
