package usage

import (
	"strings"

	"github.com/jenian/mpci/internal/parser"
)

// JavaScriptQuery is the Tree-Sitter query for string lookups in AMD modules:
// get_string('key', 'component'), Str.get_string(...) and getString(...).
// The first pattern captures calls with a component, the second calls whose
// only argument is the key.
// Note: We don't use predicates here, filtering is done in ExtractStringCallsFromJS
const JavaScriptQuery = `
[
  (call_expression
    function: [
      (identifier) @fn
      (member_expression property: (property_identifier) @fn)
    ]
    arguments: (arguments . (string) @key . (string) @component)
  )
  (call_expression
    function: [
      (identifier) @fn
      (member_expression property: (property_identifier) @fn)
    ]
    arguments: (arguments . (string) @key .)
  )
]
`

// jsStringFunctions are the lookup functions of core/str and M.util
var jsStringFunctions = map[string]bool{
	"get_string": true,
	"getString":  true,
}

// Match is a string lookup found in JavaScript
type Match struct {
	Key       string
	Component string
	Line      int
}

// ExtractStringCallsFromJS turns query matches into string lookups
func ExtractStringCallsFromJS(matches []map[string]parser.Capture) []Match {
	var results []Match
	for _, match := range matches {
		fn, ok := match["fn"]
		if !ok || !jsStringFunctions[fn.Text] {
			continue
		}
		key, ok := match["key"]
		if !ok {
			continue
		}
		keyText := trimQuotes(key.Text)
		if keyText == "" {
			continue
		}
		results = append(results, Match{
			Key:       keyText,
			Component: trimQuotes(match["component"].Text),
			Line:      key.Line,
		})
	}
	return results
}

// trimQuotes removes the quotes of a JavaScript string literal
func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
