// Package patterns is the library of regular expressions describing how
// plugins reference strings in source text.
//
// Every pattern accepts single or double quotes and arbitrary whitespace,
// including newlines, around delimiters. Go's RE2 has no backreferences, so
// the opening and closing quote are not required to match.
package patterns

import "regexp"

const (
	q   = `['"]`     // Either quote
	str = `([^'"]+)` // Captured identifier inside quotes
	opt = `([^'"]*)` // Captured, possibly empty, identifier
	arr = `(?:\[|array\s*\()`
	end = `(?:\]|\))`
)

var (
	// GetString matches get_string('key', 'component').
	// Group 1: key, group 2: component (empty when omitted).
	GetString = regexp.MustCompile(`\bget_string\s*\(\s*` + q + str + q + `\s*(?:,\s*` + q + opt + q + `)?`)

	// PrintString matches print_string('key', 'component').
	// Group 1: key, group 2: component.
	PrintString = regexp.MustCompile(`\bprint_string\s*\(\s*` + q + str + q + `\s*(?:,\s*` + q + opt + q + `)?`)

	// LangStringObject matches new lang_string('key', 'component'), optionally
	// namespaced with a leading backslash.
	// Group 1: key, group 2: component.
	LangStringObject = regexp.MustCompile(`\bnew\s+\\?lang_string\s*\(\s*` + q + str + q + `\s*(?:,\s*` + q + opt + q + `)?`)

	// AddHelpButton matches $mform->addHelpButton('element', 'key', 'component').
	// The form API also requires key_help.
	// Group 1: key, group 2: component.
	AddHelpButton = regexp.MustCompile(`->\s*addHelpButton\s*\(\s*` + q + `[^'"]*` + q + `\s*,\s*` + q + str + q + `\s*(?:,\s*` + q + opt + q + `)?`)

	// StringsForJS matches $PAGE->requires->strings_for_js(['a', 'b'], 'component').
	// The array body may span several lines.
	// Group 1: array body, group 2: component.
	StringsForJS = regexp.MustCompile(`->\s*strings_for_js\s*\(\s*` + arr + `(?s:(.*?))` + end + `\s*,\s*` + q + str + q)

	// QuotedString matches any quoted literal. Group 1: contents.
	QuotedString = regexp.MustCompile(q + `([^'"]*)` + q)

	// MustacheStr matches {{#str}} key, component {{/str}} and the cleanstr variant.
	// Group 1: key, group 2: component (empty when omitted).
	MustacheStr = regexp.MustCompile(`\{\{#\s*(?:str|cleanstr)\s*\}\}\s*([a-zA-Z0-9_:\-./]+)\s*(?:,\s*([a-zA-Z0-9_]+))?`)

	// JSStringObject matches the {key: 'x', component: 'y'} objects passed to
	// core/str getStrings.
	// Group 1: key, group 2: component.
	JSStringObject = regexp.MustCompile(`\{\s*key\s*:\s*` + q + str + q + `\s*,\s*component\s*:\s*` + q + str + q)

	// LangStringDefinition matches $string['key'] = in a language pack.
	// Group 1: key.
	LangStringDefinition = regexp.MustCompile(`\$string\s*\[\s*` + q + str + q + `\s*\]\s*=`)

	// PluginComponent matches $plugin->component = 'type_name' in version.php.
	// Group 1: component.
	PluginComponent = regexp.MustCompile(`\$plugin\s*->\s*component\s*=\s*` + q + `([a-z][a-z0-9_]*)` + q)
)

// Reference is one regex match with its identifier, component and offset
type Reference struct {
	Key       string
	Component string
	Offset    int
}

// FindReferences returns every (key, component) pair matched by re in content.
// re must capture the key in group 1 and the component in group 2.
func FindReferences(re *regexp.Regexp, content string) []Reference {
	var refs []Reference
	for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
		ref := Reference{Offset: m[0]}
		if len(m) > 3 && m[2] >= 0 {
			ref.Key = content[m[2]:m[3]]
		}
		if len(m) > 5 && m[4] >= 0 {
			ref.Component = content[m[4]:m[5]]
		}
		refs = append(refs, ref)
	}
	return refs
}
