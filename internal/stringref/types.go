package stringref

import "fmt"

// Context locates a single use of a string identifier
type Context struct {
	File        string `json:"file"`                  // Path relative to the plugin root
	Line        int    `json:"line,omitempty"`        // 1-based line number, 0 when unknown
	Description string `json:"description,omitempty"` // Human readable description of the usage
}

// String renders the context as file:line (description)
func (c Context) String() string {
	loc := c.File
	if loc == "" {
		loc = "<unknown>"
	}
	if c.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, c.Line)
	}
	if c.Description != "" {
		return fmt.Sprintf("%s (%s)", loc, c.Description)
	}
	return loc
}

// Reference is a string identifier discovered by a checker or a source scan
type Reference struct {
	Key       string  // The string identifier
	Component string  // Component the string belongs to, empty means the plugin itself
	Context   Context // Where the reference was found
	Optional  bool    // True if a missing definition is only worth a warning
}

// Definition is a string identifier declared in a language pack
type Definition struct {
	Key  string
	File string // Path relative to the plugin root
	Line int
}
