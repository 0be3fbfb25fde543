// Package requirements knows which strings a plugin must define because the
// framework asks for them, independently of the plugin's source.
package requirements

import (
	"github.com/jenian/mpci/internal/plugin"
)

// Requirements produces the framework mandated strings of one plugin type
type Requirements interface {
	RequiredStrings() []string
	RecommendedStrings() []string
	// ConventionPatterns are wildcard patterns of strings the framework
	// looks up by naming convention. Defined strings matching them are never
	// reported as unused.
	ConventionPatterns() []string
}

// Set is the resolved requirement set of a plugin
type Set struct {
	Required           []string
	Recommended        []string
	ConventionPatterns []string
	AppVersion         string
}

// Contains reports whether key is required or recommended
func (s Set) Contains(key string) bool {
	for _, k := range s.Required {
		if k == key {
			return true
		}
	}
	for _, k := range s.Recommended {
		if k == key {
			return true
		}
	}
	return false
}

// Generic is the baseline every plugin type must satisfy
type Generic struct{}

func (Generic) RequiredStrings() []string {
	return []string{"pluginname"}
}

func (Generic) RecommendedStrings() []string {
	return nil
}

func (Generic) ConventionPatterns() []string {
	return []string{"*_help", "*_link"}
}

// Module adds the strings an activity module needs for the course page and
// the activity chooser
type Module struct {
	Generic
}

func (m Module) RequiredStrings() []string {
	return append(m.Generic.RequiredStrings(), "modulename", "modulenameplural")
}

func (m Module) RecommendedStrings() []string {
	return append(m.Generic.RecommendedStrings(), "pluginadministration")
}

func (m Module) ConventionPatterns() []string {
	return append(m.Generic.ConventionPatterns(), "modulename_help", "modulename_link")
}

// registry maps plugin types to their requirements. Types without an entry
// get Generic.
var registry = map[string]func() Requirements{
	plugin.TypeModule: func() Requirements { return Module{} },
}

// For returns the requirements variant of a plugin type
func For(pluginType string) Requirements {
	if constructor, ok := registry[pluginType]; ok {
		return constructor()
	}
	return Generic{}
}

// Resolve returns the requirement set of p. appVersion is the target
// application version, empty when unknown.
func Resolve(p plugin.Plugin, appVersion string) Set {
	reqs := For(p.Type)
	return Set{
		Required:           reqs.RequiredStrings(),
		Recommended:        reqs.RecommendedStrings(),
		ConventionPatterns: reqs.ConventionPatterns(),
		AppVersion:         appVersion,
	}
}
