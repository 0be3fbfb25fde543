package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jenian/mpci/internal/patterns"
)

// TypeModule is the plugin type of activity modules
const TypeModule = "mod"

// Plugin identifies the plugin under analysis
type Plugin struct {
	Component string // Frankenstyle name, {type}_{name}
	Type      string
	Name      string
	Dir       string // Absolute root directory
}

// New creates a plugin from its component name and root directory
func New(component, dir string) (Plugin, error) {
	pluginType, name, ok := strings.Cut(component, "_")
	if !ok || pluginType == "" || name == "" {
		return Plugin{}, fmt.Errorf("invalid component name %q, expected {type}_{name}", component)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return Plugin{}, fmt.Errorf("invalid plugin directory: %w", err)
	}
	return Plugin{
		Component: component,
		Type:      pluginType,
		Name:      name,
		Dir:       absDir,
	}, nil
}

// Load reads the component name from the version.php file of dir
func Load(dir string) (Plugin, error) {
	versionFile := filepath.Join(dir, "version.php")
	data, err := os.ReadFile(versionFile)
	if err != nil {
		return Plugin{}, fmt.Errorf("failed to read %s: %w", versionFile, err)
	}
	m := patterns.PluginComponent.FindStringSubmatch(string(data))
	if m == nil {
		return Plugin{}, fmt.Errorf("no $plugin->component found in %s", versionFile)
	}
	return New(m[1], dir)
}

// Aliases returns every component name that refers to this plugin in string
// calls. Activity modules are also addressed by their bare name.
func (p Plugin) Aliases() []string {
	if p.Type == TypeModule {
		return []string{p.Component, p.Name}
	}
	return []string{p.Component}
}

// Owns reports whether component refers to this plugin
func (p Plugin) Owns(component string) bool {
	for _, alias := range p.Aliases() {
		if component == alias {
			return true
		}
	}
	return false
}

// Path returns the absolute path of a file relative to the plugin root
func (p Plugin) Path(rel string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(rel))
}

// Rel returns path relative to the plugin root using forward slashes
func (p Plugin) Rel(path string) string {
	rel, err := filepath.Rel(p.Dir, path)
	if err != nil || rel == "" || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (p Plugin) String() string {
	return p.Component
}
