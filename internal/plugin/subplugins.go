package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jenian/mpci/internal/filecache"
	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/strerr"
)

// SubpluginType is one subplugin type declared by a plugin
type SubpluginType struct {
	Type string // e.g. assignsubmission
	Path string // Path relative to the Moodle root, e.g. mod/assign/submission
	File string // Declaration file relative to the plugin root
	Line int
}

type subpluginsJSON struct {
	PluginTypes    map[string]string `json:"plugintypes"`
	SubpluginTypes map[string]string `json:"subplugintypes"`
}

// SubpluginTypes reads the subplugin types declared in db/subplugins.json or,
// when that file is absent, in the legacy db/subplugins.php.
//
// The legacy file is never executed: only a literal array assigned to
// $subplugins is understood, anything else yields no declarations.
func SubpluginTypes(p Plugin, cache *filecache.Cache, ps *parser.Parser) ([]SubpluginType, error) {
	jsonPath := p.Path("db/subplugins.json")
	content, err := cache.Get(jsonPath)
	if err == nil {
		return parseSubpluginsJSON(content)
	}

	phpPath := p.Path("db/subplugins.php")
	content, err = cache.Get(phpPath)
	if err != nil {
		return nil, nil
	}
	return parseSubpluginsPHP(content, ps)
}

func parseSubpluginsJSON(content string) ([]SubpluginType, error) {
	var decl subpluginsJSON
	if err := json.Unmarshal([]byte(content), &decl); err != nil {
		return nil, strerr.NewFileError(strerr.FileParseError, "db/subplugins.json", err)
	}
	types := decl.PluginTypes
	if len(types) == 0 {
		types = decl.SubpluginTypes
	}

	var result []SubpluginType
	for name, path := range types {
		line := 0
		if offset := strings.Index(content, `"`+name+`"`); offset >= 0 {
			line = filecache.LineForOffset(content, offset)
		}
		result = append(result, SubpluginType{Type: name, Path: path, File: "db/subplugins.json", Line: line})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result, nil
}

func parseSubpluginsPHP(content string, ps *parser.Parser) ([]SubpluginType, error) {
	tree, err := ps.ParsePHP(content)
	if err != nil {
		return nil, strerr.NewFileError(strerr.FileParseError, "db/subplugins.php", err)
	}
	defer tree.Close()

	value, found, ok := parser.LiteralArrayAssignment(tree, "subplugins")
	if !found || !ok {
		return nil, nil
	}

	var result []SubpluginType
	for _, item := range value.Items {
		if item.Key == nil || !item.Key.IsString() || !item.Value.IsString() {
			continue
		}
		result = append(result, SubpluginType{
			Type: item.Key.Str,
			Path: item.Value.Str,
			File: "db/subplugins.php",
			Line: item.Key.Line,
		})
	}
	return result, nil
}

// Subplugins lists the installed subplugins of p. A subplugin type path such
// as mod/assign/submission is resolved inside the plugin directory and every
// child directory becomes a subplugin.
func Subplugins(p Plugin, cache *filecache.Cache, ps *parser.Parser) ([]Plugin, error) {
	types, err := SubpluginTypes(p, cache, ps)
	if err != nil {
		return nil, err
	}

	var subplugins []Plugin
	for _, t := range types {
		dir := p.Path(relativeToPlugin(p, t.Path))
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			sub, err := New(t.Type+"_"+entry.Name(), filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("subplugin %s: %w", entry.Name(), err)
			}
			subplugins = append(subplugins, sub)
		}
	}
	return subplugins, nil
}

// relativeToPlugin strips the plugin's own location from a Moodle root
// relative path: mod/assign/submission becomes submission for mod_assign.
func relativeToPlugin(p Plugin, path string) string {
	path = strings.Trim(filepath.ToSlash(path), "/")
	marker := "/" + p.Name + "/"
	if i := strings.Index("/"+path, marker); i >= 0 {
		return ("/" + path)[i+len(marker):]
	}
	return filepath.Base(path)
}
