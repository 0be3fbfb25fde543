// Package discovery walks a plugin directory once and sorts its files into
// the categories the checkers consume.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/jenian/mpci/internal/plugin"
)

// Category names a group of plugin files
type Category string

const (
	CategoryPHP       Category = "php"
	CategoryJS        Category = "js"
	CategoryMustache  Category = "mustache"
	CategoryDB        Category = "db"        // PHP files under db/
	CategoryClasses   Category = "classes"   // PHP files under classes/
	CategoryTemplates Category = "templates" // Mustache files under templates/
	CategoryAMD       Category = "amd"       // JavaScript sources under amd/src/
)

// Categories lists every category in reporting order
var Categories = []Category{
	CategoryPHP, CategoryJS, CategoryMustache,
	CategoryDB, CategoryClasses, CategoryTemplates, CategoryAMD,
}

// Summary holds file counts per category
type Summary struct {
	Counts map[Category]int
	Total  int // Distinct categorized files
}

// Metrics describes the cost of the directory walk
type Metrics struct {
	Elapsed      time.Duration
	DirsVisited  int
	FilesVisited int
	ScanCount    int // Number of walks performed, never above 1
}

// Discovery categorizes the files of one plugin. The walk happens on the
// first call to any getter and its results are kept for the lifetime of the
// instance.
type Discovery struct {
	root         string
	excludeDirs  map[string]bool // Directory names to exclude (e.g., "node_modules")
	excludeGlobs []string

	scanned bool
	files   map[Category][]string
	all     []string
	metrics Metrics
}

// New creates a discovery for the plugin with default exclusions
func New(p plugin.Plugin) *Discovery {
	return NewForDir(p.Dir)
}

// NewForDir creates a discovery rooted at dir
func NewForDir(dir string) *Discovery {
	return &Discovery{
		root: dir,
		excludeDirs: map[string]bool{
			".git":         true,
			"node_modules": true,
			"vendor":       true,
		},
	}
}

// AddExcludeDirs adds directory names to skip. Must be called before the
// first getter.
func (d *Discovery) AddExcludeDirs(dirs []string) {
	for _, dir := range dirs {
		d.excludeDirs[dir] = true
	}
}

// SetExcludeGlobs sets glob patterns of files to skip, matched against the
// base name and the plugin relative path
func (d *Discovery) SetExcludeGlobs(globs []string) {
	d.excludeGlobs = globs
}

// matchesGlob checks if a path matches any of the glob patterns
func matchesGlob(rel string, globs []string) bool {
	for _, glob := range globs {
		if matched, _ := filepath.Match(glob, filepath.Base(rel)); matched {
			return true
		}
		if matched, _ := filepath.Match(glob, rel); matched {
			return true
		}
	}
	return false
}

// classify returns the categories of a file from its relative path alone
func classify(rel string) []Category {
	var categories []Category
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".php":
		categories = append(categories, CategoryPHP)
		if strings.HasPrefix(rel, "db/") {
			categories = append(categories, CategoryDB)
		}
		if strings.HasPrefix(rel, "classes/") {
			categories = append(categories, CategoryClasses)
		}
	case ".js":
		categories = append(categories, CategoryJS)
		if strings.HasPrefix(rel, "amd/src/") {
			categories = append(categories, CategoryAMD)
		}
	case ".mustache":
		categories = append(categories, CategoryMustache)
		if strings.HasPrefix(rel, "templates/") {
			categories = append(categories, CategoryTemplates)
		}
	}
	return categories
}

func (d *Discovery) scan() {
	if d.scanned {
		return
	}
	d.scanned = true
	d.files = make(map[Category][]string)
	start := time.Now()

	// WalkDir does not descend into a symlinked root, so walk its target and
	// report paths below the root as given
	walkRoot := d.root
	if resolved, err := filepath.EvalSymlinks(d.root); err == nil {
		walkRoot = resolved
	}

	// A missing or unreadable root is reported as an empty plugin
	_ = filepath.WalkDir(walkRoot, func(walked string, entry fs.DirEntry, err error) error {
		if err != nil {
			if entry != nil && entry.IsDir() && walked != walkRoot {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if walked != walkRoot && d.excludeDirs[entry.Name()] {
				return filepath.SkipDir
			}
			d.metrics.DirsVisited++
			return nil
		}

		if strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			return nil
		}
		d.metrics.FilesVisited++

		rel, err := filepath.Rel(walkRoot, walked)
		if err != nil {
			return nil
		}
		path := filepath.Join(d.root, rel)
		rel = filepath.ToSlash(rel)
		if matchesGlob(rel, d.excludeGlobs) {
			return nil
		}

		categories := classify(rel)
		if len(categories) == 0 {
			return nil
		}
		for _, category := range categories {
			d.files[category] = append(d.files[category], path)
		}
		d.all = append(d.all, path)
		return nil
	})

	d.metrics.Elapsed = time.Since(start)
	d.metrics.ScanCount++
}

// Files returns the absolute paths in a category in walk order
func (d *Discovery) Files(category Category) []string {
	d.scan()
	return append([]string(nil), d.files[category]...)
}

// All returns every categorized file once, in walk order
func (d *Discovery) All() []string {
	d.scan()
	return append([]string(nil), d.all...)
}

// DBFile returns the path of db/{name}, or "" when the plugin has no such file
func (d *Discovery) DBFile(name string) string {
	d.scan()
	want := filepath.Join(d.root, "db", name)
	for _, path := range d.files[CategoryDB] {
		if path == want {
			return path
		}
	}
	return ""
}

// HasDBFile reports whether db/{name} exists
func (d *Discovery) HasDBFile(name string) bool {
	return d.DBFile(name) != ""
}

// ClassFilesIn returns the class files under classes/{subdir}
func (d *Discovery) ClassFilesIn(subdir string) []string {
	d.scan()
	prefix := filepath.Join(d.root, "classes", filepath.FromSlash(strings.Trim(subdir, "/"))) + string(filepath.Separator)
	var files []string
	for _, path := range d.files[CategoryClasses] {
		if strings.HasPrefix(path, prefix) {
			files = append(files, path)
		}
	}
	return files
}

// Summary returns the number of files per category
func (d *Discovery) Summary() Summary {
	d.scan()
	summary := Summary{Counts: make(map[Category]int), Total: len(d.all)}
	for _, category := range Categories {
		summary.Counts[category] = len(d.files[category])
	}
	return summary
}

// Metrics returns the walk metrics. Calling it does not trigger a walk.
func (d *Discovery) Metrics() Metrics {
	return d.metrics
}

// String renders the summary on one line, e.g. "php=3 js=1 ... total=4"
func (s Summary) String() string {
	parts := make([]string, 0, len(Categories)+1)
	for _, category := range Categories {
		parts = append(parts, fmt.Sprintf("%s=%d", category, s.Counts[category]))
	}
	parts = append(parts, fmt.Sprintf("total=%d", s.Total))
	return strings.Join(parts, " ")
}
