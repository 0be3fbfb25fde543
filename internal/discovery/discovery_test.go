package discovery

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func createFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, file := range files {
		path := filepath.Join(root, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", file, err)
		}
		if err := os.WriteFile(path, []byte("<?php\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", file, err)
		}
	}
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			t.Fatalf("Rel(%s): %v", path, err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path     string
		expected []Category
	}{
		{"lib.php", []Category{CategoryPHP}},
		{"db/access.php", []Category{CategoryPHP, CategoryDB}},
		{"classes/privacy/provider.php", []Category{CategoryPHP, CategoryClasses}},
		{"amd/src/main.js", []Category{CategoryJS, CategoryAMD}},
		{"amd/build/main.min.js", []Category{CategoryJS}},
		{"templates/view.mustache", []Category{CategoryMustache, CategoryTemplates}},
		{"other/view.mustache", []Category{CategoryMustache}},
		{"README.md", nil},
		{"db/install.xml", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := classify(tt.path)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("classify(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestDiscovery_Categories(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir,
		"version.php",
		"db/access.php",
		"db/caches.php",
		"classes/privacy/provider.php",
		"classes/search/post.php",
		"classes/task/cleanup.php",
		"amd/src/repository.js",
		"templates/main.mustache",
		".hidden.php",
		"node_modules/pkg/index.js",
		"vendor/lib/lib.php",
		".git/hooks/pre-commit.php",
	)

	d := NewForDir(tmpDir)

	if got := len(d.Files(CategoryPHP)); got != 6 {
		t.Errorf("Expected 6 PHP files, got %d: %v", got, rels(t, tmpDir, d.Files(CategoryPHP)))
	}
	if got := rels(t, tmpDir, d.Files(CategoryDB)); !reflect.DeepEqual(got, []string{"db/access.php", "db/caches.php"}) {
		t.Errorf("Unexpected db files: %v", got)
	}
	if got := rels(t, tmpDir, d.Files(CategoryAMD)); !reflect.DeepEqual(got, []string{"amd/src/repository.js"}) {
		t.Errorf("Unexpected amd files: %v", got)
	}
	if got := rels(t, tmpDir, d.Files(CategoryTemplates)); !reflect.DeepEqual(got, []string{"templates/main.mustache"}) {
		t.Errorf("Unexpected template files: %v", got)
	}
	if got := len(d.All()); got != 8 {
		t.Errorf("Expected 8 categorized files, got %d", got)
	}

	if !d.HasDBFile("access.php") {
		t.Error("Expected db/access.php to be found")
	}
	if d.HasDBFile("messages.php") {
		t.Error("db/messages.php should not exist")
	}
	if got := rels(t, tmpDir, d.ClassFilesIn("privacy")); !reflect.DeepEqual(got, []string{"classes/privacy/provider.php"}) {
		t.Errorf("Unexpected privacy classes: %v", got)
	}
	if got := len(d.ClassFilesIn("")); got != 3 {
		t.Errorf("Expected 3 class files, got %d", got)
	}

	summary := d.Summary()
	if summary.Total != 8 || summary.Counts[CategoryClasses] != 3 {
		t.Errorf("Unexpected summary: %s", summary)
	}
}

func TestDiscovery_ScansOnce(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir, "lib.php", "db/access.php")

	d := NewForDir(tmpDir)
	if d.Metrics().ScanCount != 0 {
		t.Fatal("Discovery should not scan before the first getter")
	}

	first := d.Files(CategoryPHP)
	createFiles(t, tmpDir, "late.php")
	second := d.Files(CategoryPHP)
	_ = d.All()
	_ = d.Summary()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated calls returned different results: %v vs %v", first, second)
	}
	metrics := d.Metrics()
	if metrics.ScanCount != 1 {
		t.Errorf("Expected exactly one scan, got %d", metrics.ScanCount)
	}
	if metrics.FilesVisited != 2 || metrics.DirsVisited != 2 {
		t.Errorf("Unexpected metrics: %+v", metrics)
	}
}

func TestDiscovery_MissingRoot(t *testing.T) {
	d := NewForDir(filepath.Join(t.TempDir(), "missing"))

	if files := d.All(); len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
	if d.HasDBFile("access.php") {
		t.Error("Missing root should have no db files")
	}
	if d.Summary().Total != 0 {
		t.Error("Missing root should have an empty summary")
	}
}

func TestDiscovery_Exclusions(t *testing.T) {
	tmpDir := t.TempDir()
	createFiles(t, tmpDir, "lib.php", "tests/fixtures/sample.php", "cli/tool.php")

	d := NewForDir(tmpDir)
	d.AddExcludeDirs([]string{"tests"})
	d.SetExcludeGlobs([]string{"cli/*"})

	if got := rels(t, tmpDir, d.All()); !reflect.DeepEqual(got, []string{"lib.php"}) {
		t.Errorf("Expected only lib.php, got %v", got)
	}
}

func TestDiscovery_SymlinkedRoot(t *testing.T) {
	real := t.TempDir()
	createFiles(t, real, "version.php", "db/access.php", "classes/privacy/provider.php")

	link := filepath.Join(t.TempDir(), "localci")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	d := NewForDir(link)
	got := rels(t, link, d.Files(CategoryPHP))
	expected := []string{"classes/privacy/provider.php", "db/access.php", "version.php"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Files(php) through symlink = %v, want %v", got, expected)
	}
	if d.DBFile("access.php") != filepath.Join(link, "db", "access.php") {
		t.Errorf("DBFile() = %q, want a path below the link", d.DBFile("access.php"))
	}
}
