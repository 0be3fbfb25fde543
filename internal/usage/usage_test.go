package usage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jenian/mpci/internal/discovery"
	"github.com/jenian/mpci/internal/filecache"
	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/plugin"
	"github.com/jenian/mpci/internal/stringref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStringCallsFromJS(t *testing.T) {
	tests := []struct {
		name     string
		matches  []map[string]parser.Capture
		expected []Match
	}{
		{
			name: "get_string with component",
			matches: []map[string]parser.Capture{
				{
					"fn":        {Text: "get_string"},
					"key":       {Text: "'confirm'", Line: 3},
					"component": {Text: "'local_ci'"},
				},
			},
			expected: []Match{{Key: "confirm", Component: "local_ci", Line: 3}},
		},
		{
			name: "getString with double quotes",
			matches: []map[string]parser.Capture{
				{
					"fn":        {Text: "getString"},
					"key":       {Text: `"delete"`, Line: 1},
					"component": {Text: `"core"`},
				},
			},
			expected: []Match{{Key: "delete", Component: "core", Line: 1}},
		},
		{
			name: "key only",
			matches: []map[string]parser.Capture{
				{
					"fn":  {Text: "get_string"},
					"key": {Text: "'ok'", Line: 2},
				},
			},
			expected: []Match{{Key: "ok", Line: 2}},
		},
		{
			name: "other function",
			matches: []map[string]parser.Capture{
				{
					"fn":        {Text: "notify"},
					"key":       {Text: "'x'"},
					"component": {Text: "'local_ci'"},
				},
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractStringCallsFromJS(tt.matches)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func writePlugin(t *testing.T, component string, files map[string]string) plugin.Plugin {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	p, err := plugin.New(component, root)
	require.NoError(t, err)
	return p
}

func byKey(refs []stringref.Reference) map[string]stringref.Reference {
	out := make(map[string]stringref.Reference)
	for _, ref := range refs {
		if _, ok := out[ref.Key]; !ok {
			out[ref.Key] = ref
		}
	}
	return out
}

func TestFinder_Find(t *testing.T) {
	p := writePlugin(t, "mod_forum", map[string]string{
		"view.php": `<?php
echo get_string('viewtitle', 'mod_forum');
print_string('heading', 'forum');
echo get_string('edit');
echo get_string('other', 'local_x');
$mform->addHelpButton('subject', 'subject', 'forum');
$PAGE->requires->strings_for_js([
    'confirmdelete',
    'deleted',
], 'mod_forum');
$task = new \lang_string('taskcleanup', 'mod_forum');
`,
		"lang/en/forum.php": `<?php
$string['x'] = get_string('notareference', 'mod_forum');
`,
		"templates/discussion.mustache": `<div>
{{#str}} replies, mod_forum {{/str}}
{{#str}} cancel {{/str}}
</div>`,
		"amd/src/repository.js": `import {getString, getStrings} from 'core/str';

export const init = async() => {
    const title = await getString('modaltitle', 'mod_forum');
    const core = await getString('ok', 'core');
    const labels = await getStrings([
        {key: 'labelone', component: 'mod_forum'},
    ]);
};
`,
	})

	finder := NewFinder(filecache.New(), parser.NewParser())
	refs, err := finder.Find(p, discovery.New(p))
	require.NoError(t, err)

	found := byKey(refs)
	for _, key := range []string{
		"viewtitle", "heading", "subject", "subject_help", "confirmdelete", "deleted",
		"taskcleanup", "replies", "modaltitle", "labelone",
	} {
		assert.Contains(t, found, key)
	}
	for _, key := range []string{"edit", "other", "cancel", "ok", "notareference"} {
		assert.NotContains(t, found, key)
	}

	assert.Equal(t, stringref.Context{File: "view.php", Line: 2, Description: "get_string call"}, found["viewtitle"].Context)
	assert.Equal(t, 9, found["deleted"].Context.Line)
	assert.Equal(t, 2, found["replies"].Context.Line)
	assert.Equal(t, "amd/src/repository.js", found["modaltitle"].Context.File)
	assert.Equal(t, 4, found["modaltitle"].Context.Line)
	assert.Equal(t, 7, found["labelone"].Context.Line)
}

func TestFinder_EmptyPlugin(t *testing.T) {
	p := writePlugin(t, "local_ci", nil)
	refs, err := NewFinder(filecache.New(), parser.NewParser()).Find(p, discovery.New(p))
	require.NoError(t, err)
	assert.Empty(t, refs)
}
