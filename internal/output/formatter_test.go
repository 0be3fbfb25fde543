package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jenian/mpci/internal/stringref"
	"github.com/jenian/mpci/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *validation.Result {
	r := validation.NewResult("local_ci", "en")
	r.AddError(validation.Entry{
		Key:     "ci:view",
		Message: "missing string `ci:view`",
		Contexts: []stringref.Context{
			{File: "db/access.php", Line: 5, Description: "capability `local/ci:view` requires string `ci:view`"},
		},
	})
	r.AddWarning(validation.Entry{
		Key:      "old",
		Message:  "unused string `old`",
		Contexts: []stringref.Context{{File: "lang/en/local_ci.php", Line: 3}},
	})
	return r
}

func TestFormat_Human(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(&buf, Options{}).Format([]*validation.Result{sampleResult()})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "local_ci (en)")
	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "missing string `ci:view`")
	assert.Contains(t, out, "in: db/access.php:5 capability")
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "✗ 1 error(s), 1 warning(s).")
	assert.NotContains(t, out, "\033[", "colors must be off unless requested")
}

func TestFormat_HumanClean(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(&buf, Options{NoHeader: true}).Format([]*validation.Result{validation.NewResult("local_ci", "en")})
	require.NoError(t, err)
	assert.Equal(t, "✓ No issues found. All strings are properly defined.\n", buf.String())
}

func TestFormat_JSON(t *testing.T) {
	clean := validation.NewResult("local_other", "en")
	var buf bytes.Buffer
	err := NewFormatter(&buf, Options{JSON: true}).Format([]*validation.Result{sampleResult(), clean})
	require.NoError(t, err)

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.False(t, out.Valid)
	require.Len(t, out.Plugins, 2)
	assert.Equal(t, "local_ci", out.Plugins[0].Component)
	assert.Equal(t, "ci:view", out.Plugins[0].Errors[0].Key)
	assert.Equal(t, 5, out.Plugins[0].Errors[0].Contexts[0].Line)
	assert.True(t, out.Plugins[1].Valid)
	assert.NotNil(t, out.Plugins[1].Errors)
	assert.Contains(t, buf.String(), `"errors": []`)
}

func TestHasIssues(t *testing.T) {
	warnOnly := validation.NewResult("local_ci", "en")
	warnOnly.AddWarning(validation.Entry{Key: "x"})

	assert.False(t, HasIssues([]*validation.Result{warnOnly}, false))
	assert.True(t, HasIssues([]*validation.Result{warnOnly}, true))
	assert.True(t, HasIssues([]*validation.Result{sampleResult()}, false))
	assert.False(t, HasIssues(nil, true))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Error: boom\n", FormatError(errors.New("boom")))
}
