package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/jenian/mpci/internal/stringref"
	"github.com/jenian/mpci/internal/validation"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// ColorSupported reports whether f is a terminal that understands ANSI colors
func ColorSupported(f *os.File) bool {
	// Check if f is a terminal
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}
	// On Windows, enable ANSI escape sequences (handled in formatter_windows.go)
	return enableANSI(f)
}

// Options controls how results are rendered
type Options struct {
	JSON     bool
	Strict   bool // Warnings count as failures
	NoHeader bool // Omit the per plugin heading in human output
	Color    bool
}

// Formatter renders validation results to a writer
type Formatter struct {
	w    io.Writer
	opts Options
}

// NewFormatter creates a formatter writing to w
func NewFormatter(w io.Writer, opts Options) *Formatter {
	return &Formatter{w: w, opts: opts}
}

// getColor returns the color code if colors are enabled, empty string otherwise
func (f *Formatter) getColor(code string) string {
	if f.opts.Color {
		return code
	}
	return ""
}

// JSONOutput represents the JSON output format
type JSONOutput struct {
	Valid   bool           `json:"valid"`
	Strict  bool           `json:"strict"`
	Plugins []PluginOutput `json:"plugins"`
}

// PluginOutput is the JSON report of one plugin
type PluginOutput struct {
	Component string             `json:"component"`
	Language  string             `json:"language"`
	Valid     bool               `json:"valid"`
	Errors    []validation.Entry `json:"errors"`
	Warnings  []validation.Entry `json:"warnings"`
}

// Format writes the results of one or more plugins
func (f *Formatter) Format(results []*validation.Result) error {
	if f.opts.JSON {
		return f.formatJSON(results)
	}
	return f.formatHumanReadable(results)
}

// formatJSON outputs results in JSON format
func (f *Formatter) formatJSON(results []*validation.Result) error {
	output := JSONOutput{
		Valid:   !HasIssues(results, f.opts.Strict),
		Strict:  f.opts.Strict,
		Plugins: []PluginOutput{},
	}
	for _, result := range results {
		plugin := PluginOutput{
			Component: result.Component,
			Language:  result.Language,
			Valid:     result.IsValid(f.opts.Strict),
			Errors:    result.Errors(),
			Warnings:  result.Warnings(),
		}
		if plugin.Errors == nil {
			plugin.Errors = []validation.Entry{}
		}
		if plugin.Warnings == nil {
			plugin.Warnings = []validation.Entry{}
		}
		output.Plugins = append(output.Plugins, plugin)
	}

	encoder := json.NewEncoder(f.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// formatHumanReadable outputs results in human-readable format
func (f *Formatter) formatHumanReadable(results []*validation.Result) error {
	for i, result := range results {
		if i > 0 {
			fmt.Fprintln(f.w)
		}
		if !f.opts.NoHeader {
			fmt.Fprintf(f.w, "%s%s%s%s (%s)\n\n", f.getColor(colorBold), f.getColor(colorCyan), result.Component, f.getColor(colorReset), result.Language)
		}
		f.formatResult(result)
	}
	return nil
}

func (f *Formatter) formatResult(result *validation.Result) {
	errs := result.Errors()
	warnings := result.Warnings()

	if len(errs) > 0 {
		fmt.Fprintf(f.w, "%s%sErrors:%s\n\n", f.getColor(colorBold), f.getColor(colorRed), f.getColor(colorReset))
		for _, entry := range errs {
			f.formatEntry(entry, colorRed)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(f.w, "%s%sWarnings:%s\n\n", f.getColor(colorBold), f.getColor(colorYellow), f.getColor(colorReset))
		for _, entry := range warnings {
			f.formatEntry(entry, colorYellow)
		}
	}

	switch {
	case len(errs) == 0 && len(warnings) == 0:
		fmt.Fprintf(f.w, "%s%s✓ No issues found. All strings are properly defined.%s\n", f.getColor(colorGreen), f.getColor(colorBold), f.getColor(colorReset))
	case result.IsValid(f.opts.Strict):
		fmt.Fprintf(f.w, "%s%s✓ No missing strings (%d warning(s)).%s\n", f.getColor(colorGreen), f.getColor(colorBold), len(warnings), f.getColor(colorReset))
	default:
		fmt.Fprintf(f.w, "%s%s✗ %d error(s), %d warning(s).%s\n", f.getColor(colorRed), f.getColor(colorBold), len(errs), len(warnings), f.getColor(colorReset))
	}
}

func (f *Formatter) formatEntry(entry validation.Entry, color string) {
	fmt.Fprintf(f.w, "  %s%s%s\n", f.getColor(color), entry.Message, f.getColor(colorReset))
	for _, ctx := range entry.Contexts {
		f.formatContext(ctx)
	}
	fmt.Fprintln(f.w)
}

func (f *Formatter) formatContext(ctx stringref.Context) {
	filePath := ctx.File
	if filePath == "" {
		filePath = "<unknown>"
	}
	fmt.Fprintf(f.w, "    %sin:%s %s%s%s", f.getColor(colorGray), f.getColor(colorReset), f.getColor(colorCyan), filePath, f.getColor(colorReset))
	if ctx.Line > 0 {
		fmt.Fprintf(f.w, ":%s%d%s", f.getColor(colorYellow), ctx.Line, f.getColor(colorReset))
	}
	if ctx.Description != "" {
		fmt.Fprintf(f.w, " %s%s%s", f.getColor(colorGray), ctx.Description, f.getColor(colorReset))
	}
	fmt.Fprintln(f.w)
}

// HasIssues returns true if any result fails validation
// Note: warnings only count in strict mode
func HasIssues(results []*validation.Result, strict bool) bool {
	for _, result := range results {
		if !result.IsValid(strict) {
			return true
		}
	}
	return false
}

// FormatError formats an error message
func FormatError(err error) string {
	return fmt.Sprintf("Error: %s\n", err)
}
