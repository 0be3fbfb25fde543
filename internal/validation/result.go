package validation

import (
	"github.com/jenian/mpci/internal/stringref"
)

// Entry is one finding of a validation run
type Entry struct {
	Key      string              `json:"key,omitempty"`
	Message  string              `json:"message"`
	Checker  string              `json:"checker,omitempty"` // Set for checker failures
	Contexts []stringref.Context `json:"contexts,omitempty"`
}

// Result accumulates the errors and warnings of one validation run.
// Entries are only ever appended.
type Result struct {
	Component string
	Language  string
	errors    []Entry
	warnings  []Entry
}

// NewResult creates an empty result for a plugin
func NewResult(component, language string) *Result {
	return &Result{Component: component, Language: language}
}

// AddError records a missing definition or a failure
func (r *Result) AddError(entry Entry) {
	r.errors = append(r.errors, entry)
}

// AddWarning records an unused definition or a soft issue
func (r *Result) AddWarning(entry Entry) {
	r.warnings = append(r.warnings, entry)
}

// Errors returns the recorded errors in insertion order
func (r *Result) Errors() []Entry {
	return append([]Entry(nil), r.errors...)
}

// Warnings returns the recorded warnings in insertion order
func (r *Result) Warnings() []Entry {
	return append([]Entry(nil), r.warnings...)
}

// IsValid reports whether the run passed. In strict mode warnings fail the
// run as well; the entries themselves keep their classification.
func (r *Result) IsValid(strict bool) bool {
	if len(r.errors) > 0 {
		return false
	}
	return !strict || len(r.warnings) == 0
}
