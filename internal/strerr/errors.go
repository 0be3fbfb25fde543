// Package strerr holds the error taxonomy of the string validator.
//
// Every error is a *ValidationError carrying a severity and free-form context.
// CheckerError and FileError specialise it and can be matched with errors.As.
package strerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Severity of a validation error
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// FileErrorKind classifies file level failures
type FileErrorKind string

const (
	FileNotFound    FileErrorKind = "not-found"
	FileNotReadable FileErrorKind = "not-readable"
	FileParseError  FileErrorKind = "parse"
	FileContent     FileErrorKind = "content"
)

// ValidationError is the common string validation error
type ValidationError struct {
	Severity Severity
	Message  string
	Context  map[string]any
	Err      error // Optional wrapped cause
}

// NewError creates an error with severity "error"
func NewError(message string, context map[string]any) *ValidationError {
	return &ValidationError{Severity: SeverityError, Message: message, Context: context}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.FormattedMessage(), e.Err)
	}
	return e.FormattedMessage()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsWarning reports whether the error should only be surfaced as a warning
func (e *ValidationError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// FormattedMessage returns the message followed by the scalar context values.
// Keys are sorted so the output is stable.
func (e *ValidationError) FormattedMessage() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := e.Context[k].(type) {
		case string, bool, int, int64, uint, float64:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}
	if len(parts) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// CheckerError reports that a checker could not interpret its target
type CheckerError struct {
	*ValidationError
	Checker string
}

// NewCheckerError creates a checker error for the named checker.
// The checker name is added to the context.
func NewCheckerError(checker, message string, context map[string]any) *CheckerError {
	ctx := map[string]any{"checker": checker}
	for k, v := range context {
		ctx[k] = v
	}
	return &CheckerError{
		ValidationError: &ValidationError{Severity: SeverityError, Message: message, Context: ctx},
		Checker:         checker,
	}
}

// WithCause attaches the underlying error
func (e *CheckerError) WithCause(err error) *CheckerError {
	e.Err = err
	return e
}

// AsWarning downgrades the error severity
func (e *CheckerError) AsWarning() *CheckerError {
	e.Severity = SeverityWarning
	return e
}

func (e *CheckerError) Unwrap() error {
	return e.ValidationError
}

// FileError reports a problem with one file
type FileError struct {
	*ValidationError
	Kind FileErrorKind
	Path string
}

// NewFileError creates a file error of the given kind
func NewFileError(kind FileErrorKind, path string, err error) *FileError {
	message := map[FileErrorKind]string{
		FileNotFound:    "file not found",
		FileNotReadable: "file not readable",
		FileParseError:  "failed to parse file",
		FileContent:     "unexpected file content",
	}[kind]
	severity := SeverityError
	if kind == FileContent {
		severity = SeverityWarning
	}
	return &FileError{
		ValidationError: &ValidationError{
			Severity: severity,
			Message:  message,
			Context:  map[string]any{"file": path},
			Err:      err,
		},
		Kind: kind,
		Path: path,
	}
}

func (e *FileError) Unwrap() error {
	return e.ValidationError
}

// IsNotFound reports whether err is a FileError of kind not-found
func IsNotFound(err error) bool {
	var fe *FileError
	return errors.As(err, &fe) && fe.Kind == FileNotFound
}
