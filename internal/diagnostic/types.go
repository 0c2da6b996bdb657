package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"cardbridge/internal/common"
)

// Diagnostics holds all diagnostic information from converting one record.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Family is the field family this relates to (if any), e.g. "addresses".
	Family string
	// FieldPath identifies the field inside the family (if any), e.g. "ADR-1".
	FieldPath string
	// Err is the underlying error for error diagnostics.
	Err error
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError records err as a failure of the given field family. The code is
// derived from the failure kind err wraps.
func (d *Diagnostics) AddError(family, fieldPath string, err error) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity:  DiagnosticError,
		Code:      CodeOf(err),
		Message:   err.Error(),
		Family:    family,
		FieldPath: fieldPath,
		Err:       err,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, family, fieldPath string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity:  DiagnosticWarning,
		Code:      code,
		Message:   message,
		Family:    family,
		FieldPath: fieldPath,
	})
}

// AddInfo adds an info diagnostic. Infos note lossless choices made during
// conversion.
func (d *Diagnostics) AddInfo(code, message, family, fieldPath string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity:  DiagnosticInfo,
		Code:      code,
		Message:   message,
		Family:    family,
		FieldPath: fieldPath,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Families returns the distinct families that failed, in report order.
func (d *Diagnostics) Families() []string {
	var families []string

	seen := make(map[string]bool)

	for _, e := range d.Errors {
		if !seen[e.Family] {
			seen[e.Family] = true
			families = append(families, e.Family)
		}
	}

	return families
}

// Error returns a combined error from all error diagnostics, or nil if valid.
// The result matches every wrapped failure kind under errors.Is.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	errs := make([]error, 0, len(d.Errors))
	for _, e := range d.Errors {
		errs = append(errs, e)
	}

	return errors.Join(errs...)
}

// Error implements the error interface for error diagnostics.
func (d Diagnostic) Error() string {
	return d.String()
}

// Unwrap returns the underlying error.
func (d Diagnostic) Unwrap() error {
	return d.Err
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Family != "" {
		prefix = append(prefix, "["+d.Family+"]")
	}

	if d.FieldPath != "" {
		prefix = append(prefix, d.FieldPath)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

// Summary returns a one-line summary such as "2 errors, 1 warning".
func (d *Diagnostics) Summary() string {
	return fmt.Sprintf("%d %s, %d %s",
		len(d.Errors), plural(len(d.Errors), "error"),
		len(d.Warnings), plural(len(d.Warnings), "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}

	return word + "s"
}
