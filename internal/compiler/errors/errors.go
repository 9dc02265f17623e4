// Package errors provides structured diagnostics for the pchp front end.
// It defines error codes, categories and formatting for both human-readable
// terminal output and machine-parseable JSON.
package errors

import "encoding/json"

// ErrorCode represents a unique diagnostic code
type ErrorCode string

// ErrorCategory represents the category of a diagnostic
type ErrorCategory string

const (
	// CategoryMetadata represents symbol metadata errors (MET800-899)
	CategoryMetadata ErrorCategory = "metadata"
)

// ErrorSeverity decides whether a diagnostic keeps its declaration out of
// the symbol table.
type ErrorSeverity string

const (
	// SeverityError drops the declaration.
	SeverityError ErrorSeverity = "error"
	// SeverityWarning keeps the declaration.
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// Blocking reports whether a diagnostic of this severity drops its declaration.
func (s ErrorSeverity) Blocking() bool { return s == SeverityError }

// CompilerError is a diagnostic attributed to a single declaration.
//
// Declaration is the path of the offending declaration, such as
// "standard::Pchp.Library.Strings::strpos#haystack". File is the manifest it
// was read from, filled in by callers that know it.
type CompilerError struct {
	Code          ErrorCode     `json:"code"`
	Type          string        `json:"type"`
	Category      ErrorCategory `json:"category"`
	Severity      ErrorSeverity `json:"severity"`
	Message       string        `json:"message"`
	Declaration   string        `json:"declaration"`
	File          string        `json:"file,omitempty"`
	Expected      string        `json:"expected,omitempty"`
	Actual        string        `json:"actual,omitempty"`
	Suggestion    string        `json:"suggestion,omitempty"`
	Documentation string        `json:"documentation,omitempty"`
}

func (e *CompilerError) Error() string { return FormatCompact(e) }

// Format renders the multi-line form.
func (e *CompilerError) Format() string { return FormatError(e) }

// ToJSON encodes e as indented JSON.
func (e *CompilerError) ToJSON() (string, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WithFile sets the manifest file name for the error
func (e *CompilerError) WithFile(file string) *CompilerError {
	e.File = file
	return e
}

// WithExpected sets the expected value for the error
func (e *CompilerError) WithExpected(expected string) *CompilerError {
	e.Expected = expected
	return e
}

// WithActual sets the actual value for the error
func (e *CompilerError) WithActual(actual string) *CompilerError {
	e.Actual = actual
	return e
}

// WithSuggestion sets a suggestion for fixing the error
func (e *CompilerError) WithSuggestion(suggestion string) *CompilerError {
	e.Suggestion = suggestion
	return e
}

// ErrorList collects every diagnostic of a run, in discovery order.
type ErrorList []*CompilerError

func (el ErrorList) Error() string { return FormatErrorList(el) }

// HasErrors reports whether any diagnostic is blocking.
func (el ErrorList) HasErrors() bool {
	for _, e := range el {
		if e.Severity.Blocking() {
			return true
		}
	}
	return false
}

// Blocking reports whether any diagnostic attributed to path is blocking.
func (el ErrorList) Blocking(path string) bool {
	return el.ForDeclaration(path).HasErrors()
}

// ForDeclaration returns the diagnostics attributed to path.
func (el ErrorList) ForDeclaration(path string) ErrorList {
	var out ErrorList
	for _, e := range el {
		if e.Declaration == path {
			out = append(out, e)
		}
	}
	return out
}

// Codes returns the code of every diagnostic, in order.
func (el ErrorList) Codes() []ErrorCode {
	codes := make([]ErrorCode, len(el))
	for i, e := range el {
		codes[i] = e.Code
	}
	return codes
}

// ToJSON encodes the list as an indented JSON array; an empty list is "[]".
func (el ErrorList) ToJSON() (string, error) {
	if el == nil {
		el = ErrorList{}
	}
	data, err := json.MarshalIndent(el, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ErrorCount counts the diagnostics of each severity.
func (el ErrorList) ErrorCount() (errors, warnings, info int) {
	for _, e := range el {
		switch e.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			info++
		}
	}
	return
}

const docsBase = "https://docs.pchp-lang.org/errors/"

func newError(code ErrorCode, typ string, severity ErrorSeverity, message, declaration string) *CompilerError {
	return &CompilerError{
		Code:          code,
		Type:          typ,
		Category:      CategoryMetadata,
		Severity:      severity,
		Message:       message,
		Declaration:   declaration,
		Documentation: docsBase + string(code),
	}
}
