package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

const decl = "standard::Pchp.Library.Strings::strpos"

func TestErrorCodeUniqueness(t *testing.T) {
	codes := make(map[ErrorCode]bool)

	metadataCodes := []ErrorCode{
		ErrInvalidTarget, ErrDuplicateAnnotation, ErrMalformedAnnotation,
		ErrImportOrder, ErrImportType, ErrCastToFalseType, ErrInvalidScriptPath,
		ErrInvalidRegistrator, ErrInvalidVisibility, ErrNameConflict,
		ErrRedundantNotNull, ErrInvalidExposedName,
	}

	for _, code := range metadataCodes {
		if codes[code] {
			t.Errorf("Duplicate error code %s", code)
		}
		codes[code] = true
		if !strings.HasPrefix(string(code), "MET8") {
			t.Errorf("Metadata code %s outside MET800-899", code)
		}
	}
}

func TestErrorJSONSerialization(t *testing.T) {
	err := NewCastToFalseType(decl+"#return", "bool")

	jsonStr, jsonErr := err.ToJSON()
	if jsonErr != nil {
		t.Fatalf("Failed to serialize error to JSON: %v", jsonErr)
	}

	var parsed CompilerError
	if unmarshalErr := json.Unmarshal([]byte(jsonStr), &parsed); unmarshalErr != nil {
		t.Fatalf("Failed to parse error JSON: %v", unmarshalErr)
	}

	if parsed.Code != ErrCastToFalseType {
		t.Errorf("Expected code %s, got %s", ErrCastToFalseType, parsed.Code)
	}
	if parsed.Type != "cast_to_false_type" {
		t.Errorf("Expected type 'cast_to_false_type', got '%s'", parsed.Type)
	}
	if parsed.Category != CategoryMetadata {
		t.Errorf("Expected category %s, got %s", CategoryMetadata, parsed.Category)
	}
	if parsed.Declaration != decl+"#return" {
		t.Errorf("Expected declaration %q, got %q", decl+"#return", parsed.Declaration)
	}
	if parsed.Actual != "bool" {
		t.Errorf("Expected actual 'bool', got '%s'", parsed.Actual)
	}
}

func TestErrorListJSONSerialization(t *testing.T) {
	errors := ErrorList{
		NewImportOrder(decl, "locals", 1),
		NewNameConflict("ext::B.Foo", "type", "Foo", "ext::A.Foo"),
	}

	jsonStr, jsonErr := errors.ToJSON()
	if jsonErr != nil {
		t.Fatalf("Failed to serialize error list to JSON: %v", jsonErr)
	}

	var parsed ErrorList
	if unmarshalErr := json.Unmarshal([]byte(jsonStr), &parsed); unmarshalErr != nil {
		t.Fatalf("Failed to parse error list JSON: %v", unmarshalErr)
	}

	if len(parsed) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(parsed))
	}

	empty, _ := ErrorList(nil).ToJSON()
	if empty != "[]" {
		t.Errorf("Expected empty list to encode as [], got %s", empty)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := NewImportType(decl+"#self", "self", "ImportCallerStaticClass", "string", []string{"type descriptor"}).
		WithFile("standard.yaml")

	formatted := err.Format()

	for _, want := range []string{
		"error[MET804]: ",
		"  --> standard.yaml\n",
		"   = declaration: " + decl + "#self\n",
		"   = expected: type descriptor\n",
		"   = found: string\n",
		"   = see: https://docs.pchp-lang.org/errors/MET804\n",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Formatted error should contain %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := NewDuplicateAnnotation(decl, "SourceType")
	got := err.Error()
	want := decl + ": error[MET801]: Annotation SourceType may appear only once"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	got = err.WithFile("standard.yaml").Error()
	if got != "standard.yaml: "+want {
		t.Errorf("Expected file prefix, got %q", got)
	}
}

func TestErrorListFormatting(t *testing.T) {
	errors := ErrorList{
		NewImportOrder(decl, "locals", 1),
		NewRedundantNotNull(decl+"#count", "int"),
	}

	formatted := errors.Error()

	if !strings.Contains(formatted, "metadata: 1 error(s), 1 warning(s), 0 info") {
		t.Errorf("Formatted error list should contain counts:\n%s", formatted)
	}
	if !strings.Contains(formatted, "MET803") || !strings.Contains(formatted, "MET810") {
		t.Error("Formatted error list should contain both diagnostics")
	}
	if (ErrorList{}).Error() != "no errors" {
		t.Error("Empty list should format as 'no errors'")
	}
}

func TestErrorListQueries(t *testing.T) {
	errors := ErrorList{
		NewImportOrder(decl, "locals", 1),
		NewRedundantNotNull(decl+"#count", "int"),
		NewInvalidVisibility(decl, 9),
	}

	errCount, warnCount, infoCount := errors.ErrorCount()
	if errCount != 2 || warnCount != 1 || infoCount != 0 {
		t.Errorf("Unexpected counts %d/%d/%d", errCount, warnCount, infoCount)
	}

	if !errors.HasErrors() || !errors.Blocking(decl) || errors.Blocking(decl+"#count") {
		t.Error("Expected only the declaration with an error to be blocking")
	}

	warningsOnly := ErrorList{NewRedundantNotNull(decl, "int")}
	if warningsOnly.HasErrors() {
		t.Error("Expected HasErrors() to return false when list contains only warnings")
	}

	if got := errors.ForDeclaration(decl); len(got) != 2 {
		t.Errorf("Expected 2 diagnostics for %s, got %d", decl, len(got))
	}

	codes := errors.Codes()
	if len(codes) != 3 || codes[0] != ErrImportOrder || codes[2] != ErrInvalidVisibility {
		t.Errorf("Unexpected codes %v", codes)
	}
}

func TestErrorSeverities(t *testing.T) {
	tests := []struct {
		name     string
		err      *CompilerError
		severity ErrorSeverity
	}{
		{"invalid target", NewInvalidTarget(decl, "Hidden", "parameter", []string{"class"}), SeverityError},
		{"malformed", NewMalformedAnnotation(decl, "Bogus", "unknown kind"), SeverityError},
		{"script path", NewInvalidScriptPath(decl, "/abs.php", "is absolute"), SeverityError},
		{"registrator", NewInvalidRegistrator(decl, "Reg", "is abstract"), SeverityError},
		{"exposed name", NewInvalidExposedName(decl, " "), SeverityError},
		{"not null", NewRedundantNotNull(decl, "int"), SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Severity != tt.severity {
				t.Errorf("Expected severity %s, got %s", tt.severity, tt.err.Severity)
			}
			if tt.err.Category != CategoryMetadata {
				t.Errorf("Expected category %s, got %s", CategoryMetadata, tt.err.Category)
			}
		})
	}
}
