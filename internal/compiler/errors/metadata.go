package errors

import (
	"fmt"
	"strings"
)

// Metadata error codes (MET800-899)
const (
	// ErrInvalidTarget indicates an annotation attached to a declaration kind it does not apply to
	ErrInvalidTarget ErrorCode = "MET800"
	// ErrDuplicateAnnotation indicates a non-repeatable annotation used more than once
	ErrDuplicateAnnotation ErrorCode = "MET801"
	// ErrMalformedAnnotation indicates an unknown annotation kind or a payload of the wrong type
	ErrMalformedAnnotation ErrorCode = "MET802"
	// ErrImportOrder indicates an import parameter following an ordinary parameter
	ErrImportOrder ErrorCode = "MET803"
	// ErrImportType indicates an import parameter of the wrong host type
	ErrImportType ErrorCode = "MET804"
	// ErrCastToFalseType indicates CastToFalse on a return type it cannot convert
	ErrCastToFalseType ErrorCode = "MET805"
	// ErrInvalidScriptPath indicates a script path that is not root-relative
	ErrInvalidScriptPath ErrorCode = "MET806"
	// ErrInvalidRegistrator indicates an extension registrator that cannot be instantiated
	ErrInvalidRegistrator ErrorCode = "MET807"
	// ErrInvalidVisibility indicates an unknown member accessibility level
	ErrInvalidVisibility ErrorCode = "MET808"
	// ErrNameConflict indicates two declarations exposing the same name
	ErrNameConflict ErrorCode = "MET809"
	// ErrRedundantNotNull indicates NotNull on a type that can never be null
	ErrRedundantNotNull ErrorCode = "MET810"
	// ErrInvalidExposedName indicates an unusable explicit source-type name
	ErrInvalidExposedName ErrorCode = "MET811"
)

// NewInvalidTarget creates a MET800 error
func NewInvalidTarget(decl, annotation, target string, allowed []string) *CompilerError {
	return newError(
		ErrInvalidTarget,
		"invalid_target",
		SeverityError,
		fmt.Sprintf("Annotation %s cannot be applied to a %s", annotation, target),
		decl,
	).WithExpected(strings.Join(allowed, ", ")).
		WithActual(target).
		WithSuggestion(fmt.Sprintf("Move %s to a supported declaration or remove it", annotation))
}

// NewDuplicateAnnotation creates a MET801 error
func NewDuplicateAnnotation(decl, annotation string) *CompilerError {
	return newError(
		ErrDuplicateAnnotation,
		"duplicate_annotation",
		SeverityError,
		fmt.Sprintf("Annotation %s may appear only once", annotation),
		decl,
	).WithSuggestion("Remove the duplicate annotation")
}

// NewMalformedAnnotation creates a MET802 error
func NewMalformedAnnotation(decl, annotation, reason string) *CompilerError {
	return newError(
		ErrMalformedAnnotation,
		"malformed_annotation",
		SeverityError,
		fmt.Sprintf("Malformed annotation %s: %s", annotation, reason),
		decl,
	).WithSuggestion("Check the annotation kind and its payload fields")
}

// NewImportOrder creates a MET803 error
func NewImportOrder(decl, param string, position int) *CompilerError {
	return newError(
		ErrImportOrder,
		"import_parameter_order",
		SeverityError,
		fmt.Sprintf("Import parameter '%s' at position %d follows an ordinary parameter", param, position),
		decl,
	).WithSuggestion("Move all import parameters before the first ordinary parameter")
}

// NewImportType creates a MET804 error
func NewImportType(decl, param, annotation, actual string, expected []string) *CompilerError {
	return newError(
		ErrImportType,
		"import_parameter_type",
		SeverityError,
		fmt.Sprintf("Parameter '%s' annotated %s has an unsupported type", param, annotation),
		decl,
	).WithExpected(strings.Join(expected, " or ")).
		WithActual(actual)
}

// NewCastToFalseType creates a MET805 error
func NewCastToFalseType(decl, actual string) *CompilerError {
	return newError(
		ErrCastToFalseType,
		"cast_to_false_type",
		SeverityError,
		"CastToFalse requires an integer, floating-point or nullable return type",
		decl,
	).WithExpected("int, float, or a reference/nullable type").
		WithActual(actual).
		WithSuggestion("Return bool directly or remove CastToFalse")
}

// NewInvalidScriptPath creates a MET806 error
func NewInvalidScriptPath(decl, path, reason string) *CompilerError {
	return newError(
		ErrInvalidScriptPath,
		"invalid_script_path",
		SeverityError,
		fmt.Sprintf("Script path '%s' %s", path, reason),
		decl,
	).WithSuggestion("Use a path relative to the repository root, e.g. 'lib/index.php'")
}

// NewInvalidRegistrator creates a MET807 error
func NewInvalidRegistrator(decl, registrator, reason string) *CompilerError {
	return newError(
		ErrInvalidRegistrator,
		"invalid_registrator",
		SeverityError,
		fmt.Sprintf("Extension registrator '%s' %s", registrator, reason),
		decl,
	).WithSuggestion("Point the registrator at a concrete class with a parameterless constructor")
}

// NewInvalidVisibility creates a MET808 error
func NewInvalidVisibility(decl string, level int) *CompilerError {
	return newError(
		ErrInvalidVisibility,
		"invalid_visibility",
		SeverityError,
		fmt.Sprintf("Unknown member accessibility level %d", level),
		decl,
	).WithExpected("1 (private), 3 (protected) or 6 (public)").
		WithActual(fmt.Sprintf("%d", level))
}

// NewNameConflict creates a MET809 error
func NewNameConflict(decl, kind, name, previous string) *CompilerError {
	return newError(
		ErrNameConflict,
		"name_conflict",
		SeverityError,
		fmt.Sprintf("%s '%s' is already declared by %s", kind, name, previous),
		decl,
	).WithSuggestion("Give one of the declarations an explicit exposed name or hide it")
}

// NewRedundantNotNull creates a MET810 warning
func NewRedundantNotNull(decl, typ string) *CompilerError {
	return newError(
		ErrRedundantNotNull,
		"redundant_not_null",
		SeverityWarning,
		fmt.Sprintf("NotNull on non-nullable type %s has no effect", typ),
		decl,
	)
}

// NewInvalidExposedName creates a MET811 error
func NewInvalidExposedName(decl, name string) *CompilerError {
	return newError(
		ErrInvalidExposedName,
		"invalid_exposed_name",
		SeverityError,
		fmt.Sprintf("Explicit type name %q is not a valid source name", name),
		decl,
	).WithSuggestion("Use a non-empty name without whitespace, or \"[name]\" to derive it")
}
