package metadata

import (
	"encoding/json"
	"fmt"
)

// Kind identifies an annotation variant.
type Kind int

const (
	KindMalformed Kind = iota
	KindScriptUnit
	KindExtensionModule
	KindLanguageTarget
	KindHidden
	KindConditional
	KindSourceType
	KindMemberVisibility
	KindImportLocals
	KindImportCallerArgs
	KindImportCallerClass
	KindImportCallerStaticClass
	KindCastToFalse
	KindTrait
	KindFieldsOnlyConstructor
	KindNotNull
)

var kindNames = [...]string{
	KindMalformed:               "Malformed",
	KindScriptUnit:              "ScriptUnit",
	KindExtensionModule:         "ExtensionModule",
	KindLanguageTarget:          "LanguageTarget",
	KindHidden:                  "Hidden",
	KindConditional:             "Conditional",
	KindSourceType:              "SourceType",
	KindMemberVisibility:        "MemberVisibility",
	KindImportLocals:            "ImportLocals",
	KindImportCallerArgs:        "ImportCallerArgs",
	KindImportCallerClass:       "ImportCallerClass",
	KindImportCallerStaticClass: "ImportCallerStaticClass",
	KindCastToFalse:             "CastToFalse",
	KindTrait:                   "Trait",
	KindFieldsOnlyConstructor:   "FieldsOnlyConstructor",
	KindNotNull:                 "NotNull",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// KindOf returns the kind with the given manifest name.
func KindOf(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindMalformed {
			return Kind(k), true
		}
	}
	return KindMalformed, false
}

// IsImport reports whether k marks a parameter filled by the compiler
// instead of the call site.
func (k Kind) IsImport() bool {
	switch k {
	case KindImportLocals, KindImportCallerArgs, KindImportCallerClass, KindImportCallerStaticClass:
		return true
	}
	return false
}

// Annotation is one declarative metadata record attached to a declaration.
// The set of variants is closed.
type Annotation interface {
	Kind() Kind
	annotation()
}

// DeriveName is the SourceType name stating that the exposed name is the
// declaration's simple name without its namespace.
const DeriveName = "[name]"

// Accessibility is a member visibility level as seen by source code.
type Accessibility int

const (
	Private   Accessibility = 1
	Protected Accessibility = 3
	Public    Accessibility = 6
)

// Valid reports whether a is one of Private, Protected or Public.
func (a Accessibility) Valid() bool {
	return a == Private || a == Protected || a == Public
}

func (a Accessibility) String() string {
	switch a {
	case Private:
		return "private"
	case Protected:
		return "protected"
	case Public:
		return "public"
	}
	return fmt.Sprintf("Accessibility(%d)", int(a))
}

// ScriptUnit marks the type compiled from one source file.
type ScriptUnit struct {
	// Path is relative to the repository root.
	Path string `json:"path"`
}

// ExtensionModule names the extensions a module or type implements.
type ExtensionModule struct {
	Extensions []string `json:"extensions,omitempty"`
	// Registrator is the qualified name of a class instantiated once per
	// runtime lifetime scope to perform initialization and subscriptions.
	Registrator string `json:"registrator,omitempty"`
}

// LanguageTarget records the language options a module was compiled with.
type LanguageTarget struct {
	Version      string `json:"version"`
	ShortOpenTag bool   `json:"short_open_tag,omitempty"`
}

// Hidden excludes a host-public declaration from source code.
type Hidden struct{}

// Conditional makes a declaration visible only while Scope is active.
type Conditional struct {
	Scope string `json:"scope"`
}

// SourceType exposes a class or interface to source code.
type SourceType struct {
	// Name is the explicit exposed name. Empty or DeriveName means the
	// declaration's simple name.
	Name string `json:"name,omitempty"`
	// FileName is the optional relative path of the defining file.
	FileName string `json:"file_name,omitempty"`
}

// MemberVisibility overrides the host visibility of a member.
type MemberVisibility struct {
	Level Accessibility `json:"level"`
}

// ImportLocals receives the caller's local variable table.
type ImportLocals struct{}

// ImportCallerArgs receives the caller's arguments.
type ImportCallerArgs struct{}

// ImportCallerClass receives the caller's class context.
type ImportCallerClass struct{}

// ImportCallerStaticClass receives the caller's late static bound class.
type ImportCallerStaticClass struct{}

// CastToFalse converts a negative number or a null return value to false.
type CastToFalse struct{}

// Trait marks a class declared as a trait.
type Trait struct{}

// FieldsOnlyConstructor marks a constructor that initializes fields only and
// calls the minimal base constructor.
type FieldsOnlyConstructor struct{}

// NotNull declares that a value is never null.
type NotNull struct{}

// Malformed stands in for an annotation the manifest decoder could not read.
type Malformed struct {
	Name   string
	Reason string
	Raw    json.RawMessage
}

func (ScriptUnit) Kind() Kind              { return KindScriptUnit }
func (ExtensionModule) Kind() Kind         { return KindExtensionModule }
func (LanguageTarget) Kind() Kind          { return KindLanguageTarget }
func (Hidden) Kind() Kind                  { return KindHidden }
func (Conditional) Kind() Kind             { return KindConditional }
func (SourceType) Kind() Kind              { return KindSourceType }
func (MemberVisibility) Kind() Kind        { return KindMemberVisibility }
func (ImportLocals) Kind() Kind            { return KindImportLocals }
func (ImportCallerArgs) Kind() Kind        { return KindImportCallerArgs }
func (ImportCallerClass) Kind() Kind       { return KindImportCallerClass }
func (ImportCallerStaticClass) Kind() Kind { return KindImportCallerStaticClass }
func (CastToFalse) Kind() Kind             { return KindCastToFalse }
func (Trait) Kind() Kind                   { return KindTrait }
func (FieldsOnlyConstructor) Kind() Kind   { return KindFieldsOnlyConstructor }
func (NotNull) Kind() Kind                 { return KindNotNull }
func (Malformed) Kind() Kind               { return KindMalformed }

func (ScriptUnit) annotation()              {}
func (ExtensionModule) annotation()         {}
func (LanguageTarget) annotation()          {}
func (Hidden) annotation()                  {}
func (Conditional) annotation()             {}
func (SourceType) annotation()              {}
func (MemberVisibility) annotation()        {}
func (ImportLocals) annotation()            {}
func (ImportCallerArgs) annotation()        {}
func (ImportCallerClass) annotation()       {}
func (ImportCallerStaticClass) annotation() {}
func (CastToFalse) annotation()             {}
func (Trait) annotation()                   {}
func (FieldsOnlyConstructor) annotation()   {}
func (NotNull) annotation()                 {}
func (Malformed) annotation()               {}

// Annotations is the ordered list of annotations on one declaration.
type Annotations []Annotation

// Has reports whether an annotation of the given kind is present.
func (as Annotations) Has(kind Kind) bool {
	for _, a := range as {
		if a.Kind() == kind {
			return true
		}
	}
	return false
}

// Count returns how many annotations of the given kind are present.
func (as Annotations) Count(kind Kind) int {
	n := 0
	for _, a := range as {
		if a.Kind() == kind {
			n++
		}
	}
	return n
}

// Find returns the first annotation of type T.
func Find[T Annotation](as Annotations) (T, bool) {
	for _, a := range as {
		if v, ok := a.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// FindAll returns every annotation of type T in declaration order.
func FindAll[T Annotation](as Annotations) []T {
	var out []T
	for _, a := range as {
		if v, ok := a.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// ImportKind returns the import annotation kind among as, if any.
func (as Annotations) ImportKind() (Kind, bool) {
	for _, a := range as {
		if a.Kind().IsImport() {
			return a.Kind(), true
		}
	}
	return KindMalformed, false
}
