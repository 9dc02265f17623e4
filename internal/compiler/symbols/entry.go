// Package symbols holds the table of declarations visible to source code,
// as produced by discovery and consumed by the binder and the loader.
package symbols

import (
	"github.com/pchp-lang/pchp/internal/compiler/metadata"
)

// ImportKind is the kind of compiler-supplied context a parameter receives.
type ImportKind string

const (
	ImportLocals            ImportKind = "locals"
	ImportCallerArgs        ImportKind = "caller_args"
	ImportCallerClass       ImportKind = "caller_class"
	ImportCallerStaticClass ImportKind = "caller_static_class"
)

// ImportKindOf maps an import annotation kind to its ImportKind.
func ImportKindOf(k metadata.Kind) (ImportKind, bool) {
	switch k {
	case metadata.KindImportLocals:
		return ImportLocals, true
	case metadata.KindImportCallerArgs:
		return ImportCallerArgs, true
	case metadata.KindImportCallerClass:
		return ImportCallerClass, true
	case metadata.KindImportCallerStaticClass:
		return ImportCallerStaticClass, true
	}
	return "", false
}

// ImportParam is a parameter filled by the compiler at the call site.
type ImportParam struct {
	Position int               `json:"position"`
	Name     string            `json:"name"`
	Kind     ImportKind        `json:"kind"`
	Type     metadata.HostType `json:"type"`
}

// Param is an ordinary parameter supplied by the caller.
type Param struct {
	Position int               `json:"position"`
	Name     string            `json:"name"`
	Type     metadata.HostType `json:"type"`
	NotNull  bool              `json:"not_null,omitempty"`
}

// Signature describes the calling convention of a method or function.
type Signature struct {
	Imports []ImportParam     `json:"imports,omitempty"`
	Params  []Param           `json:"params,omitempty"`
	Return  metadata.HostType `json:"return"`
	// CastToFalse asks the code generator to turn a negative number or a
	// null return value into false.
	CastToFalse   bool `json:"cast_to_false,omitempty"`
	NotNullReturn bool `json:"not_null_return,omitempty"`
}

func (s Signature) clone() Signature {
	s.Imports = append([]ImportParam(nil), s.Imports...)
	s.Params = append([]Param(nil), s.Params...)
	return s
}

// MemberKind distinguishes members of a type.
type MemberKind string

const (
	MemberMethod      MemberKind = "method"
	MemberConstructor MemberKind = "constructor"
	MemberField       MemberKind = "field"
	MemberProperty    MemberKind = "property"
)

// MemberSymbol is a source-visible member of a type.
type MemberSymbol struct {
	Name       string                 `json:"name"`
	Kind       MemberKind             `json:"kind"`
	Static     bool                   `json:"static,omitempty"`
	Visibility metadata.Accessibility `json:"visibility"`
	// Signature is set for methods and constructors.
	Signature *Signature `json:"signature,omitempty"`
	// Type is set for fields and properties.
	Type       metadata.HostType `json:"type,omitempty"`
	NotNull    bool              `json:"not_null,omitempty"`
	FieldsOnly bool              `json:"fields_only,omitempty"`
	Conditions []string          `json:"conditions,omitempty"`
}

func (m MemberSymbol) clone() MemberSymbol {
	if m.Signature != nil {
		sig := m.Signature.clone()
		m.Signature = &sig
	}
	m.Conditions = append([]string(nil), m.Conditions...)
	return m
}

// TypeSymbol is a class, interface or trait visible to source code.
type TypeSymbol struct {
	// Name is the exposed source name.
	Name string `json:"name"`
	// HostName is the qualified host name.
	HostName   string            `json:"host_name"`
	Module     string            `json:"module"`
	Kind       metadata.DeclKind `json:"kind"`
	Trait      bool              `json:"trait,omitempty"`
	FileName   string            `json:"file_name,omitempty"`
	Extensions []string          `json:"extensions,omitempty"`
	Conditions []string          `json:"conditions,omitempty"`
	Members    []MemberSymbol    `json:"members,omitempty"`
}

// Clone returns a deep copy of the symbol.
func (t TypeSymbol) Clone() TypeSymbol {
	t.Extensions = append([]string(nil), t.Extensions...)
	t.Conditions = append([]string(nil), t.Conditions...)
	members := make([]MemberSymbol, len(t.Members))
	for i, m := range t.Members {
		members[i] = m.clone()
	}
	if t.Members == nil {
		members = nil
	}
	t.Members = members
	return t
}

// Member finds a member by name; member names are case-insensitive.
func (t TypeSymbol) Member(name string) (MemberSymbol, bool) {
	for _, m := range t.Members {
		if key(m.Name) == key(name) {
			return m.clone(), true
		}
	}
	return MemberSymbol{}, false
}

// FunctionSymbol is a global function provided by an extension.
type FunctionSymbol struct {
	Name       string    `json:"name"`
	HostName   string    `json:"host_name"`
	Module     string    `json:"module"`
	Extensions []string  `json:"extensions,omitempty"`
	Conditions []string  `json:"conditions,omitempty"`
	Signature  Signature `json:"signature"`
}

// Clone returns a deep copy of the symbol.
func (f FunctionSymbol) Clone() FunctionSymbol {
	f.Extensions = append([]string(nil), f.Extensions...)
	f.Conditions = append([]string(nil), f.Conditions...)
	f.Signature = f.Signature.clone()
	return f
}

// ScriptSymbol maps a compiled source file to its host type.
type ScriptSymbol struct {
	Path     string `json:"path"`
	HostName string `json:"host_name"`
	Module   string `json:"module"`
}

// LanguageTarget records the language options a module was compiled with.
type LanguageTarget struct {
	Version      string `json:"version"`
	ShortOpenTag bool   `json:"short_open_tag,omitempty"`
}

// Registration is the obligation to run an extension registrator once per
// runtime lifetime scope. Discovery records it; the loader honors it.
type Registration struct {
	Module      string   `json:"module"`
	Declarer    string   `json:"declarer"`
	Extensions  []string `json:"extensions,omitempty"`
	Registrator string   `json:"registrator"`
}

// ModuleSymbol summarizes a module.
type ModuleSymbol struct {
	Name            string           `json:"name"`
	Extensions      []string         `json:"extensions,omitempty"`
	LanguageTargets []LanguageTarget `json:"language_targets,omitempty"`
	Registrations   []Registration   `json:"registrations,omitempty"`
}

// Clone returns a deep copy of the symbol.
func (m ModuleSymbol) Clone() ModuleSymbol {
	m.Extensions = append([]string(nil), m.Extensions...)
	m.LanguageTargets = append([]LanguageTarget(nil), m.LanguageTargets...)
	regs := make([]Registration, len(m.Registrations))
	for i, r := range m.Registrations {
		r.Extensions = append([]string(nil), r.Extensions...)
		regs[i] = r
	}
	if m.Registrations == nil {
		regs = nil
	}
	m.Registrations = regs
	return m
}
