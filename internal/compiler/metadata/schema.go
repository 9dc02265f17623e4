// Package metadata defines the declarative annotation schema that compiled
// script units and extension modules use to describe their source-visible
// declarations, together with the declaration records annotations attach to.
//
// Declarations are built explicitly, either in Go or by decoding a manifest;
// nothing here inspects Go types at run time.
package metadata

import (
	"fmt"
	"strings"
)

// Manifest is a set of modules handed to discovery.
type Manifest struct {
	Modules []*Module `json:"modules"`
}

// Module is a compiled module or precompiled extension library.
type Module struct {
	Name        string      `json:"name"`
	Annotations Annotations `json:"annotations,omitempty"`
	Types       []*Type     `json:"types,omitempty"`
}

// DeclKind distinguishes classes, interfaces and enums.
type DeclKind string

const (
	DeclClass     DeclKind = "class"
	DeclInterface DeclKind = "interface"
	DeclEnum      DeclKind = "enum"
)

// Target returns the annotation target category for the declaration kind.
func (k DeclKind) Target() Target {
	switch k {
	case DeclInterface:
		return TargetInterface
	case DeclEnum:
		return TargetEnum
	default:
		return TargetClass
	}
}

// Type is a host type declaration.
type Type struct {
	Namespace string   `json:"namespace,omitempty"`
	Name      string   `json:"name"`
	Kind      DeclKind `json:"kind,omitempty"`
	Abstract  bool     `json:"abstract,omitempty"`
	// Internal marks a type that is not public at the host level.
	Internal     bool           `json:"internal,omitempty"`
	Annotations  Annotations    `json:"annotations,omitempty"`
	Constructors []*Constructor `json:"constructors,omitempty"`
	Methods      []*Method      `json:"methods,omitempty"`
	Fields       []*Field       `json:"fields,omitempty"`
	Properties   []*Property    `json:"properties,omitempty"`
}

// DeclKind returns the declaration kind, defaulting to class.
func (t *Type) DeclKind() DeclKind {
	if t.Kind == "" {
		return DeclClass
	}
	return t.Kind
}

// QualifiedName returns the namespace-qualified host name.
func (t *Type) QualifiedName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// SimpleName returns the type name without any namespace or enclosing type.
func (t *Type) SimpleName() string {
	name := t.Name
	if i := strings.LastIndexAny(name, `.+\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Method is a method declaration.
type Method struct {
	Name        string       `json:"name"`
	Static      bool         `json:"static,omitempty"`
	Internal    bool         `json:"internal,omitempty"`
	Annotations Annotations  `json:"annotations,omitempty"`
	Params      []*Parameter `json:"params,omitempty"`
	// Return is nil for methods returning nothing.
	Return *ReturnValue `json:"return,omitempty"`
}

// Constructor is a constructor declaration.
type Constructor struct {
	Internal    bool         `json:"internal,omitempty"`
	Annotations Annotations  `json:"annotations,omitempty"`
	Params      []*Parameter `json:"params,omitempty"`
}

// Field is a storage field declaration.
type Field struct {
	Name        string      `json:"name"`
	Type        HostType    `json:"type"`
	Static      bool        `json:"static,omitempty"`
	Internal    bool        `json:"internal,omitempty"`
	Annotations Annotations `json:"annotations,omitempty"`
}

// Property is a property declaration.
type Property struct {
	Name        string      `json:"name"`
	Type        HostType    `json:"type"`
	Static      bool        `json:"static,omitempty"`
	Internal    bool        `json:"internal,omitempty"`
	Annotations Annotations `json:"annotations,omitempty"`
}

// Parameter is a method or constructor parameter.
type Parameter struct {
	Name        string      `json:"name"`
	Type        HostType    `json:"type"`
	Annotations Annotations `json:"annotations,omitempty"`
}

// ReturnValue is the return value of a method.
type ReturnValue struct {
	Type        HostType    `json:"type"`
	Annotations Annotations `json:"annotations,omitempty"`
}

// Param builds a parameter.
func Param(name string, typ HostType, annotations ...Annotation) *Parameter {
	return &Parameter{Name: name, Type: typ, Annotations: annotations}
}

// Returns builds a return value.
func Returns(typ HostType, annotations ...Annotation) *ReturnValue {
	return &ReturnValue{Type: typ, Annotations: annotations}
}

// Declaration paths identify a declaration in diagnostics:
// module::Namespace.Type::member#param.

// Path returns the diagnostic path of the module.
func (m *Module) Path() string { return m.Name }

// TypePath returns the diagnostic path of a type in module m.
func (m *Module) TypePath(t *Type) string {
	return m.Name + "::" + t.QualifiedName()
}

// MemberPath returns the diagnostic path of a member of t.
func (m *Module) MemberPath(t *Type, member string) string {
	return m.TypePath(t) + "::" + member
}

// CtorName returns the member name used for the i-th constructor in paths.
func CtorName(i int) string {
	return fmt.Sprintf(".ctor[%d]", i)
}
