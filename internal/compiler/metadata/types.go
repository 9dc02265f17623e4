package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypeKind classifies a host type for the purposes of calling conventions.
type TypeKind int

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	// TypeArray is the source language's associative array.
	TypeArray
	// TypeHandle is the host's lightweight type token (a value type).
	TypeHandle
	// TypeDescriptor is the runtime's type information object.
	TypeDescriptor
	TypeObject
	// TypeStruct is any other host value type.
	TypeStruct
)

var typeKindNames = [...]string{
	TypeVoid:       "void",
	TypeBool:       "bool",
	TypeInt:        "int",
	TypeFloat:      "float",
	TypeString:     "string",
	TypeArray:      "array",
	TypeHandle:     "type_handle",
	TypeDescriptor: "type_descriptor",
	TypeObject:     "object",
	TypeStruct:     "struct",
}

func (k TypeKind) String() string {
	if k < 0 || int(k) >= len(typeKindNames) {
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
	return typeKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k TypeKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(typeKindNames) {
		return nil, fmt.Errorf("invalid type kind %d", int(k))
	}
	return []byte(typeKindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TypeKind) UnmarshalText(text []byte) error {
	for i, n := range typeKindNames {
		if n == string(text) {
			*k = TypeKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown type kind %q", string(text))
}

// HostType describes the host-level type of a parameter, return value,
// field or property.
type HostType struct {
	Kind TypeKind `json:"kind"`
	// Name is the host type name for object and struct kinds.
	Name     string `json:"name,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`
}

// Common host types.
var (
	Void       = HostType{Kind: TypeVoid}
	Bool       = HostType{Kind: TypeBool}
	Int        = HostType{Kind: TypeInt}
	Float      = HostType{Kind: TypeFloat}
	String     = HostType{Kind: TypeString}
	Array      = HostType{Kind: TypeArray}
	Handle     = HostType{Kind: TypeHandle}
	Descriptor = HostType{Kind: TypeDescriptor}
)

// Object returns the reference type with the given name.
func Object(name string) HostType { return HostType{Kind: TypeObject, Name: name} }

// Struct returns the value type with the given name.
func Struct(name string) HostType { return HostType{Kind: TypeStruct, Name: name} }

// OrNull returns t marked nullable.
func (t HostType) OrNull() HostType {
	t.Nullable = true
	return t
}

// IsReference reports whether values of t are host references.
func (t HostType) IsReference() bool {
	switch t.Kind {
	case TypeString, TypeArray, TypeDescriptor, TypeObject:
		return true
	}
	return false
}

// CanBeNull reports whether a value of t may be absent.
func (t HostType) CanBeNull() bool {
	return t.Nullable || t.IsReference()
}

func (t HostType) String() string {
	s := t.Kind.String()
	if t.Name != "" {
		s = t.Name
	}
	if t.Nullable {
		s += "?"
	}
	return s
}

// UnmarshalJSON accepts the object form or the shorthand "kind[:name][?]",
// e.g. "int", "string?", "object:Pchp.Core.Context".
func (t *HostType) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return t.parse(s)
	}
	type plain HostType
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = HostType(p)
	return nil
}

func (t *HostType) parse(s string) error {
	var out HostType
	if strings.HasSuffix(s, "?") {
		out.Nullable = true
		s = strings.TrimSuffix(s, "?")
	}
	kind, name, _ := strings.Cut(s, ":")
	if err := out.Kind.UnmarshalText([]byte(kind)); err != nil {
		return err
	}
	out.Name = name
	*t = out
	return nil
}
