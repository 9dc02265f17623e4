// Package access models how the binder uses an expression: read, written,
// aliased, auto-vivified as part of a chain, checked for existence, or unset.
//
// A Mask is computed once per bound expression node and consumed by the code
// generator through the predicate methods. Masks are built only from the named
// values exported here and unions of them.
package access

import (
	"fmt"
	"strings"
)

type bits uint16

const (
	bitRead      bits = 1 << 0
	bitWrite     bits = 1 << 1
	bitRef       bits = 1 << 2
	bitValue     bits = 1 << 3
	bitCopy      bits = 1 << 4
	bitWriteRef  bits = 1 << 5
	bitQuiet     bits = 1 << 6
	bitEnsureObj bits = 1 << 10
	bitEnsureArr bits = 1 << 11
	bitUnset     bits = 1 << 12
	bitIsset     bits = 1 << 13
)

// Composite bit patterns. A composite is present only when all of its bits are.
const (
	readRefBits       = bitRef | bitRead
	readValueBits     = bitValue | bitRead
	readValueCopyBits = bitCopy | readValueBits
	writeRefBits      = bitWriteRef | bitWrite
	ensureObjectBits  = bitEnsureObj | bitRead
	ensureArrayBits   = bitEnsureArr | bitRead
	issetBits         = bitIsset | bitQuiet | bitRead

	// readMask and writeMask categorize a mask; they are never assigned to a node.
	readMask  = ensureObjectBits | ensureArrayBits | readRefBits | readValueCopyBits | readValueBits | bitQuiet
	writeMask = bitWrite | writeRefBits | bitUnset
)

// Mask is the access mode of a bound expression.
// The zero value is None.
type Mask struct {
	b bits
}

var (
	// None marks an expression evaluated only for its side effects.
	None = Mask{}
	// Read means the value will be consumed.
	Read = Mask{bitRead}
	// Write means a value will be stored into the place. Only storable places
	// (variables, fields, properties, array items, aliases) accept it.
	Write = Mask{bitWrite}
	// ReadRef means the expression is aliased and the alias is read.
	ReadRef = Mask{readRefBits}
	// ReadValue means the value is read and dereferenced if it is an alias.
	ReadValue = Mask{readValueBits}
	// ReadValueCopy means the value is read, dereferenced and copied.
	ReadValueCopy = Mask{readValueCopyBits}
	// WriteRef means an alias is stored into the place.
	WriteRef = Mask{writeRefBits}
	// ReadQuiet suppresses the missing-value diagnostic of a read.
	ReadQuiet = Mask{bitQuiet}
	// EnsureObject marks a member-access chain link whose container is
	// created as an object when absent, e.g. (EnsureObject)->field = value.
	EnsureObject = Mask{ensureObjectBits}
	// EnsureArray marks an index-access chain link whose container is
	// created as an array when absent, e.g. (EnsureArray)[] = value.
	EnsureArray = Mask{ensureArrayBits}
	// Unset means the place will be removed.
	Unset = Mask{bitUnset}
	// Isset is an existence check; the result is a presence flag.
	Isset = Mask{issetBits}
)

// A write followed by a reference read ("assign and return the alias") is
// bound as two nodes, one Write and one ReadRef. No single Mask means both.

type named struct {
	name string
	m    Mask
}

// composites lists every named value from the widest to the narrowest so
// that Composites can drop the ones implied by a wider match.
var composites = []named{
	{"Isset", Isset},
	{"ReadValueCopy", ReadValueCopy},
	{"EnsureObject", EnsureObject},
	{"EnsureArray", EnsureArray},
	{"ReadRef", ReadRef},
	{"ReadValue", ReadValue},
	{"WriteRef", WriteRef},
	{"Unset", Unset},
	{"ReadQuiet", ReadQuiet},
	{"Read", Read},
	{"Write", Write},
}

// With returns the union of m and others.
func (m Mask) With(others ...Mask) Mask {
	for _, o := range others {
		m.b |= o.b
	}
	return m
}

func (m Mask) has(b bits) bool {
	return m.b&b == b && b != 0
}

// IsNone reports whether no bit is set.
func (m Mask) IsNone() bool { return m.b == 0 }

// Read reports whether the value is read.
func (m Mask) Read() bool { return m.b&bitRead != 0 }

// Write reports whether a value is written to the place.
func (m Mask) Write() bool { return m.b&bitWrite != 0 }

// ReadValue reports whether the access requires a dereferenced value.
func (m Mask) ReadValue() bool { return m.has(readValueBits) }

// ReadValueCopy reports whether the access requires a dereferenced and copied value.
func (m Mask) ReadValueCopy() bool { return m.has(readValueCopyBits) }

// EnsureObject reports whether the place must be auto-created as an object.
func (m Mask) EnsureObject() bool { return m.has(ensureObjectBits) }

// EnsureArray reports whether the place must be auto-created as an array.
func (m Mask) EnsureArray() bool { return m.has(ensureArrayBits) }

// EnsureAlias reports whether the result must be an alias that is then read.
func (m Mask) EnsureAlias() bool { return m.has(readRefBits) }

// WriteAlias reports whether an alias is stored into the place.
func (m Mask) WriteAlias() bool { return m.has(writeRefBits) }

// Quiet reports whether the ReadQuiet modifier is present.
func (m Mask) Quiet() bool { return m.b&bitQuiet != 0 }

// Unset reports whether the place is removed.
func (m Mask) Unset() bool { return m.has(bitUnset) }

// Isset reports whether the access is an existence check.
func (m Mask) Isset() bool { return m.has(issetBits) }

// ReadFlavored reports whether m shares any bit with the read category.
func (m Mask) ReadFlavored() bool { return m.b&readMask != 0 }

// WriteFlavored reports whether m shares any bit with the write category.
func (m Mask) WriteFlavored() bool { return m.b&writeMask != 0 }

// Composites returns the named values fully present in m, widest first.
// A value implied by a wider one already returned is omitted, so
// ReadValueCopy yields only ReadValueCopy and not ReadValue or Read.
func (m Mask) Composites() []Mask {
	var out []Mask
	var covered bits
	for _, c := range composites {
		if !m.has(c.m.b) {
			continue
		}
		if covered&c.m.b == c.m.b {
			continue
		}
		out = append(out, c.m)
		covered |= c.m.b
	}
	return out
}

func (m Mask) String() string {
	if m.b == 0 {
		return "None"
	}
	var parts []string
	var covered bits
	for _, c := range m.Composites() {
		parts = append(parts, nameOf(c))
		covered |= c.b
	}
	if rest := m.b &^ covered; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint16(rest)))
	}
	return strings.Join(parts, "|")
}

func nameOf(m Mask) string {
	for _, c := range composites {
		if c.m == m {
			return c.name
		}
	}
	return fmt.Sprintf("0x%x", uint16(m.b))
}

// Names returns the names Parse accepts besides "None", widest first.
func Names() []string {
	names := make([]string, len(composites))
	for i, c := range composites {
		names[i] = c.name
	}
	return names
}

// Parse builds a Mask from '|'-separated value names such as "Write|ReadQuiet".
// Names are matched case-insensitively; "None" and the empty string yield None.
func Parse(s string) (Mask, error) {
	var m Mask
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "None") {
			continue
		}
		found := false
		for _, c := range composites {
			if strings.EqualFold(c.name, part) {
				m = m.With(c.m)
				found = true
				break
			}
		}
		if !found {
			return None, fmt.Errorf("unknown access mode %q", part)
		}
	}
	return m, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mask) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mask) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
