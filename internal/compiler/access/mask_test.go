package access

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type predicate struct {
	name string
	fn   func(Mask) bool
	bits bits
}

var compositePredicates = []predicate{
	{"ReadValue", Mask.ReadValue, readValueBits},
	{"ReadValueCopy", Mask.ReadValueCopy, readValueCopyBits},
	{"EnsureObject", Mask.EnsureObject, ensureObjectBits},
	{"EnsureArray", Mask.EnsureArray, ensureArrayBits},
	{"EnsureAlias", Mask.EnsureAlias, readRefBits},
	{"WriteAlias", Mask.WriteAlias, writeRefBits},
	{"Unset", Mask.Unset, bitUnset},
	{"Isset", Mask.Isset, issetBits},
}

// every pattern over the bits the model defines, plus the unused ones in between
func allMasks() []Mask {
	out := make([]Mask, 0, 1<<14)
	for i := 0; i < 1<<14; i++ {
		out = append(out, Mask{bits(i)})
	}
	return out
}

func TestCompositePredicatesRequireAllBits(t *testing.T) {
	for _, p := range compositePredicates {
		t.Run(p.name, func(t *testing.T) {
			for _, m := range allMasks() {
				want := m.b&p.bits == p.bits
				if got := p.fn(m); got != want {
					t.Fatalf("%s(%#x) = %v, want %v", p.name, uint16(m.b), got, want)
				}
			}
		})
	}
}

func TestBasePredicatesAreBitTests(t *testing.T) {
	for _, m := range allMasks() {
		assert.Equal(t, m.b&bitRead != 0, m.Read())
		assert.Equal(t, m.b&bitWrite != 0, m.Write())
		assert.Equal(t, m.b&bitQuiet != 0, m.Quiet())
	}
}

func TestNoneIsFalseEverywhere(t *testing.T) {
	m := None
	assert.True(t, m.IsNone())
	assert.False(t, m.Read())
	assert.False(t, m.Write())
	assert.False(t, m.Quiet())
	for _, p := range compositePredicates {
		assert.False(t, p.fn(m), p.name)
	}
	assert.False(t, m.ReadFlavored())
	assert.False(t, m.WriteFlavored())
	assert.Equal(t, "None", m.String())
}

func TestProperSubsetsDoNotMatch(t *testing.T) {
	tests := []struct {
		name string
		m    Mask
		fn   func(Mask) bool
		want bool
	}{
		{"ReadValueCopy of ReadValue", ReadValue, Mask.ReadValueCopy, false},
		{"ReadValueCopy of ReadValueCopy", ReadValueCopy, Mask.ReadValueCopy, true},
		{"ReadValue of ReadValueCopy", ReadValueCopy, Mask.ReadValue, true},
		{"ReadValue of Read", Read, Mask.ReadValue, false},
		{"EnsureAlias of Read", Read, Mask.EnsureAlias, false},
		{"WriteAlias of Write", Write, Mask.WriteAlias, false},
		{"Isset of ReadQuiet|Read", ReadQuiet.With(Read), Mask.Isset, false},
		{"EnsureObject of Read", Read, Mask.EnsureObject, false},
		{"EnsureArray of EnsureObject", EnsureObject, Mask.EnsureArray, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.m))
		})
	}
}

func TestQuietIsAModifier(t *testing.T) {
	m := Write.With(ReadQuiet)
	assert.True(t, m.Quiet())
	assert.True(t, m.Write())
	assert.False(t, m.Read())
	assert.False(t, m.Isset())
}

func TestIssetImpliesQuietAndRead(t *testing.T) {
	for _, m := range allMasks() {
		if m.Isset() {
			require.True(t, m.Quiet(), "%#x", uint16(m.b))
			require.True(t, m.Read(), "%#x", uint16(m.b))
		}
	}
}

func TestCompositesRoundTrip(t *testing.T) {
	for _, m := range allMasks() {
		var union Mask
		for _, c := range m.Composites() {
			require.Equal(t, c.b, m.b&c.b, "composite %s not fully present in %#x", c, uint16(m.b))
			union = union.With(c)
		}
		for _, c := range composites {
			present := m.b&c.m.b == c.m.b
			recovered := union.b&c.m.b == c.m.b
			require.Equal(t, present, recovered, "%s in %#x", c.name, uint16(m.b))
		}
	}
}

func TestComposites(t *testing.T) {
	assert.Equal(t, []Mask{ReadValueCopy}, ReadValueCopy.Composites())
	assert.Equal(t, []Mask{Isset}, Isset.Composites())
	assert.Equal(t, []Mask{ReadRef, ReadValue}, ReadRef.With(ReadValue).Composites())
	assert.Equal(t, []Mask{ReadQuiet, Write}, Write.With(ReadQuiet).Composites())
	assert.Nil(t, None.Composites())
}

func TestString(t *testing.T) {
	tests := []struct {
		m    Mask
		want string
	}{
		{None, "None"},
		{Read, "Read"},
		{ReadValueCopy, "ReadValueCopy"},
		{Write.With(ReadQuiet), "ReadQuiet|Write"},
		{EnsureArray.With(EnsureObject), "EnsureObject|EnsureArray"},
		{Isset.With(Unset), "Isset|Unset"},
		{Mask{bitRead | 1<<8}, "Read|0x100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.m.String())
	}
}

func TestParse(t *testing.T) {
	m, err := Parse("write | readquiet")
	require.NoError(t, err)
	assert.Equal(t, Write.With(ReadQuiet), m)

	m, err = Parse("None")
	require.NoError(t, err)
	assert.Equal(t, None, m)

	_, err = Parse("Read|Bogus")
	assert.Error(t, err)

	for _, c := range composites {
		parsed, err := Parse(c.m.String())
		require.NoError(t, err)
		assert.Equal(t, c.m, parsed)
	}
}

func TestCategories(t *testing.T) {
	assert.True(t, ReadValue.ReadFlavored())
	assert.True(t, ReadQuiet.ReadFlavored())
	assert.False(t, Write.ReadFlavored())
	assert.True(t, Unset.WriteFlavored())
	assert.True(t, WriteRef.WriteFlavored())
	assert.False(t, Isset.WriteFlavored())
}

func TestTextMarshaling(t *testing.T) {
	type node struct {
		Access Mask `json:"access"`
	}
	data, err := json.Marshal(node{Access: EnsureArray.With(Write)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"access":"EnsureArray|Write"}`, string(data))

	var back node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, EnsureArray.With(Write), back.Access)
}

func TestConcurrentUse(t *testing.T) {
	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func() {
			for _, m := range allMasks()[:512] {
				_ = m.Isset() && m.Quiet()
				_ = m.String()
			}
			done <- true
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 11)
	assert.Equal(t, "Isset", names[0])
	for _, name := range names {
		m, err := Parse(name)
		assert.NoError(t, err)
		assert.Equal(t, name, m.String())
	}
}
