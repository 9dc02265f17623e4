package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pchp-lang/pchp/internal/compiler/errors"
)

func TestFormatDiagnostic(t *testing.T) {
	d := errors.NewImportOrder("standard::Pchp.Library.Strings::strpos#ctx", "ctx", 1)

	out := FormatDiagnostic(d, true)
	assert.Equal(t, strings.Join([]string{
		"✗ MET803 standard::Pchp.Library.Strings::strpos#ctx",
		"  Import parameter 'ctx' at position 1 follows an ordinary parameter",
		"  → Move all import parameters before the first ordinary parameter",
		"",
	}, "\n"), out)

	d = errors.NewImportType("m::F::f#p", "p", "ImportValue", "string", []string{"Context"}).WithFile("lib.yaml")
	out = FormatDiagnostic(d, true)
	assert.Contains(t, out, "✗ MET804 m::F::f#p (lib.yaml)\n")
	assert.Contains(t, out, "  expected: Context\n")
	assert.Contains(t, out, "  actual:   string\n")
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "✓ no problems found", Summary(nil, true))

	warning := errors.NewRedundantNotNull("m::F::f#return", "int")
	assert.Equal(t, "0 error(s), 1 warning(s), 0 info", Summary(errors.ErrorList{warning}, true))

	failure := errors.NewDuplicateAnnotation("m::F", "SourceType")
	assert.Equal(t, "1 error(s), 1 warning(s), 0 info", Summary(errors.ErrorList{warning, failure}, true))
}

func TestWriteDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	list := errors.ErrorList{
		errors.NewDuplicateAnnotation("m::A", "SourceType"),
		errors.NewDuplicateAnnotation("m::B", "SourceType"),
	}

	WriteDiagnostics(&buf, list, true)

	out := buf.String()
	assert.Less(t, strings.Index(out, "m::A"), strings.Index(out, "m::B"))
	assert.True(t, strings.HasSuffix(out, "\n2 error(s), 0 warning(s), 0 info\n"))
}

func TestFormatProblem(t *testing.T) {
	out := FormatProblem(Problem{
		Context:     "unknown access mode",
		Message:     "Wirte",
		Suggestions: []string{"Write"},
		Help:        []string{"pchp access --list"},
	}, true)

	assert.Equal(t, "✗ UNKNOWN ACCESS MODE: Wirte\n  Did you mean: Write?\n  → pchp access --list\n", out)
	assert.Equal(t, "✗ failed\n", FormatProblem(Problem{Message: "failed"}, true))
}

func TestSuggest(t *testing.T) {
	names := []string{"Isset", "ReadValueCopy", "ReadValue", "ReadRef", "Read", "Write", "WriteRef", "Unset"}

	tests := []struct {
		target string
		want   []string
	}{
		{"Wirte", []string{"Write"}},
		{"readvalu", []string{"ReadValue"}},
		{"unsett", []string{"Unset"}},
		{"Rea", []string{"Read"}},
		{"Completely", nil},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.target, names))
		})
	}
}

func TestSuggestLimit(t *testing.T) {
	got := Suggest("abcd", []string{"abce", "abcf", "abcg", "abch", "abcd"})
	assert.Equal(t, []string{"abcd", "abce", "abcf"}, got)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 3, Distance("kitten", "sitting"))
	assert.Equal(t, 3, Distance("saturday", "sunday"))
	assert.Equal(t, 4, Distance("", "read"))
	assert.Equal(t, 0, Distance("read", "read"))
	assert.Equal(t, 1, Distance("ärger", "arger"))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, true, "NAME", "MODULE")
	tbl.AddRow("Pchp.Library.Json", "json")
	tbl.AddRow("ArrayAccess")
	tbl.Render()

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, strings.Join([]string{
		"NAME               MODULE",
		"─────────────────  ──────",
		"Pchp.Library.Json  json",
		"ArrayAccess        ",
		"",
	}, "\n"), buf.String())
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Read", "true")
	kv.AddRow("EnsureAlias", "false")
	kv.Render()

	assert.Equal(t, "Read:         true\nEnsureAlias:  false\n", buf.String())
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Symbols", true)
	assert.Equal(t, "Symbols\n───────\n", buf.String())
}
