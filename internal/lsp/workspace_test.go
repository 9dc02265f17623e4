package lsp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/pchp-lang/pchp/internal/compiler/discovery"
)

const stringsManifest = `modules:
  - name: standard
    types:
      - namespace: Pchp.Library
        name: Strings
        annotations:
          - kind: ExtensionModule
            extensions: [standard]
        methods:
          - name: strpos
            static: true
            params:
              - name: haystack
                type: string
              - name: ctx
                type: array
                annotations: [{kind: ImportLocals}]
            return:
              type: int
              annotations: [{kind: CastToFalse}]
`

const arrayManifest = `modules:
  - name: spl
    types:
      - namespace: Pchp.Library.Spl
        name: ArrayObject
        annotations:
          - kind: SourceType
        fields:
          - name: storage
            type: array
`

func TestLocate(t *testing.T) {
	lines := strings.Split(stringsManifest, "\n")

	tests := []struct {
		decl  string
		line  int
		token string
	}{
		{"standard", 1, "standard"},
		{"standard::Pchp.Library.Strings", 4, "Strings"},
		{"standard::Pchp.Library.Strings::strpos", 9, "strpos"},
		{"standard::Pchp.Library.Strings::strpos#ctx", 14, "ctx"},
		{"standard::Pchp.Library.Strings::strpos#return", 17, "return"},
		{"standard::Pchp.Library.Strings::strpos#1", 9, "strpos"},
		{"unknown", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			line, token := locate(lines, tt.decl)
			assert.Equal(t, tt.line, line)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestWordIndex(t *testing.T) {
	assert.Equal(t, 8, wordIndex("  name: strpos", "strpos"))
	assert.Equal(t, -1, wordIndex("  name: strposx", "strpos"))
	assert.Equal(t, 12, wordIndex("- strposx, strpos", "strpos"))
}

func TestLineRange(t *testing.T) {
	lines := []string{"modules:", "  - name: standard"}

	r := lineRange(lines, 1, "standard")
	assert.Equal(t, protocol.Position{Line: 1, Character: 10}, r.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 18}, r.End)

	r = lineRange(lines, 0, "")
	assert.Equal(t, uint32(8), r.End.Character)

	r = lineRange(lines, 5, "")
	assert.Equal(t, protocol.Position{Line: 5}, r.Start)
}

func TestAnalyze(t *testing.T) {
	ws := newWorkspace()
	stringsURI := protocol.DocumentURI(uri.File("/lib/strings.yaml"))
	arrayURI := protocol.DocumentURI(uri.File("/lib/array.yaml"))
	brokenURI := protocol.DocumentURI(uri.File("/lib/broken.yaml"))

	ws.open(stringsURI, stringsManifest, 1)
	ws.open(arrayURI, arrayManifest, 1)
	ws.open(brokenURI, "modules: [", 1)

	got, err := ws.analyze(context.Background(), discovery.Options{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Empty(t, got[arrayURI])

	require.Len(t, got[brokenURI], 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, got[brokenURI][0].Severity)

	// ImportLocals after an ordinary parameter
	require.Len(t, got[stringsURI], 1)
	d := got[stringsURI][0]
	assert.Equal(t, "MET803", d.Code)
	assert.Equal(t, uint32(14), d.Range.Start.Line)
	assert.Equal(t, "pchp", d.Source)

	// fixing the manifest clears the diagnostic
	fixed := strings.Replace(stringsManifest, "annotations: [{kind: ImportLocals}]", "annotations: []", 1)
	ws.open(stringsURI, fixed, 2)
	got, err = ws.analyze(context.Background(), discovery.Options{})
	require.NoError(t, err)
	assert.Empty(t, got[stringsURI])

	ws.close(brokenURI)
	got, err = ws.analyze(context.Background(), discovery.Options{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAnalyzeNullEntries(t *testing.T) {
	ws := newWorkspace()
	arrayURI := protocol.DocumentURI(uri.File("/lib/array.yaml"))
	nullURI := protocol.DocumentURI(uri.File("/lib/null.json"))

	ws.open(arrayURI, arrayManifest, 1)
	ws.open(nullURI, `{"modules":[{"name":"m","types":[{"name":"T","methods":[{"name":"f","params":[null]}]}]}]}`, 1)

	got, err := ws.analyze(context.Background(), discovery.Options{})
	require.NoError(t, err)
	assert.Empty(t, got[arrayURI])
	require.Len(t, got[nullURI], 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, got[nullURI][0].Severity)
	assert.Contains(t, got[nullURI][0].Message, "params entry 0 is null")
}

func TestAnalyzeConflictAcrossDocuments(t *testing.T) {
	ws := newWorkspace()
	a := protocol.DocumentURI(uri.File("/lib/a.yaml"))
	b := protocol.DocumentURI(uri.File("/lib/b.yaml"))

	ws.open(a, arrayManifest, 1)
	ws.open(b, strings.Replace(arrayManifest, "name: spl", "name: spl2", 1), 1)

	got, err := ws.analyze(context.Background(), discovery.Options{})
	require.NoError(t, err)

	// documents are analyzed in URI order, so b's declaration loses
	assert.Empty(t, got[a])
	require.Len(t, got[b], 1)
	assert.Equal(t, "MET809", got[b][0].Code)
}

func TestDocumentSymbols(t *testing.T) {
	ws := newWorkspace()
	u := protocol.DocumentURI(uri.File("/lib/array.yaml"))
	ws.open(u, arrayManifest, 1)

	doc, ok := ws.get(u)
	require.True(t, ok)

	syms := documentSymbols(doc)
	require.Len(t, syms, 1)
	assert.Equal(t, "spl", syms[0].Name)
	assert.Equal(t, protocol.SymbolKindModule, syms[0].Kind)

	require.Len(t, syms[0].Children, 1)
	typ := syms[0].Children[0]
	assert.Equal(t, "ArrayObject", typ.Name)
	assert.Equal(t, "Pchp.Library.Spl.ArrayObject", typ.Detail)
	assert.Equal(t, protocol.SymbolKindClass, typ.Kind)
	assert.Equal(t, uint32(4), typ.Range.Start.Line)

	require.Len(t, typ.Children, 1)
	assert.Equal(t, "storage", typ.Children[0].Name)
	assert.Equal(t, protocol.SymbolKindField, typ.Children[0].Kind)
	assert.Equal(t, uint32(8), typ.Children[0].Range.Start.Line)

	ws.open(u, "{", 2)
	doc, _ = ws.get(u)
	assert.Nil(t, documentSymbols(doc))
}

func TestAnnotationCompletions(t *testing.T) {
	items := annotationCompletions()
	require.Len(t, items, 15)
	assert.Equal(t, "ScriptUnit", items[0].Label)
	assert.Equal(t, "NotNull", items[len(items)-1].Label)

	for _, item := range items {
		if item.Label == "Conditional" {
			assert.Contains(t, item.Detail, "(repeatable)")
		}
		if item.Label == "CastToFalse" {
			assert.NotContains(t, item.Detail, "repeatable")
		}
	}
}
