package lsp

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.lsp.dev/protocol"

	"github.com/pchp-lang/pchp/internal/compiler/discovery"
	"github.com/pchp-lang/pchp/internal/compiler/errors"
	"github.com/pchp-lang/pchp/internal/compiler/metadata"
)

// document is an open manifest.
type document struct {
	uri      protocol.DocumentURI
	text     string
	version  int32
	manifest *metadata.Manifest
	// parseErr is set when text is not a valid manifest.
	parseErr error
}

func (d *document) lines() []string {
	return strings.Split(d.text, "\n")
}

// workspace holds the open manifests. Discovery runs over all of them
// together so that name conflicts between libraries are reported.
type workspace struct {
	mu   sync.Mutex
	docs map[protocol.DocumentURI]*document
}

func newWorkspace() *workspace {
	return &workspace{docs: make(map[protocol.DocumentURI]*document)}
}

func (w *workspace) open(u protocol.DocumentURI, text string, version int32) {
	doc := &document{uri: u, text: text, version: version}
	doc.manifest, doc.parseErr = metadata.DecodeManifest([]byte(text), metadata.FormatForPath(string(u)))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[u] = doc
}

func (w *workspace) close(u protocol.DocumentURI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, u)
}

func (w *workspace) get(u protocol.DocumentURI) (*document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[u]
	return doc, ok
}

// snapshot returns the open documents ordered by URI.
func (w *workspace) snapshot() []*document {
	w.mu.Lock()
	defer w.mu.Unlock()

	docs := make([]*document, 0, len(w.docs))
	for _, d := range w.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].uri < docs[j].uri })
	return docs
}

// analyze runs discovery over every open manifest and returns the
// diagnostics of each document. Every open document gets an entry, possibly
// empty, so that stale diagnostics are cleared.
func (w *workspace) analyze(ctx context.Context, opts discovery.Options) (map[protocol.DocumentURI][]protocol.Diagnostic, error) {
	docs := w.snapshot()
	out := make(map[protocol.DocumentURI][]protocol.Diagnostic, len(docs))

	owner := make(map[string]*document)
	var modules []*metadata.Module
	for _, d := range docs {
		out[d.uri] = []protocol.Diagnostic{}
		if d.parseErr != nil {
			out[d.uri] = append(out[d.uri], protocol.Diagnostic{
				Range:    lineRange(d.lines(), 0, ""),
				Severity: protocol.DiagnosticSeverityError,
				Source:   "pchp",
				Message:  d.parseErr.Error(),
			})
			continue
		}
		for _, mod := range d.manifest.Modules {
			if _, seen := owner[mod.Name]; !seen {
				owner[mod.Name] = d
			}
			modules = append(modules, mod)
		}
	}

	report, err := discovery.Discover(ctx, modules, opts)
	if err != nil {
		return nil, err
	}

	for _, diag := range report.Diagnostics {
		module, _, _ := strings.Cut(diag.Declaration, "::")
		d, ok := owner[module]
		if !ok {
			continue
		}
		out[d.uri] = append(out[d.uri], toProtocol(d, diag))
	}
	return out, nil
}

func toProtocol(d *document, diag *errors.CompilerError) protocol.Diagnostic {
	line, token := locate(d.lines(), diag.Declaration)
	msg := diag.Message
	if diag.Suggestion != "" {
		msg += "\n" + diag.Suggestion
	}
	return protocol.Diagnostic{
		Range:    lineRange(d.lines(), line, token),
		Severity: convertSeverity(diag.Severity),
		Code:     string(diag.Code),
		Source:   "pchp",
		Message:  msg,
	}
}

// locate finds the line of a declaration path such as
// "standard::Pchp.Library.Strings::strpos#needle" by searching for each
// segment in turn, starting where the previous one was found. It returns
// the line and the token found there.
func locate(lines []string, decl string) (int, string) {
	var tokens []string
	for i, seg := range strings.Split(decl, "::") {
		if i == 1 {
			// type segments are namespace-qualified; manifests spell the
			// simple name
			if j := strings.LastIndex(seg, "."); j >= 0 {
				seg = seg[j+1:]
			}
		}
		name, param, hasParam := strings.Cut(seg, "#")
		tokens = append(tokens, name)
		if hasParam && !isIndex(param) {
			tokens = append(tokens, param)
		}
	}

	line, found := 0, ""
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		for i := line; i < len(lines); i++ {
			if wordIndex(lines[i], tok) >= 0 {
				line, found = i, tok
				break
			}
		}
	}
	return line, found
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// wordIndex returns the byte index of tok in s as a whole word, or -1.
func wordIndex(s, tok string) int {
	for from := 0; ; {
		i := strings.Index(s[from:], tok)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(tok)
		if (i == 0 || !isWord(rune(s[i-1]))) && (end == len(s) || !isWord(rune(s[end]))) {
			return i
		}
		from = i + 1
	}
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lineRange spans token on line, or the whole line when token is empty or
// absent.
func lineRange(lines []string, line int, token string) protocol.Range {
	text := ""
	if line < len(lines) {
		text = lines[line]
	}
	start, end := 0, len(text)
	if token != "" {
		if i := wordIndex(text, token); i >= 0 {
			start, end = i, i+len(token)
		}
	}
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: uint32(start)},
		End:   protocol.Position{Line: uint32(line), Character: uint32(end)},
	}
}

// convertSeverity converts a diagnostic severity to its LSP counterpart
func convertSeverity(severity errors.ErrorSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case errors.SeverityError:
		return protocol.DiagnosticSeverityError
	case errors.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case errors.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

// documentSymbols outlines a manifest: modules contain types, types contain
// members.
func documentSymbols(d *document) []protocol.DocumentSymbol {
	if d.manifest == nil {
		return nil
	}
	lines := d.lines()

	symbol := func(name, detail string, kind protocol.SymbolKind, decl string) protocol.DocumentSymbol {
		line, tok := locate(lines, decl)
		r := lineRange(lines, line, tok)
		return protocol.DocumentSymbol{Name: name, Detail: detail, Kind: kind, Range: r, SelectionRange: r}
	}

	var out []protocol.DocumentSymbol
	for _, mod := range d.manifest.Modules {
		ms := symbol(mod.Name, "module", protocol.SymbolKindModule, mod.Path())
		for _, t := range mod.Types {
			kind := protocol.SymbolKindClass
			switch t.DeclKind() {
			case metadata.DeclInterface:
				kind = protocol.SymbolKindInterface
			case metadata.DeclEnum:
				kind = protocol.SymbolKindEnum
			}
			ts := symbol(t.Name, t.QualifiedName(), kind, mod.TypePath(t))
			for _, m := range t.Methods {
				ts.Children = append(ts.Children, symbol(m.Name, "method", protocol.SymbolKindMethod, mod.MemberPath(t, m.Name)))
			}
			for _, f := range t.Fields {
				ts.Children = append(ts.Children, symbol(f.Name, "field", protocol.SymbolKindField, mod.MemberPath(t, f.Name)))
			}
			for _, p := range t.Properties {
				ts.Children = append(ts.Children, symbol(p.Name, "property", protocol.SymbolKindProperty, mod.MemberPath(t, p.Name)))
			}
			ms.Children = append(ms.Children, ts)
		}
		out = append(out, ms)
	}
	return out
}

// annotationCompletions offers every annotation kind with the targets it
// may be attached to.
func annotationCompletions() []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for k := metadata.KindScriptUnit; k <= metadata.KindNotNull; k++ {
		targets, repeatable := metadata.Usage(k)
		detail := strings.Join(targets.Names(), ", ")
		if repeatable {
			detail += " (repeatable)"
		}
		items = append(items, protocol.CompletionItem{
			Label:            k.String(),
			Kind:             protocol.CompletionItemKindEnumMember,
			Detail:           detail,
			InsertText:       k.String(),
			InsertTextFormat: protocol.InsertTextFormatPlainText,
		})
	}
	return items
}
