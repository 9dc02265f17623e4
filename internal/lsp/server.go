// Package lsp implements a Language Server Protocol server for module
// manifests. It validates the metadata annotations of every open manifest
// as the user types and offers annotation completion and an outline.
package lsp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/pchp-lang/pchp/internal/compiler/discovery"
)

// route decodes the params of one method and produces its result.
type route func(ctx context.Context, params json.RawMessage) (interface{}, error)

// handle adapts a typed handler to a route. Undecodable params are an
// InvalidParams error to the client.
func handle[P any](fn func(ctx context.Context, params *P) (interface{}, error)) route {
	return func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var params P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: err.Error()}
			}
		}
		return fn(ctx, &params)
	}
}

// Server answers LSP requests for the manifests open in one editor session.
type Server struct {
	ws     *workspace
	opts   discovery.Options
	routes map[string]route

	client protocol.Client
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewServer creates a server whose diagnostics come from discovery runs
// configured by opts. A nil logger disables logging.
func NewServer(opts discovery.Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}

	s := &Server{ws: newWorkspace(), opts: opts, logger: logger}
	s.routes = map[string]route{
		protocol.MethodInitialize:                 handle(s.initialize),
		protocol.MethodInitialized:                handle(ignore),
		protocol.MethodShutdown:                   handle(ignore),
		protocol.MethodTextDocumentDidOpen:        handle(s.didOpen),
		protocol.MethodTextDocumentDidChange:      handle(s.didChange),
		protocol.MethodTextDocumentDidClose:       handle(s.didClose),
		protocol.MethodTextDocumentDidSave:        handle(s.didSave),
		protocol.MethodTextDocumentCompletion:     handle(s.completion),
		protocol.MethodTextDocumentDocumentSymbol: handle(s.documentSymbol),
	}
	return s
}

func (s *Server) capabilities() protocol.ServerCapabilities {
	return protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.TextDocumentSyncKindFull,
			Save:      &protocol.SaveOptions{},
		},
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{":", " "},
		},
		DocumentSymbolProvider: true,
	}
}

// Run serves LSP over stdin and stdout until the client exits or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, stdrwc{})
}

// Serve serves LSP over rwc until the client exits, the connection drops
// or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	s.logger.Info("starting manifest language server")

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.client = protocol.ClientDispatcher(conn, s.logger)
	conn.Go(ctx, s.dispatch)

	select {
	case <-ctx.Done():
	case <-conn.Done():
		return nil
	}

	s.logger.Info("shutting down manifest language server")
	return conn.Close()
}

func (s *Server) dispatch(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	method := req.Method()
	s.logger.Debug("received", zap.String("method", method))

	if method == protocol.MethodExit {
		err := reply(ctx, nil, nil)
		s.cancel()
		return err
	}

	r, ok := s.routes[method]
	if !ok {
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}
	result, err := r(ctx, req.Params())
	return reply(ctx, result, err)
}

func ignore(context.Context, *json.RawMessage) (interface{}, error) { return nil, nil }

func (s *Server) initialize(_ context.Context, params *protocol.InitializeParams) (interface{}, error) {
	if params.ClientInfo != nil {
		s.logger.Info("initialize", zap.String("client", params.ClientInfo.Name))
	}
	return protocol.InitializeResult{
		Capabilities: s.capabilities(),
		ServerInfo:   &protocol.ServerInfo{Name: "pchp-lsp", Version: "0.1.0"},
	}, nil
}

func (s *Server) didOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) (interface{}, error) {
	doc := params.TextDocument
	s.ws.open(doc.URI, doc.Text, doc.Version)
	s.publishAll(ctx)
	return nil, nil
}

func (s *Server) didChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) (interface{}, error) {
	if n := len(params.ContentChanges); n > 0 {
		// full sync: the last change is the whole text
		s.ws.open(params.TextDocument.URI, params.ContentChanges[n-1].Text, params.TextDocument.Version)
		s.publishAll(ctx)
	}
	return nil, nil
}

func (s *Server) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) (interface{}, error) {
	s.ws.close(params.TextDocument.URI)
	s.publish(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	// conflicts with the closed manifest are gone
	s.publishAll(ctx)
	return nil, nil
}

func (s *Server) didSave(ctx context.Context, _ *protocol.DidSaveTextDocumentParams) (interface{}, error) {
	s.publishAll(ctx)
	return nil, nil
}

// completion offers annotation kinds once the line up to the cursor
// mentions "kind".
func (s *Server) completion(_ context.Context, params *protocol.CompletionParams) (interface{}, error) {
	result := protocol.CompletionList{Items: []protocol.CompletionItem{}}

	doc, ok := s.ws.get(params.TextDocument.URI)
	if !ok {
		return result, nil
	}
	lines := doc.lines()
	line := int(params.Position.Line)
	if line >= len(lines) {
		return result, nil
	}
	prefix := lines[line]
	if c := int(params.Position.Character); c < len(prefix) {
		prefix = prefix[:c]
	}
	if strings.Contains(prefix, "kind") {
		result.Items = annotationCompletions()
	}
	return result, nil
}

func (s *Server) documentSymbol(_ context.Context, params *protocol.DocumentSymbolParams) (interface{}, error) {
	outline := []protocol.DocumentSymbol{}
	if doc, ok := s.ws.get(params.TextDocument.URI); ok {
		if syms := documentSymbols(doc); syms != nil {
			outline = syms
		}
	}
	return outline, nil
}

// publishAll re-validates every open manifest and publishes the
// diagnostics of each.
func (s *Server) publishAll(ctx context.Context) {
	byDoc, err := s.ws.analyze(ctx, s.opts)
	if err != nil {
		s.logger.Warn("discovery failed", zap.Error(err))
		return
	}
	for u, diags := range byDoc {
		s.publish(ctx, u, diags)
	}
}

func (s *Server) publish(ctx context.Context, u protocol.DocumentURI, diags []protocol.Diagnostic) {
	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{URI: u, Diagnostics: diags})
	if err != nil {
		s.logger.Warn("error publishing diagnostics", zap.String("uri", string(u)), zap.Error(err))
	}
}

// stdrwc joins stdin and stdout into one stream.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
