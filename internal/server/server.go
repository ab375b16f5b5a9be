// Package server implements a language server that keeps client documents
// in sync through incremental textDocument/didChange notifications.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/juev/textsync/internal/lsputil"
	"github.com/juev/textsync/internal/workspace"
	"github.com/juev/textsync/textbuf"
)

const serverName = "textsync-lsp"

var Version = "dev"

type Server struct {
	client                protocol.Client
	logger                *zap.Logger
	workspace             *workspace.Workspace
	settings              serverSettings
	settingsMu            sync.RWMutex
	supportsConfiguration bool

	stateMu     sync.Mutex
	encoding    textbuf.Encoding
	initialized bool
	shutdown    bool
	exited      chan struct{}
	exitOnce    sync.Once
}

func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := defaultServerSettings()
	srv := &Server{
		logger:    logger,
		workspace: workspace.NewWorkspace(defaults.Limits),
		exited:    make(chan struct{}),
	}
	srv.setSettings(defaults)
	return srv
}

func (s *Server) SetClient(client protocol.Client) {
	s.client = client
}

func (s *Server) Workspace() *workspace.Workspace {
	return s.workspace
}

// Encoding is the position encoding negotiated during initialize.
func (s *Server) Encoding() textbuf.Encoding {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.encoding
}

// Done is closed once the client sends exit.
func (s *Server) Done() <-chan struct{} {
	return s.exited
}

// ExitCode follows the LSP rule: 0 when shutdown preceded exit, 1 otherwise.
func (s *Server) ExitCode() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.shutdown {
		return 0
	}
	return 1
}

func (s *Server) Initialize(_ context.Context, params *protocol.InitializeParams, offered []textbuf.Encoding) (*lsputil.InitializeResult, error) {
	if params != nil && params.Capabilities.Workspace != nil {
		s.supportsConfiguration = params.Capabilities.Workspace.Configuration
	}
	if params != nil {
		s.setSettings(parseSettingsFromRaw(s.getSettings(), params.InitializationOptions))
	}
	settings := s.getSettings()
	enc := lsputil.NegotiateEncoding(offered, settings.PositionEncoding)

	s.stateMu.Lock()
	s.encoding = enc
	s.initialized = true
	s.stateMu.Unlock()

	s.logger.Info("initialize",
		zap.String("position_encoding", enc.String()),
		zap.Bool("configuration", s.supportsConfiguration),
	)

	caps := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.TextDocumentSyncKindIncremental,
			Save: &protocol.SaveOptions{
				IncludeText: settings.VerifyOnSave,
			},
		},
	}

	return lsputil.WithPositionEncoding(&protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: Version,
		},
	}, enc), nil
}

func (s *Server) Initialized(_ context.Context, _ *protocol.InitializedParams) error {
	go s.refreshConfiguration(context.Background())
	return nil
}

func (s *Server) Shutdown(_ context.Context) error {
	s.stateMu.Lock()
	s.shutdown = true
	s.stateMu.Unlock()
	s.logger.Info("shutdown", zap.Int("open_documents", len(s.workspace.URIs())))
	return nil
}

func (s *Server) Exit(_ context.Context) error {
	s.exitOnce.Do(func() { close(s.exited) })
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	if path := workspace.Filename(doc.URI); s.excluded(path) {
		s.logger.Debug("document excluded", zap.String("uri", string(doc.URI)))
		return nil
	}
	err := s.workspace.Open(doc.URI, doc.Version, doc.Text, s.Encoding())
	if errors.Is(err, workspace.ErrDocumentAlreadyOpen) {
		// Some clients reopen without closing; treat it as a full resync.
		_, err = s.workspace.Change(doc.URI, doc.Version, []textbuf.Change{textbuf.FullChange{Text: doc.Text}}, nil)
	}
	if err != nil {
		s.reportError(ctx, "open", doc.URI, doc.Version, err)
		return nil
	}
	s.logger.Debug("document opened",
		zap.String("uri", string(doc.URI)),
		zap.Int32("version", doc.Version),
		zap.Int("bytes", len(doc.Text)),
	)
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *lsputil.DidChangeParams) error {
	doc := params.TextDocument
	var obs textbuf.Updateable
	if s.getSettings().LogEdits {
		obs = editLogger{logger: s.logger.With(zap.String("uri", string(doc.URI)))}
	}

	edits, err := s.workspace.Change(doc.URI, doc.Version, lsputil.ToChanges(params.ContentChanges), obs)
	if err != nil {
		if errors.Is(err, workspace.ErrDocumentNotOpen) && s.excluded(workspace.Filename(doc.URI)) {
			return nil
		}
		s.reportError(ctx, "change", doc.URI, doc.Version, err)
		return nil
	}
	s.logger.Debug("document changed",
		zap.String("uri", string(doc.URI)),
		zap.Int32("version", doc.Version),
		zap.Int("changes", len(edits)),
	)
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	u := params.TextDocument.URI
	if err := s.workspace.Close(u); err != nil {
		if !s.excluded(workspace.Filename(u)) {
			s.reportError(ctx, "close", u, 0, err)
		}
		return nil
	}
	s.logger.Debug("document closed", zap.String("uri", string(u)))
	return nil
}

// DidSave compares the saved text, when the client sends it, with the
// tracked document and resynchronizes on mismatch.
func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	u := params.TextDocument.URI
	if params.Text == "" || !s.getSettings().VerifyOnSave {
		return nil
	}
	snap, err := s.workspace.Snapshot(u)
	if err != nil {
		return nil
	}
	if snap.Text == params.Text {
		return nil
	}
	s.logger.Warn("document drifted from saved text",
		zap.String("uri", string(u)),
		zap.Int32("version", snap.Version),
		zap.Int("tracked_bytes", len(snap.Text)),
		zap.Int("saved_bytes", len(params.Text)),
	)
	if _, err := s.workspace.Change(u, snap.Version, []textbuf.Change{textbuf.FullChange{Text: params.Text}}, nil); err != nil {
		s.reportError(ctx, "resync", u, snap.Version, err)
	}
	return nil
}

func (s *Server) DidChangeConfiguration(_ context.Context, params *protocol.DidChangeConfigurationParams) error {
	if params != nil && params.Settings != nil {
		s.setSettings(parseSettingsFromRaw(s.getSettings(), params.Settings))
	}
	go s.refreshConfiguration(context.Background())
	return nil
}

func (s *Server) DocumentState(_ context.Context, params *DocumentStateParams) (*DocumentState, error) {
	var state *DocumentState
	err := s.workspace.View(params.TextDocument.URI, func(version int32, buf *textbuf.Buffer) error {
		state = &DocumentState{
			URI:       params.TextDocument.URI,
			Version:   version,
			Length:    buf.Len(),
			LineCount: buf.LineCount(),
			Encoding:  buf.Encoding().String(),
		}
		if params.Lines == nil {
			return nil
		}
		from, to := int(params.Lines.Start), int(params.Lines.End)
		if from > to || to > buf.LineCount() {
			return fmt.Errorf("%w: lines [%d, %d) of %d", errLineRange, from, to, buf.LineCount())
		}
		state.Lines = make([]string, 0, to-from)
		for n := from; n < to; n++ {
			line, err := buf.Line(n)
			if err != nil {
				return err
			}
			state.Lines = append(state.Lines, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Server) reportError(ctx context.Context, op string, u protocol.DocumentURI, version int32, err error) {
	fields := []zap.Field{
		zap.String("uri", string(u)),
		zap.Int32("version", version),
		zap.Error(err),
	}
	var batchErr *textbuf.BatchError
	if errors.As(err, &batchErr) {
		fields = append(fields, zap.Int("change", batchErr.Index))
	}
	if kind := textbuf.KindOf(err); kind != 0 {
		fields = append(fields, zap.Stringer("kind", kind))
	}
	s.logger.Warn(op+" failed", fields...)

	if s.client == nil {
		return
	}
	_ = s.client.LogMessage(ctx, &protocol.LogMessageParams{
		Type:    protocol.MessageTypeError,
		Message: fmt.Sprintf("%s: %s %s: %v", serverName, op, u, err),
	})
}

// editLogger logs every applied edit.
type editLogger struct {
	logger *zap.Logger
}

func (l editLogger) Edit(ed textbuf.EditDescriptor) {
	l.logger.Debug("edit",
		zap.Int("start_byte", ed.StartByte),
		zap.Int("old_end_byte", ed.OldEndByte),
		zap.Int("new_end_byte", ed.NewEndByte),
		zap.Uint32("start_row", ed.StartPoint.Row),
		zap.Uint32("start_column", ed.StartPoint.Column),
		zap.Uint32("new_end_row", ed.NewEndPoint.Row),
		zap.Uint32("new_end_column", ed.NewEndPoint.Column),
	)
}
