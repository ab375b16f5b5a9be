package server

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/juev/textsync/internal/lsputil"
	"github.com/juev/textsync/internal/workspace"
)

// Handler returns the jsonrpc2 handler serving s. Requests other than
// initialize fail with ServerNotInitialized until initialize succeeds, and
// with InvalidRequest after shutdown. Unknown notifications are dropped.
func (s *Server) Handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		ctx = protocol.WithLogger(ctx, s.logger)
		_, isCall := req.(*jsonrpc2.Call)

		if err := s.checkState(req.Method()); err != nil {
			if !isCall {
				return reply(ctx, nil, nil)
			}
			return reply(ctx, nil, err)
		}

		handled, err := s.dispatch(ctx, reply, req)
		if handled || err != nil {
			return err
		}
		if !isCall {
			if !strings.HasPrefix(req.Method(), "$/") {
				s.logger.Debug("unhandled notification", zap.String("method", req.Method()))
			}
			return reply(ctx, nil, nil)
		}
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (s *Server) checkState(method string) error {
	s.stateMu.Lock()
	initialized, shutdown := s.initialized, s.shutdown
	s.stateMu.Unlock()

	switch {
	case method == protocol.MethodExit:
		return nil
	case shutdown:
		return jsonrpc2.Errorf(jsonrpc2.InvalidRequest, "server is shut down: %s", method)
	case !initialized && method != protocol.MethodInitialize:
		return jsonrpc2.Errorf(jsonrpc2.ServerNotInitialized, "server is not initialized: %s", method)
	case initialized && method == protocol.MethodInitialize:
		return jsonrpc2.Errorf(jsonrpc2.InvalidRequest, "server is already initialized")
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) (bool, error) {
	raw := req.Params()
	dec := json.NewDecoder(bytes.NewReader(raw))
	logger := protocol.LoggerFromContext(ctx)

	switch req.Method() {
	case protocol.MethodInitialize:
		var params protocol.InitializeParams
		if err := dec.Decode(&params); err != nil {
			return true, replyParseError(ctx, reply, err)
		}
		resp, initErr := s.Initialize(ctx, &params, lsputil.ClientEncodings(raw))
		logger.Debug(protocol.MethodInitialize, zap.Error(initErr))
		return true, reply(ctx, resp, initErr)

	case protocol.MethodInitialized:
		var params protocol.InitializedParams
		if len(raw) > 0 {
			if err := dec.Decode(&params); err != nil {
				return true, replyParseError(ctx, reply, err)
			}
		}
		return true, reply(ctx, nil, s.Initialized(ctx, &params))

	case protocol.MethodShutdown:
		return true, reply(ctx, nil, s.Shutdown(ctx))

	case protocol.MethodExit:
		return true, reply(ctx, nil, s.Exit(ctx))

	case protocol.MethodTextDocumentDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := dec.Decode(&params); err != nil {
			return true, replyParseError(ctx, reply, err)
		}
		return true, reply(ctx, nil, s.DidOpen(ctx, &params))

	case protocol.MethodTextDocumentDidChange:
		params, decodeErr := lsputil.DecodeDidChange(raw)
		if decodeErr != nil {
			return true, replyParseError(ctx, reply, decodeErr)
		}
		return true, reply(ctx, nil, s.DidChange(ctx, params))

	case protocol.MethodTextDocumentDidClose:
		var params protocol.DidCloseTextDocumentParams
		if err := dec.Decode(&params); err != nil {
			return true, replyParseError(ctx, reply, err)
		}
		return true, reply(ctx, nil, s.DidClose(ctx, &params))

	case protocol.MethodTextDocumentDidSave:
		var params protocol.DidSaveTextDocumentParams
		if err := dec.Decode(&params); err != nil {
			return true, replyParseError(ctx, reply, err)
		}
		return true, reply(ctx, nil, s.DidSave(ctx, &params))

	case protocol.MethodWorkspaceDidChangeConfiguration:
		var params protocol.DidChangeConfigurationParams
		if err := dec.Decode(&params); err != nil {
			return true, replyParseError(ctx, reply, err)
		}
		return true, reply(ctx, nil, s.DidChangeConfiguration(ctx, &params))

	case MethodDocumentState:
		var params DocumentStateParams
		if err := dec.Decode(&params); err != nil {
			return true, replyParseError(ctx, reply, err)
		}
		resp, stateErr := s.DocumentState(ctx, &params)
		return true, reply(ctx, resp, toWireError(stateErr))
	}
	return false, nil
}

func replyParseError(ctx context.Context, reply jsonrpc2.Replier, err error) error {
	return reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.ParseError, "%v", err))
}

func toWireError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, workspace.ErrDocumentNotOpen), errors.Is(err, errLineRange):
		return jsonrpc2.Errorf(jsonrpc2.InvalidParams, "%v", err)
	}
	return jsonrpc2.Errorf(jsonrpc2.InternalError, "%v", err)
}
