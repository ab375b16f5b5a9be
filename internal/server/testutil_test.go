package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

const testTimeout = 500 * time.Millisecond

type mockClient struct {
	mu            sync.Mutex
	messages      []protocol.LogMessageParams
	configuration []interface{}
	configured    chan struct{}
}

func newMockClient() *mockClient {
	return &mockClient{configured: make(chan struct{}, 10)}
}

func (m *mockClient) Progress(_ context.Context, _ *protocol.ProgressParams) error {
	return nil
}

func (m *mockClient) WorkDoneProgressCreate(_ context.Context, _ *protocol.WorkDoneProgressCreateParams) error {
	return nil
}

func (m *mockClient) LogMessage(_ context.Context, params *protocol.LogMessageParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *params)
	return nil
}

func (m *mockClient) PublishDiagnostics(_ context.Context, _ *protocol.PublishDiagnosticsParams) error {
	return nil
}

func (m *mockClient) ShowMessage(_ context.Context, _ *protocol.ShowMessageParams) error {
	return nil
}

func (m *mockClient) ShowMessageRequest(_ context.Context, _ *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	return nil, nil
}

func (m *mockClient) Telemetry(_ context.Context, _ interface{}) error {
	return nil
}

func (m *mockClient) RegisterCapability(_ context.Context, _ *protocol.RegistrationParams) error {
	return nil
}

func (m *mockClient) UnregisterCapability(_ context.Context, _ *protocol.UnregistrationParams) error {
	return nil
}

func (m *mockClient) ApplyEdit(_ context.Context, _ *protocol.ApplyWorkspaceEditParams) (bool, error) {
	return false, nil
}

func (m *mockClient) Configuration(_ context.Context, _ *protocol.ConfigurationParams) ([]interface{}, error) {
	m.mu.Lock()
	result := m.configuration
	m.mu.Unlock()
	defer func() { m.configured <- struct{}{} }()
	return result, nil
}

func (m *mockClient) WorkspaceFolders(_ context.Context) ([]protocol.WorkspaceFolder, error) {
	return nil, nil
}

func (m *mockClient) getMessages() []protocol.LogMessageParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]protocol.LogMessageParams(nil), m.messages...)
}

func (m *mockClient) waitConfigured() bool {
	select {
	case <-m.configured:
		return true
	case <-time.After(testTimeout):
		return false
	}
}

type testServer struct {
	*Server
	client  *mockClient
	logs    *observer.ObservedLogs
	handler jsonrpc2.Handler
	nextID  int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	srv := NewServer(zap.New(core))
	client := newMockClient()
	srv.SetClient(client)
	return &testServer{Server: srv, client: client, logs: logs, handler: srv.Handler()}
}

type response struct {
	result json.RawMessage
	err    error
}

// call sends a request through the jsonrpc2 handler and captures the reply.
func (ts *testServer) call(t *testing.T, method string, params interface{}) response {
	t.Helper()
	ts.nextID++
	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(ts.nextID), method, params)
	require.NoError(t, err)
	return ts.send(t, req)
}

func (ts *testServer) notify(t *testing.T, method string, params interface{}) {
	t.Helper()
	req, err := jsonrpc2.NewNotification(method, params)
	require.NoError(t, err)
	resp := ts.send(t, req)
	require.NoError(t, resp.err)
}

func (ts *testServer) send(t *testing.T, req jsonrpc2.Request) response {
	t.Helper()
	var resp response
	replied := false
	reply := func(_ context.Context, result interface{}, err error) error {
		replied = true
		resp.err = err
		if result != nil {
			data, merr := json.Marshal(result)
			require.NoError(t, merr)
			resp.result = data
		}
		return nil
	}
	require.NoError(t, ts.handler(context.Background(), reply, req))
	require.True(t, replied, "handler did not reply to %s", req.Method())
	return resp
}

func (ts *testServer) initialize(t *testing.T, params map[string]interface{}) lspInitializeResult {
	t.Helper()
	if params == nil {
		params = map[string]interface{}{"capabilities": map[string]interface{}{}}
	}
	resp := ts.call(t, protocol.MethodInitialize, params)
	require.NoError(t, resp.err)
	var result lspInitializeResult
	require.NoError(t, json.Unmarshal(resp.result, &result))
	return result
}

func (ts *testServer) open(t *testing.T, uri protocol.DocumentURI, version int32, text string) {
	t.Helper()
	ts.notify(t, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "plaintext", Version: version, Text: text},
	})
}

func (ts *testServer) change(t *testing.T, uri protocol.DocumentURI, version int32, changes ...map[string]interface{}) {
	t.Helper()
	ts.notify(t, protocol.MethodTextDocumentDidChange, map[string]interface{}{
		"textDocument":   map[string]interface{}{"uri": uri, "version": version},
		"contentChanges": changes,
	})
}

func (ts *testServer) state(t *testing.T, uri protocol.DocumentURI, lines *LineRange) (*DocumentState, error) {
	t.Helper()
	resp := ts.call(t, MethodDocumentState, DocumentStateParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Lines:        lines,
	})
	if resp.err != nil {
		return nil, resp.err
	}
	var state DocumentState
	require.NoError(t, json.Unmarshal(resp.result, &state))
	return &state, nil
}

func rangeChange(sl, sc, el, ec uint32, text string) map[string]interface{} {
	return map[string]interface{}{
		"range": map[string]interface{}{
			"start": map[string]interface{}{"line": sl, "character": sc},
			"end":   map[string]interface{}{"line": el, "character": ec},
		},
		"text": text,
	}
}

func fullChange(text string) map[string]interface{} {
	return map[string]interface{}{"text": text}
}

type lspInitializeResult struct {
	Capabilities struct {
		PositionEncoding string `json:"positionEncoding"`
		TextDocumentSync struct {
			OpenClose bool `json:"openClose"`
			Change    int  `json:"change"`
			Save      struct {
				IncludeText bool `json:"includeText"`
			} `json:"save"`
		} `json:"textDocumentSync"`
	} `json:"capabilities"`
	ServerInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}
