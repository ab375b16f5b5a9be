package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

func wireCode(t *testing.T, err error) jsonrpc2.Code {
	t.Helper()
	var wireErr *jsonrpc2.Error
	require.ErrorAs(t, err, &wireErr)
	return wireErr.Code
}

func TestHandler_RequestBeforeInitialize(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.call(t, MethodDocumentState, DocumentStateParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	assert.Equal(t, jsonrpc2.ServerNotInitialized, wireCode(t, resp.err))

	// Notifications before initialize are dropped.
	ts.open(t, testURI, 1, "text")
	assert.Empty(t, ts.Workspace().URIs())
}

func TestHandler_InitializeTwice(t *testing.T) {
	ts := newTestServer(t)
	ts.initialize(t, nil)

	resp := ts.call(t, protocol.MethodInitialize, map[string]interface{}{"capabilities": map[string]interface{}{}})
	assert.Equal(t, jsonrpc2.InvalidRequest, wireCode(t, resp.err))
}

func TestHandler_MethodNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.initialize(t, nil)

	resp := ts.call(t, protocol.MethodTextDocumentHover, map[string]interface{}{})
	assert.Equal(t, jsonrpc2.MethodNotFound, wireCode(t, resp.err))

	// Unknown notifications are accepted silently.
	ts.notify(t, "$/setTrace", map[string]interface{}{"value": "off"})
	ts.notify(t, "custom/notification", nil)
}

func TestHandler_ParseError(t *testing.T) {
	ts := newTestServer(t)
	ts.initialize(t, nil)

	resp := ts.call(t, MethodDocumentState, []int{1, 2})
	assert.Equal(t, jsonrpc2.ParseError, wireCode(t, resp.err))
}

func TestHandler_ShutdownExit(t *testing.T) {
	ts := newTestServer(t)
	ts.initialize(t, nil)
	ts.open(t, testURI, 1, "text")

	resp := ts.call(t, protocol.MethodShutdown, nil)
	require.NoError(t, resp.err)

	resp = ts.call(t, MethodDocumentState, DocumentStateParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	assert.Equal(t, jsonrpc2.InvalidRequest, wireCode(t, resp.err))

	select {
	case <-ts.Done():
		t.Fatal("server exited before exit notification")
	default:
	}

	ts.notify(t, protocol.MethodExit, nil)
	<-ts.Done()
	assert.Equal(t, 0, ts.ExitCode())
}

func TestHandler_ExitWithoutShutdown(t *testing.T) {
	ts := newTestServer(t)
	ts.initialize(t, nil)

	ts.notify(t, protocol.MethodExit, nil)
	ts.notify(t, protocol.MethodExit, nil)
	<-ts.Done()
	assert.Equal(t, 1, ts.ExitCode())
}

func TestHandler_DidChangeConfiguration(t *testing.T) {
	ts := newTestServer(t)
	ts.initialize(t, nil)

	ts.notify(t, protocol.MethodWorkspaceDidChangeConfiguration, protocol.DidChangeConfigurationParams{
		Settings: map[string]interface{}{
			"textsync": map[string]interface{}{"maxDocumentBytes": 8, "logEdits": true},
		},
	})

	settings := ts.getSettings()
	assert.Equal(t, 8, settings.Limits.MaxDocumentBytes)
	assert.True(t, settings.LogEdits)
	assert.Equal(t, 8, ts.Workspace().Limits().MaxDocumentBytes)
}

func TestHandler_ConfigurationPull(t *testing.T) {
	ts := newTestServer(t)
	ts.client.configuration = []interface{}{
		map[string]interface{}{"maxDocumentBytes": 1024.0, "verifyOnSave": "true"},
	}
	ts.initialize(t, map[string]interface{}{
		"capabilities": map[string]interface{}{
			"workspace": map[string]interface{}{"configuration": true},
		},
	})

	ts.notify(t, protocol.MethodInitialized, map[string]interface{}{})
	require.True(t, ts.client.waitConfigured())

	assert.Eventually(t, func() bool {
		return ts.getSettings().Limits.MaxDocumentBytes == 1024
	}, testTimeout, 10*time.Millisecond)
	assert.True(t, ts.getSettings().VerifyOnSave)
}
