package lsputil

import (
	"fmt"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"
)

// ContentChangeEvent is protocol.TextDocumentContentChangeEvent with an
// optional range. A nil Range replaces the whole document.
type ContentChangeEvent struct {
	Range       *protocol.Range `json:"range,omitempty"`
	RangeLength uint32          `json:"rangeLength,omitempty"`
	Text        string          `json:"text"`
}

type DidChangeParams struct {
	TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []ContentChangeEvent                     `json:"contentChanges"`
}

func DecodeDidChange(raw []byte) (*DidChangeParams, error) {
	var params DidChangeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("decode didChange params: %w", err)
	}
	return &params, nil
}
