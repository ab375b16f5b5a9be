package server

import (
	"errors"

	"go.lsp.dev/protocol"
)

// MethodDocumentState reports what the server holds for a document. It
// lets clients and tests check that both sides agree after a series of
// incremental changes.
const MethodDocumentState = "textsync/documentState"

var errLineRange = errors.New("line range out of bounds")

// LineRange is a half-open range of line numbers.
type LineRange struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

type DocumentStateParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	// Lines, when set, asks for the content of those lines without their
	// terminators.
	Lines *LineRange `json:"lines,omitempty"`
}

type DocumentState struct {
	URI       protocol.DocumentURI `json:"uri"`
	Version   int32                `json:"version"`
	Length    int                  `json:"length"`
	LineCount int                  `json:"lineCount"`
	Encoding  string               `json:"encoding"`
	Lines     []string             `json:"lines,omitempty"`
}
