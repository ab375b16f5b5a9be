package lsputil

import (
	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"

	"github.com/juev/textsync/textbuf"
)

type initializeCapabilities struct {
	Capabilities struct {
		General struct {
			PositionEncodings []string `json:"positionEncodings"`
		} `json:"general"`
	} `json:"capabilities"`
}

// ClientEncodings extracts capabilities.general.positionEncodings from raw
// initialize params. Unknown names are skipped.
func ClientEncodings(raw []byte) []textbuf.Encoding {
	var params initializeCapabilities
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil
	}
	var encs []textbuf.Encoding
	for _, name := range params.Capabilities.General.PositionEncodings {
		if enc, err := textbuf.ParseEncoding(name); err == nil {
			encs = append(encs, enc)
		}
	}
	return encs
}

// NegotiateEncoding picks the position encoding for a session. preferred is
// used when the client offers it; otherwise UTF-8 beats UTF-32, and UTF-16
// is the fallback every client must support.
func NegotiateEncoding(offered []textbuf.Encoding, preferred *textbuf.Encoding) textbuf.Encoding {
	has := func(enc textbuf.Encoding) bool {
		for _, o := range offered {
			if o == enc {
				return true
			}
		}
		return false
	}
	if preferred != nil && (has(*preferred) || *preferred == textbuf.UTF16) {
		return *preferred
	}
	for _, enc := range []textbuf.Encoding{textbuf.UTF8, textbuf.UTF32} {
		if has(enc) {
			return enc
		}
	}
	return textbuf.UTF16
}

// ServerCapabilities adds positionEncoding (LSP 3.17) to the v0.12 type.
type ServerCapabilities struct {
	protocol.ServerCapabilities
	PositionEncoding string `json:"positionEncoding,omitempty"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities   `json:"capabilities"`
	ServerInfo   *protocol.ServerInfo `json:"serverInfo,omitempty"`
}

func WithPositionEncoding(result *protocol.InitializeResult, enc textbuf.Encoding) *InitializeResult {
	return &InitializeResult{
		Capabilities: ServerCapabilities{
			ServerCapabilities: result.Capabilities,
			PositionEncoding:   enc.String(),
		},
		ServerInfo: result.ServerInfo,
	}
}
