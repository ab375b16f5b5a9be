// Package lsputil translates between LSP wire types and textbuf.
//
// LSP positions carry no encoding of their own: the column unit is whatever
// the client and server agreed on during initialize (UTF-16 unless both
// sides support something else). Each textbuf.Buffer is created with that
// negotiated encoding, so conversion here is only a change of type.
//
// protocol v0.12 models a content change range as a value, which makes a
// whole-document replacement indistinguishable from an insert at 0:0. The
// DidChangeParams type in this package decodes the range as a pointer
// instead.
package lsputil

import (
	"go.lsp.dev/protocol"

	"github.com/juev/textsync/textbuf"
)

func ToPosition(p protocol.Position) textbuf.Position {
	return textbuf.Position{Line: p.Line, Column: p.Character}
}

func FromPosition(p textbuf.Position) protocol.Position {
	return protocol.Position{Line: p.Line, Character: p.Column}
}

// RangeOf converts the byte span [start, end) of b into an LSP range.
func RangeOf(b *textbuf.Buffer, start, end int) (protocol.Range, error) {
	s, err := b.PositionAt(start)
	if err != nil {
		return protocol.Range{}, err
	}
	e, err := b.PositionAt(end)
	if err != nil {
		return protocol.Range{}, err
	}
	return protocol.Range{Start: FromPosition(s), End: FromPosition(e)}, nil
}

// ToChange maps a content change event onto the matching textbuf change.
func ToChange(ev ContentChangeEvent) textbuf.Change {
	if ev.Range == nil {
		return textbuf.FullChange{Text: ev.Text}
	}
	start := ToPosition(ev.Range.Start)
	end := ToPosition(ev.Range.End)
	switch {
	case ev.Text == "":
		return textbuf.DeleteChange{Start: start, End: end}
	case start == end:
		return textbuf.InsertChange{At: start, Text: ev.Text}
	default:
		return textbuf.RangeChange{Start: start, End: end, Text: ev.Text}
	}
}

func ToChanges(events []ContentChangeEvent) []textbuf.Change {
	changes := make([]textbuf.Change, len(events))
	for i, ev := range events {
		changes[i] = ToChange(ev)
	}
	return changes
}
