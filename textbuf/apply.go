package textbuf

import "unicode/utf8"

// Point is a (row, byte column) location, the convention used by
// incremental parsers independently of the buffer's position encoding.
type Point struct {
	Row    uint32
	Column uint32
}

// EditDescriptor describes one applied change in terms an incremental
// parser can use to invalidate only the affected part of its tree.
type EditDescriptor struct {
	StartByte   int
	OldEndByte  int
	NewEndByte  int
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// Edit is a change already resolved to byte offsets: [Start, End) is
// replaced by Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Apply replaces the text between start and end with text.
func (b *Buffer) Apply(start, end Position, text string) (EditDescriptor, error) {
	startByte, err := b.Offset(start)
	if err != nil {
		return EditDescriptor{}, err
	}
	endByte, err := b.Offset(end)
	if err != nil {
		return EditDescriptor{}, err
	}
	if startByte > endByte {
		return EditDescriptor{}, newError(KindInvalidRange,
			"start %d:%d is after end %d:%d", start.Line, start.Column, end.Line, end.Column)
	}
	return b.ApplyEdit(Edit{Start: startByte, End: endByte, Text: text})
}

// ApplyEdit applies a byte-resolved edit. Either the text and the line index
// are both updated or, on error, neither is touched.
func (b *Buffer) ApplyEdit(e Edit) (EditDescriptor, error) {
	if e.Start < 0 || e.Start > e.End || e.End > len(b.text) {
		return EditDescriptor{}, newError(KindRangeOutOfBounds,
			"[%d, %d) in buffer of %d bytes", e.Start, e.End, len(b.text))
	}
	if !b.isBoundary(e.Start) || !b.isBoundary(e.End) {
		return EditDescriptor{}, newError(KindInvalidBoundary,
			"[%d, %d) splits a character", e.Start, e.End)
	}
	if !utf8.ValidString(e.Text) {
		return EditDescriptor{}, newError(KindInvalidUTF8, "replacement text")
	}

	ed := EditDescriptor{
		StartByte:   e.Start,
		OldEndByte:  e.End,
		NewEndByte:  e.Start + len(e.Text),
		StartPoint:  b.pointAt(e.Start),
		OldEndPoint: b.pointAt(e.End),
	}
	inserted := appendLineStarts(nil, []byte(e.Text), 0)

	delta, err := b.replaceRange(e.Start, e.End, e.Text)
	if err != nil {
		return EditDescriptor{}, err
	}
	b.lines.Patch(e.Start, e.End, e.End+delta, inserted)

	ed.NewEndPoint = b.pointAt(ed.NewEndByte)
	return ed, nil
}

// ReplaceAll swaps the whole document for text and rebuilds the line index.
func (b *Buffer) ReplaceAll(text string) (EditDescriptor, error) {
	if !utf8.ValidString(text) {
		return EditDescriptor{}, newError(KindInvalidUTF8, "replacement text")
	}
	ed := EditDescriptor{
		OldEndByte:  len(b.text),
		NewEndByte:  len(text),
		OldEndPoint: b.pointAt(len(b.text)),
	}
	b.text = append(b.text[:0], text...)
	b.lines.Rebuild(b.text)
	ed.NewEndPoint = b.pointAt(len(b.text))
	return ed, nil
}

func (b *Buffer) isBoundary(off int) bool {
	return off == len(b.text) || utf8.RuneStart(b.text[off])
}
