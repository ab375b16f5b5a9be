// Package textbuf keeps a document's text together with a line index and
// applies editor or LSP changes to it incrementally.
//
// Positions arrive as (line, column) pairs where the column is counted in
// the Encoding the buffer was created with (UTF-8 bytes, UTF-16 code units or
// Unicode scalars). Every change is resolved to a byte range, spliced into a
// single contiguous []byte, and the line index is patched only around the
// edited region. Each applied change yields an EditDescriptor in byte offsets
// and (row, byte column) points, the form incremental parsers such as
// tree-sitter expect.
//
// A Buffer is not safe for concurrent use. Callers sharing a document between
// goroutines must serialize access to it.
package textbuf

import (
	"fmt"
	"iter"
	"unicode/utf8"
)

// Position is a caller-facing location. Column is measured in the encoding
// of the Buffer and excludes the line terminator.
type Position struct {
	Line   uint32
	Column uint32
}

type Buffer struct {
	text  []byte
	lines LineIndex
	enc   Encoding
}

// New creates a buffer holding text whose positions are interpreted in enc.
// text is expected to be valid UTF-8; malformed sequences are reported as
// KindInvalidUTF8 by the conversions that meet them.
func New(text string, enc Encoding) *Buffer {
	b := &Buffer{text: []byte(text), enc: enc}
	b.lines.Rebuild(b.text)
	return b
}

func (b *Buffer) Encoding() Encoding {
	return b.enc
}

func (b *Buffer) Len() int {
	return len(b.text)
}

// Content returns a copy of the whole document.
func (b *Buffer) Content() string {
	return string(b.text)
}

func (b *Buffer) String() string {
	return b.Content()
}

// Bytes returns the document without copying. The slice is only valid until
// the next change and must not be modified.
func (b *Buffer) Bytes() []byte {
	return b.text
}

func (b *Buffer) LineCount() int {
	return b.lines.Len()
}

func (b *Buffer) LineStarts() []int {
	return b.lines.Starts()
}

// lineBounds returns where line n starts, where its content ends (before
// "\n" or "\r\n") and where the next line starts.
func (b *Buffer) lineBounds(n int) (start, end, next int, err error) {
	start, err = b.lines.LineStart(n)
	if err != nil {
		return 0, 0, 0, err
	}
	next = len(b.text)
	if n+1 < b.lines.Len() {
		next = b.lines.starts[n+1]
	}
	end = next
	if end > start && b.text[end-1] == '\n' {
		end--
		if end > start && b.text[end-1] == '\r' {
			end--
		}
	}
	return start, end, next, nil
}

// Line returns line n without its terminator.
func (b *Buffer) Line(n int) (string, error) {
	start, end, _, err := b.lineBounds(n)
	if err != nil {
		return "", err
	}
	return string(b.text[start:end]), nil
}

// Lines iterates over every line without terminators. The sequence reads
// the buffer when it is ranged over, so it can be reused after changes.
func (b *Buffer) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for n := 0; n < b.lines.Len(); n++ {
			start, end, _, _ := b.lineBounds(n)
			if !yield(string(b.text[start:end])) {
				return
			}
		}
	}
}

// Offset resolves pos to a byte offset. The position one line past the last
// line with column 0 is accepted as the end of the buffer; editors send it
// when appending.
func (b *Buffer) Offset(pos Position) (int, error) {
	line := int(pos.Line)
	if line == b.lines.Len() && pos.Column == 0 {
		return len(b.text), nil
	}
	start, end, _, err := b.lineBounds(line)
	if err != nil {
		return 0, err
	}
	col, err := ColumnToByte(b.text[start:end], int(pos.Column), b.enc)
	if err != nil {
		return 0, withLine(err, line)
	}
	return start + col, nil
}

// PositionAt converts a byte offset into a Position in the buffer encoding.
// Offsets inside a "\r\n" terminator are rejected.
func (b *Buffer) PositionAt(off int) (Position, error) {
	if off < 0 || off > len(b.text) {
		return Position{}, newError(KindOutOfBounds, "byte %d in buffer of %d bytes", off, len(b.text))
	}
	line := b.lines.LineOfOffset(off)
	start, end, _, _ := b.lineBounds(line)
	if off > end {
		return Position{}, newError(KindInvalidBoundary, "byte %d is inside the line terminator of line %d", off, line)
	}
	col, err := ByteToColumn(b.text[start:end], off-start, b.enc)
	if err != nil {
		return Position{}, withLine(err, line)
	}
	return Position{Line: uint32(line), Column: uint32(col)}, nil
}

// PointAt converts a byte offset into a (row, byte column) point.
func (b *Buffer) PointAt(off int) (Point, error) {
	if off < 0 || off > len(b.text) {
		return Point{}, newError(KindOutOfBounds, "byte %d in buffer of %d bytes", off, len(b.text))
	}
	if off < len(b.text) && !utf8.RuneStart(b.text[off]) {
		return Point{}, newError(KindInvalidBoundary, "byte %d is inside a character", off)
	}
	return b.pointAt(off), nil
}

func (b *Buffer) pointAt(off int) Point {
	line := b.lines.LineOfOffset(off)
	return Point{Row: uint32(line), Column: uint32(off - b.lines.starts[line])}
}

func withLine(err error, line int) error {
	if e, ok := err.(*Error); ok {
		return &Error{Kind: e.Kind, Message: fmt.Sprintf("line %d: %s", line, e.Message)}
	}
	return err
}
