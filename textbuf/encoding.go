package textbuf

import (
	"fmt"
	"unicode/utf8"
)

// Encoding is the unit a Position column is measured in.
type Encoding int

const (
	UTF16 Encoding = iota
	UTF8
	UTF32
)

// String returns the LSP position encoding kind name.
func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case UTF16:
		return "utf-16"
	case UTF32:
		return "utf-32"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "utf-8":
		return UTF8, nil
	case "utf-16":
		return UTF16, nil
	case "utf-32":
		return UTF32, nil
	default:
		return 0, fmt.Errorf("unknown position encoding %q", s)
	}
}

// units is the number of columns one scalar of size bytes occupies.
func (e Encoding) units(r rune, size int) int {
	switch e {
	case UTF8:
		return size
	case UTF32:
		return 1
	default:
		if r > 0xFFFF {
			return 2
		}
		return 1
	}
}

// ColumnToByte returns the byte offset within line of the given column.
// line must not contain its terminator. The column right after the last
// scalar is valid and yields len(line).
func ColumnToByte(line []byte, column int, enc Encoding) (int, error) {
	if column < 0 {
		return 0, newError(KindColumnOutOfBounds, "negative column %d", column)
	}
	units := 0
	i := 0
	for i < len(line) {
		if units == column {
			return i, nil
		}
		r, size := utf8.DecodeRune(line[i:])
		if r == utf8.RuneError && size <= 1 {
			return 0, newError(KindInvalidUTF8, "malformed sequence at byte %d", i)
		}
		u := enc.units(r, size)
		if column < units+u {
			return 0, newError(KindInvalidBoundary, "%s column %d splits the character at byte %d", enc, column, i)
		}
		units += u
		i += size
	}
	if units == column {
		return i, nil
	}
	return 0, newError(KindColumnOutOfBounds, "%s column %d exceeds line length %d", enc, column, units)
}

// ByteToColumn is the inverse of ColumnToByte.
func ByteToColumn(line []byte, offset int, enc Encoding) (int, error) {
	if offset < 0 || offset > len(line) {
		return 0, newError(KindOutOfBounds, "byte %d outside line of length %d", offset, len(line))
	}
	units := 0
	i := 0
	for i < offset {
		r, size := utf8.DecodeRune(line[i:])
		if r == utf8.RuneError && size <= 1 {
			return 0, newError(KindInvalidUTF8, "malformed sequence at byte %d", i)
		}
		if i+size > offset {
			return 0, newError(KindInvalidBoundary, "byte %d is inside the character at byte %d", offset, i)
		}
		units += enc.units(r, size)
		i += size
	}
	return units, nil
}

// ColumnCount returns the length of line in enc units.
func ColumnCount(line []byte, enc Encoding) (int, error) {
	return ByteToColumn(line, len(line), enc)
}
