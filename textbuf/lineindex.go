package textbuf

import (
	"bytes"
	"slices"
	"sort"
)

// LineIndex holds the byte offset of every line start. The first entry is
// always 0 and every other entry directly follows a '\n' byte.
type LineIndex struct {
	starts []int
}

func NewLineIndex(text []byte) *LineIndex {
	li := &LineIndex{}
	li.Rebuild(text)
	return li
}

// Rebuild rescans text from scratch, reusing the existing allocation.
func (li *LineIndex) Rebuild(text []byte) {
	li.starts = appendLineStarts(append(li.starts[:0], 0), text, 0)
}

// appendLineStarts appends base+i+1 for every '\n' at index i of text.
// bytes.IndexByte is vectorized on the common architectures.
func appendLineStarts(dst []int, text []byte, base int) []int {
	off := 0
	for {
		i := bytes.IndexByte(text[off:], '\n')
		if i < 0 {
			return dst
		}
		off += i + 1
		dst = append(dst, base+off)
	}
}

func (li *LineIndex) Len() int {
	return len(li.starts)
}

func (li *LineIndex) LineStart(n int) (int, error) {
	if n < 0 || n >= len(li.starts) {
		return 0, newError(KindOutOfBounds, "line %d, buffer has %d lines", n, len(li.starts))
	}
	return li.starts[n], nil
}

// LineOfOffset returns the line containing the byte at off. Offsets past the
// last line start belong to the last line.
func (li *LineIndex) LineOfOffset(off int) int {
	line := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > off
	}) - 1
	return max(line, 0)
}

// Starts returns a copy of the line starts.
func (li *LineIndex) Starts() []int {
	return slices.Clone(li.starts)
}

// Patch updates the index after [start, oldEnd) was replaced by text ending
// at newEnd. inserted holds the line starts of the replacement text relative
// to its first byte, as produced by scanning only that text.
func (li *LineIndex) Patch(start, oldEnd, newEnd int, inserted []int) {
	// Starts in (start, oldEnd] lost the '\n' in front of them.
	lo := sort.SearchInts(li.starts, start+1)
	hi := sort.SearchInts(li.starts, oldEnd+1)
	li.starts = slices.Replace(li.starts, lo, hi, inserted...)

	mid := lo + len(inserted)
	for i := lo; i < mid; i++ {
		li.starts[i] += start
	}
	if delta := newEnd - oldEnd; delta != 0 {
		for i := mid; i < len(li.starts); i++ {
			li.starts[i] += delta
		}
	}
}
