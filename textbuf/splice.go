package textbuf

import "slices"

// replaceRange replaces b.text[start:end] with repl in place and returns the
// change in length. The tail after end is moved with a single copy; growth
// goes through slices.Grow so capacity is amortized across edits.
func (b *Buffer) replaceRange(start, end int, repl string) (int, error) {
	n := len(b.text)
	if start < 0 || start > end || end > n {
		return 0, newError(KindRangeOutOfBounds, "[%d, %d) in buffer of %d bytes", start, end, n)
	}
	delta := len(repl) - (end - start)
	switch {
	case delta > 0:
		b.text = slices.Grow(b.text, delta)[:n+delta]
		copy(b.text[end+delta:], b.text[end:n])
	case delta < 0:
		copy(b.text[end+delta:], b.text[end:n])
		b.text = b.text[:n+delta]
	}
	copy(b.text[start:], repl)
	return delta, nil
}
