package textbuf

import "unicode/utf8"

// Change is a change message that knows how to apply itself to a Buffer.
// New message shapes only need to implement this interface.
type Change interface {
	Apply(b *Buffer) (EditDescriptor, error)
}

// Updateable is notified of every edit applied by Buffer.Update, typically
// to keep a syntax tree in step with the text.
type Updateable interface {
	Edit(EditDescriptor)
}

type UpdateableFunc func(EditDescriptor)

func (f UpdateableFunc) Edit(ed EditDescriptor) {
	f(ed)
}

// Updateables forwards each edit to all of its members in order.
type Updateables []Updateable

func (us Updateables) Edit(ed EditDescriptor) {
	for _, u := range us {
		u.Edit(ed)
	}
}

// Update applies changes in order, each against the document left by the
// previous one. It stops at the first failure and returns a *BatchError
// naming the failed change; the returned descriptors cover the changes that
// were applied. u may be nil.
func (b *Buffer) Update(u Updateable, changes ...Change) ([]EditDescriptor, error) {
	edits := make([]EditDescriptor, 0, len(changes))
	for i, c := range changes {
		ed, err := c.Apply(b)
		if err != nil {
			return edits, &BatchError{Index: i, Err: err}
		}
		if u != nil {
			u.Edit(ed)
		}
		edits = append(edits, ed)
	}
	return edits, nil
}

// FullChange replaces the whole document.
type FullChange struct {
	Text string
}

func (c FullChange) Apply(b *Buffer) (EditDescriptor, error) {
	return b.ReplaceAll(c.Text)
}

// RangeChange replaces the text between Start and End.
type RangeChange struct {
	Start Position
	End   Position
	Text  string
}

func (c RangeChange) Apply(b *Buffer) (EditDescriptor, error) {
	return b.Apply(c.Start, c.End, c.Text)
}

type InsertChange struct {
	At   Position
	Text string
}

func (c InsertChange) Apply(b *Buffer) (EditDescriptor, error) {
	return b.Apply(c.At, c.At, c.Text)
}

type DeleteChange struct {
	Start Position
	End   Position
}

func (c DeleteChange) Apply(b *Buffer) (EditDescriptor, error) {
	return b.Apply(c.Start, c.End, "")
}

// DeletePreviousChar behaves like backspace at At: it removes the character
// before it, or the line break when At is at the start of a line. At the
// start of the buffer nothing changes.
type DeletePreviousChar struct {
	At Position
}

func (c DeletePreviousChar) Apply(b *Buffer) (EditDescriptor, error) {
	end, err := b.Offset(c.At)
	if err != nil {
		return EditDescriptor{}, err
	}
	line := b.lines.LineOfOffset(end)
	lineStart := b.lines.starts[line]

	start := end
	switch {
	case end > lineStart:
		r, size := utf8.DecodeLastRune(b.text[lineStart:end])
		if r == utf8.RuneError && size <= 1 {
			return EditDescriptor{}, newError(KindInvalidUTF8, "malformed sequence before byte %d", end)
		}
		start = end - size
	case line > 0:
		_, prevEnd, _, _ := b.lineBounds(line - 1)
		start = prevEnd
	}
	return b.ApplyEdit(Edit{Start: start, End: end})
}
