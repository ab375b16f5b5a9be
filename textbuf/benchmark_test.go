package textbuf

import (
	"testing"

	"github.com/juev/textsync/internal/testutil"
)

var (
	smallDocument = testutil.GenerateDocument(100)
	largeDocument = testutil.GenerateDocument(20000)
)

func BenchmarkNew_Small(b *testing.B) {
	for b.Loop() {
		New(smallDocument, UTF16)
	}
}

func BenchmarkNew_Large(b *testing.B) {
	for b.Loop() {
		New(largeDocument, UTF16)
	}
}

func BenchmarkApply_InsertTypingLarge(b *testing.B) {
	buf := New(largeDocument, UTF16)
	at := Position{Line: 10000, Column: 5}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := buf.Apply(at, at, "x"); err != nil {
			b.Fatal(err)
		}
		if _, err := buf.Apply(at, Position{Line: 10000, Column: 6}, ""); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkApply_NewlineLarge(b *testing.B) {
	buf := New(largeDocument, UTF16)
	at := Position{Line: 10000, Column: 2}
	for b.Loop() {
		if _, err := buf.Apply(at, at, "\n"); err != nil {
			b.Fatal(err)
		}
		if _, err := buf.Apply(at, Position{Line: 10001, Column: 0}, ""); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReplaceAll_Large(b *testing.B) {
	buf := New(largeDocument, UTF16)
	for b.Loop() {
		if _, err := buf.ReplaceAll(largeDocument); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOffset_UTF16(b *testing.B) {
	buf := New(largeDocument, UTF16)
	p := Position{Line: 12004, Column: 9}
	for b.Loop() {
		if _, err := buf.Offset(p); err != nil {
			b.Fatal(err)
		}
	}
}
