// Package workspace keeps the open documents of an LSP session.
//
// The map of documents is guarded by one RWMutex and each document by its
// own mutex, so edits to different documents never wait on each other.
package workspace

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/juev/textsync/textbuf"
)

var (
	ErrDocumentNotOpen     = errors.New("document is not open")
	ErrDocumentAlreadyOpen = errors.New("document is already open")
	ErrDocumentTooLarge    = errors.New("document exceeds size limit")
)

type Limits struct {
	MaxDocumentBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxDocumentBytes: 16 << 20}
}

type Document struct {
	mu      sync.Mutex
	uri     protocol.DocumentURI
	path    string
	version int32
	buf     *textbuf.Buffer
}

// Snapshot is a copy of a document's state that outlives its lock.
type Snapshot struct {
	URI       protocol.DocumentURI
	Path      string
	Version   int32
	Encoding  textbuf.Encoding
	Text      string
	LineCount int
}

type Workspace struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document
	limits    Limits
}

func NewWorkspace(limits Limits) *Workspace {
	return &Workspace{
		documents: make(map[protocol.DocumentURI]*Document),
		limits:    normalizeLimits(limits),
	}
}

func normalizeLimits(limits Limits) Limits {
	if limits.MaxDocumentBytes <= 0 {
		limits.MaxDocumentBytes = DefaultLimits().MaxDocumentBytes
	}
	return limits
}

func (w *Workspace) SetLimits(limits Limits) {
	w.mu.Lock()
	w.limits = normalizeLimits(limits)
	w.mu.Unlock()
}

func (w *Workspace) Limits() Limits {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.limits
}

// Open starts tracking a document. The encoding fixes the column unit of
// every later change to it.
func (w *Workspace) Open(u protocol.DocumentURI, version int32, text string, enc textbuf.Encoding) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.documents[u]; ok {
		return fmt.Errorf("%w: %s", ErrDocumentAlreadyOpen, u)
	}
	if len(text) > w.limits.MaxDocumentBytes {
		return fmt.Errorf("%w: %s has %d bytes, limit %d", ErrDocumentTooLarge, u, len(text), w.limits.MaxDocumentBytes)
	}
	w.documents[u] = &Document{
		uri:     u,
		path:    Filename(u),
		version: version,
		buf:     textbuf.New(text, enc),
	}
	return nil
}

// Change applies a batch of changes to an open document in order. A
// failing change stops the batch: the changes before it stay applied, the
// document keeps its previous version, and the *textbuf.BatchError names
// the failed change. Full replacements over the size limit are rejected
// before anything is applied. obs, when non-nil, observes every applied
// edit.
func (w *Workspace) Change(u protocol.DocumentURI, version int32, changes []textbuf.Change, obs textbuf.Updateable) ([]textbuf.EditDescriptor, error) {
	doc, err := w.get(u)
	if err != nil {
		return nil, err
	}
	limit := w.Limits().MaxDocumentBytes
	for i, c := range changes {
		if full, ok := c.(textbuf.FullChange); ok && len(full.Text) > limit {
			return nil, &textbuf.BatchError{
				Index: i,
				Err:   fmt.Errorf("%w: %s has %d bytes, limit %d", ErrDocumentTooLarge, u, len(full.Text), limit),
			}
		}
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	edits, err := doc.buf.Update(obs, changes...)
	if err != nil {
		return edits, err
	}
	doc.version = version
	return edits, nil
}

func (w *Workspace) Close(u protocol.DocumentURI) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.documents[u]; !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotOpen, u)
	}
	delete(w.documents, u)
	return nil
}

func (w *Workspace) Snapshot(u protocol.DocumentURI) (Snapshot, error) {
	doc, err := w.get(u)
	if err != nil {
		return Snapshot{}, err
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return Snapshot{
		URI:       doc.uri,
		Path:      doc.path,
		Version:   doc.version,
		Encoding:  doc.buf.Encoding(),
		Text:      doc.buf.String(),
		LineCount: doc.buf.LineCount(),
	}, nil
}

// View runs fn with the live buffer of a document under its lock. fn must
// not retain the buffer.
func (w *Workspace) View(u protocol.DocumentURI, fn func(version int32, buf *textbuf.Buffer) error) error {
	doc, err := w.get(u)
	if err != nil {
		return err
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return fn(doc.version, doc.buf)
}

// URIs lists the open documents in sorted order.
func (w *Workspace) URIs() []protocol.DocumentURI {
	w.mu.RLock()
	uris := make([]protocol.DocumentURI, 0, len(w.documents))
	for u := range w.documents {
		uris = append(uris, u)
	}
	w.mu.RUnlock()
	slices.Sort(uris)
	return uris
}

func (w *Workspace) get(u protocol.DocumentURI) (*Document, error) {
	w.mu.RLock()
	doc, ok := w.documents[u]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotOpen, u)
	}
	return doc, nil
}

// Filename returns the local path of a file URI, or "" for other schemes.
func Filename(u protocol.DocumentURI) (path string) {
	defer func() {
		if recover() != nil {
			path = ""
		}
	}()
	return uri.URI(u).Filename()
}
