// Package docsync tracks per-document synchronization state between the
// editor and a backend engine that may not be ready to receive documents
// yet. Opens arriving early are held as pending snapshots, edits against a
// pending snapshot are coalesced in place, and edits that cannot be
// coalesced are buffered and replayed in arrival order once the backend
// accepts the document.
package docsync

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/bridgels/bridgels/types"
)

// State is the per-URI synchronization state.
type State int

// Unopened is
const (
	Unopened State = iota
	PendingOpen
	Open
)

// DefaultMaxBuffered caps the raw change payloads held per URI before the
// overflow policy applies.
const DefaultMaxBuffered = 64

// Sender forwards document notifications to the backend engine.
type Sender interface {
	SendOpen(ctx context.Context, params types.DidOpenTextDocumentParams) error
	SendChange(ctx context.Context, raw json.RawMessage) error
	SendClose(ctx context.Context, params types.DidCloseTextDocumentParams) error
}

// pendingOpen is the reconstructed open-document snapshot for a document
// whose didOpen has not been forwarded yet.
type pendingOpen struct {
	item types.TextDocumentItem
}

// Tracker is the document sync state machine. The open set, pending-open
// map, buffered-change map and replay markers form one logical state guarded
// by one lock; they are never observed mutually inconsistent.
type Tracker struct {
	mu          sync.Mutex
	open        map[types.DocumentURI]struct{}
	pending     map[types.DocumentURI]*pendingOpen
	buffered    map[types.DocumentURI][]json.RawMessage
	replaying   map[types.DocumentURI]bool
	maxBuffered int
	logger      *log.Logger
}

// NewTracker is
func NewTracker(logger *log.Logger) *Tracker {
	return &Tracker{
		open:        make(map[types.DocumentURI]struct{}),
		pending:     make(map[types.DocumentURI]*pendingOpen),
		buffered:    make(map[types.DocumentURI][]json.RawMessage),
		replaying:   make(map[types.DocumentURI]bool),
		maxBuffered: DefaultMaxBuffered,
		logger:      logger,
	}
}

// StateOf reports the current state for a URI.
func (t *Tracker) StateOf(uri types.DocumentURI) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.open[uri]; ok {
		return Open
	}
	if _, ok := t.pending[uri]; ok {
		return PendingOpen
	}
	return Unopened
}

// Pending returns the coalesced snapshot for a pending document, if any.
func (t *Tracker) Pending(uri types.DocumentURI) (types.TextDocumentItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[uri]
	if !ok {
		return types.TextDocumentItem{}, false
	}
	return p.item, true
}

// BufferedCount returns how many raw change payloads are queued for a URI.
func (t *Tracker) BufferedCount(uri types.DocumentURI) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buffered[uri])
}

// TextOf returns the most recent text known for a URI: the pending snapshot
// before forwarding, nothing once buffered-only, and nothing after close.
func (t *Tracker) TextOf(uri types.DocumentURI) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.pending[uri]; ok {
		return p.item.Text, true
	}
	return "", false
}

// DidOpen handles an editor didOpen. When ready reports true, the open is
// forwarded immediately and any changes that raced ahead of it are replayed
// in order. Otherwise a pending snapshot is recorded for the backend-ready
// flush. ready is evaluated under the tracker lock, so a readiness flip
// concurrent with this call either sees the pending snapshot in its Flush or
// loses the lock race and leaves the forwarding to this call.
func (t *Tracker) DidOpen(ctx context.Context, item types.TextDocumentItem, ready func() bool, sender Sender) error {
	t.mu.Lock()
	// A fresh open supersedes whatever was tracked for the URI.
	delete(t.pending, item.URI)
	if !ready() {
		t.pending[item.URI] = &pendingOpen{item: item}
		t.mu.Unlock()
		return nil
	}
	t.replaying[item.URI] = true
	t.mu.Unlock()

	if err := sender.SendOpen(ctx, types.DidOpenTextDocumentParams{TextDocument: item}); err != nil {
		t.mu.Lock()
		delete(t.replaying, item.URI)
		t.mu.Unlock()
		return err
	}
	return t.finishReplay(ctx, item.URI, sender)
}

// DidChange handles an editor didChange. raw is the original params payload,
// used verbatim for forwarding and buffering so replay is byte-faithful.
func (t *Tracker) DidChange(ctx context.Context, params types.DidChangeTextDocumentParams, raw json.RawMessage, sender Sender) error {
	uri := params.TextDocument.URI

	t.mu.Lock()
	if t.replaying[uri] {
		t.appendBufferedLocked(uri, raw)
		t.mu.Unlock()
		return nil
	}
	if _, ok := t.open[uri]; ok {
		t.mu.Unlock()
		return sender.SendChange(ctx, raw)
	}
	if p, ok := t.pending[uri]; ok {
		if err := coalesce(p, params); err != nil {
			if t.logger != nil {
				t.logger.Printf("docsync: cannot coalesce change for %s, buffering: %v", uri, err)
			}
			t.appendBufferedLocked(uri, raw)
		}
		t.mu.Unlock()
		return nil
	}
	// Unopened: a change racing ahead of its open.
	t.appendBufferedLocked(uri, raw)
	t.mu.Unlock()
	return nil
}

// DidClose discards a document from all tracking structures and forwards the
// close only when the backend had the document open.
func (t *Tracker) DidClose(ctx context.Context, uri types.DocumentURI, sender Sender) error {
	t.mu.Lock()
	_, wasOpen := t.open[uri]
	delete(t.open, uri)
	delete(t.pending, uri)
	delete(t.buffered, uri)
	delete(t.replaying, uri)
	t.mu.Unlock()

	if !wasOpen {
		return nil
	}
	return sender.SendClose(ctx, types.DidCloseTextDocumentParams{
		TextDocument: types.TextDocumentIdentifier{URI: uri},
	})
}

// IsOpen reports whether the backend has the document open.
func (t *Tracker) IsOpen(uri types.DocumentURI) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.open[uri]
	return ok
}

// Flush forwards every pending open with its coalesced text, then replays
// that URI's buffered changes in arrival order. Called when the backend
// signals readiness.
func (t *Tracker) Flush(ctx context.Context, sender Sender) error {
	t.mu.Lock()
	uris := make([]types.DocumentURI, 0, len(t.pending))
	for uri := range t.pending {
		uris = append(uris, uri)
	}
	t.mu.Unlock()

	var firstErr error
	for _, uri := range uris {
		t.mu.Lock()
		p, ok := t.pending[uri]
		if !ok {
			t.mu.Unlock()
			continue
		}
		delete(t.pending, uri)
		t.replaying[uri] = true
		item := p.item
		t.mu.Unlock()

		if err := sender.SendOpen(ctx, types.DidOpenTextDocumentParams{TextDocument: item}); err != nil {
			t.mu.Lock()
			delete(t.replaying, uri)
			t.mu.Unlock()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := t.finishReplay(ctx, uri, sender); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// finishReplay drains the buffered changes for a URI in order, picking up
// payloads that arrive while replay is in flight, then marks the URI open.
func (t *Tracker) finishReplay(ctx context.Context, uri types.DocumentURI, sender Sender) error {
	for {
		t.mu.Lock()
		batch := t.buffered[uri]
		if len(batch) == 0 {
			delete(t.buffered, uri)
			delete(t.replaying, uri)
			t.open[uri] = struct{}{}
			t.mu.Unlock()
			return nil
		}
		delete(t.buffered, uri)
		t.mu.Unlock()

		for _, raw := range batch {
			if err := sender.SendChange(ctx, raw); err != nil {
				t.mu.Lock()
				delete(t.replaying, uri)
				t.mu.Unlock()
				return err
			}
		}
	}
}

// Reset clears all tracking state. Used when the backend process exits.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = make(map[types.DocumentURI]struct{})
	t.pending = make(map[types.DocumentURI]*pendingOpen)
	t.buffered = make(map[types.DocumentURI][]json.RawMessage)
	t.replaying = make(map[types.DocumentURI]bool)
}

// OpenCount reports how many documents the backend has open.
func (t *Tracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// appendBufferedLocked queues a raw change payload, applying the overflow
// policy: past the cap, collapse to the newest payload containing a
// full-document replacement if one exists, else drop the oldest.
func (t *Tracker) appendBufferedLocked(uri types.DocumentURI, raw json.RawMessage) {
	buf := append(t.buffered[uri], raw)
	if len(buf) > t.maxBuffered {
		if i := newestFullReplacement(buf); i >= 0 {
			buf = buf[i:]
		}
		for len(buf) > t.maxBuffered {
			buf = buf[1:]
		}
	}
	t.buffered[uri] = buf
}

// newestFullReplacement returns the index of the newest payload whose
// changes include a whole-document replacement, or -1.
func newestFullReplacement(buf []json.RawMessage) int {
	for i := len(buf) - 1; i >= 0; i-- {
		var params types.DidChangeTextDocumentParams
		if err := json.Unmarshal(buf[i], &params); err != nil {
			continue
		}
		for _, c := range params.ContentChanges {
			if c.Range == nil {
				return i
			}
		}
	}
	return -1
}

// coalesce applies a change's edits to the pending snapshot in place.
func coalesce(p *pendingOpen, params types.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	text := p.item.Text
	for _, change := range params.ContentChanges {
		next, err := applyChange(text, change)
		if err != nil {
			return err
		}
		text = next
	}
	p.item.Text = text
	if params.TextDocument.Version != 0 {
		p.item.Version = params.TextDocument.Version
	}
	return nil
}
