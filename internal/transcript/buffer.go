// Package transcript owns the live note text and the policy for combining
// manual edits, dictation output, and AI insertions.
package transcript

import (
	"strings"
	"sync"
	"unicode"
)

// Buffer is the single source of truth for the note text of one capture
// session. Three writers share it - manual input, dictation, AI assist - so
// every mutation takes the lock and reads the committed text at mutation
// time, never from a snapshot.
//
// Text model:
//
//	committed - finalized text; the only part that is ever persisted
//	interim   - provisional speech preview; replaced wholesale per event
type Buffer struct {
	mu        sync.RWMutex
	committed string
	interim   string
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// SetManual replaces the committed text with a manual edit and clears any
// stale interim preview.
func (b *Buffer) SetManual(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = text
	b.interim = ""
}

// ApplyFinalSegment appends a finalized speech segment to the committed
// text and clears the interim preview. Dictation is additive: prior content
// is never replaced. A single space is inserted when the committed text is
// non-empty and does not already end in whitespace, so multi-utterance
// dictation does not glue words together.
func (b *Buffer) ApplyFinalSegment(text string) {
	if text == "" {
		b.mu.Lock()
		b.interim = ""
		b.mu.Unlock()
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = joinSegment(b.committed, text)
	b.interim = ""
}

// ApplyInterimSegment replaces the interim preview. The committed text is
// never touched; interim text is visual feedback only.
func (b *Buffer) ApplyInterimSegment(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interim = text
}

// AppendAIText appends a newline plus the suggestion to the committed text.
// The append targets the committed text at call time, so manual edits or
// dictation that landed while the AI request was in flight are appended
// after, never replaced.
func (b *Buffer) AppendAIText(text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = b.committed + "\n" + text
}

// Preview returns committed plus interim text for display. The interim part
// must never be persisted from here; use Commit at submission time.
func (b *Buffer) Preview() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.interim == "" {
		return b.committed
	}
	return joinSegment(b.committed, b.interim)
}

// Committed returns the finalized text only.
func (b *Buffer) Committed() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.committed
}

// Commit promotes any pending interim segment into the committed text and
// returns the result. Called at submission time: a segment still being
// spoken is committed as-is, since stopping the stream delivers its final
// event after the fact anyway.
func (b *Buffer) Commit() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.interim != "" {
		b.committed = joinSegment(b.committed, b.interim)
		b.interim = ""
	}
	return b.committed
}

// Reset restores the buffer to its initial empty state.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = ""
	b.interim = ""
}

// joinSegment concatenates a segment onto prior text, inserting a single
// space unless the prior text is empty or already ends in whitespace.
func joinSegment(prior, seg string) string {
	if prior == "" {
		return seg
	}
	r := []rune(prior)
	if unicode.IsSpace(r[len(r)-1]) || strings.HasPrefix(seg, " ") {
		return prior + seg
	}
	return prior + " " + seg
}
