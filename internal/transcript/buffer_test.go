package transcript

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestBuffer_FinalSegmentsAppendInOrder(t *testing.T) {
	b := New()

	segments := []string{"first", "second", "third", "fourth"}
	for _, s := range segments {
		b.ApplyFinalSegment(s)
	}

	want := strings.Join(segments, " ")
	if got := b.Committed(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuffer_FinalSegmentClearsInterim(t *testing.T) {
	b := New()

	b.ApplyInterimSegment("discussed road")
	b.ApplyFinalSegment("discussed roadmap and budget")

	if got := b.Committed(); got != "discussed roadmap and budget" {
		t.Errorf("unexpected committed text: %q", got)
	}
	if got := b.Preview(); got != "discussed roadmap and budget" {
		t.Errorf("interim should be cleared from preview, got %q", got)
	}
}

func TestBuffer_InterimNeverMutatesCommitted(t *testing.T) {
	b := New()
	b.SetManual("Met for coffee")

	for _, s := range []string{"A", "B", "C"} {
		b.ApplyInterimSegment(s)
	}

	if got := b.Committed(); got != "Met for coffee" {
		t.Errorf("committed text mutated by interim: %q", got)
	}
	if got := b.Preview(); got != "Met for coffee C" {
		t.Errorf("expected last interim in preview, got %q", got)
	}
}

func TestBuffer_InterimReplacedNotAccumulated(t *testing.T) {
	b := New()
	b.SetManual("Met for coffee")

	// Progressive recognition of one utterance must not duplicate text.
	b.ApplyInterimSegment("discussed")
	b.ApplyInterimSegment("discussed roadmap")
	b.ApplyFinalSegment("discussed roadmap and budget")

	want := "Met for coffee discussed roadmap and budget"
	if got := b.Committed(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuffer_AppendAIText(t *testing.T) {
	b := New()
	b.SetManual("X")

	b.AppendAIText("Y")

	if got := b.Committed(); got != "X\nY" {
		t.Errorf("expected %q, got %q", "X\nY", got)
	}
}

func TestBuffer_AppendAITargetsCurrentText(t *testing.T) {
	b := New()
	b.SetManual("X")

	// Manual edit lands while the AI request is in flight; the late append
	// must target the edited text, not the text at request time.
	b.SetManual("Z")
	b.AppendAIText("Y")

	if got := b.Committed(); got != "Z\nY" {
		t.Errorf("expected %q, got %q", "Z\nY", got)
	}
}

func TestBuffer_AppendAIAfterDictation(t *testing.T) {
	b := New()
	b.SetManual("Follow up")
	b.ApplyFinalSegment("tomorrow")

	b.AppendAIText("Follow up next week")

	want := "Follow up tomorrow\nFollow up next week"
	if got := b.Committed(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuffer_AppendAIEmptyIsNoop(t *testing.T) {
	b := New()
	b.SetManual("notes")

	b.AppendAIText("")

	if got := b.Committed(); got != "notes" {
		t.Errorf("empty append should be a no-op, got %q", got)
	}
}

func TestBuffer_SetManualClearsInterim(t *testing.T) {
	b := New()
	b.ApplyInterimSegment("half spoken")

	b.SetManual("typed over")

	if got := b.Preview(); got != "typed over" {
		t.Errorf("stale interim leaked into preview: %q", got)
	}
}

func TestBuffer_CommitPromotesInterim(t *testing.T) {
	b := New()
	b.SetManual("Met for coffee")
	b.ApplyInterimSegment("still talking")

	if got := b.Commit(); got != "Met for coffee still talking" {
		t.Errorf("expected promoted interim, got %q", got)
	}
	// Promotion is one-shot.
	if got := b.Commit(); got != "Met for coffee still talking" {
		t.Errorf("second commit changed text: %q", got)
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := New()
	b.SetManual("notes")
	b.ApplyInterimSegment("more")

	b.Reset()

	if got := b.Preview(); got != "" {
		t.Errorf("expected empty buffer after reset, got %q", got)
	}
}

func TestBuffer_NoSeparatorWhenPriorEndsInSpace(t *testing.T) {
	b := New()
	b.SetManual("Met for coffee ")
	b.ApplyFinalSegment("and lunch")

	if got := b.Committed(); got != "Met for coffee and lunch" {
		t.Errorf("expected single space boundary, got %q", got)
	}
}

func TestBuffer_ConcurrentWritersDoNotTear(t *testing.T) {
	b := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			b.ApplyFinalSegment(fmt.Sprintf("seg%d", n))
		}(i)
		go func(n int) {
			defer wg.Done()
			b.ApplyInterimSegment(fmt.Sprintf("interim%d", n))
		}(i)
	}
	wg.Wait()

	committed := b.Committed()
	for i := 0; i < 50; i++ {
		if !strings.Contains(committed, fmt.Sprintf("seg%d", i)) {
			t.Errorf("final segment %d lost: %q", i, committed)
		}
	}
	if strings.Contains(committed, "interim") {
		t.Errorf("interim text leaked into committed: %q", committed)
	}
}
