// Package sim provides a simulated speech recognizer for development and
// testing without cloud credentials. It emits progressive interim segments,
// exactly one final segment per utterance, and a terminal end event.
package sim

import (
	"context"
	"sync"
	"time"

	"relationship-notes-service/internal/speech"
)

// Utterance is one scripted utterance with progressive transcripts.
type Utterance struct {
	Interims   []string // progressive interim transcripts
	Final      string   // final transcript text
	Confidence float64  // confidence score for the final
}

// DefaultUtterances provides sample dictation for simulation.
var DefaultUtterances = []Utterance{
	{
		Interims:   []string{"met with", "met with Sarah to", "met with Sarah to discuss"},
		Final:      "met with Sarah to discuss the renewal",
		Confidence: 0.94,
	},
	{
		Interims:   []string{"she asked", "she asked for pricing"},
		Final:      "she asked for pricing before Friday",
		Confidence: 0.91,
	},
	{
		Interims:   []string{"follow up", "follow up next"},
		Final:      "follow up next week",
		Confidence: 0.97,
	},
}

// Recognizer implements speech.Recognizer with scripted utterances.
// Each tick emits the next interim; once an utterance's interims are
// exhausted its final is emitted, then the next utterance begins. Stop ends
// the stream and fires OnEnd.
type Recognizer struct {
	utterances []Utterance
	interval   time.Duration

	mu      sync.Mutex
	cb      speech.Callback
	stopped bool
	started bool
	done    chan struct{}
}

// New creates a simulated recognizer cycling through utterances. A nil or
// empty slice falls back to DefaultUtterances.
func New(utterances []Utterance, interval time.Duration) *Recognizer {
	if len(utterances) == 0 {
		utterances = DefaultUtterances
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Recognizer{
		utterances: utterances,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

// Start begins emitting scripted recognition events.
func (r *Recognizer) Start(ctx context.Context, cb speech.Callback) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.cb = cb
	r.mu.Unlock()

	go r.run(ctx)
	return nil
}

// Stop requests end-of-stream. OnEnd fires once the run loop drains.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true
	close(r.done)
	return nil
}

func (r *Recognizer) run(ctx context.Context) {
	defer r.cb.OnEnd()

	resultIndex := 0
	for _, utt := range r.utterances {
		for _, interim := range utt.Interims {
			if !r.sleep(ctx) {
				return
			}
			r.cb.OnEvent(speech.Event{
				ResultIndex: resultIndex,
				Segments:    []speech.Segment{{Text: interim}},
			})
		}
		if !r.sleep(ctx) {
			return
		}
		r.cb.OnEvent(speech.Event{
			ResultIndex: resultIndex,
			Segments: []speech.Segment{{
				Text:       utt.Final,
				Final:      true,
				Confidence: utt.Confidence,
			}},
		})
		resultIndex++
	}

	// Script exhausted; wait for Stop or cancellation.
	select {
	case <-r.done:
	case <-ctx.Done():
	}
}

// sleep waits one interval, returning false if the stream should end.
func (r *Recognizer) sleep(ctx context.Context) bool {
	select {
	case <-time.After(r.interval):
		return true
	case <-r.done:
		return false
	case <-ctx.Done():
		return false
	}
}
