// Package speech defines the interface for streaming speech recognizers.
package speech

import "context"

// Segment is one recognized portion of speech within an event.
type Segment struct {
	Text       string
	Final      bool    // engine has committed to this text and will not revise it
	Confidence float64 // meaningful only when Final
}

// Event is one recognition update. ResultIndex identifies the first segment
// in Segments relative to the full result history, so a consumer can apply
// only what is new since the previous event instead of re-joining the
// entire history.
type Event struct {
	ResultIndex int
	Segments    []Segment
}

// Callback receives recognition results from a Recognizer.
type Callback interface {
	// OnEvent is called for each recognition update, in emission order.
	OnEvent(ev Event)

	// OnError is called when recognition fails. The stream is dead after
	// an error; no further events follow.
	OnError(err error)

	// OnEnd is called exactly once when the stream has fully ended,
	// whether by Stop, error, or end of input.
	OnEnd()
}

// Recognizer is a continuous speech-recognition stream (Google, simulated,
// or any other provider). Injected rather than ambient so sessions can be
// tested without a speech capability and swapped per platform.
type Recognizer interface {
	// Start begins streaming recognition, delivering results to cb until
	// the stream ends.
	Start(ctx context.Context, cb Callback) error

	// Stop requests end-of-stream. The stream is only finished once the
	// callback's OnEnd fires; Stop itself does not block for it.
	Stop() error
}
