package dictation

import (
	"context"
	"strings"
	"sync"

	"relationship-notes-service/internal/observability/logging"
	"relationship-notes-service/internal/observability/metrics"
	"relationship-notes-service/internal/speech"
	"relationship-notes-service/internal/transcript"
)

// Session wraps a speech recognizer and forwards its results to the
// transcript buffer. It implements speech.Callback.
//
// Dictation is an enhancement, not a requirement: recognition errors end
// the session with a recorded warning and never propagate to the form.
type Session struct {
	recognizer speech.Recognizer
	buffer     *transcript.Buffer
	machine    *machine
	metrics    *metrics.Metrics

	mu      sync.Mutex
	lastErr error
	closed  bool
}

// NewSession creates a dictation session. recognizer may be nil when the
// runtime has no speech capability; Start then reports ErrUnsupported and
// the rest of the form is unaffected.
func NewSession(recognizer speech.Recognizer, buffer *transcript.Buffer) *Session {
	return &Session{
		recognizer: recognizer,
		buffer:     buffer,
		machine:    newMachine(),
		metrics:    metrics.DefaultMetrics,
	}
}

// Start begins the speech stream and transitions to LISTENING.
func (s *Session) Start(ctx context.Context) error {
	if s.recognizer == nil {
		return ErrUnsupported
	}
	if err := s.machine.toListening(); err != nil {
		return err
	}

	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()

	// The stream may end before Start returns, so the gauge goes up
	// before the callbacks can bring it back down.
	s.metrics.DictationSessionsActive.Inc()

	if err := s.recognizer.Start(ctx, s); err != nil {
		// OnEnd may already have decremented and gone idle.
		if s.machine.IsListening() {
			s.metrics.DictationSessionsActive.Dec()
		}
		s.machine.toIdle()
		return err
	}

	s.metrics.DictationSessionsStarted.Inc()
	logger := logging.WithComponent("dictation")
	logger.Debug().Msg("dictation started")
	return nil
}

// Stop requests end-of-stream. The transition to IDLE happens when the
// recognizer confirms via OnEnd, not eagerly.
func (s *Session) Stop() error {
	if s.recognizer == nil {
		return ErrUnsupported
	}
	if err := s.machine.requestStop(); err != nil {
		return err
	}
	return s.recognizer.Stop()
}

// Close is the guaranteed-release path for unmount or cancellation. It
// stops the stream if one is active and is safe to call multiple times.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.machine.IsListening() {
		if err := s.machine.requestStop(); err == nil {
			_ = s.recognizer.Stop()
		}
	}
}

// State returns the current session state.
func (s *Session) State() State {
	return s.machine.State()
}

// IsListening reports whether the stream is active.
func (s *Session) IsListening() bool {
	return s.machine.IsListening()
}

// Err returns the last non-fatal recognition warning, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// --- speech.Callback implementation ---

// OnEvent partitions a recognition event into final and interim segments.
// Final segments are appended to the committed text in order; the interim
// portion replaces the previous preview wholesale. Events arriving after
// the session went idle (late callbacks from a dead stream) are dropped.
func (s *Session) OnEvent(ev speech.Event) {
	if !s.machine.IsListening() {
		logger := logging.WithComponent("dictation")
		logger.Debug().
			Int("resultIndex", ev.ResultIndex).
			Msg("event ignored: session not listening")
		return
	}

	var interim []string
	for _, seg := range ev.Segments {
		if seg.Final {
			s.buffer.ApplyFinalSegment(seg.Text)
			s.metrics.SegmentsFinal.Inc()
		} else {
			interim = append(interim, seg.Text)
		}
	}
	if len(interim) > 0 {
		s.buffer.ApplyInterimSegment(strings.Join(interim, " "))
		s.metrics.SegmentsInterim.Inc()
	}
}

// OnError transitions to IDLE with a warning; there is no auto-restart.
// The transcript buffer keeps whatever was committed before the failure.
func (s *Session) OnError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if s.machine.IsListening() {
		s.metrics.DictationSessionsActive.Dec()
	}
	s.machine.toIdle()

	s.metrics.DictationErrors.Inc()
	logger := logging.WithComponent("dictation")
	logger.Warn().Err(err).Msg("recognition error, dictation stopped")
}

// OnEnd confirms end-of-session and transitions to IDLE.
func (s *Session) OnEnd() {
	if s.machine.IsListening() {
		s.metrics.DictationSessionsActive.Dec()
	}
	s.machine.toIdle()
	logger := logging.WithComponent("dictation")
	logger.Debug().Msg("dictation stream ended")
}
