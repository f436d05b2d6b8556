// Package dictation adapts a continuous speech-recognition stream to the
// transcript buffer and manages the listening state machine.
package dictation

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the dictation session state.
type State int

const (
	// StateIdle - No stream active. Start is allowed.
	StateIdle State = iota
	// StateListening - Stream is active and delivering events.
	StateListening
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid transitions and missing capability.
var (
	ErrUnsupported      = errors.New("speech recognition is not available")
	ErrAlreadyListening = errors.New("dictation already listening")
	ErrNotListening     = errors.New("dictation is not listening")
)

// machine is the explicit two-state dictation machine.
//
// Transitions:
//
//	IDLE ── start ──→ LISTENING
//	LISTENING ── stream end ──→ IDLE   (stop confirmation)
//	LISTENING ── recognition error ──→ IDLE
//
// Stop does not transition eagerly; the session stays LISTENING until the
// stream confirms end-of-session. stopPending marks a requested stop so
// double-stop is rejected without racing the confirmation.
type machine struct {
	mu          sync.RWMutex
	state       State
	stopPending bool
}

func newMachine() *machine {
	return &machine{state: StateIdle}
}

// State returns the current state.
func (m *machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsListening reports whether the stream is active.
func (m *machine) IsListening() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateListening
}

// toListening validates and performs the start transition.
func (m *machine) toListening() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateListening {
		return ErrAlreadyListening
	}
	m.state = StateListening
	m.stopPending = false
	return nil
}

// requestStop marks a stop request. The state stays LISTENING until the
// stream confirms via toIdle.
func (m *machine) requestStop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateListening {
		return ErrNotListening
	}
	if m.stopPending {
		return ErrNotListening
	}
	m.stopPending = true
	return nil
}

// toIdle performs the end-of-stream (or error) transition. Idempotent.
func (m *machine) toIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
	m.stopPending = false
}
