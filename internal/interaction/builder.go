// Package interaction validates and assembles interaction records at
// submission time.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"relationship-notes-service/internal/models"
	"relationship-notes-service/internal/observability/logging"
	"relationship-notes-service/internal/observability/metrics"
	"relationship-notes-service/internal/transcript"
)

// ErrSubmitInFlight is returned when a submission is attempted while a
// prior one has not resolved. Prevents duplicate creation on double-click.
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// ValidationError reports a missing or malformed required field. The field
// name lets the caller attach the message inline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Creator is the create operation of the external persistence collaborator.
type Creator interface {
	CreateInteraction(ctx context.Context, in models.Interaction) (models.Interaction, error)
}

// FormState carries the structured fields entered alongside the notes.
type FormState struct {
	Date             string
	Type             string
	ReminderSet      bool
	NextFollowUpDate string
}

// Observer is notified after a successful save so the owning view can
// re-read its interaction list. An explicit callback, not ambient cache
// invalidation.
type Observer func(saved models.Interaction)

// Builder assembles the final interaction payload from the form fields and
// the transcript buffer's committed text.
type Builder struct {
	store   Creator
	buffer  *transcript.Buffer
	metrics *metrics.Metrics

	inFlight atomic.Bool

	mu       sync.Mutex
	observer Observer
}

// NewBuilder creates a builder bound to one transcript buffer.
func NewBuilder(store Creator, buffer *transcript.Buffer) *Builder {
	return &Builder{
		store:   store,
		buffer:  buffer,
		metrics: metrics.DefaultMetrics,
	}
}

// SetObserver registers the single refresh observer.
func (b *Builder) SetObserver(fn Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observer = fn
}

// Build validates the form fields and assembles the payload without
// submitting it. Notes are read from the buffer but not committed; Submit
// performs the commit.
//
// reminderSet=false forces nextFollowUpDate to null regardless of any stale
// value left in the field. A reminder with no follow-up date is accepted;
// the date can be added later.
func (b *Builder) Build(contactID string, form FormState) (models.Interaction, error) {
	if form.Date == "" {
		return models.Interaction{}, &ValidationError{Field: "date", Message: "date is required"}
	}
	if _, err := time.Parse(models.DateLayout, form.Date); err != nil {
		return models.Interaction{}, &ValidationError{Field: "date", Message: "date must be a valid calendar date (YYYY-MM-DD)"}
	}

	typ, err := models.ParseInteractionType(form.Type)
	if err != nil {
		if form.Type == "" {
			return models.Interaction{}, &ValidationError{Field: "type", Message: "type is required"}
		}
		return models.Interaction{}, &ValidationError{Field: "type", Message: err.Error()}
	}

	var followUp *string
	if form.ReminderSet && form.NextFollowUpDate != "" {
		if _, err := time.Parse(models.DateLayout, form.NextFollowUpDate); err != nil {
			return models.Interaction{}, &ValidationError{Field: "nextFollowUpDate", Message: "follow-up date must be a valid calendar date (YYYY-MM-DD)"}
		}
		d := form.NextFollowUpDate
		followUp = &d
	}

	return models.Interaction{
		ContactID:        contactID,
		Date:             form.Date,
		Type:             typ,
		Notes:            b.buffer.Preview(),
		ReminderSet:      form.ReminderSet,
		NextFollowUpDate: followUp,
	}, nil
}

// Submit validates, assembles, and persists the interaction. Validation
// failures block the submission before any store call. On success all local
// state resets and the observer is notified; on failure every entered value,
// including the transcript, is preserved for resubmission.
func (b *Builder) Submit(ctx context.Context, contactID string, form FormState) (models.Interaction, error) {
	if !b.inFlight.CompareAndSwap(false, true) {
		b.metrics.SubmitInFlightRejects.Inc()
		return models.Interaction{}, ErrSubmitInFlight
	}
	defer b.inFlight.Store(false)

	payload, err := b.Build(contactID, form)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			b.metrics.InteractionsRejected.WithLabelValues(verr.Field).Inc()
		}
		return models.Interaction{}, err
	}

	// Promote any interim segment still being spoken at submit time.
	payload.Notes = b.buffer.Commit()

	saved, err := b.store.CreateInteraction(ctx, payload)
	if err != nil {
		logger := logging.WithContact(contactID)
		logger.Warn().Err(err).Msg("interaction save failed, form state preserved")
		return models.Interaction{}, err
	}

	b.metrics.InteractionsCreated.Inc()
	if saved.ReminderSet {
		b.metrics.RemindersScheduled.Inc()
	}
	logger := logging.WithInteraction(contactID, saved.ID)
	logger.Info().
		Str("type", string(saved.Type)).
		Bool("reminderSet", saved.ReminderSet).
		Msg("interaction saved")

	b.buffer.Reset()

	b.mu.Lock()
	observer := b.observer
	b.mu.Unlock()
	if observer != nil {
		observer(saved)
	}

	return saved, nil
}

// InFlight reports whether a submission is currently pending.
func (b *Builder) InFlight() bool {
	return b.inFlight.Load()
}
