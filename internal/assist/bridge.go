package assist

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"relationship-notes-service/internal/observability/logging"
	"relationship-notes-service/internal/observability/metrics"
	"relationship-notes-service/internal/transcript"
)

// Bridge issues text-suggestion requests and splices results into the
// transcript buffer. The buffer's other writers stay fully live while a
// request is pending; the append targets the committed text at
// resolution time, never a snapshot from request time.
type Bridge struct {
	generator Generator
	templates *TemplateManager
	buffer    *transcript.Buffer
	metrics   *metrics.Metrics
	pending   atomic.Bool
}

// NewBridge creates an assist bridge. templates may be nil to send prompts
// unwrapped.
func NewBridge(generator Generator, templates *TemplateManager, buffer *transcript.Buffer) *Bridge {
	return &Bridge{
		generator: generator,
		templates: templates,
		buffer:    buffer,
		metrics:   metrics.DefaultMetrics,
	}
}

// IsPending reports whether a request is in flight.
func (b *Bridge) IsPending() bool {
	return b.pending.Load()
}

// RequestAssist asks the upstream service for a suggestion based on the
// prompt and appends a non-empty result to the buffer. A blank prompt is a
// no-op that never reaches the remote service. Failures leave the buffer
// untouched and are returned as non-fatal warnings for the caller to show.
func (b *Bridge) RequestAssist(ctx context.Context, promptText string) (string, error) {
	if strings.TrimSpace(promptText) == "" {
		b.metrics.AssistSkipped.Inc()
		return "", nil
	}

	prompt := promptText
	if b.templates != nil {
		prompt = b.templates.BuildPrompt(promptText)
	}

	b.pending.Store(true)
	defer b.pending.Store(false)
	b.metrics.AssistRequests.Inc()

	start := time.Now()
	text, err := b.generator.Generate(ctx, prompt)
	b.metrics.RecordAssist(err, time.Since(start))
	if err != nil {
		logger := logging.WithComponent("assist")
		logger.Warn().Err(err).Msg("assist request failed")
		return "", err
	}

	if text != "" {
		b.buffer.AppendAIText(text)
	}
	return text, nil
}
