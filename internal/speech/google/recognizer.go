// Package google provides a Google Cloud Speech-to-Text recognizer.
package google

import (
	"context"
	"io"
	"sync"

	speechapi "cloud.google.com/go/speech/apiv1"
	"github.com/rs/zerolog/log"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"relationship-notes-service/internal/speech"
)

// Config holds streaming recognition parameters.
type Config struct {
	LanguageCode   string
	SampleRateHz   int32
	InterimResults bool
}

// DefaultConfig returns the standard dictation configuration.
func DefaultConfig() Config {
	return Config{
		LanguageCode:   "en-US",
		SampleRateHz:   16000,
		InterimResults: true,
	}
}

// Recognizer implements speech.Recognizer using Google Cloud Speech-to-Text.
// Audio is pumped from the provided source until EOF or Stop.
type Recognizer struct {
	client *speechapi.Client
	cfg    Config
	source io.Reader

	mu      sync.Mutex
	stream  speechpb.Speech_StreamingRecognizeClient
	stopped bool
}

// New creates a Google recognizer reading audio from source.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
func New(ctx context.Context, cfg Config, source io.Reader) (*Recognizer, error) {
	c, err := speechapi.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Recognizer{client: c, cfg: cfg, source: source}, nil
}

// Start opens the streaming session, sends the recognition config, and
// launches the audio pump and response loop.
func (r *Recognizer) Start(ctx context.Context, cb speech.Callback) error {
	stream, err := r.client.StreamingRecognize(ctx)
	if err != nil {
		return err
	}

	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: r.cfg.SampleRateHz,
					LanguageCode:    r.cfg.LanguageCode,
				},
				InterimResults: r.cfg.InterimResults,
			},
		},
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.stream = stream
	r.mu.Unlock()

	go r.pumpAudio(stream)
	go r.listen(stream, cb)
	return nil
}

// Stop half-closes the stream. Google flushes a final result for any
// in-progress utterance before the response loop ends.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || r.stream == nil {
		return nil
	}
	r.stopped = true
	return r.stream.CloseSend()
}

// Close releases the underlying client.
func (r *Recognizer) Close() error {
	return r.client.Close()
}

func (r *Recognizer) pumpAudio(stream speechpb.Speech_StreamingRecognizeClient) {
	buf := make([]byte, 4096)
	for {
		n, err := r.source.Read(buf)
		if n > 0 {
			sendErr := stream.Send(&speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
					AudioContent: buf[:n],
				},
			})
			if sendErr != nil {
				return
			}
		}
		if err != nil {
			_ = r.Stop()
			return
		}
		r.mu.Lock()
		stopped := r.stopped
		r.mu.Unlock()
		if stopped {
			return
		}
	}
}

// listen receives transcript responses and converts them to speech events.
// finalCount tracks how many results have been finalized so events carry a
// stable result index.
func (r *Recognizer) listen(stream speechpb.Speech_StreamingRecognizeClient, cb speech.Callback) {
	defer cb.OnEnd()

	finalCount := 0
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			// A cancelled stream is the normal Stop path, not a failure.
			if status.Code(err) == codes.Canceled {
				return
			}
			log.Warn().Err(err).Msg("google speech stream error")
			cb.OnError(err)
			return
		}

		ev := speech.Event{ResultIndex: finalCount}
		for _, res := range resp.Results {
			if len(res.Alternatives) == 0 {
				continue
			}
			alt := res.Alternatives[0]
			seg := speech.Segment{
				Text:       alt.Transcript,
				Final:      res.IsFinal,
				Confidence: float64(alt.Confidence),
			}
			ev.Segments = append(ev.Segments, seg)
			if res.IsFinal {
				finalCount++
			}
		}
		if len(ev.Segments) > 0 {
			cb.OnEvent(ev)
		}
	}
}
