package interactionlog

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes entries to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink constructs a zerolog sink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("sink", "log").Logger()}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Write implements Sink.
func (s *LogSink) Write(_ context.Context, entry Entry) error {
	event := s.logger.Info().
		Str("entry_id", entry.ID).
		Str("kind", string(entry.Kind)).
		Int("prompt_len", len(entry.Prompt)).
		Int("response_len", len(entry.Response))
	for key, value := range entry.Metadata {
		event = event.Str(key, value)
	}
	event.Msg("interaction")
	return nil
}
