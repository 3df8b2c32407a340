package interactionlog

import (
	"context"
	"errors"
	"time"
)

// ErrLogFailure indicates a sink could not record an entry.
var ErrLogFailure = errors.New("interactionlog: write failed")

// Kind classifies an interaction.
type Kind string

const (
	KindExplanation Kind = "explanation"
	KindVisual      Kind = "visual"
)

// Entry is one prompt/response pair sent to the generator. Entries are
// append-only.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Kind      Kind              `json:"kind"`
	Prompt    string            `json:"prompt"`
	Response  string            `json:"response"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger records interactions. Implementations never block the caller for
// long and never return errors.
type Logger interface {
	Log(ctx context.Context, entry Entry)
}

// Sink persists entries somewhere.
type Sink interface {
	Name() string
	Write(ctx context.Context, entry Entry) error
}

// Nop discards entries.
type Nop struct{}

// Log implements Logger.
func (Nop) Log(context.Context, Entry) {}
