package interactionlog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medibill-ai/internal/observability/metrics"
)

const (
	defaultBufferSize   = 256
	defaultWriteTimeout = 5 * time.Second
)

// AsyncLogger buffers entries and drains them to sinks on one worker.
// When the buffer is full new entries are dropped.
type AsyncLogger struct {
	sinks        []Sink
	logger       zerolog.Logger
	entries      chan Entry
	writeTimeout time.Duration
	clock        func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

// Option configures the async logger.
type Option func(*asyncOptions)

type asyncOptions struct {
	bufferSize   int
	writeTimeout time.Duration
	clock        func() time.Time
}

// WithBufferSize sets the channel capacity.
func WithBufferSize(size int) Option {
	return func(o *asyncOptions) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithWriteTimeout bounds each sink write.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(o *asyncOptions) {
		if timeout > 0 {
			o.writeTimeout = timeout
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(o *asyncOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewAsyncLogger starts the worker. Close drains pending entries.
func NewAsyncLogger(sinks []Sink, logger zerolog.Logger, opts ...Option) (*AsyncLogger, error) {
	if len(sinks) == 0 {
		return nil, errors.New("interactionlog: no sinks")
	}
	for _, sink := range sinks {
		if sink == nil {
			return nil, errors.New("interactionlog: nil sink")
		}
	}
	options := asyncOptions{
		bufferSize:   defaultBufferSize,
		writeTimeout: defaultWriteTimeout,
		clock:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	l := &AsyncLogger{
		sinks:        sinks,
		logger:       logger.With().Str("component", "interactionlog").Logger(),
		entries:      make(chan Entry, options.bufferSize),
		writeTimeout: options.writeTimeout,
		clock:        options.clock,
		done:         make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log enqueues the entry without blocking. It assigns an id and timestamp
// when missing.
func (l *AsyncLogger) Log(_ context.Context, entry Entry) {
	if l == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.clock()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		metrics.IncInteractionLogDropped()
		return
	}
	select {
	case l.entries <- entry:
	default:
		metrics.IncInteractionLogDropped()
		l.logger.Warn().Str("entry_id", entry.ID).Msg("interaction log buffer full, entry dropped")
	}
}

// Close stops accepting entries and waits for the worker to drain, up to
// the context deadline.
func (l *AsyncLogger) Close(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.entries)
		l.mu.Unlock()
	})
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *AsyncLogger) run() {
	defer close(l.done)
	for entry := range l.entries {
		for _, sink := range l.sinks {
			l.write(sink, entry)
		}
	}
}

func (l *AsyncLogger) write(sink Sink, entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), l.writeTimeout)
	defer cancel()
	if err := sink.Write(ctx, entry); err != nil {
		metrics.IncInteractionLogFailure(sink.Name())
		l.logger.Warn().Err(err).Str("sink", sink.Name()).Str("entry_id", entry.ID).Msg("interaction log write failed")
		return
	}
	metrics.IncInteractionLogWrite(sink.Name())
}
