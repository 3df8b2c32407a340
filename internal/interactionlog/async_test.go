package interactionlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingSink struct {
	name    string
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingSink) snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
	count   int
}

func (s *blockingSink) Name() string { return "blocking" }

func (s *blockingSink) Write(ctx context.Context, _ Entry) error {
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	return nil
}

func TestAsyncLoggerDeliversToAllSinks(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	ok := &recordingSink{name: "ok"}
	logger, err := NewAsyncLogger([]Sink{failing, ok}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Log(context.Background(), Entry{Kind: KindExplanation, Prompt: "p", Response: "r"})
	logger.Log(context.Background(), Entry{Kind: KindVisual, Prompt: "p2", Response: "r2"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := logger.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	entries := ok.snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID == "" || entries[0].Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned")
	}
	if entries[1].Kind != KindVisual {
		t.Fatalf("expected order preserved")
	}
}

func TestAsyncLoggerDropsWhenFull(t *testing.T) {
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	logger, err := NewAsyncLogger([]Sink{sink}, zerolog.Nop(), WithBufferSize(1))
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Log(context.Background(), Entry{Kind: KindExplanation})
	select {
	case <-sink.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not start")
	}

	done := make(chan struct{})
	go func() {
		logger.Log(context.Background(), Entry{Kind: KindExplanation})
		logger.Log(context.Background(), Entry{Kind: KindExplanation})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Log blocked on a full buffer")
	}

	close(sink.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := logger.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.count != 2 {
		t.Fatalf("expected 2 written entries, got %d", sink.count)
	}
}

func TestAsyncLoggerIgnoresLogAfterClose(t *testing.T) {
	sink := &recordingSink{name: "ok"}
	logger, err := NewAsyncLogger([]Sink{sink}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if err := logger.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	logger.Log(context.Background(), Entry{Kind: KindExplanation})
	if err := logger.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if len(sink.snapshot()) != 0 {
		t.Fatalf("expected no entries after close")
	}
}

func TestNewAsyncLoggerRequiresSinks(t *testing.T) {
	if _, err := NewAsyncLogger(nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without sinks")
	}
	if _, err := NewAsyncLogger([]Sink{nil}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error with nil sink")
	}
}
