package session

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	billing "medibill-ai/internal/billing/domain"
	explainapp "medibill-ai/internal/explain/application"
	explain "medibill-ai/internal/explain/domain"
)

// RowState is the explanation state of one bill row.
type RowState string

const (
	StateNone    RowState = "none"
	StatePending RowState = "pending"
	StateReady   RowState = "ready"
	StateError   RowState = "error"
)

// Row is one bill line as rendered for a session.
type Row struct {
	Item         billing.Item
	RunningTotal string
	State        RowState
	Explanation  explain.Explanation
	// Error holds the failure of the last attempt for the current settings.
	Error error
}

// Session holds per-browser preferences, the explanation cache and row state.
type Session struct {
	ID string

	mu         sync.Mutex
	mode       explain.AudienceMode
	language   explain.Language
	cache      *explainapp.Cache
	seen       []string
	synced     bool
	pending    map[explain.Key]struct{}
	failures   map[explain.Key]error
	lastActive time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		mode:       explain.DefaultMode,
		language:   explain.DefaultLanguage,
		cache:      explainapp.NewCache(),
		pending:    make(map[explain.Key]struct{}),
		failures:   make(map[explain.Key]error),
		lastActive: now,
	}
}

// New returns a standalone session, mainly for API callers and tests.
func New(id string) *Session {
	return newSession(id, time.Now().UTC())
}

// Cache returns the session's explanation cache.
func (s *Session) Cache() *explainapp.Cache {
	return s.cache
}

// Preferences returns the current audience mode and language.
func (s *Session) Preferences() (explain.AudienceMode, explain.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.language
}

// SetPreferences changes mode and language. Cached explanations for other
// keys are kept.
func (s *Session) SetPreferences(mode explain.AudienceMode, lang explain.Language) error {
	if !mode.IsValid() {
		return explain.ErrInvalidMode
	}
	if !lang.IsValid() {
		return explain.ErrInvalidLanguage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.language = lang
	return nil
}

// Key returns the cache key for item under the current preferences.
func (s *Session) Key(itemID string) explain.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return explain.Key{ItemID: itemID, Mode: s.mode, Language: s.language}
}

// Sync records the current item list and returns the ids not seen before.
func (s *Session) Sync(items []billing.Item) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[string]struct{}, len(s.seen))
	for _, id := range s.seen {
		known[id] = struct{}{}
	}
	var added []string
	current := make([]string, 0, len(items))
	for _, item := range items {
		current = append(current, item.ID)
		if _, ok := known[item.ID]; !ok {
			added = append(added, item.ID)
		}
	}
	s.seen = current
	s.synced = true
	return added
}

// Synced reports whether Sync has run before, so the ids it returns are
// new arrivals rather than the initial list.
func (s *Session) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

// Begin marks key as in flight.
func (s *Session) Begin(key explain.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = struct{}{}
	delete(s.failures, key)
}

// Finish clears the in-flight mark and records err for key, if any.
func (s *Session) Finish(key explain.Key, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	if err != nil {
		s.failures[key] = err
		return
	}
	delete(s.failures, key)
}

// Rows builds the rendered rows for items under the current preferences.
func (s *Session) Rows(items []billing.Item) []Row {
	mode, lang := s.Preferences()
	rows := make([]Row, 0, len(items))
	running := decimal.Zero
	for _, item := range items {
		running = running.Add(item.Amount)
		key := explain.Key{ItemID: item.ID, Mode: mode, Language: lang}
		row := Row{Item: item, RunningTotal: running.StringFixed(2), State: StateNone}
		s.mu.Lock()
		_, inFlight := s.pending[key]
		failure := s.failures[key]
		s.mu.Unlock()
		if cached, ok := s.cache.Get(key); ok {
			row.State = StateReady
			row.Explanation = cached
		} else if inFlight {
			row.State = StatePending
		} else if failure != nil {
			row.State = StateError
			row.Error = failure
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
