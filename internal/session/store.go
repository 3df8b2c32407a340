package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCookieName = "medibill_session"
	defaultTTL        = 12 * time.Hour
)

// Store keeps sessions in memory, keyed by an id carried in a signed cookie.
// The cookie identifies a browser; it is not authentication.
type Store struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	clock      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures the store.
type Option func(*Store)

// WithTTL sets how long an idle session is kept.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCookieName overrides the cookie name.
func WithCookieName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewStore constructs a session store.
func NewStore(secret []byte, opts ...Option) (*Store, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty secret")
	}
	s := &Store{
		secret:     secret,
		cookieName: DefaultCookieName,
		ttl:        defaultTTL,
		clock:      func() time.Time { return time.Now().UTC() },
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Lookup returns the session referenced by the request cookie.
func (s *Store) Lookup(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, false
	}
	id, err := parseToken(cookie.Value, s.secret)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	sess.touch(s.clock())
	return sess, true
}

// Ensure returns the request's session, creating one and setting the cookie
// when missing or invalid.
func (s *Store) Ensure(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if sess, ok := s.Lookup(r); ok {
		return sess, nil
	}
	now := s.clock()
	sess := newSession(uuid.NewString(), now)
	token, err := signToken(sess.ID, s.secret, now, s.ttl)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(s.ttl),
	})
	return sess, nil
}

// Prune drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Prune() int {
	cutoff := s.clock().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StartPruner prunes idle sessions every interval until ctx is done.
func (s *Store) StartPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Prune()
			}
		}
	}()
}
