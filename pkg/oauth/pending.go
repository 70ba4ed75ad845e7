package oauth

import (
	"errors"
	"sync"
	"time"
)

// ErrUnknownRequestToken is returned when a callback names a handshake that
// was never started, already completed, or expired
var ErrUnknownRequestToken = errors.New("unknown or expired request token")

// PendingStore holds handshakes between Start and the provider's callback,
// together with caller state S (the blog and date range of a web request).
// Entries are single use and expire after the TTL.
type PendingStore[S any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]pendingEntry[S]
}

type pendingEntry[S any] struct {
	pending Pending
	state   S
	expires time.Time
}

// NewPendingStore creates a store whose entries live for ttl
func NewPendingStore[S any](ttl time.Duration) *PendingStore[S] {
	return &PendingStore[S]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]pendingEntry[S]),
	}
}

// Put records a started handshake
func (s *PendingStore[S]) Put(p Pending, state S) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.entries[p.RequestToken] = pendingEntry[S]{pending: p, state: state, expires: now.Add(s.ttl)}
}

// Take removes and returns the handshake started with requestToken
func (s *PendingStore[S]) Take(requestToken string) (Pending, S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[requestToken]
	delete(s.entries, requestToken)

	var zero S
	if !ok || !s.now().Before(entry.expires) {
		return Pending{}, zero, ErrUnknownRequestToken
	}
	return entry.pending, entry.state, nil
}

// Len returns the number of live handshakes
func (s *PendingStore[S]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(s.now())
	return len(s.entries)
}

func (s *PendingStore[S]) sweep(now time.Time) {
	for token, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, token)
		}
	}
}
