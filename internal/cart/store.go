package cart

import (
	"sync"
	"time"
)

const sweepInterval = time.Minute

type entry struct {
	cart    *Cart
	expires time.Time
}

// Store keeps one cart per session id. A cart lives as long as its session:
// entries past their expiry are evicted on access.
type Store struct {
	mu        sync.Mutex
	carts     map[string]entry
	now       func() time.Time
	nextSweep time.Time
}

func NewStore() *Store {
	return &Store{carts: make(map[string]entry), now: time.Now}
}

// Get returns the cart for sessionID, creating an empty one on first use.
// expires is the session's expiry; the zero time keeps the cart until Drop.
func (s *Store) Get(sessionID string, expires time.Time) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now, false)

	e, ok := s.carts[sessionID]
	if !ok {
		e = entry{cart: New()}
	}
	e.expires = expires
	s.carts[sessionID] = e
	return e.cart
}

// Drop discards the cart of an ended session.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Len reports the number of live carts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(s.now(), true)
	return len(s.carts)
}

func (s *Store) sweep(now time.Time, force bool) {
	if !force && now.Before(s.nextSweep) {
		return
	}
	for id, e := range s.carts {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(s.carts, id)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}
