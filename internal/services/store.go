package services

import (
	"context"
	"sync"
	"time"

	"github.com/diewo77/bon-de-commande/internal/models"
)

// DefaultSessionTTL is how long an untouched form is kept in memory.
const DefaultSessionTTL = 12 * time.Hour

type storeEntry struct {
	form     models.OrderForm
	lastSeen time.Time
}

// FormStore keeps one order form per browser session, in memory only.
type FormStore struct {
	mu    sync.RWMutex
	forms map[string]storeEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewFormStore creates an empty store. A non-positive ttl falls back to DefaultSessionTTL.
func NewFormStore(ttl time.Duration) *FormStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &FormStore{forms: map[string]storeEntry{}, ttl: ttl, now: time.Now}
}

// Get returns the session's form, or a new empty form when the session is unknown or expired.
func (s *FormStore) Get(id string) models.OrderForm {
	s.mu.RLock()
	e, ok := s.forms[id]
	s.mu.RUnlock()
	if !ok || s.now().Sub(e.lastSeen) > s.ttl {
		return models.NewOrderForm()
	}
	return e.form
}

// Put replaces the session's form.
func (s *FormStore) Put(id string, form models.OrderForm) {
	s.mu.Lock()
	s.forms[id] = storeEntry{form: form, lastSeen: s.now()}
	s.mu.Unlock()
}

// Update applies fn to the current form under the write lock and stores the result
// unless fn fails.
func (s *FormStore) Update(id string, fn func(models.OrderForm) (models.OrderForm, error)) (models.OrderForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	cur := models.NewOrderForm()
	if e, ok := s.forms[id]; ok && now.Sub(e.lastSeen) <= s.ttl {
		cur = e.form
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	s.forms[id] = storeEntry{form: next, lastSeen: now}
	return next, nil
}

// Delete forgets the session's form.
func (s *FormStore) Delete(id string) {
	s.mu.Lock()
	delete(s.forms, id)
	s.mu.Unlock()
}

// Len reports the number of stored forms, expired ones included until the next sweep.
func (s *FormStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms)
}

// Sweep evicts forms idle for longer than the TTL and returns how many were removed.
func (s *FormStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.forms {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.forms, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *FormStore) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}
