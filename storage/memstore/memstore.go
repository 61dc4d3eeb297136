package memstore

import (
	"sync"
	"time"

	"github.com/jrsteele09/book-library-client/storage"
)

var _ storage.ExpiringStore = (*MemStore)(nil)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemStore is a process-lifetime region. Its content is gone when the process ends,
// which makes it the session-scoped home of the credential.
type MemStore struct {
	entries map[string]entry
	nowFunc func() time.Time
	lock    sync.RWMutex
}

type Option func(*MemStore)

// WithNowFunc sets the clock used to expire entries
func WithNowFunc(now func() time.Time) Option {
	return func(s *MemStore) {
		s.nowFunc = now
	}
}

func New(options ...Option) *MemStore {
	s := &MemStore{
		entries: make(map[string]entry),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *MemStore) Get(key string) (string, error) {
	s.lock.RLock()
	e, ok := s.entries[key]
	s.lock.RUnlock()
	if !ok {
		return "", storage.ErrNotFound
	}

	if !e.expiresAt.IsZero() && !s.nowFunc().Before(e.expiresAt) {
		s.lock.Lock()
		// Only drop the entry we looked at; a concurrent Set may have replaced it.
		if current, ok := s.entries[key]; ok && current == e {
			delete(s.entries, key)
		}
		s.lock.Unlock()
		return "", storage.ErrNotFound
	}
	return e.value, nil
}

func (s *MemStore) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[key] = entry{value: value}
	return nil
}

func (s *MemStore) SetWithExpiry(key, value string, expiresAt time.Time) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.nowFunc().Before(expiresAt) {
		delete(s.entries, key)
		return nil
	}
	s.entries[key] = entry{value: value, expiresAt: expiresAt}
	return nil
}

func (s *MemStore) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries = make(map[string]entry)
	return nil
}

// Len returns the number of held entries, expired ones included
func (s *MemStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries)
}
