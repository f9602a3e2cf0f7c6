package heap

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/cachekit/errors"
)

type entry struct {
	key     string
	value   any
	expires time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Store keeps entries in a map. When MaxEntries is set the oldest insertion
// is evicted first.
type Store struct {
	id         string
	name       string
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List
	closed  bool
}

func newStore(name string, maxEntries int, ttl time.Duration) *Store {
	return &Store{
		id:         uuid.NewString(),
		name:       name,
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// ID returns the unique instance id assigned at creation.
func (s *Store) ID() string { return s.id }

// Name returns the cache name the store backs.
func (s *Store) Name() string { return s.name }

func (s *Store) Get(_ context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, false, errors.StoreClosed(s.name)
	}
	el, ok := s.entries[key]
	if !ok {
		s.mu.RUnlock()
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if !e.expired(s.now()) {
		s.mu.RUnlock()
		return e.value, true, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	// re-check under the write lock; a Put may have refreshed it.
	if el, ok := s.entries[key]; ok && el.Value.(*entry).expired(s.now()) {
		s.removeElement(el)
	}
	s.mu.Unlock()
	return nil, false, nil
}

func (s *Store) Put(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.StoreClosed(s.name)
	}

	var expires time.Time
	if s.ttl > 0 {
		expires = s.now().Add(s.ttl)
	}
	if el, ok := s.entries[key]; ok {
		e := el.Value.(*entry)
		e.value, e.expires = value, expires
		return nil
	}

	s.entries[key] = s.order.PushBack(&entry{key: key, value: value, expires: expires})
	for s.maxEntries > 0 && s.order.Len() > s.maxEntries {
		s.removeElement(s.order.Front())
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.StoreClosed(s.name)
	}
	if el, ok := s.entries[key]; ok {
		s.removeElement(el)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.StoreClosed(s.name)
	}
	s.entries = make(map[string]*list.Element)
	s.order.Init()
	return nil
}

// Len counts live entries. Expired entries that were not yet evicted are
// not counted.
func (s *Store) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errors.StoreClosed(s.name)
	}
	if s.ttl <= 0 {
		return len(s.entries), nil
	}
	now, n := s.now(), 0
	for el := s.order.Front(); el != nil; el = el.Next() {
		if !el.Value.(*entry).expired(now) {
			n++
		}
	}
	return n, nil
}

func (s *Store) removeElement(el *list.Element) {
	s.order.Remove(el)
	delete(s.entries, el.Value.(*entry).key)
}

// close drops every entry; later operations fail with STORE_CLOSED.
func (s *Store) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.entries = nil
	s.order.Init()
	return true
}
