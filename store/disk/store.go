package disk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/store"
)

const entryExt = ".entry"

// record is the on-disk envelope for one entry.
type record struct {
	Key     string `json:"key"`
	Expires int64  `json:"expires,omitempty"`
	Value   []byte `json:"value"`
}

// Store keeps each entry in its own file under dir.
type Store struct {
	id    string
	name  string
	dir   string
	ttl   time.Duration
	codec store.Codec
	fs    afero.Afero
	now   func() time.Time

	mu     sync.RWMutex
	closed bool
}

func newStore(fs afero.Fs, dir string, cfg store.Config) *Store {
	return &Store{
		id:    uuid.NewString(),
		name:  cfg.Name,
		dir:   dir,
		ttl:   cfg.TTL,
		codec: cfg.CodecOrDefault(),
		fs:    afero.Afero{Fs: fs},
		now:   time.Now,
	}
}

// ID returns the unique instance id assigned at creation.
func (s *Store) ID() string { return s.id }

// Dir returns the directory holding the store's files.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+entryExt)
}

func (s *Store) Get(_ context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, errors.StoreClosed(s.name)
	}

	rec, ok, err := s.read(s.path(key))
	if err != nil || !ok {
		return nil, false, err
	}
	if rec.Key != key || s.expired(rec) {
		return nil, false, nil
	}
	value, err := s.codec.Unmarshal(rec.Value)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Put(_ context.Context, key string, value any) error {
	data, err := s.codec.Marshal(value)
	if err != nil {
		return err
	}
	rec := record{Key: key, Value: data}
	if s.ttl > 0 {
		rec.Expires = s.now().Add(s.ttl).UnixNano()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Serialization("encode", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.StoreClosed(s.name)
	}

	// write then rename so readers never see a partial file.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := s.fs.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.StoreFailure(s.name, "write", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.StoreFailure(s.name, "write", err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.StoreClosed(s.name)
	}
	if err := s.fs.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.StoreFailure(s.name, "remove", err)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.StoreClosed(s.name)
	}
	return s.removeEntries()
}

func (s *Store) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errors.StoreClosed(s.name)
	}

	infos, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return 0, errors.StoreFailure(s.name, "list", err)
	}
	n := 0
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), entryExt) {
			continue
		}
		rec, ok, err := s.read(filepath.Join(s.dir, info.Name()))
		if err != nil {
			return 0, err
		}
		if ok && !s.expired(rec) {
			n++
		}
	}
	return n, nil
}

func (s *Store) read(path string) (record, bool, error) {
	var rec record
	raw, err := s.fs.ReadFile(path)
	if os.IsNotExist(err) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, errors.StoreFailure(s.name, "read", err)
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, false, errors.Serialization("decode", err)
	}
	return rec, true, nil
}

func (s *Store) expired(rec record) bool {
	return rec.Expires != 0 && s.now().UnixNano() > rec.Expires
}

func (s *Store) removeEntries() error {
	infos, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.StoreFailure(s.name, "clear", err)
	}
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir, info.Name())); err != nil && !os.IsNotExist(err) {
			return errors.StoreFailure(s.name, "clear", err)
		}
	}
	return nil
}

// close marks the store released. Persistent data is removed only when
// purge is set.
func (s *Store) close(purge bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, nil
	}
	s.closed = true
	if !purge {
		return true, nil
	}
	if err := s.fs.RemoveAll(s.dir); err != nil {
		return true, errors.StoreFailure(s.name, "purge", err)
	}
	return true, nil
}
