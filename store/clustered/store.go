package clustered

import (
	"context"
	stderrors "errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/resilience"
	"github.com/kbukum/cachekit/store"
)

const scanBatch = 256

// globEscaper makes SCAN MATCH treat glob characters in a namespace literally.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Store maps entries to Redis keys under a per-cache namespace. Every
// command runs through the provider's circuit breaker inside a retry loop.
type Store struct {
	id        string
	name      string
	namespace string
	match     string
	ttl       time.Duration
	codec     store.Codec
	rdb       *goredis.Client
	breaker   *resilience.CircuitBreaker
	retry     resilience.RetryConfig
	closed    atomic.Bool
}

func newStore(rdb *goredis.Client, prefix string, cfg store.Config, breaker *resilience.CircuitBreaker, retry resilience.RetryConfig) *Store {
	namespace := prefix + ":" + cfg.Name + ":"
	return &Store{
		id:        uuid.NewString(),
		name:      cfg.Name,
		namespace: namespace,
		match:     globEscaper.Replace(namespace) + "*",
		ttl:       cfg.TTL,
		codec:     cfg.CodecOrDefault(),
		rdb:       rdb,
		breaker:   breaker,
		retry:     retry,
	}
}

// ID returns the unique instance id assigned at creation.
func (s *Store) ID() string { return s.id }

// Namespace returns the key prefix of every entry in the store.
func (s *Store) Namespace() string { return s.namespace }

func (s *Store) key(k string) string { return s.namespace + k }

// call runs one Redis command. Command errors become retryable
// STORE_FAILURE errors; an open circuit ends the loop at once.
func (s *Store) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return resilience.RetryFunc(ctx, s.retry, func(ctx context.Context) error {
		return s.breaker.Execute(func() error {
			if err := fn(ctx); err != nil {
				return errors.StoreFailure(s.name, op, err)
			}
			return nil
		})
	})
}

func (s *Store) Get(ctx context.Context, key string) (any, bool, error) {
	if s.closed.Load() {
		return nil, false, errors.StoreClosed(s.name)
	}
	var (
		raw   []byte
		found bool
	)
	err := s.call(ctx, "get", func(ctx context.Context) error {
		b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
		if stderrors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, found = b, true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	value, err := s.codec.Unmarshal(raw)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value any) error {
	if s.closed.Load() {
		return errors.StoreClosed(s.name)
	}
	data, err := s.codec.Marshal(value)
	if err != nil {
		return err
	}
	return s.call(ctx, "put", func(ctx context.Context) error {
		return s.rdb.Set(ctx, s.key(key), data, s.ttl).Err()
	})
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if s.closed.Load() {
		return errors.StoreClosed(s.name)
	}
	return s.call(ctx, "remove", func(ctx context.Context) error {
		return s.rdb.Del(ctx, s.key(key)).Err()
	})
}

// Clear deletes every key in the namespace.
func (s *Store) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return errors.StoreClosed(s.name)
	}
	return s.scan(ctx, "clear", func(keys []string) error {
		return s.call(ctx, "clear", func(ctx context.Context) error {
			return s.rdb.Del(ctx, keys...).Err()
		})
	})
}

// Len counts the keys in the namespace with SCAN.
func (s *Store) Len(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, errors.StoreClosed(s.name)
	}
	n := 0
	err := s.scan(ctx, "len", func(keys []string) error {
		n += len(keys)
		return nil
	})
	return n, err
}

func (s *Store) scan(ctx context.Context, op string, fn func(keys []string) error) error {
	var cursor uint64
	for {
		var (
			keys []string
			next uint64
		)
		err := s.call(ctx, op, func(ctx context.Context) error {
			var err error
			keys, next, err = s.rdb.Scan(ctx, cursor, s.match, scanBatch).Result()
			return err
		})
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
