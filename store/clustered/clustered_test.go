package clustered

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
	"github.com/kbukum/cachekit/resilience"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

func startProvider(t *testing.T) (*Provider, *miniredis.Miniredis) {
	t.Helper()
	return startProviderWith(t, miniredis.RunT(t), Config{})
}

func startProviderWith(t *testing.T, mr *miniredis.Miniredis, cfg Config) (*Provider, *miniredis.Miniredis) {
	t.Helper()
	cfg.Enabled, cfg.Addr, cfg.Prefix = true, mr.Addr(), "test"
	p := New(cfg)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Stop(context.Background()) })
	return p, mr
}

func createStore(t *testing.T, p *Provider, cfg store.Config) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := p.CreateStore(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	if err := p.InitStore(ctx, s); err != nil {
		t.Fatalf("InitStore failed: %v", err)
	}
	return s.(*Store)
}

func TestRankRequiresConnection(t *testing.T) {
	clustered := resource.NewSet(resource.Clustered)

	idle := New(Config{Enabled: true, Addr: "127.0.0.1:0"})
	if got := idle.Rank(clustered, nil); got != 0 {
		t.Errorf("unstarted provider ranked %d", got)
	}

	p, _ := startProvider(t)
	if got := p.Rank(clustered, nil); got != 1 {
		t.Errorf("Rank({clustered}) = %d, want 1", got)
	}
	if got := p.Rank(resource.NewSet(resource.Heap, resource.Clustered), nil); got != 0 {
		t.Errorf("Rank({heap, clustered}) = %d, want 0", got)
	}
}

func TestStoreOperations(t *testing.T) {
	ctx := context.Background()
	p, mr := startProvider(t)
	s := createStore(t, p, store.Config{Name: "sessions"})

	if err := s.Put(ctx, "a", map[string]any{"n": 1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	_ = s.Put(ctx, "b", "two")
	if !mr.Exists("test:sessions:a") {
		t.Error("expected namespaced key on server")
	}

	v, ok, err := s.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if v.(map[string]any)["n"] != float64(1) {
		t.Errorf("unexpected value %v", v)
	}
	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Error("expected miss")
	}

	if n, _ := s.Len(ctx); n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}
	_ = s.Remove(ctx, "a")
	if n, _ := s.Len(ctx); n != 1 {
		t.Errorf("Len after Remove = %d, want 1", n)
	}
	_ = s.Clear(ctx)
	if n, _ := s.Len(ctx); n != 0 {
		t.Errorf("Len after Clear = %d", n)
	}
}

func TestStoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	p, _ := startProvider(t)
	a := createStore(t, p, store.Config{Name: "a"})
	b := createStore(t, p, store.Config{Name: "b"})

	_ = a.Put(ctx, "k", 1)
	_ = b.Put(ctx, "k", 2)
	_ = a.Clear(ctx)

	if v, ok, _ := b.Get(ctx, "k"); !ok || v != float64(2) {
		t.Errorf("clearing a touched b: %v, %v", v, ok)
	}
}

func TestStoreTTL(t *testing.T) {
	ctx := context.Background()
	p, mr := startProvider(t)
	s := createStore(t, p, store.Config{Name: "c", TTL: time.Minute})

	_ = s.Put(ctx, "k", "v")
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expected expired key to miss")
	}
}

func TestOptionsPrefix(t *testing.T) {
	ctx := context.Background()
	p, mr := startProvider(t)
	raw, err := p.CreateStore(ctx, store.Config{Name: "c"}, Options{Prefix: "other"})
	if err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	_ = raw.Put(ctx, "k", "v")
	if !mr.Exists("other:c:k") {
		t.Errorf("expected key under overridden prefix, namespace %s", raw.(*Store).Namespace())
	}
}

func TestReleaseKeepsEntries(t *testing.T) {
	ctx := context.Background()
	p, mr := startProvider(t)
	s := createStore(t, p, store.Config{Name: "c"})
	_ = s.Put(ctx, "k", "v")

	if err := p.ReleaseStore(ctx, s); err != nil {
		t.Fatalf("ReleaseStore failed: %v", err)
	}
	if _, _, err := s.Get(ctx, "k"); !errors.HasCode(err, errors.ErrCodeStoreClosed) {
		t.Errorf("expected STORE_CLOSED, got %v", err)
	}
	if !mr.Exists("test:c:k") {
		t.Error("release must not delete shared entries")
	}
}

func TestServerFailure(t *testing.T) {
	ctx := context.Background()
	p, mr := startProvider(t)
	s := createStore(t, p, store.Config{Name: "c"})
	mr.SetError("ERR injected failure")

	if err := s.Put(ctx, "k", "v"); !errors.HasCode(err, errors.ErrCodeStoreFailure) {
		t.Errorf("expected STORE_FAILURE, got %v", err)
	}
	mr.SetError("")
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	retries := 0
	p, _ := startProviderWith(t, mr, Config{
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			OnRetry: func(int, error, time.Duration) {
				retries++
				mr.SetError("")
			},
		},
	})
	s := createStore(t, p, store.Config{Name: "c"})

	mr.SetError("ERR injected failure")
	if err := s.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("Put failed after retry: %v", err)
	}
	if retries != 1 {
		t.Errorf("expected 1 retry, got %d", retries)
	}
	if !mr.Exists("test:c:k") {
		t.Error("expected key written on the retried attempt")
	}
}

func TestOpenCircuitDeclinesSelection(t *testing.T) {
	ctx := context.Background()
	clustered := resource.NewSet(resource.Clustered)
	p, mr := startProviderWith(t, miniredis.RunT(t), Config{
		Retry:   resilience.RetryConfig{MaxAttempts: 1},
		Breaker: resilience.BreakerConfig{MaxFailures: 2, Timeout: time.Hour},
	})
	s := createStore(t, p, store.Config{Name: "c"})

	mr.SetError("ERR injected failure")
	for i := 0; i < 2; i++ {
		if _, _, err := s.Get(ctx, "k"); !errors.HasCode(err, errors.ErrCodeStoreFailure) {
			t.Fatalf("Get %d: expected STORE_FAILURE, got %v", i, err)
		}
	}
	if !p.Breaker().Open() {
		t.Fatalf("expected open circuit, got %s", p.Breaker().State())
	}
	if got := p.Rank(clustered, nil); got != 0 {
		t.Errorf("Rank with open circuit = %d, want 0", got)
	}

	mr.SetError("")
	if err := s.Put(ctx, "k", "v"); !errors.HasCode(err, errors.ErrCodeCircuitOpen) {
		t.Errorf("expected CIRCUIT_OPEN, got %v", err)
	}
	if mr.Exists("test:c:k") {
		t.Error("open circuit let a write through")
	}

	p.Breaker().Reset()
	if got := p.Rank(clustered, nil); got != 1 {
		t.Errorf("Rank after reset = %d, want 1", got)
	}
}

func TestWithClientIsNotClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p := New(Config{}, WithClient(WrapClient(rdb, logger.Nop())))
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Errorf("borrowed client closed by provider: %v", err)
	}
}

func TestRestartAfterStop(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	p := New(Config{Enabled: true, Addr: mr.Addr()})

	for i := 0; i < 2; i++ {
		if err := p.Start(ctx); err != nil {
			t.Fatalf("Start #%d failed: %v", i+1, err)
		}
		s := createStore(t, p, store.Config{Name: "c"})
		if err := s.Put(ctx, "k", i); err != nil {
			t.Fatalf("Put after Start #%d failed: %v", i+1, err)
		}
		if err := p.Stop(ctx); err != nil {
			t.Fatalf("Stop #%d failed: %v", i+1, err)
		}
	}
}

func TestRestartAfterFailedStart(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	p := New(Config{Enabled: true, Addr: mr.Addr()})
	t.Cleanup(func() { _ = p.Stop(ctx) })

	mr.SetError("ERR injected failure")
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected Start to fail while the server errors")
	}
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop after failed Start: %v", err)
	}
	mr.SetError("")

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start after recovery failed: %v", err)
	}
	if got := p.Rank(resource.NewSet(resource.Clustered), nil); got != 1 {
		t.Errorf("Rank after restart = %d, want 1", got)
	}
}

func TestGlobPrefixStaysInNamespace(t *testing.T) {
	ctx := context.Background()
	p, mr := startProvider(t)

	for _, prefix := range []string{"a*", "a?", "[ab]"} {
		t.Run(prefix, func(t *testing.T) {
			mr.FlushAll()
			_ = mr.Set("ab:c:k", "neighbour")
			_ = mr.Set("a:c:k", "neighbour")

			raw, err := p.CreateStore(ctx, store.Config{Name: "c"}, Options{Prefix: prefix})
			if err != nil {
				t.Fatalf("CreateStore failed: %v", err)
			}
			s := raw.(*Store)
			if err := s.Put(ctx, "own", "v"); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if n, err := s.Len(ctx); err != nil || n != 1 {
				t.Errorf("Len = %d, %v, want 1", n, err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			if !mr.Exists("ab:c:k") || !mr.Exists("a:c:k") {
				t.Errorf("Clear on prefix %q deleted another namespace's keys", prefix)
			}
			if mr.Exists(prefix + ":c:own") {
				t.Error("Clear left the store's own key")
			}
		})
	}
}

func TestCreateStoreBeforeStart(t *testing.T) {
	p := New(Config{Enabled: true, Addr: "127.0.0.1:0"})
	_, err := p.CreateStore(context.Background(), store.Config{Name: "c"})
	if !errors.HasCode(err, errors.ErrCodeConnectionFailed) {
		t.Errorf("expected CONNECTION_FAILED, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"valid", Config{Enabled: true, Addr: "localhost:6379"}, false},
		{"missing addr", Config{Enabled: true}, true},
		{"bad timeout", Config{Enabled: true, Addr: "x:1", DialTimeout: "soon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	if _, err := Factory(map[string]any{}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT without addr, got %v", err)
	}
	p, err := Factory(map[string]any{"addr": "localhost:6379", "prefix": "app"})
	if err != nil {
		t.Fatalf("Factory failed: %v", err)
	}
	if p.(*Provider).cfg.Prefix != "app" {
		t.Errorf("unexpected prefix %s", p.(*Provider).cfg.Prefix)
	}
}
