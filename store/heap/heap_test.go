package heap

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/provider"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

func TestRank(t *testing.T) {
	p := New()
	tests := []struct {
		name     string
		required resource.Set
		want     int
	}{
		{"heap", resource.NewSet(resource.Heap), 1},
		{"disk", resource.NewSet(resource.Disk), 0},
		{"heap and disk", resource.NewSet(resource.Heap, resource.Disk), 0},
		{"empty", resource.NewSet(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Rank(tt.required, nil); got != tt.want {
				t.Errorf("Rank() = %d, want %d", got, tt.want)
			}
		})
	}
}

func newTestStore(t *testing.T, p *Provider, cfg store.Config, configs ...provider.ServiceConfig) *Store {
	t.Helper()
	s, err := p.CreateStore(context.Background(), cfg, configs...)
	if err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	if err := p.InitStore(context.Background(), s); err != nil {
		t.Fatalf("InitStore failed: %v", err)
	}
	return s.(*Store)
}

func TestStoreOperations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, New(), store.Config{Name: "users"})

	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatal("expected miss on empty store")
	}
	_ = s.Put(ctx, "a", 1)
	_ = s.Put(ctx, "b", "two")
	_ = s.Put(ctx, "a", 3)

	v, ok, err := s.Get(ctx, "a")
	if err != nil || !ok || v != 3 {
		t.Errorf("Get(a) = %v, %v, %v", v, ok, err)
	}
	if n, _ := s.Len(ctx); n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}

	_ = s.Remove(ctx, "a")
	_ = s.Remove(ctx, "missing")
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("expected a removed")
	}

	_ = s.Clear(ctx)
	if n, _ := s.Len(ctx); n != 0 {
		t.Errorf("Len after Clear = %d", n)
	}
	if s.ID() == "" {
		t.Error("expected store id")
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, New(), store.Config{Name: "c", MaxEntries: 10}, Options{MaxEntries: 2})

	_ = s.Put(ctx, "a", 1)
	_ = s.Put(ctx, "b", 2)
	_ = s.Put(ctx, "a", 10) // update keeps insertion position
	_ = s.Put(ctx, "c", 3)

	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("expected oldest entry a evicted")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok, _ := s.Get(ctx, k); !ok {
			t.Errorf("expected %s present", k)
		}
	}
}

func TestStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, New(), store.Config{Name: "c", TTL: time.Minute})
	now := time.Now()
	s.now = func() time.Time { return now }

	_ = s.Put(ctx, "a", 1)
	if _, ok, _ := s.Get(ctx, "a"); !ok {
		t.Fatal("expected fresh entry")
	}

	now = now.Add(2 * time.Minute)
	if n, _ := s.Len(ctx); n != 0 {
		t.Errorf("Len counts expired entry: %d", n)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestReleaseClosesStore(t *testing.T) {
	ctx := context.Background()
	p := New()
	s := newTestStore(t, p, store.Config{Name: "c"})
	if p.Live() != 1 {
		t.Fatalf("Live = %d", p.Live())
	}

	if err := p.ReleaseStore(ctx, s); err != nil {
		t.Fatalf("ReleaseStore failed: %v", err)
	}
	if p.Live() != 0 {
		t.Errorf("Live after release = %d", p.Live())
	}
	if err := s.Put(ctx, "a", 1); !errors.HasCode(err, errors.ErrCodeStoreClosed) {
		t.Errorf("expected STORE_CLOSED, got %v", err)
	}
	if err := p.ReleaseStore(ctx, s); !errors.HasCode(err, errors.ErrCodeStoreClosed) {
		t.Errorf("expected STORE_CLOSED on double release, got %v", err)
	}
}

func TestForeignStoreRejected(t *testing.T) {
	other := New()
	s := newTestStore(t, other, store.Config{Name: "c"})

	if err := New().ReleaseStore(context.Background(), s); err == nil {
		t.Error("expected error releasing a store created by another provider")
	}
}

func TestNegativeMaxEntries(t *testing.T) {
	_, err := New().CreateStore(context.Background(), store.Config{Name: "c", MaxEntries: -1})
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}
