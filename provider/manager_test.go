package provider

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/kbukum/cachekit/errors"
	"github.com/kbukum/cachekit/logger"
	"github.com/kbukum/cachekit/resource"
	"github.com/kbukum/cachekit/store"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string]any
}

func (s *mapStore) Get(_ context.Context, key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Put(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *mapStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *mapStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]any{}
	return nil
}

func (s *mapStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data), nil
}

// lifecycleProvider ranks 1 for an exact resource match and records every
// lifecycle call in order.
type lifecycleProvider struct {
	name    string
	accepts resource.Set
	initErr error

	mu    sync.Mutex
	calls []string
}

func (p *lifecycleProvider) Name() string { return p.name }

func (p *lifecycleProvider) Rank(required resource.Set, _ []ServiceConfig) int {
	if required.Equal(p.accepts) {
		return 1
	}
	return 0
}

func (p *lifecycleProvider) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *lifecycleProvider) CreateStore(_ context.Context, cfg store.Config, _ ...ServiceConfig) (store.Store, error) {
	p.record("create:" + cfg.Name)
	return &mapStore{data: map[string]any{}}, nil
}

func (p *lifecycleProvider) InitStore(context.Context, store.Store) error {
	p.record("init")
	return p.initErr
}

func (p *lifecycleProvider) ReleaseStore(context.Context, store.Store) error {
	p.record("release")
	return nil
}

func newTestManager(t *testing.T, providers ...Provider) *Manager {
	t.Helper()
	reg := NewRegistry()
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register(%s) failed: %v", p.Name(), err)
		}
	}
	return NewManager(reg, nil, WithManagerLogger(logger.Nop()))
}

func TestManagerCreateAndReleaseStore(t *testing.T) {
	heap := &lifecycleProvider{name: "heap", accepts: resource.NewSet(resource.Heap)}
	disk := &lifecycleProvider{name: "disk", accepts: resource.NewSet(resource.Disk)}
	m := newTestManager(t, heap, disk)
	ctx := context.Background()

	h, err := m.CreateStore(ctx, store.Config{Name: "users", Resources: resource.NewSet(resource.Disk)})
	if err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	if h.Provider != Provider(disk) || h.Rank != 1 {
		t.Fatalf("expected disk provider with rank 1, got %s/%d", h.Provider.Name(), h.Rank)
	}
	if err := h.Store.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := m.ReleaseStore(ctx, h); err != nil {
		t.Fatalf("ReleaseStore failed: %v", err)
	}
	want := []string{"create:users", "init", "release"}
	if len(disk.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", disk.calls, want)
	}
	for i := range want {
		if disk.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, disk.calls[i], want[i])
		}
	}
	if len(heap.calls) != 0 {
		t.Errorf("losing provider saw lifecycle calls: %v", heap.calls)
	}
}

func TestManagerReleasesOnInitFailure(t *testing.T) {
	boom := stderrors.New("boom")
	p := &lifecycleProvider{name: "heap", accepts: resource.NewSet(resource.Heap), initErr: boom}
	m := newTestManager(t, p)

	_, err := m.CreateStore(context.Background(), store.Config{Name: "c", Resources: resource.NewSet(resource.Heap)})
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected init error, got %v", err)
	}
	if got := len(p.calls); got != 3 || p.calls[2] != "release" {
		t.Errorf("expected store released after failed init, calls = %v", p.calls)
	}
}

func TestManagerSelectionFailures(t *testing.T) {
	ctx := context.Background()

	empty := newTestManager(t)
	_, err := empty.CreateStore(ctx, store.Config{Name: "c", Resources: resource.NewSet(resource.Heap)})
	if !errors.HasCode(err, errors.ErrCodeNoCandidate) {
		t.Errorf("expected NO_CANDIDATE, got %v", err)
	}

	p := &lifecycleProvider{name: "heap", accepts: resource.NewSet(resource.Heap)}
	m := newTestManager(t, p)
	_, err = m.CreateStore(ctx, store.Config{Name: "c", Resources: resource.NewSet(resource.Clustered)})
	if !IsNoEligibleProvider(err) {
		t.Errorf("expected NO_ELIGIBLE_PROVIDER, got %v", err)
	}
	if len(p.calls) != 0 {
		t.Errorf("no lifecycle call expected after failed selection, got %v", p.calls)
	}
}

func TestManagerSelect(t *testing.T) {
	heap := &lifecycleProvider{name: "heap", accepts: resource.NewSet(resource.Heap)}
	m := newTestManager(t, heap)

	got, err := m.Select(context.Background(), resource.NewSet(resource.Heap))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got != Provider(heap) {
		t.Errorf("expected heap, got %s", got.Name())
	}
	if m.Registry().Len() != 1 {
		t.Errorf("expected registry with 1 provider")
	}
}

func TestManagerReleaseNilHandle(t *testing.T) {
	m := newTestManager(t)
	if err := m.ReleaseStore(context.Background(), nil); err != nil {
		t.Errorf("ReleaseStore(nil) = %v", err)
	}
}

func TestManagerRejectsEmptyOutcome(t *testing.T) {
	reg := NewRegistry()
	heap := &lifecycleProvider{name: "heap", accepts: resource.NewSet(resource.Heap)}
	if err := reg.Register(heap); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	empty := SelectorFunc(func(context.Context, []Provider, Descriptor) Outcome { return Outcome{} })
	m := NewManager(reg, Chain(WithLogging(logger.Nop()))(empty), WithManagerLogger(logger.Nop()))

	h, err := m.CreateStore(context.Background(), store.Config{Name: "c", Resources: resource.NewSet(resource.Heap)})
	if err == nil || h != nil {
		t.Fatalf("expected an error and no handle, got %v, %v", h, err)
	}
	if len(heap.calls) != 0 {
		t.Errorf("no provider should have been used, got %v", heap.calls)
	}
}
