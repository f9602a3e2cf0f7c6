package component

import (
	"context"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/kbukum/cachekit/errors"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	order    *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.order != nil {
		*m.order = append(*m.order, "start:"+m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.order != nil {
		*m.order = append(*m.order, "stop:"+m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

type describedComponent struct {
	mockComponent
}

func (d *describedComponent) Describe() Description {
	return Description{Type: "cache", Details: "2 caches"}
}

func assertOrder(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "cache"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := r.Register(&mockComponent{name: "cache"})
	if !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
		t.Errorf("expected ALREADY_EXISTS, got %v", err)
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "cache"})

	if got := r.Get("cache"); got == nil || got.Name() != "cache" {
		t.Errorf("Get(cache) = %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Error("expected nil for unregistered component")
	}
	if n := len(r.All()); n != 1 {
		t.Errorf("All() returned %d components", n)
	}
}

func TestStartAndStopOrder(t *testing.T) {
	r := NewRegistry()
	var order []string
	for _, name := range []string{"redis", "cache", "metrics"} {
		_ = r.Register(&mockComponent{name: name, order: &order})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	assertOrder(t, order,
		"start:redis", "start:cache", "start:metrics",
		"stop:metrics", "stop:cache", "stop:redis",
	)
}

func TestStartAllRollsBack(t *testing.T) {
	r := NewRegistry()
	var order []string
	_ = r.Register(&mockComponent{name: "redis", order: &order})
	_ = r.Register(&mockComponent{name: "cache", order: &order, startErr: fmt.Errorf("no provider")})
	_ = r.Register(&mockComponent{name: "metrics", order: &order})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected error from StartAll")
	}
	assertOrder(t, order, "start:redis", "start:cache", "stop:redis")

	// nothing is left started
	order = order[:0]
	_ = r.StopAll(context.Background())
	if len(order) != 0 {
		t.Errorf("expected no stops after rollback, got %v", order)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := NewRegistry()
	var order []string
	_ = r.Register(&mockComponent{name: "cache", order: &order})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected 0 stops for unstarted components, got %v", order)
	}
}

func TestStopAllAggregatesErrors(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: fmt.Errorf("a failed")})
	_ = r.Register(&mockComponent{name: "b"})
	_ = r.Register(&mockComponent{name: "c", stopErr: fmt.Errorf("c failed")})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("expected *multierror.Error, got %T: %v", err, err)
	}
	if len(merr.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(merr.Errors), merr)
	}
}

func TestStartAllDescribable(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&describedComponent{mockComponent{name: "caches"}})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	var _ Describable = (*describedComponent)(nil)
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{
		name:   "redis",
		health: Health{Name: "redis", Status: StatusHealthy, Message: "connected"},
	})
	_ = r.Register(&mockComponent{
		name:   "cache",
		health: Health{Name: "cache", Status: StatusDegraded, Message: "1 of 2 caches"},
	})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy {
		t.Errorf("expected redis healthy, got %s", results[0].Status)
	}
	if results[1].Status != StatusDegraded {
		t.Errorf("expected cache degraded, got %s", results[1].Status)
	}
}
