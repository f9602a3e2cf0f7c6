package resource

import (
	"testing"

	"github.com/kbukum/cachekit/errors"
)

func TestNewSetDeduplicatesAndOrders(t *testing.T) {
	s := NewSet(Disk, Heap, Disk)
	if s.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", s.Len())
	}
	names := s.Names()
	if names[0] != "disk" || names[1] != "heap" {
		t.Errorf("expected [disk heap], got %v", names)
	}
	if s.String() != "[disk, heap]" {
		t.Errorf("unexpected String() %q", s.String())
	}
}

func TestSetIdentifiesTypesByName(t *testing.T) {
	volatileDisk := Type{name: "disk"}
	s := NewSet(Disk, volatileDisk, Heap)
	if s.Len() != 2 {
		t.Fatalf("expected one member per name, got %v", s.Names())
	}
	if !s.IsPersistable() {
		t.Error("expected the first disk type given to be kept")
	}
	if !s.Contains(volatileDisk) || !s.Is(volatileDisk, Heap) {
		t.Errorf("membership should follow names: %s", s)
	}
	if got := s.Without(volatileDisk); !got.Is(Heap) {
		t.Errorf("Without by name = %s", got)
	}
}

func TestZeroSetIsEmpty(t *testing.T) {
	var s Set
	if !s.IsEmpty() || s.Len() != 0 {
		t.Error("zero Set should be empty")
	}
	if !s.Equal(NewSet()) {
		t.Error("zero Set should equal NewSet()")
	}
	if s.Contains(Heap) {
		t.Error("empty set contains nothing")
	}
}

func TestSetEqualityIgnoresInputOrder(t *testing.T) {
	a := NewSet(Heap, Clustered)
	b := NewSet(Clustered, Heap)
	if !a.Equal(b) {
		t.Error("sets with the same members should be equal")
	}
	if !a.Is(Heap, Clustered) {
		t.Error("Is should match exact membership")
	}
	if a.Is(Heap) {
		t.Error("Is should reject a subset")
	}
}

func TestSetTypesIsCopy(t *testing.T) {
	s := NewSet(Heap)
	types := s.Types()
	types[0] = Disk
	if !s.Contains(Heap) || s.Contains(Disk) {
		t.Error("mutating Types() must not change the set")
	}
}

func TestSetWithout(t *testing.T) {
	s := NewSet(Heap, Disk, OffHeap)
	rest := s.Without(Heap)
	if !rest.Is(Disk, OffHeap) {
		t.Errorf("expected [disk offheap], got %v", rest)
	}
	if s.Len() != 3 {
		t.Error("Without must not mutate the receiver")
	}
}

func TestSetFacets(t *testing.T) {
	tests := []struct {
		name          string
		set           Set
		persistable   bool
		serialization bool
	}{
		{"heap", NewSet(Heap), false, false},
		{"offheap", NewSet(OffHeap), false, true},
		{"heap+disk", NewSet(Heap, Disk), true, true},
		{"empty", Set{}, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.set.IsPersistable(); got != tc.persistable {
				t.Errorf("IsPersistable() = %v, want %v", got, tc.persistable)
			}
			if got := tc.set.RequiresSerialization(); got != tc.serialization {
				t.Errorf("RequiresSerialization() = %v, want %v", got, tc.serialization)
			}
		})
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("Heap", " disk ")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !s.Is(Heap, Disk) {
		t.Errorf("expected [disk heap], got %v", s)
	}

	_, err = Parse("heap", "tape")
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestDefine(t *testing.T) {
	nvme, err := Define("nvme", true, true)
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	if got, ok := Lookup("NVME"); !ok || got != nvme {
		t.Errorf("expected lookup to find nvme, got %v %v", got, ok)
	}

	again, err := Define("nvme", true, true)
	if err != nil || again != nvme {
		t.Errorf("identical redefinition should succeed, got %v %v", again, err)
	}

	if _, err := Define("nvme", false, true); !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
		t.Errorf("conflicting redefinition should fail, got %v", err)
	}
	if _, err := Define("  ", false, false); !errors.HasCode(err, errors.ErrCodeMissingField) {
		t.Errorf("empty name should fail, got %v", err)
	}
}

func TestNamesIncludesBuiltins(t *testing.T) {
	names := Names()
	for _, want := range []string{"clustered", "disk", "heap", "offheap"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Names() = %v, missing %s", names, want)
		}
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
}
