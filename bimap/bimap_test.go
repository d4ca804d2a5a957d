package bimap

import (
	"errors"
	"testing"

	"golang.org/x/exp/rand"
)

func TestAddAndLookup(t *testing.T) {
	m := New[string, int]()

	if err := m.Add("a", 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v, err := m.GetByKey("a"); err != nil || v != 1 {
		t.Errorf("GetByKey(a) = %d, %v", v, err)
	}
	if k, err := m.GetByValue(1); err != nil || k != "a" {
		t.Errorf("GetByValue(1) = %q, %v", k, err)
	}
	if _, err := m.GetByKey("z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByKey(z) err = %v", err)
	}
	if _, err := m.GetByValue(9); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByValue(9) err = %v", err)
	}
}

func TestDuplicateRejected(t *testing.T) {
	tests := []struct {
		name string
		k    string
		v    int
	}{
		{"same key", "a", 2},
		{"same value", "b", 1},
		{"same pair", "a", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New[string, int]()
			m.Add("a", 1)

			if err := m.Add(tt.k, tt.v); !errors.Is(err, ErrDuplicate) {
				t.Errorf("Add(%q, %d) err = %v, want ErrDuplicate", tt.k, tt.v, err)
			}
			if m.TryAdd(tt.k, tt.v) {
				t.Error("TryAdd succeeded on duplicate")
			}
			if m.Len() != 1 {
				t.Errorf("Len = %d, want 1", m.Len())
			}
			if v, _ := m.GetByKey("a"); v != 1 {
				t.Errorf("existing pair changed: a -> %d", v)
			}
		})
	}
}

func TestRemoveBothSides(t *testing.T) {
	m := New[string, int]()
	m.Add("a", 1)
	m.Add("b", 2)

	if !m.RemoveKey("a") {
		t.Fatal("RemoveKey(a) = false")
	}
	if m.ContainsKey("a") || m.ContainsValue(1) {
		t.Error("pair a<->1 still present after RemoveKey")
	}
	if m.RemoveKey("a") {
		t.Error("second RemoveKey(a) = true")
	}

	if !m.RemoveValue(2) {
		t.Fatal("RemoveValue(2) = false")
	}
	if m.ContainsKey("b") || m.ContainsValue(2) {
		t.Error("pair b<->2 still present after RemoveValue")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}

	// Freed slots can be reused.
	if err := m.Add("a", 2); err != nil {
		t.Errorf("re-add: %v", err)
	}
}

func TestClearAndAll(t *testing.T) {
	m := New[int, string]()
	for i, s := range []string{"x", "y", "z"} {
		m.Add(i, s)
	}

	seen := 0
	for k, v := range m.All() {
		if got, _ := m.GetByValue(v); got != k {
			t.Errorf("All yielded %d<->%q but reverse says %d", k, v, got)
		}
		seen++
	}
	if seen != 3 {
		t.Errorf("All yielded %d pairs, want 3", seen)
	}

	m.Clear()
	if m.Len() != 0 || m.ContainsValue("x") {
		t.Error("Clear left entries behind")
	}
}

// Random add/remove sequences keep both directions consistent.
func TestRandomOperationsStayConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := New[int, int]()
	model := make(map[int]int)

	for i := 0; i < 5000; i++ {
		k, v := rng.Intn(64), rng.Intn(64)
		switch rng.Intn(3) {
		case 0:
			_, kTaken := model[k]
			vTaken := false
			for _, mv := range model {
				if mv == v {
					vTaken = true
					break
				}
			}
			err := m.Add(k, v)
			if kTaken || vTaken {
				if !errors.Is(err, ErrDuplicate) {
					t.Fatalf("step %d: Add(%d,%d) err = %v, want ErrDuplicate", i, k, v, err)
				}
			} else {
				if err != nil {
					t.Fatalf("step %d: Add(%d,%d) err = %v", i, k, v, err)
				}
				model[k] = v
			}
		case 1:
			_, had := model[k]
			if m.RemoveKey(k) != had {
				t.Fatalf("step %d: RemoveKey(%d) disagrees with model", i, k)
			}
			delete(model, k)
		case 2:
			var owner int
			had := false
			for mk, mv := range model {
				if mv == v {
					owner, had = mk, true
					break
				}
			}
			if m.RemoveValue(v) != had {
				t.Fatalf("step %d: RemoveValue(%d) disagrees with model", i, v)
			}
			if had {
				delete(model, owner)
			}
		}

		if m.Len() != len(model) {
			t.Fatalf("step %d: Len = %d, model has %d", i, m.Len(), len(model))
		}
	}

	for k, v := range model {
		if got, err := m.GetByKey(k); err != nil || got != v {
			t.Errorf("GetByKey(%d) = %d, %v; want %d", k, got, err, v)
		}
		if got, err := m.GetByValue(v); err != nil || got != k {
			t.Errorf("GetByValue(%d) = %d, %v; want %d", v, got, err, k)
		}
	}
}
