package ecs

import "testing"

func TestSparseSetEmplaceRemove(t *testing.T) {
	s := NewSparseSet(8)
	ents := []EntityID{NewEntityID(0, 0), NewEntityID(3, 0), NewEntityID(17, 2), NewEntityID(40, 1)}
	for _, e := range ents {
		if !s.Emplace(e) {
			t.Fatalf("emplace %s failed", e)
		}
	}
	if s.Emplace(ents[1]) {
		t.Fatalf("duplicate emplace should fail")
	}
	if s.Len() != len(ents) {
		t.Fatalf("len = %d", s.Len())
	}
	for _, e := range ents {
		i, ok := s.Index(e)
		if !ok || s.Entities()[i] != e {
			t.Fatalf("packed[sparse[%s]] != %s", e, e)
		}
	}

	if !s.Remove(ents[1]) {
		t.Fatalf("remove failed")
	}
	if s.Remove(ents[1]) {
		t.Fatalf("second remove should be a no-op")
	}
	if s.Contains(ents[1]) {
		t.Fatalf("removed entity still contained")
	}
	for _, e := range []EntityID{ents[0], ents[2], ents[3]} {
		i, ok := s.Index(e)
		if !ok || s.Entities()[i] != e {
			t.Fatalf("invariant broken for %s after remove", e)
		}
	}
}

func TestSparseSetStaleGeneration(t *testing.T) {
	s := NewSparseSet(0)
	e := NewEntityID(5, 1)
	s.Emplace(e)
	if s.Contains(NewEntityID(5, 0)) {
		t.Fatalf("older generation must not match")
	}
	if s.Contains(NewEntityID(5, 2)) {
		t.Fatalf("newer generation must not match")
	}
	if s.Contains(Null) {
		t.Fatalf("null must never be contained")
	}
}

func TestSparseSetPagesAreLazy(t *testing.T) {
	s := NewSparseSet(16)
	s.Emplace(NewEntityID(100, 0))
	if s.Pages() != 1 {
		t.Fatalf("expected 1 page, got %d", s.Pages())
	}
	s.Emplace(NewEntityID(101, 0))
	s.Emplace(NewEntityID(2, 0))
	if s.Pages() != 2 {
		t.Fatalf("expected 2 pages, got %d", s.Pages())
	}
	// reused page: stale slot from removed entity must not match
	s.Remove(NewEntityID(101, 0))
	if s.Contains(NewEntityID(101, 0)) {
		t.Fatalf("removed entity found in reused page")
	}
}

func TestSparseSetRemoveLast(t *testing.T) {
	s := NewSparseSet(4)
	a, b := NewEntityID(1, 0), NewEntityID(2, 0)
	s.Emplace(a)
	s.Emplace(b)
	if !s.Remove(b) {
		t.Fatalf("remove last failed")
	}
	if !s.Contains(a) || s.Contains(b) || s.Len() != 1 {
		t.Fatalf("unexpected state after removing last element")
	}
	s.Clear()
	if s.Len() != 0 || s.Contains(a) {
		t.Fatalf("clear left members")
	}
}
