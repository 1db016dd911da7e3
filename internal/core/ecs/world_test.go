package ecs

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"
)

type velocity struct{ DX, DY int }
type tag struct{}

func newTestWorld(t *testing.T, opts ...Option) *World {
	t.Helper()
	return NewWorld(append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
}

func TestWorldCreateDestroyReuse(t *testing.T) {
	w := newTestWorld(t)
	const n = 20
	ents := make([]EntityID, n)
	for i := range ents {
		ents[i] = w.Create()
		if ents[i].Index() != uint32(i) {
			t.Fatalf("expected index %d, got %d", i, ents[i].Index())
		}
	}
	for i := 0; i < n; i += 2 {
		if err := w.Destroy(ents[i]); err != nil {
			t.Fatal(err)
		}
	}
	if w.Size() != n/2 {
		t.Fatalf("size %d", w.Size())
	}
	seen := map[uint32]bool{}
	for i := 0; i < n/2; i++ {
		e := w.Create()
		if e.Index()%2 != 0 || seen[e.Index()] {
			t.Fatalf("unexpected index %d", e.Index())
		}
		seen[e.Index()] = true
		if e.Generation() <= ents[e.Index()].Generation() {
			t.Fatalf("generation not advanced for %d", e.Index())
		}
		if IsSame(e, ents[e.Index()]) {
			t.Fatalf("stale handle equals live handle")
		}
	}
}

func TestWorldDestroyRemovesAllComponents(t *testing.T) {
	w := newTestWorld(t)
	e := w.Create()
	other := w.Create()
	if err := Emplace(w, e, position{1, 2}); err != nil {
		t.Fatal(err)
	}
	_ = Emplace(w, e, velocity{3, 4})
	_ = Emplace(w, other, position{5, 6})

	if err := w.Destroy(e); err != nil {
		t.Fatal(err)
	}
	pos := MustPoolOf[position](w)
	vel := MustPoolOf[velocity](w)
	if pos.Contains(e) || vel.Contains(e) {
		t.Fatalf("components survived destroy")
	}
	if got, _ := Get[position](w, other); *got != (position{5, 6}) {
		t.Fatalf("unrelated component changed: %v", *got)
	}
}

func TestWorldRejectsStaleHandles(t *testing.T) {
	w := newTestWorld(t)
	e := w.Create()
	_ = Emplace(w, e, position{})
	if err := w.Destroy(e); err != nil {
		t.Fatal(err)
	}
	reused := w.Create()
	_ = Emplace(w, reused, position{7, 7})

	if err := w.Destroy(e); !errors.Is(err, ErrStaleEntity) {
		t.Fatalf("double destroy: expected ErrStaleEntity, got %v", err)
	}
	if !Contains[position](w, reused) {
		t.Fatalf("stale destroy touched the live entity")
	}
	if err := Emplace(w, e, velocity{}); !errors.Is(err, ErrStaleEntity) {
		t.Fatalf("emplace on stale: %v", err)
	}
	if _, err := Get[position](w, e); !errors.Is(err, ErrStaleEntity) {
		t.Fatalf("get on stale: %v", err)
	}
	if _, err := Remove[position](w, e); !errors.Is(err, ErrStaleEntity) {
		t.Fatalf("remove on stale: %v", err)
	}
	if Contains[position](w, e) {
		t.Fatalf("contains on stale handle")
	}
	if err := w.Destroy(Null); !errors.Is(err, ErrStaleEntity) {
		t.Fatalf("destroy null: %v", err)
	}
}

func TestWorldDuplicateAndMissing(t *testing.T) {
	w := newTestWorld(t)
	e := w.Create()
	if err := Emplace(w, e, position{1, 1}); err != nil {
		t.Fatal(err)
	}
	if err := Emplace(w, e, position{2, 2}); !errors.Is(err, ErrAlreadyPresent) {
		t.Fatalf("expected ErrAlreadyPresent, got %v", err)
	}
	if got, _ := Get[position](w, e); *got != (position{1, 1}) {
		t.Fatalf("rejected emplace overwrote value: %v", *got)
	}
	if _, err := Get[velocity](w, e); !errors.Is(err, ErrComponentNotFound) {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}
	removed, err := Remove[velocity](w, e)
	if err != nil || removed {
		t.Fatalf("remove missing = %v,%v", removed, err)
	}
	if err := Replace(w, e, position{3, 3}); err != nil {
		t.Fatal(err)
	}
	if got, _ := Get[position](w, e); *got != (position{3, 3}) {
		t.Fatalf("replace not applied: %v", *got)
	}
}

func TestWorldPolicySelectedOnce(t *testing.T) {
	table := NewPolicyTable()
	RegisterPolicy[tag](table, PolicyFlag)
	table.SetByName(reflect.TypeFor[velocity]().String(), PolicyPacked)
	w := newTestWorld(t, WithPolicies(table))

	if p := MustPoolOf[tag](w); p.Policy() != PolicyFlag {
		t.Fatalf("tag policy = %s", p.Policy())
	}
	if p := MustPoolOf[velocity](w); p.Policy() != PolicyPacked {
		t.Fatalf("velocity policy = %s", p.Policy())
	}
	if p := MustPoolOf[position](w); p.Policy() != PolicyDefault {
		t.Fatalf("position policy = %s", p.Policy())
	}

	// later registrations do not affect existing pools
	RegisterPolicy[position](table, PolicyPacked)
	if p := MustPoolOf[position](w); p.Policy() != PolicyDefault {
		t.Fatalf("policy re-evaluated: %s", p.Policy())
	}
}

func TestWorldComponentIDsStable(t *testing.T) {
	w := newTestWorld(t)
	MustPoolOf[position](w)
	MustPoolOf[velocity](w)
	id1, _ := w.Registry().ID(reflect.TypeFor[position]())
	MustPoolOf[tag](w)
	id2, _ := w.Registry().ID(reflect.TypeFor[position]())
	if id1 != id2 {
		t.Fatalf("component id changed: %d -> %d", id1, id2)
	}
	if w.Registry().Len() != 3 {
		t.Fatalf("registry len %d", w.Registry().Len())
	}
}

func TestWorldDeferredDestroy(t *testing.T) {
	w := newTestWorld(t)
	for i := 0; i < 10; i++ {
		e := w.Create()
		_ = Emplace(w, e, position{X: i})
	}
	NewView1[position](w).Each(func(e EntityID, p *position) {
		if p.X%2 == 1 {
			w.MarkForDestruction(e)
			w.MarkForDestruction(e)
		}
	})
	if n := w.FlushDestroyQueue(); n != 5 {
		t.Fatalf("flushed %d, want 5", n)
	}
	if MustPoolOf[position](w).Len() != 5 || w.Size() != 5 {
		t.Fatalf("unexpected sizes after flush")
	}
}
