package ecs

import "testing"

func TestEntityIDFields(t *testing.T) {
	cases := []struct {
		name  string
		index uint32
		gen   uint32
	}{
		{"zero", 0, 0},
		{"low", 7, 3},
		{"high_generation", 42, InvalidGeneration - 1},
		{"high_index", InvalidIndex - 1, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewEntityID(c.index, c.gen)
			if e.Index() != c.index || e.Generation() != c.gen {
				t.Fatalf("got (%d,%d), want (%d,%d)", e.Index(), e.Generation(), c.index, c.gen)
			}
			if !e.Valid() {
				t.Fatalf("%s should be valid", e)
			}
		})
	}
}

func TestNextGenerationSkipsInvalid(t *testing.T) {
	e := NewEntityID(5, InvalidGeneration-1)
	next := e.NextGeneration()
	if next.Generation() != 0 {
		t.Fatalf("expected wrap to 0, got %d", next.Generation())
	}
	if next.Index() != 5 {
		t.Fatalf("index changed: %d", next.Index())
	}
	if got := NewEntityID(5, 3).NextGeneration().Generation(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestResetInvalidatesIndex(t *testing.T) {
	e := NewEntityID(9, 2)
	r := e.Reset()
	if r.Valid() {
		t.Fatalf("reset handle must not be valid")
	}
	if r.Generation() != 3 {
		t.Fatalf("reset should carry next generation, got %d", r.Generation())
	}
}

func TestNullComparesIndexOnly(t *testing.T) {
	if !Null.IsNull() {
		t.Fatalf("Null must be null")
	}
	if !NewEntityID(InvalidIndex, 0).IsNull() {
		t.Fatalf("sentinel index with any generation is null")
	}
	if NewEntityID(0, InvalidGeneration-1).IsNull() {
		t.Fatalf("index 0 is not null")
	}
}

func TestIsSame(t *testing.T) {
	a := NewEntityID(1, 0)
	b := NewEntityID(1, 1)
	if IsSame(a, b) {
		t.Fatalf("different generations must differ")
	}
	if !IsSame(a, a) {
		t.Fatalf("handle must equal itself")
	}
	if IsSame(Null, Null) {
		t.Fatalf("null handles are never the same entity")
	}
}

func TestEntityPoolRecyclesWithGreaterGeneration(t *testing.T) {
	const n = 64
	p := NewEntityPool(n)
	ents := make([]EntityID, n)
	for i := range ents {
		ents[i] = p.Create()
	}

	freed := make(map[uint32]uint32, n/2)
	for i := 0; i < n; i += 2 {
		if !p.Destroy(ents[i]) {
			t.Fatalf("destroy %s failed", ents[i])
		}
		freed[ents[i].Index()] = ents[i].Generation()
	}
	if p.Len() != n/2 {
		t.Fatalf("expected %d live, got %d", n/2, p.Len())
	}

	for i := 0; i < n/2; i++ {
		e := p.Create()
		oldGen, ok := freed[e.Index()]
		if !ok {
			t.Fatalf("index %d was not freed", e.Index())
		}
		if e.Generation() <= oldGen {
			t.Fatalf("generation %d not greater than %d", e.Generation(), oldGen)
		}
		delete(freed, e.Index())
	}
	if len(freed) != 0 {
		t.Fatalf("not all freed indices reused: %v", freed)
	}
	if e := p.Create(); e.Index() != n {
		t.Fatalf("expected fresh index %d, got %d", n, e.Index())
	}
}

func TestEntityPoolRejectsStaleDestroy(t *testing.T) {
	p := NewEntityPool(4)
	e := p.Create()
	if !p.Destroy(e) {
		t.Fatalf("first destroy should succeed")
	}
	if p.Destroy(e) {
		t.Fatalf("second destroy of stale handle should fail")
	}
	reused := p.Create()
	if reused.Index() != e.Index() {
		t.Fatalf("expected reuse of index %d", e.Index())
	}
	if IsSame(e, reused) {
		t.Fatalf("stale handle compares equal to live one")
	}
	if p.Alive(e) || !p.Alive(reused) {
		t.Fatalf("liveness wrong: stale=%v live=%v", p.Alive(e), p.Alive(reused))
	}
}
