package proxy

import (
	"errors"
	"hash/fnv"
	"testing"

	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"go.uber.org/zap/zaptest"
)

type texture struct {
	Path   string
	Pixels []byte
}

func (t texture) Clone() texture {
	t.Pixels = append([]byte(nil), t.Pixels...)
	return t
}

type textureSpec struct {
	path  string
	calls *int
	fail  error
}

func (s textureSpec) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(s.path))
	return h.Sum64()
}

func (s textureSpec) Generate() (texture, error) {
	if s.calls != nil {
		*s.calls++
	}
	if s.fail != nil {
		return texture{}, s.fail
	}
	return texture{Path: s.path, Pixels: []byte{1, 2, 3}}, nil
}

func newTestCache(t *testing.T) (*ecs.World, *Cache[texture]) {
	t.Helper()
	log := zaptest.NewLogger(t)
	w := ecs.NewWorld(ecs.WithLogger(log))
	return w, NewCache[texture](w, WithCacheLogger(log))
}

func TestEqualSpecsShareInstance(t *testing.T) {
	_, c := newTestCache(t)
	calls := 0
	a := c.Get(textureSpec{path: "wall.png", calls: &calls})
	b := c.Get(textureSpec{path: "wall.png", calls: &calls})
	other := c.Get(textureSpec{path: "floor.png", calls: &calls})

	ia, err := a.Assure()
	if err != nil {
		t.Fatal(err)
	}
	ib, err := c.Assure(b)
	if err != nil {
		t.Fatal(err)
	}
	if ia != ib {
		t.Fatalf("equal specifications produced distinct instances")
	}
	if !a.Same(b) {
		t.Fatalf("requestors of equal specs should share a slot")
	}
	io, err := c.Assure(other)
	if err != nil {
		t.Fatal(err)
	}
	if io == ia {
		t.Fatalf("distinct specification shares an instance")
	}
	if calls != 2 {
		t.Fatalf("generated %d times, want 2", calls)
	}
	if c.Len() != 2 || c.Uses(a.Hash()) != 2 {
		t.Fatalf("len=%d uses=%d", c.Len(), c.Uses(a.Hash()))
	}
}

func TestLastReleaseEvictsSpecification(t *testing.T) {
	w, c := newTestCache(t)
	a := c.Get(textureSpec{path: "wall.png"})
	b, err := a.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Assure(); err != nil {
		t.Fatal(err)
	}
	h := a.Hash()

	if err := a.Release(); err != nil {
		t.Fatal(err)
	}
	if !c.Registered(h) {
		t.Fatalf("specification evicted while a clone is alive")
	}
	if err := a.Release(); !errors.Is(err, ErrReleased) {
		t.Fatalf("double release: %v", err)
	}
	if _, err := c.Assure(a); !errors.Is(err, ErrReleased) {
		t.Fatalf("assure on released requestor: %v", err)
	}

	if err := b.Release(); err != nil {
		t.Fatal(err)
	}
	if c.Registered(h) {
		t.Fatalf("hash still registered after last release")
	}

	// The materialized instance is retained until Sweep.
	if c.Orphans() != 1 || w.Size() != 1 {
		t.Fatalf("orphans=%d size=%d", c.Orphans(), w.Size())
	}
	if n := c.Sweep(); n != 1 {
		t.Fatalf("swept %d", n)
	}
	if w.Size() != 0 || c.Orphans() != 0 {
		t.Fatalf("sweep left size=%d orphans=%d", w.Size(), c.Orphans())
	}
}

func TestPrototypeIsIndependentCopy(t *testing.T) {
	_, c := newTestCache(t)
	calls := 0
	r := c.Get(textureSpec{path: "wall.png", calls: &calls})
	p, err := c.Prototype(r)
	if err != nil {
		t.Fatal(err)
	}
	if p.Version() == r.Version() || p.Hash() != r.Hash() {
		t.Fatalf("prototype key %s, source %s", p, r)
	}

	orig, _ := c.Assure(r)
	cp, _ := c.Assure(p)
	if orig == cp {
		t.Fatalf("prototype aliases the source instance")
	}
	if cp.Path != orig.Path || string(cp.Pixels) != string(orig.Pixels) {
		t.Fatalf("prototype %+v differs from %+v", cp, orig)
	}
	cp.Pixels[0] = 99
	cp.Path = "changed"
	orig, _ = c.Assure(r)
	if orig.Pixels[0] != 1 || orig.Path != "wall.png" {
		t.Fatalf("mutating the prototype changed the source: %+v", orig)
	}
	if calls != 1 {
		t.Fatalf("prototype regenerated instead of copying (%d calls)", calls)
	}

	// The prototype outlives the source requestor.
	_ = r.Release()
	if _, ok := c.TryGet(p); !ok {
		t.Fatalf("prototype lost with its source")
	}
	if !c.Registered(p.Hash()) {
		t.Fatalf("row evicted while the prototype holds it")
	}
	_ = p.Release()
	if c.Registered(p.Hash()) {
		t.Fatalf("row survived its last requestor")
	}
}

type mesh struct {
	Vertices []float32
}

func (m *mesh) Clone() mesh {
	return mesh{Vertices: append([]float32(nil), m.Vertices...)}
}

type meshSpec struct{ name string }

func (s meshSpec) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(s.name))
	return h.Sum64()
}

func (s meshSpec) Generate() (mesh, error) {
	return mesh{Vertices: []float32{0, 1, 2}}, nil
}

func TestPrototypeUsesPointerReceiverClone(t *testing.T) {
	w := ecs.NewWorld(ecs.WithLogger(zaptest.NewLogger(t)))
	c := NewCache[mesh](w)
	r := c.Get(meshSpec{name: "cube"})
	p, err := c.Prototype(r)
	if err != nil {
		t.Fatal(err)
	}
	cp, _ := c.Assure(p)
	cp.Vertices[0] = 9
	orig, _ := c.Assure(r)
	if orig.Vertices[0] != 0 {
		t.Fatalf("prototype shares vertices with the source: %v", orig.Vertices)
	}
}

func TestUpdateKeepsEntity(t *testing.T) {
	w, c := newTestCache(t)
	calls := 0
	spec := textureSpec{path: "wall.png", calls: &calls}
	r := c.Get(spec)
	first, err := c.Assure(r)
	if err != nil {
		t.Fatal(err)
	}
	first.Path = "dirty"
	before := w.Size()

	got, err := c.Update(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != "wall.png" || calls != 2 {
		t.Fatalf("update did not regenerate: %+v calls=%d", got, calls)
	}
	if w.Size() != before {
		t.Fatalf("update created entities: %d -> %d", before, w.Size())
	}
}

func TestGenerationFailure(t *testing.T) {
	w, c := newTestCache(t)
	boom := errors.New("decode failed")
	r := c.Get(textureSpec{path: "broken.png", fail: boom})

	if _, err := c.Assure(r); !errors.Is(err, boom) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if w.Size() != 0 {
		t.Fatalf("failed generation left %d entities", w.Size())
	}
	if _, ok := c.TryGet(r); ok {
		t.Fatalf("partial instance stored")
	}
	if _, err := c.Prototype(r); !errors.Is(err, boom) {
		t.Fatalf("prototype of failing spec: %v", err)
	}
}

func TestUpdateFailureKeepsPrevious(t *testing.T) {
	_, c := newTestCache(t)
	spec := &flakySpec{}
	r := c.Get(spec)
	if _, err := c.Assure(r); err != nil {
		t.Fatal(err)
	}
	spec.fail = true
	if _, err := c.Update(r); err == nil {
		t.Fatalf("expected update failure")
	}
	v, ok := c.TryGet(r)
	if !ok || v.Path != "flaky-1" {
		t.Fatalf("previous instance lost: %+v %v", v, ok)
	}
}

type flakySpec struct {
	n    int
	fail bool
}

func (s *flakySpec) Hash() uint64 { return 7 }
func (s *flakySpec) Generate() (texture, error) {
	if s.fail {
		return texture{}, errors.New("flaky")
	}
	s.n++
	return texture{Path: "flaky-" + string(rune('0'+s.n))}, nil
}

func TestRemoveThenAssureRegenerates(t *testing.T) {
	w, c := newTestCache(t)
	calls := 0
	r := c.Get(textureSpec{path: "wall.png", calls: &calls})
	if _, ok := c.TryGet(r); ok {
		t.Fatalf("instance exists before assure")
	}
	if _, err := c.Assure(r); err != nil {
		t.Fatal(err)
	}
	removed, err := c.Remove(r)
	if err != nil || !removed {
		t.Fatalf("remove: %v %v", removed, err)
	}
	if w.Size() != 0 {
		t.Fatalf("hidden entity survived remove")
	}
	if removed, _ := c.Remove(r); removed {
		t.Fatalf("second remove reported true")
	}
	if _, err := c.Assure(r); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("calls %d", calls)
	}
}

func TestForeignRequestor(t *testing.T) {
	_, a := newTestCache(t)
	_, b := newTestCache(t)
	r := a.Get(textureSpec{path: "x"})
	if _, err := b.Assure(r); !errors.Is(err, ErrForeignRequestor) {
		t.Fatalf("got %v", err)
	}
}

func TestReacquireAfterSlotEviction(t *testing.T) {
	_, c := newTestCache(t)
	r := c.Get(textureSpec{path: "wall.png"})
	p, err := c.Prototype(r)
	if err != nil {
		t.Fatal(err)
	}
	_ = r.Release()
	if c.Orphans() != 1 {
		t.Fatalf("shared instance not orphaned: %d", c.Orphans())
	}
	again := c.Get(textureSpec{path: "wall.png"})
	if _, err := again.Assure(); err != nil {
		t.Fatalf("re-acquired shared slot: %v", err)
	}
	if c.Uses(again.Hash()) != 2 {
		t.Fatalf("uses %d", c.Uses(again.Hash()))
	}
	_ = p.Release()
	_ = again.Release()
	if c.Len() != 0 {
		t.Fatalf("rows left: %d", c.Len())
	}
}
