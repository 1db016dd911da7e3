package universe

import (
	"slices"
	"testing"
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"github.com/Longseabear/LEapsGLEngine/internal/core/event"
	"github.com/Longseabear/LEapsGLEngine/internal/core/system"
	"go.uber.org/zap/zaptest"
)

type textureGroup struct{}

type emitter struct {
	u     *Universe
	name  string
	phase system.Phase
	log   *[]string
}

func (e *emitter) Phase() system.Phase { return e.phase }
func (e *emitter) Update(time.Duration) {
	*e.log = append(*e.log, "run:"+e.name)
	event.Emit(e.u.Bus(), event.KeyPressed{Key: e.name + "/sys"}, event.AfterSystem)
	event.Emit(e.u.Bus(), event.KeyPressed{Key: e.name + "/upd"}, event.AfterUpdate)
	event.Emit(e.u.Bus(), event.KeyPressed{Key: e.name + "/now"}, event.Immediate)
}

func TestUpdateDrainsStagesInOrder(t *testing.T) {
	u := New(WithLogger(zaptest.NewLogger(t)))
	var log []string
	event.Subscribe(u.Bus(), func(e event.KeyPressed) { log = append(log, e.Key) })

	for _, name := range []string{"a", "b"} {
		if err := u.RegisterSystem(&emitter{u: u, name: name, phase: system.PhaseUpdate, log: &log}); err != nil {
			t.Fatal(err)
		}
	}
	u.Update(16 * time.Millisecond)

	want := []string{
		"run:a", "a/now", "a/sys",
		"run:b", "b/now", "b/sys",
		"a/upd", "b/upd",
	}
	if !slices.Equal(log, want) {
		t.Fatalf("got  %v\nwant %v", log, want)
	}
	if u.Passes() != 1 {
		t.Fatalf("passes %d", u.Passes())
	}
}

func TestWorldPerGroup(t *testing.T) {
	u := New()
	base := u.BaseWorld()
	tex := World[textureGroup](u)
	if base == tex {
		t.Fatalf("distinct groups share a world")
	}
	if World[textureGroup](u) != tex {
		t.Fatalf("same group returned a different world")
	}
	if u.Worlds() != 2 {
		t.Fatalf("worlds %d", u.Worlds())
	}
	e := tex.Create()
	if base.Alive(e) {
		t.Fatalf("entity leaked across worlds")
	}
}

func TestWorldsSharePolicies(t *testing.T) {
	type marker struct{}
	table := ecs.NewPolicyTable()
	ecs.RegisterPolicy[marker](table, ecs.PolicyFlag)
	u := New(WithPolicies(table), WithWorldOptions(ecs.WithPageSize(64)))
	p := ecs.MustPoolOf[marker](World[textureGroup](u))
	if p.Policy() != ecs.PolicyFlag {
		t.Fatalf("policy %s", p.Policy())
	}
}

func TestUnregisterSystem(t *testing.T) {
	u := New()
	var log []string
	s := &emitter{u: u, name: "x", log: &log}
	_ = u.RegisterSystem(s)
	if !u.UnregisterSystem(s) {
		t.Fatalf("unregister failed")
	}
	u.Update(0)
	if len(log) != 0 {
		t.Fatalf("unregistered system ran: %v", log)
	}
}
