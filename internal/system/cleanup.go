package system

import (
	"slices"
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/component"
	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"github.com/Longseabear/LEapsGLEngine/internal/core/event"
	coresys "github.com/Longseabear/LEapsGLEngine/internal/core/system"
	"go.uber.org/zap"
)

// Sweeper destroys cached instances nobody references any more.
// *proxy.Proxy implements it.
type Sweeper interface {
	Sweep() int
}

// CleanupSystem flushes the deferred entity destruction queue at tick end,
// releasing the Requestors held by dying renderables, and periodically
// sweeps orphaned proxy instances. Phase 5 (Cleanup).
type CleanupSystem struct {
	world      *ecs.World
	name       string
	bus        *event.Bus
	sweeper    Sweeper
	sweepEvery int
	ticks      int
	log        *zap.Logger
}

func NewCleanupSystem(world *ecs.World, name string, bus *event.Bus, sweeper Sweeper, sweepEvery int, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{
		world:      world,
		name:       name,
		bus:        bus,
		sweeper:    sweeper,
		sweepEvery: sweepEvery,
		log:        log,
	}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	queued := s.world.Queued()
	for i, e := range queued {
		if !s.world.Alive(e) || slices.Contains(queued[:i], e) {
			continue
		}
		if r, err := ecs.Get[component.Renderable](s.world, e); err == nil {
			releaseRenderable(r)
		}
		event.Emit(s.bus, event.EntityDestroyed{World: s.name, Entity: e}, event.AfterUpdate)
	}
	s.world.FlushDestroyQueue()

	s.ticks++
	if s.sweeper != nil && s.sweepEvery > 0 && s.ticks%s.sweepEvery == 0 {
		if n := s.sweeper.Sweep(); n > 0 {
			s.log.Debug("proxy orphans swept", zap.Int("count", n))
		}
	}
}

func releaseRenderable(r *component.Renderable) {
	if r.Material != nil && !r.Material.Released() {
		_ = r.Material.Release()
	}
	if r.Texture != nil && !r.Texture.Released() {
		_ = r.Texture.Release()
	}
}
