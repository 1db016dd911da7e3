package system

import (
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/component"
	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	coresys "github.com/Longseabear/LEapsGLEngine/internal/core/system"
	"go.uber.org/zap"
)

// TransformSystem derives WorldTransform from Transform and Parent.
// Phase 3 (PostUpdate).
type TransformSystem struct {
	world *ecs.World
	log   *zap.Logger

	resolved map[ecs.EntityID]component.Mat4
	missing  []ecs.EntityID
}

func NewTransformSystem(world *ecs.World, log *zap.Logger) *TransformSystem {
	return &TransformSystem{
		world:    world,
		log:      log,
		resolved: make(map[ecs.EntityID]component.Mat4),
	}
}

func (s *TransformSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *TransformSystem) Update(_ time.Duration) {
	clear(s.resolved)
	s.missing = s.missing[:0]

	view := ecs.NewView1[component.Transform](s.world)
	view.Each(func(e ecs.EntityID, _ *component.Transform) {
		m := s.resolve(e, 0)
		if wt, err := ecs.Get[component.WorldTransform](s.world, e); err == nil {
			wt.Matrix = m
		} else {
			s.missing = append(s.missing, e)
		}
	})

	// Structural changes happen after iteration.
	for _, e := range s.missing {
		if err := ecs.Emplace(s.world, e, component.WorldTransform{Matrix: s.resolved[e]}); err != nil {
			s.log.Warn("attach world transform", zap.Stringer("entity", e), zap.Error(err))
		}
	}
}

// maxDepth bounds parent chains; deeper chains are treated as cycles.
const maxDepth = 64

func (s *TransformSystem) resolve(e ecs.EntityID, depth int) component.Mat4 {
	if m, ok := s.resolved[e]; ok {
		return m
	}
	t, err := ecs.Get[component.Transform](s.world, e)
	if err != nil {
		return component.IdentityMat4
	}
	m := composeTRS(*t)
	if p, err := ecs.Get[component.Parent](s.world, e); err == nil && s.world.Alive(p.Entity) {
		if depth >= maxDepth {
			s.log.Warn("transform parent chain too deep", zap.Stringer("entity", e))
		} else {
			m = mulMat4(s.resolve(p.Entity, depth+1), m)
		}
	}
	s.resolved[e] = m
	return m
}

// composeTRS builds translation * rotation * scale.
func composeTRS(t component.Transform) component.Mat4 {
	x, y, z, w := t.Rotation[0], t.Rotation[1], t.Rotation[2], t.Rotation[3]
	sx, sy, sz := t.Scale[0], t.Scale[1], t.Scale[2]
	return component.Mat4{
		(1 - 2*(y*y+z*z)) * sx, 2 * (x*y + z*w) * sx, 2 * (x*z - y*w) * sx, 0,
		2 * (x*y - z*w) * sy, (1 - 2*(x*x+z*z)) * sy, 2 * (y*z + x*w) * sy, 0,
		2 * (x*z + y*w) * sz, 2 * (y*z - x*w) * sz, (1 - 2*(x*x+y*y)) * sz, 0,
		t.Position[0], t.Position[1], t.Position[2], 1,
	}
}

// mulMat4 returns a*b for column-major matrices.
func mulMat4(a, b component.Mat4) component.Mat4 {
	var out component.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+r] * b[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}
