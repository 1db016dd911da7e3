package system

import (
	"math"
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/component"
	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	coresys "github.com/Longseabear/LEapsGLEngine/internal/core/system"
)

// MovementSystem integrates Velocity into Transform for every non-static
// entity. Phase 2 (Update).
type MovementSystem struct {
	world *ecs.World
}

func NewMovementSystem(world *ecs.World) *MovementSystem {
	return &MovementSystem{world: world}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(dt time.Duration) {
	sec := float32(dt.Seconds())
	if sec == 0 {
		return
	}
	view := ecs.NewView2[component.Transform, component.Velocity](s.world,
		ecs.Without[component.Static](s.world))
	view.Each(func(_ ecs.EntityID, t *component.Transform, v *component.Velocity) {
		for i := range t.Position {
			t.Position[i] += v.Linear[i] * sec
		}
		if v.Angular != (component.Vec3{}) {
			t.Rotation = integrateRotation(t.Rotation, v.Angular, sec)
		}
	})
}

// integrateRotation applies angular velocity w (rad/s) over sec seconds.
func integrateRotation(q component.Quat, w component.Vec3, sec float32) component.Quat {
	wx, wy, wz := float64(w[0]), float64(w[1]), float64(w[2])
	speed := math.Sqrt(wx*wx + wy*wy + wz*wz)
	angle := speed * float64(sec)
	sin, cos := math.Sincos(angle / 2)
	d := component.Quat{
		float32(wx / speed * sin),
		float32(wy / speed * sin),
		float32(wz / speed * sin),
		float32(cos),
	}
	return normalizeQuat(mulQuat(d, q))
}

func mulQuat(a, b component.Quat) component.Quat {
	return component.Quat{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

func normalizeQuat(q component.Quat) component.Quat {
	n := float32(math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])))
	if n == 0 {
		return component.IdentityQuat
	}
	return component.Quat{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}
