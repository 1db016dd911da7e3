package system

import (
	"math"
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/component"
	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"github.com/Longseabear/LEapsGLEngine/internal/core/event"
	coresys "github.com/Longseabear/LEapsGLEngine/internal/core/system"
)

// CameraSystem keeps camera aspect ratios in step with the window and
// rebuilds projection matrices. Phase 1 (PreUpdate).
type CameraSystem struct {
	world  *ecs.World
	bus    *event.Bus
	aspect float32
}

func NewCameraSystem(world *ecs.World, bus *event.Bus) *CameraSystem {
	return &CameraSystem{world: world, bus: bus}
}

func (s *CameraSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *CameraSystem) Configure() error {
	event.SubscribeOwned(s.bus, s, func(r event.WindowResized) {
		if r.Width > 0 && r.Height > 0 {
			s.aspect = float32(r.Width) / float32(r.Height)
		}
	})
	return nil
}

func (s *CameraSystem) Unconfigure() {
	s.bus.UnsubscribeAll(s)
}

func (s *CameraSystem) Update(_ time.Duration) {
	ecs.NewView1[component.Camera](s.world).Each(func(_ ecs.EntityID, c *component.Camera) {
		if s.aspect > 0 {
			c.Aspect = s.aspect
		}
		c.Projection = perspective(c.FovY, c.Aspect, c.Near, c.Far)
	})
}

// perspective builds a GL clip-space projection (depth -1..1).
func perspective(fovY, aspect, near, far float32) component.Mat4 {
	if aspect <= 0 || far <= near || fovY <= 0 {
		return component.IdentityMat4
	}
	f := float32(1 / math.Tan(float64(fovY)/2))
	nf := 1 / (near - far)
	return component.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}
