package component

import (
	"github.com/Longseabear/LEapsGLEngine/internal/core/proxy"
	"github.com/Longseabear/LEapsGLEngine/internal/resource"
)

// Renderable links an entity to cached resources. The component owns its
// Requestors; they are released when the entity is destroyed through the
// cleanup system.
type Renderable struct {
	Material *proxy.Requestor[resource.Material]
	Texture  *proxy.Requestor[resource.Texture] // optional override of the material's albedo
	Layer    int
}

// Camera projects the world for one viewport.
type Camera struct {
	FovY   float32 // radians
	Near   float32
	Far    float32
	Aspect float32
	Active bool

	Projection Mat4 // maintained by CameraSystem
}
