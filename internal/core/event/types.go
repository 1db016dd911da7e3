package event

import "github.com/Longseabear/LEapsGLEngine/internal/core/ecs"

// Events raised by window/input adapters and by the engine itself.

type KeyPressed struct {
	Key  string
	Mods int
}

type WindowResized struct {
	Width  int
	Height int
}

type EntityDestroyed struct {
	World  string
	Entity ecs.EntityID
}

// ResourceChanged is raised when a file backing a cached resource changes
// on disk.
type ResourceChanged struct {
	Path string
}

// ResourceReloaded reports the outcome of regenerating a cached resource.
type ResourceReloaded struct {
	Path string
	Err  error
}
