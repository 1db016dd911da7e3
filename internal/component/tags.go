package component

import "github.com/Longseabear/LEapsGLEngine/internal/core/ecs"

// Tag components carry no data; they only mark membership.
type (
	Hidden   struct{} // skipped by render preparation
	Static   struct{} // never moved by MovementSystem
	Selected struct{} // editor selection
)

// RegisterPolicies records the storage policies of the engine components.
// Call it before creating any world that shares t.
func RegisterPolicies(t *ecs.PolicyTable) {
	ecs.RegisterPolicy[Hidden](t, ecs.PolicyFlag)
	ecs.RegisterPolicy[Static](t, ecs.PolicyFlag)
	ecs.RegisterPolicy[Selected](t, ecs.PolicyFlag)
	// At most a handful of cameras exist.
	ecs.RegisterPolicy[Camera](t, ecs.PolicyPacked)
}
