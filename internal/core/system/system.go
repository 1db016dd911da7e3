package system

import "time"

// Phase defines execution ordering within a single update pass.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain adapter queues
	PhasePreUpdate               // 1: react to last pass's events
	PhaseUpdate                  // 2: simulation
	PhasePostUpdate              // 3: transforms, resource preparation
	PhaseRender                  // 4: hand instances to the backend
	PhaseCleanup                 // 5: destroy queued entities, sweep caches
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Configurer is implemented by systems that hook into the runtime (event
// subscriptions and the like) when registered and unhook when removed.
type Configurer interface {
	Configure() error
	Unconfigure()
}

// Starter is implemented by systems that need one call before the first
// update pass.
type Starter interface {
	Start() error
}
