// Package universe is the runtime context threaded through the engine: the
// worlds (one per entity group), the system runner and the event bus.
// A process normally builds exactly one Universe in its main package.
package universe

import (
	"fmt"
	"reflect"
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"github.com/Longseabear/LEapsGLEngine/internal/core/event"
	"github.com/Longseabear/LEapsGLEngine/internal/core/system"
	"go.uber.org/zap"
)

// DefaultGroup is the group of the base world.
type DefaultGroup struct{}

type Universe struct {
	worlds    map[reflect.Type]*ecs.World
	policies  *ecs.PolicyTable
	worldOpts []ecs.Option
	runner    *system.Runner
	bus       *event.Bus
	log       *zap.Logger
	passes    uint64
}

type Option func(*Universe)

func WithLogger(log *zap.Logger) Option {
	return func(u *Universe) {
		if log != nil {
			u.log = log
		}
	}
}

// WithPolicies sets the policy table shared by every world.
func WithPolicies(t *ecs.PolicyTable) Option {
	return func(u *Universe) { u.policies = t }
}

// WithWorldOptions adds options applied to every world the universe creates.
func WithWorldOptions(opts ...ecs.Option) Option {
	return func(u *Universe) { u.worldOpts = append(u.worldOpts, opts...) }
}

func New(opts ...Option) *Universe {
	u := &Universe{
		worlds: make(map[reflect.Type]*ecs.World),
		runner: system.NewRunner(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.policies == nil {
		u.policies = ecs.NewPolicyTable()
	}
	u.bus = event.NewBus(u.log.Named("event"))
	u.runner.OnAfterSystem(func(system.System) {
		u.bus.Flush(event.AfterSystem)
	})
	return u
}

func (u *Universe) Bus() *event.Bus            { return u.bus }
func (u *Universe) Logger() *zap.Logger        { return u.log }
func (u *Universe) Policies() *ecs.PolicyTable { return u.policies }
func (u *Universe) Runner() *system.Runner     { return u.runner }
func (u *Universe) Passes() uint64             { return u.passes }
func (u *Universe) BaseWorld() *ecs.World      { return World[DefaultGroup](u) }

// WorldFor returns the world of group, creating it on first use.
func (u *Universe) WorldFor(group reflect.Type) *ecs.World {
	if w, ok := u.worlds[group]; ok {
		return w
	}
	opts := append([]ecs.Option{
		ecs.WithPolicies(u.policies),
		ecs.WithLogger(u.log.Named("ecs").With(zap.Stringer("group", group))),
	}, u.worldOpts...)
	w := ecs.NewWorld(opts...)
	u.worlds[group] = w
	u.log.Debug("world created", zap.Stringer("group", group))
	return w
}

// World returns the world of group G.
func World[G any](u *Universe) *ecs.World {
	return u.WorldFor(reflect.TypeFor[G]())
}

// Worlds returns the number of worlds created so far.
func (u *Universe) Worlds() int { return len(u.worlds) }

func (u *Universe) RegisterSystem(s system.System) error {
	if err := u.runner.Register(s); err != nil {
		return fmt.Errorf("register system: %w", err)
	}
	u.log.Debug("system registered", zap.String("system", fmt.Sprintf("%T", s)))
	return nil
}

func (u *Universe) UnregisterSystem(s system.System) bool {
	return u.runner.Unregister(s)
}

// Start runs the Start hook of every registered system.
func (u *Universe) Start() error {
	return u.runner.Start()
}

// Update runs one pass: every system in phase order, draining the
// after-system stage after each, then the after-update stage.
func (u *Universe) Update(dt time.Duration) {
	u.runner.Tick(dt)
	u.bus.Flush(event.AfterUpdate)
	u.passes++
}
