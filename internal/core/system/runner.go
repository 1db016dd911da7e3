package system

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"
)

// Runner executes systems in phase order each tick. Systems of the same
// phase run in registration order.
type Runner struct {
	systems     []System
	sorted      bool
	started     bool
	afterSystem func(System)
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

// OnAfterSystem installs a hook called after every system update. The
// universe uses it to drain the after-system event stage.
func (r *Runner) OnAfterSystem(fn func(System)) {
	r.afterSystem = fn
}

// Register adds s and runs its Configure hook. If the runner has already
// started, s is started as well.
func (r *Runner) Register(s System) error {
	if s == nil {
		return errors.New("system: nil system")
	}
	if c, ok := s.(Configurer); ok {
		if err := c.Configure(); err != nil {
			return fmt.Errorf("configure %T: %w", s, err)
		}
	}
	if r.started {
		if st, ok := s.(Starter); ok {
			if err := st.Start(); err != nil {
				return fmt.Errorf("start %T: %w", s, err)
			}
		}
	}
	r.systems = append(r.systems, s)
	r.sorted = false
	return nil
}

// Unregister removes s and runs its Unconfigure hook. It reports whether s
// was registered.
func (r *Runner) Unregister(s System) bool {
	i := slices.Index(r.systems, s)
	if i < 0 {
		return false
	}
	r.systems = slices.Delete(r.systems, i, i+1)
	if c, ok := s.(Configurer); ok {
		c.Unconfigure()
	}
	return true
}

// Start calls Start on every registered Starter once.
func (r *Runner) Start() error {
	if r.started {
		return nil
	}
	r.ensureSorted()
	for _, s := range r.systems {
		if st, ok := s.(Starter); ok {
			if err := st.Start(); err != nil {
				return fmt.Errorf("start %T: %w", s, err)
			}
		}
	}
	r.started = true
	return nil
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range append([]System(nil), r.systems...) {
		s.Update(dt)
		if r.afterSystem != nil {
			r.afterSystem(s)
		}
	}
}

// TickPhase runs only the systems of the given phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
			if r.afterSystem != nil {
				r.afterSystem(s)
			}
		}
	}
}

// Systems returns the registered systems in execution order.
func (r *Runner) Systems() []System {
	r.ensureSorted()
	return slices.Clone(r.systems)
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
