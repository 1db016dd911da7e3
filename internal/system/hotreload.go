package system

import (
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/core/event"
	coresys "github.com/Longseabear/LEapsGLEngine/internal/core/system"
	"go.uber.org/zap"
)

// Rebuilder regenerates the cached resources built from a file.
// *resource.Library implements it.
type Rebuilder interface {
	Changed(path string) (int, error)
}

// HotReloadSystem turns file change notifications into ResourceChanged
// events and rebuilds the affected resources in place, so entities holding
// Requestors see the new instance without re-requesting.
// Phase 1 (PreUpdate).
type HotReloadSystem struct {
	changes <-chan string
	errs    <-chan error
	bus     *event.Bus
	lib     Rebuilder
	log     *zap.Logger
}

func NewHotReloadSystem(changes <-chan string, errs <-chan error, bus *event.Bus, lib Rebuilder, log *zap.Logger) *HotReloadSystem {
	return &HotReloadSystem{changes: changes, errs: errs, bus: bus, lib: lib, log: log}
}

func (s *HotReloadSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *HotReloadSystem) Configure() error {
	event.SubscribeOwned(s.bus, s, func(ev event.ResourceChanged) {
		n, err := s.lib.Changed(ev.Path)
		if err != nil {
			s.log.Warn("resource rebuild failed", zap.String("path", ev.Path), zap.Error(err))
		}
		if n > 0 || err != nil {
			event.Emit(s.bus, event.ResourceReloaded{Path: ev.Path, Err: err}, event.AfterUpdate)
		}
	})
	return nil
}

func (s *HotReloadSystem) Unconfigure() {
	s.bus.UnsubscribeAll(s)
}

func (s *HotReloadSystem) Update(_ time.Duration) {
	for {
		select {
		case path, ok := <-s.changes:
			if !ok {
				s.changes = nil
				continue
			}
			event.Emit(s.bus, event.ResourceChanged{Path: path}, event.AfterSystem)
		case err, ok := <-s.errs:
			if !ok {
				s.errs = nil
				continue
			}
			s.log.Warn("resource watcher error", zap.Error(err))
		default:
			return
		}
	}
}
