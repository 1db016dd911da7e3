package system

import (
	"sort"
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/component"
	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	coresys "github.com/Longseabear/LEapsGLEngine/internal/core/system"
	"github.com/Longseabear/LEapsGLEngine/internal/resource"
	"go.uber.org/zap"
)

// DrawItem is one entity ready for the backend. Material and Texture are
// copies; the backend may keep them past the frame.
type DrawItem struct {
	Entity      ecs.EntityID
	Model       component.Mat4
	Layer       int
	MaterialKey uint64
	Material    resource.Material
	Texture     *resource.Texture
}

// Backend receives the prepared draw list once per pass. Drawing itself
// lives outside the engine core.
type Backend interface {
	Submit(frame uint64, items []DrawItem)
}

// RenderPrepSystem collects visible renderables, resolves their cached
// resources and hands a sorted draw list to the backend. Phase 4 (Render).
type RenderPrepSystem struct {
	world   *ecs.World
	backend Backend
	log     *zap.Logger

	frame uint64
	items []DrawItem
}

func NewRenderPrepSystem(world *ecs.World, backend Backend, log *zap.Logger) *RenderPrepSystem {
	return &RenderPrepSystem{world: world, backend: backend, log: log}
}

func (s *RenderPrepSystem) Phase() coresys.Phase { return coresys.PhaseRender }

func (s *RenderPrepSystem) Update(_ time.Duration) {
	s.frame++
	s.items = s.items[:0]

	view := ecs.NewView2[component.WorldTransform, component.Renderable](s.world,
		ecs.Without[component.Hidden](s.world))
	view.Each(func(e ecs.EntityID, wt *component.WorldTransform, r *component.Renderable) {
		if r.Material == nil {
			return
		}
		mat, err := r.Material.Assure()
		if err != nil {
			s.log.Warn("material unavailable", zap.Stringer("entity", e), zap.Error(err))
			return
		}
		item := DrawItem{
			Entity:      e,
			Model:       wt.Matrix,
			Layer:       r.Layer,
			MaterialKey: r.Material.Hash(),
			Material:    *mat,
		}
		if r.Texture != nil {
			if tex, err := r.Texture.Assure(); err == nil {
				cp := *tex
				item.Texture = &cp
			} else {
				s.log.Warn("texture unavailable", zap.Stringer("entity", e), zap.Error(err))
			}
		}
		s.items = append(s.items, item)
	})

	// Layer first, then material to minimise state changes.
	sort.SliceStable(s.items, func(i, j int) bool {
		if s.items[i].Layer != s.items[j].Layer {
			return s.items[i].Layer < s.items[j].Layer
		}
		return s.items[i].MaterialKey < s.items[j].MaterialKey
	})
	if s.backend != nil {
		s.backend.Submit(s.frame, s.items)
	}
}

// LogBackend is a headless Backend that logs frame statistics.
type LogBackend struct {
	Log   *zap.Logger
	Every uint64 // log every Nth frame, 0 means every frame
}

func (b *LogBackend) Submit(frame uint64, items []DrawItem) {
	if b.Every > 1 && frame%b.Every != 0 {
		return
	}
	materials := make(map[uint64]struct{})
	for _, it := range items {
		materials[it.MaterialKey] = struct{}{}
	}
	b.Log.Debug("frame submitted",
		zap.Uint64("frame", frame),
		zap.Int("draws", len(items)),
		zap.Int("materials", len(materials)))
}
