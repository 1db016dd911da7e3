package system

import (
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/core/event"
	coresys "github.com/Longseabear/LEapsGLEngine/internal/core/system"
	"go.uber.org/zap"
)

// InputQueue is the hand-off point between a window adapter, which may run
// on its own goroutine, and the update loop.
type InputQueue struct {
	keys    chan event.KeyPressed
	resizes chan event.WindowResized
}

func NewInputQueue(size int) *InputQueue {
	return &InputQueue{
		keys:    make(chan event.KeyPressed, size),
		resizes: make(chan event.WindowResized, 4),
	}
}

// PushKey queues a key press. It reports false when the queue is full and
// the press was dropped.
func (q *InputQueue) PushKey(k event.KeyPressed) bool {
	select {
	case q.keys <- k:
		return true
	default:
		return false
	}
}

// PushResize queues a resize. When the queue is full the oldest pending
// resize is discarded, since only the latest size matters.
func (q *InputQueue) PushResize(r event.WindowResized) {
	for {
		select {
		case q.resizes <- r:
			return
		default:
		}
		select {
		case <-q.resizes:
		default:
		}
	}
}

// InputSystem drains the input queue and republishes it on the event bus.
// Phase 0 (Input).
type InputSystem struct {
	queue      *InputQueue
	bus        *event.Bus
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(queue *InputQueue, bus *event.Bus, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{queue: queue, bus: bus, maxPerTick: maxPerTick, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Key presses, bounded per tick so a flood cannot stall the pass.
	for n := 0; s.maxPerTick <= 0 || n < s.maxPerTick; n++ {
		select {
		case k := <-s.queue.keys:
			event.Emit(s.bus, k, event.AfterSystem)
		default:
			goto doneKeys
		}
	}
doneKeys:

	// Resizes coalesce to the last one.
	var (
		last    event.WindowResized
		resized bool
	)
	for {
		select {
		case r := <-s.queue.resizes:
			last, resized = r, true
		default:
			goto doneResizes
		}
	}
doneResizes:
	if resized {
		s.log.Debug("window resized", zap.Int("width", last.Width), zap.Int("height", last.Height))
		event.Emit(s.bus, last, event.AfterSystem)
	}
}
