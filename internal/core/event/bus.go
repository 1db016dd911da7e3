package event

import (
	"reflect"

	"go.uber.org/zap"
)

// Stage selects when an emitted event reaches its subscribers.
type Stage uint8

const (
	// Immediate delivers synchronously inside Emit.
	Immediate Stage = iota
	// AfterSystem delivers when the driver flushes after each system update.
	AfterSystem
	// AfterUpdate delivers once the whole update pass has run.
	AfterUpdate

	stageCount
)

func (s Stage) String() string {
	switch s {
	case Immediate:
		return "immediate"
	case AfterSystem:
		return "after_system"
	case AfterUpdate:
		return "after_update"
	}
	return "unknown"
}

// Subscription identifies one registered handler.
type Subscription struct {
	id  uint64
	typ reflect.Type
}

func (s Subscription) Valid() bool { return s.id != 0 }

type handler struct {
	id    uint64
	owner any
	fn    func(any)
}

type queued struct {
	typ reflect.Type
	ev  any
}

// Bus is a synchronous event bus. Deferred events are buffered per stage
// and delivered in FIFO order when the driver calls Flush. Events emitted
// while a stage is being flushed wait for the next flush of that stage.
type Bus struct {
	handlers map[reflect.Type][]handler
	queues   [stageCount][]queued
	nextID   uint64
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[reflect.Type][]handler),
		log:      log,
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) Subscription {
	return SubscribeOwned(b, nil, fn)
}

// SubscribeOwned registers fn on behalf of owner so that every handler of
// that owner can be dropped with UnsubscribeAll.
func SubscribeOwned[T any](b *Bus, owner any, fn func(T)) Subscription {
	t := reflect.TypeFor[T]()
	b.nextID++
	h := handler{
		id:    b.nextID,
		owner: owner,
		fn:    func(ev any) { fn(ev.(T)) },
	}
	b.handlers[t] = append(b.handlers[t], h)
	return Subscription{id: h.id, typ: t}
}

// Unsubscribe removes one handler. It reports whether it was registered.
func (b *Bus) Unsubscribe(s Subscription) bool {
	hs := b.handlers[s.typ]
	for i, h := range hs {
		if h.id == s.id {
			b.setHandlers(s.typ, append(hs[:i:i], hs[i+1:]...))
			return true
		}
	}
	return false
}

// UnsubscribeAll removes every handler registered with owner.
func (b *Bus) UnsubscribeAll(owner any) int {
	if owner == nil {
		return 0
	}
	n := 0
	for t, hs := range b.handlers {
		kept := make([]handler, 0, len(hs))
		for _, h := range hs {
			if h.owner == owner {
				n++
				continue
			}
			kept = append(kept, h)
		}
		b.setHandlers(t, kept)
	}
	return n
}

func (b *Bus) setHandlers(t reflect.Type, hs []handler) {
	if len(hs) == 0 {
		delete(b.handlers, t)
		return
	}
	b.handlers[t] = hs
}

// Emit delivers event now (Immediate) or buffers it for the given stage.
func Emit[T any](b *Bus, event T, stage Stage) {
	t := reflect.TypeFor[T]()
	if stage == Immediate {
		b.dispatch(t, event)
		return
	}
	if stage >= stageCount {
		b.log.Warn("event dropped, unknown stage", zap.Stringer("type", t), zap.Stringer("stage", stage))
		return
	}
	b.queues[stage] = append(b.queues[stage], queued{typ: t, ev: event})
}

// Flush delivers every event buffered for stage and returns how many were
// delivered.
func (b *Bus) Flush(stage Stage) int {
	if stage == Immediate || stage >= stageCount {
		return 0
	}
	pending := b.queues[stage]
	if len(pending) == 0 {
		return 0
	}
	b.queues[stage] = nil
	for _, q := range pending {
		b.dispatch(q.typ, q.ev)
	}
	b.log.Debug("event stage flushed", zap.Stringer("stage", stage), zap.Int("events", len(pending)))
	return len(pending)
}

// Pending returns the number of events buffered for stage.
func (b *Bus) Pending(stage Stage) int {
	if stage >= stageCount {
		return 0
	}
	return len(b.queues[stage])
}

// Subscribers returns the number of handlers registered for T.
func Subscribers[T any](b *Bus) int {
	return len(b.handlers[reflect.TypeFor[T]()])
}

// dispatch calls handlers registered at the time of the call. Handlers
// added or removed by a handler take effect for the next event.
func (b *Bus) dispatch(t reflect.Type, ev any) {
	hs := b.handlers[t]
	if len(hs) == 0 {
		return
	}
	for _, h := range append([]handler(nil), hs...) {
		h.fn(ev)
	}
}
