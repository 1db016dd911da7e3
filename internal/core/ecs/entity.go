package ecs

import "strconv"

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
type EntityID uint64

const (
	indexBits = 32

	indexMask      = 1<<indexBits - 1
	generationMask = 1<<(64-indexBits) - 1

	// InvalidIndex is the reserved sentinel index of the null handle.
	InvalidIndex uint32 = indexMask
	// InvalidGeneration is never handed out; NextGeneration skips it.
	InvalidGeneration uint32 = generationMask
)

// Null is the canonical null handle. Any handle whose index is InvalidIndex
// is null regardless of its generation.
const Null = EntityID(uint64(InvalidGeneration)<<indexBits | uint64(InvalidIndex))

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<indexBits | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(uint64(id) & indexMask) }
func (id EntityID) Generation() uint32 { return uint32(uint64(id) >> indexBits) }

// Valid reports whether the index field is not the sentinel.
func (id EntityID) Valid() bool { return id.Index() != InvalidIndex }

// IsNull compares the index field only. A handle at the sentinel index with
// any generation is null.
func (id EntityID) IsNull() bool { return !id.Valid() }

// NextGeneration returns the same index with the generation advanced,
// wrapping to 0 instead of landing on InvalidGeneration.
func (id EntityID) NextGeneration() EntityID {
	gen := id.Generation() + 1
	if gen == InvalidGeneration {
		gen = 0
	}
	return NewEntityID(id.Index(), gen)
}

// Reset produces the invalid index carrying the next generation. Used when an
// index is returned to the free list so that stale handles fail validity.
func (id EntityID) Reset() EntityID {
	return NewEntityID(InvalidIndex, id.NextGeneration().Generation())
}

func (id EntityID) String() string {
	if id.IsNull() {
		return "null"
	}
	return strconv.FormatUint(uint64(id.Index()), 10) + "v" + strconv.FormatUint(uint64(id.Generation()), 10)
}

// IsSame reports whether both handles are valid and identical.
func IsSame(a, b EntityID) bool {
	return a.Valid() && b.Valid() && a == b
}

// EntityPool manages entity allocation with generational indices and a free list.
type EntityPool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewEntityPool(capacity int) *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 0, capacity),
		freeList:    make([]uint32, 0, capacity/4),
	}
}

// Create reuses the most recently freed index, whose generation was already
// advanced by Destroy, or appends a fresh one.
func (p *EntityPool) Create() EntityID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	if idx == InvalidIndex {
		panic("ecs: entity index space exhausted")
	}
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewEntityID(idx, p.generations[idx])
}

func (p *EntityPool) Alive(id EntityID) bool {
	if !id.Valid() {
		return false
	}
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

// Destroy recycles the index of a live handle. Stale handles return false and
// leave the pool untouched.
func (p *EntityPool) Destroy(id EntityID) bool {
	if !p.Alive(id) {
		return false // already destroyed (stale reference)
	}
	idx := id.Index()
	p.generations[idx] = id.Reset().Generation()
	p.freeList = append(p.freeList, idx)
	return true
}

// Len returns the number of live entities.
func (p *EntityPool) Len() int {
	return int(p.nextIndex) - len(p.freeList)
}
