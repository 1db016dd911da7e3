package ecs

// DefaultPageSize is the number of sparse slots allocated per page.
const DefaultPageSize = 4096

const tombstone = ^uint32(0)

// SparseSet maps entity indices to positions in a dense packed array.
// Sparse pages are allocated lazily so that a set touching only high indices
// does not pay for the whole range.
type SparseSet struct {
	pageSize int
	sparse   [][]uint32
	packed   []EntityID
}

func NewSparseSet(pageSize int) *SparseSet {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SparseSet{pageSize: pageSize}
}

func (s *SparseSet) slot(idx uint32) *uint32 {
	page := int(idx) / s.pageSize
	if page >= len(s.sparse) || s.sparse[page] == nil {
		return nil
	}
	return &s.sparse[page][int(idx)%s.pageSize]
}

func (s *SparseSet) assureSlot(idx uint32) *uint32 {
	page := int(idx) / s.pageSize
	if page >= len(s.sparse) {
		grown := make([][]uint32, page+1)
		copy(grown, s.sparse)
		s.sparse = grown
	}
	if s.sparse[page] == nil {
		p := make([]uint32, s.pageSize)
		for i := range p {
			p[i] = tombstone
		}
		s.sparse[page] = p
	}
	return &s.sparse[page][int(idx)%s.pageSize]
}

// Index returns the packed position of e. The packed entry is compared
// against the full handle so stale generations do not match.
func (s *SparseSet) Index(e EntityID) (int, bool) {
	if !e.Valid() {
		return 0, false
	}
	pos := s.slot(e.Index())
	if pos == nil || *pos == tombstone {
		return 0, false
	}
	i := int(*pos)
	if i >= len(s.packed) || s.packed[i] != e {
		return 0, false
	}
	return i, true
}

func (s *SparseSet) Contains(e EntityID) bool {
	_, ok := s.Index(e)
	return ok
}

// Emplace appends e. Returns false if e is invalid or its index is already
// present under any generation.
func (s *SparseSet) Emplace(e EntityID) bool {
	if !e.Valid() {
		return false
	}
	pos := s.assureSlot(e.Index())
	if *pos != tombstone && int(*pos) < len(s.packed) && s.packed[*pos].Index() == e.Index() {
		return false
	}
	*pos = uint32(len(s.packed))
	s.packed = append(s.packed, e)
	return true
}

// Remove swaps e with the last packed element and shrinks by one.
// Iteration order is not preserved.
func (s *SparseSet) Remove(e EntityID) bool {
	_, ok := s.swapRemove(e)
	return ok
}

// swapRemove returns the position e occupied before removal so that pools
// can mirror the swap on their payload.
func (s *SparseSet) swapRemove(e EntityID) (int, bool) {
	i, ok := s.Index(e)
	if !ok {
		return 0, false
	}
	last := len(s.packed) - 1
	moved := s.packed[last]
	s.packed[i] = moved
	*s.slot(moved.Index()) = uint32(i)
	*s.slot(e.Index()) = tombstone
	s.packed = s.packed[:last]
	return i, true
}

// Find scans packed linearly. Used by pools that keep no sparse pages.
func (s *SparseSet) Find(e EntityID) (int, bool) {
	for i, x := range s.packed {
		if x == e {
			return i, true
		}
	}
	return 0, false
}

// push appends without touching sparse pages.
func (s *SparseSet) push(e EntityID) {
	s.packed = append(s.packed, e)
}

// swapPop removes packed[i] by swapping in the last element, without
// touching sparse pages.
func (s *SparseSet) swapPop(i int) {
	last := len(s.packed) - 1
	s.packed[i] = s.packed[last]
	s.packed = s.packed[:last]
}

func (s *SparseSet) Len() int { return len(s.packed) }

// Entities returns the packed handles. The slice is owned by the set and is
// invalidated by the next Emplace or Remove.
func (s *SparseSet) Entities() []EntityID { return s.packed }

// Clear drops every member. Sparse pages are kept for reuse.
func (s *SparseSet) Clear() {
	for _, e := range s.packed {
		if p := s.slot(e.Index()); p != nil {
			*p = tombstone
		}
	}
	s.packed = s.packed[:0]
}

// Pages returns how many sparse pages are allocated.
func (s *SparseSet) Pages() int {
	n := 0
	for _, p := range s.sparse {
		if p != nil {
			n++
		}
	}
	return n
}
