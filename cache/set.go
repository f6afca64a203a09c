package cache

import "fmt"

// Set is the shared storage of an associative set: a fixed-capacity ordered
// collection of lines keyed by tag. Position encodes eviction priority and
// is the sole source of truth for it; index 0 is the newest or
// most-recently-used position, the last index the oldest. The two policy
// types constructed over Set differ only in how they use this ordering:
// LRUSet reorders on access, VictimSet never reorders.
//
// Lookups that miss return the zero Line and false; a found line is always
// returned by value.
type Set struct {
	ways  int
	lines []Line
}

// Len returns the number of resident lines.
func (s *Set) Len() int {
	return len(s.lines)
}

// Ways returns the fixed capacity of the set.
func (s *Set) Ways() int {
	return s.ways
}

// Contains reports whether a line with the given tag is resident.
func (s *Set) Contains(tag uint64) bool {
	return s.find(tag) >= 0
}

// Seek returns the line with the given tag without touching the ordering.
func (s *Set) Seek(tag uint64) (Line, bool) {
	i := s.find(tag)
	if i < 0 {
		return Line{}, false
	}

	return s.lines[i], true
}

// Retrieve removes the line with the given tag from the set and returns it.
// It is the operation used when a block moves to another tier.
func (s *Set) Retrieve(tag uint64) (Line, bool) {
	i := s.find(tag)
	if i < 0 {
		return Line{}, false
	}

	line := s.lines[i]
	s.lines = append(s.lines[:i], s.lines[i+1:]...)

	return line, true
}

// ClearPrefetched drops the prefetch provenance flag of the resident line
// with the given tag, without touching the ordering. Lines are stored by
// value, so consuming the flag on a demand hit needs an explicit mutation.
func (s *Set) ClearPrefetched(tag uint64) {
	if i := s.find(tag); i >= 0 {
		s.lines[i].SetPrefetched(false)
	}
}

func (s *Set) find(tag uint64) int {
	for i := range s.lines {
		if s.lines[i].Tag() == tag {
			return i
		}
	}

	return -1
}

// insertFront places line at the newest position, evicting the oldest line
// when the set is full. No two resident lines may share a tag; violating
// that corrupts eviction accounting, so it fails loudly.
func (s *Set) insertFront(line Line) (Line, bool) {
	s.mustNotContain(line)

	if len(s.lines) < s.ways {
		s.lines = append([]Line{line}, s.lines...)
		return Line{}, false
	}

	oldest := s.lines[len(s.lines)-1]
	s.lines = append([]Line{line}, s.lines[:len(s.lines)-1]...)

	return oldest, true
}

// insertBack places line at the oldest position, evicting the previous
// oldest line when the set is full.
func (s *Set) insertBack(line Line) (Line, bool) {
	s.mustNotContain(line)

	if len(s.lines) < s.ways {
		s.lines = append(s.lines, line)
		return Line{}, false
	}

	oldest := s.lines[len(s.lines)-1]
	s.lines[len(s.lines)-1] = line

	return oldest, true
}

func (s *Set) mustNotContain(line Line) {
	if s.Contains(line.Tag()) {
		panic(fmt.Sprintf(
			"cache set: duplicate tag 0x%x inserted (addr 0x%x, index %d)",
			line.Tag(), line.Address(), line.Index()))
	}
}

// LRUSet is an associative set with recency-ordered eviction, used for the
// L1 and L2 tiers. The most-recently-used line sits at the front, the
// least-recently-used at the back, and the back line is always the victim.
type LRUSet struct {
	Set
}

// NewLRUSet creates an empty set with 2^geom.S ways.
func NewLRUSet(geom Geometry) *LRUSet {
	return &LRUSet{Set: Set{ways: int(geom.Ways())}}
}

// InsertAtLRU inserts line at the least-recently-used position, the fill
// placement for blocks brought in without a demand touch. When the set is
// full the current LRU line is evicted and returned.
func (s *LRUSet) InsertAtLRU(line Line) (Line, bool) {
	return s.insertBack(line)
}

// InsertAtMRU inserts line at the most-recently-used position, evicting the
// LRU line when the set is full. The caller must ensure the tag is not
// already resident.
func (s *LRUSet) InsertAtMRU(line Line) (Line, bool) {
	return s.insertFront(line)
}

// Read looks up tag, promotes the line to most-recently-used on a hit, and
// returns it. A miss leaves the set untouched.
func (s *LRUSet) Read(tag uint64) (Line, bool) {
	line, ok := s.Retrieve(tag)
	if !ok {
		return Line{}, false
	}

	s.lines = append([]Line{line}, s.lines...)

	return line, true
}

// WriteBack looks up tag, marks the line dirty, promotes it to
// most-recently-used, and returns the updated line. A miss leaves the set
// untouched.
func (s *LRUSet) WriteBack(tag uint64) (Line, bool) {
	line, ok := s.Retrieve(tag)
	if !ok {
		return Line{}, false
	}

	line.SetDirty(true)
	s.lines = append([]Line{line}, s.lines...)

	return line, true
}

// VictimSet is the fully-associative FIFO buffer that backs L1. Its
// capacity is the configured block count, and its synthesized geometry has
// zero index bits, so a line's tag degenerates to its block address and the
// whole block address acts as the lookup key. Entries leave either by FIFO
// eviction on insert or through Retrieve when a victim hit promotes a block
// back into L1.
type VictimSet struct {
	Set
	geom Geometry
}

// NewVictimSet creates a victim cache holding the given number of blocks of
// 2^blockBits bytes each.
func NewVictimSet(blocks, blockBits uint64) *VictimSet {
	s := ceilLog2(blocks)

	return &VictimSet{
		Set:  Set{ways: int(blocks)},
		geom: Geometry{C: s + blockBits, B: blockBits, S: s},
	}
}

// Geometry returns the synthesized fully-associative geometry. Probes and
// inserted lines are keyed under it.
func (s *VictimSet) Geometry() Geometry {
	return s.geom
}

// Insert pushes line at the front of the FIFO, re-keyed under the victim
// geometry. When the buffer is full the oldest entry is popped and
// returned.
func (s *VictimSet) Insert(line Line) (Line, bool) {
	return s.insertFront(line.WithGeometry(s.geom))
}
