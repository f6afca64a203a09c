package cache

// Prefetcher fetches the blocks sequentially following a demand access into
// an L2-like vector of LRU sets. Prefetched blocks are inserted at the LRU
// position so they are the first to leave if they go unused, and a block
// already resident in its destination set is skipped so a prefetch never
// duplicates a tag or disturbs recency.
//
// Evictions caused by a prefetch are buffered in generation order. The
// buffer is cleared at the start of every Prefetch call, so the caller must
// drain it before triggering the next prefetch.
type Prefetcher struct {
	sets      []*LRUSet
	depth     uint64
	evictions []Line
	inserted  uint64
}

// NewPrefetcher binds a prefetcher of the given depth to the destination
// set vector. The vector must be indexed by the geometry the start lines
// are keyed under.
func NewPrefetcher(sets []*LRUSet, depth uint64) *Prefetcher {
	return &Prefetcher{sets: sets, depth: depth}
}

// Depth returns the number of blocks fetched per trigger.
func (p *Prefetcher) Depth() uint64 {
	return p.depth
}

// Prefetch inserts the depth blocks following start into their sets.
// Candidates are stamped clean and prefetched. Evictions land in the
// buffer, oldest first; any buffer content left from the previous call is
// discarded.
func (p *Prefetcher) Prefetch(start Line) {
	p.evictions = p.evictions[:0]
	p.inserted = 0

	candidate := start
	candidate.SetDirty(false)
	candidate.SetPrefetched(true)

	blockAddr := start.BlockAddress()
	for i := uint64(0); i < p.depth; i++ {
		blockAddr++
		candidate.SetBlockAddress(blockAddr)

		set := p.sets[candidate.Index()]
		if set.Contains(candidate.Tag()) {
			continue
		}

		if evicted, ok := set.InsertAtLRU(candidate); ok {
			p.evictions = append(p.evictions, evicted)
		}
		p.inserted++
	}
}

// Inserted returns the number of blocks the most recent Prefetch call
// actually placed into the cache.
func (p *Prefetcher) Inserted() uint64 {
	return p.inserted
}

// PopEviction dequeues the oldest buffered eviction.
func (p *Prefetcher) PopEviction() (Line, bool) {
	if len(p.evictions) == 0 {
		return Line{}, false
	}

	line := p.evictions[0]
	p.evictions = p.evictions[1:]

	return line, true
}

// Empty reports whether the eviction buffer has been fully drained.
func (p *Prefetcher) Empty() bool {
	return len(p.evictions) == 0
}
