package hierarchy

import (
	"fmt"

	"github.com/sarchlab/cachesim/cache"
)

// Level identifies the tier that satisfied an access.
type Level int

const (
	// LevelL1 means the access hit in L1.
	LevelL1 Level = iota
	// LevelVictim means the access was served by the victim cache.
	LevelVictim
	// LevelL2 means the access was served by L2.
	LevelL2
	// LevelMemory means every tier missed and the block came from
	// simulated memory.
	LevelMemory
)

// String returns the tier name.
func (l Level) String() string {
	switch l {
	case LevelL1:
		return "L1"
	case LevelVictim:
		return "VC"
	case LevelL2:
		return "L2"
	case LevelMemory:
		return "MEM"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// AccessOutcome reports how one access resolved: the tier that served it
// and the evictions and writebacks it caused along the way.
type AccessOutcome struct {
	// Address is the accessed address.
	Address uint64
	// Write is true for store accesses.
	Write bool
	// ServedBy is the tier that satisfied the access.
	ServedBy Level

	// L1Evicted is true if filling L1 displaced a block.
	L1Evicted bool
	// VictimEvicted is true if the victim cache displaced a block.
	VictimEvicted bool
	// L2Evicted is true if the demand fill into L2 displaced a block.
	L2Evicted bool
	// PrefetchEvictions is the number of L2 blocks displaced by the
	// prefetch this access triggered.
	PrefetchEvictions uint64
	// Writebacks is the number of dirty blocks this access pushed to
	// simulated memory.
	Writebacks uint64
	// UsedPrefetched is true if the access was served by a block that was
	// prefetched and had not been demanded before.
	UsedPrefetched bool
}

// Hierarchy is a two-level cache hierarchy: per-index LRU sets for L1 and
// L2, a fully-associative FIFO victim cache backing L1, and an optional
// sequential prefetcher feeding L2. All state is owned by the Hierarchy
// value; accesses run to completion one at a time.
type Hierarchy struct {
	config Config

	l1Geom cache.Geometry
	l2Geom cache.Geometry

	l1         []*cache.LRUSet
	l2         []*cache.LRUSet
	victim     *cache.VictimSet
	prefetcher *cache.Prefetcher

	stats Statistics
}

// New validates the configuration and builds an empty hierarchy. A
// malformed geometry is rejected here, never during an access.
func New(config Config) (*Hierarchy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	h := &Hierarchy{
		config: config,
		l1Geom: config.L1Geometry(),
		l2Geom: config.L2Geometry(),
	}

	h.l1 = makeSets(h.l1Geom)
	h.l2 = makeSets(h.l2Geom)

	if config.VictimEnabled() {
		h.victim = cache.NewVictimSet(config.VictimBlocks, config.BlockSize)
	}

	if config.PrefetchEnabled() {
		h.prefetcher = cache.NewPrefetcher(h.l2, config.PrefetchDepth)
	}

	return h, nil
}

func makeSets(geom cache.Geometry) []*cache.LRUSet {
	sets := make([]*cache.LRUSet, geom.NumSets())
	for i := range sets {
		sets[i] = cache.NewLRUSet(geom)
	}

	return sets
}

// Config returns the run configuration.
func (h *Hierarchy) Config() Config {
	return h.config
}

// Stats returns a snapshot of the statistics counters. It is read-only and
// idempotent.
func (h *Hierarchy) Stats() Statistics {
	return h.stats
}

// Access drives one address through the hierarchy: L1, then the victim
// cache, then L2, then simulated memory, filling upward and propagating
// evictions downward as it goes.
func (h *Hierarchy) Access(addr uint64, write bool) AccessOutcome {
	out := AccessOutcome{Address: addr, Write: write}

	h.stats.Accesses++
	if write {
		h.stats.Writes++
	} else {
		h.stats.Reads++
	}

	if h.lookupL1(addr, write) {
		h.stats.L1Hits++
		out.ServedBy = LevelL1

		return out
	}
	h.stats.L1Misses++

	if h.promoteVictim(addr, write, &out) {
		h.stats.VictimHits++
		out.ServedBy = LevelVictim

		return out
	}

	if h.lookupL2(addr, write, &out) {
		h.stats.L2Hits++
		out.ServedBy = LevelL2

		return out
	}
	h.stats.L2Misses++

	h.fetchFromMemory(addr, write, &out)
	out.ServedBy = LevelMemory

	return out
}

// lookupL1 probes L1, promoting the line to MRU on a hit. A write hit also
// marks the line dirty.
func (h *Hierarchy) lookupL1(addr uint64, write bool) bool {
	probe := cache.NewLine(addr, write, h.l1Geom)
	set := h.l1[probe.Index()]

	if write {
		_, hit := set.WriteBack(probe.Tag())
		return hit
	}

	_, hit := set.Read(probe.Tag())

	return hit
}

// promoteVictim probes the victim cache by block address. A hit removes the
// entry and re-inserts it into L1 at MRU; a write access dirties the
// promoted line.
func (h *Hierarchy) promoteVictim(addr uint64, write bool, out *AccessOutcome) bool {
	if h.victim == nil {
		return false
	}

	probe := cache.NewLine(addr, write, h.victim.Geometry())
	line, ok := h.victim.Retrieve(probe.Tag())
	if !ok {
		h.stats.VictimMisses++
		return false
	}

	line = line.WithGeometry(h.l1Geom)
	if write {
		line.SetDirty(true)
	}

	h.fillL1(line, out)

	return true
}

// lookupL2 probes L2. A hit promotes the line to MRU in L2, fills L1 with a
// copy, and triggers the prefetcher on the demand block.
func (h *Hierarchy) lookupL2(addr uint64, write bool, out *AccessOutcome) bool {
	probe := cache.NewLine(addr, write, h.l2Geom)
	set := h.l2[probe.Index()]

	line, ok := set.Read(probe.Tag())
	if !ok {
		return false
	}

	if line.Prefetched() {
		h.stats.UsefulPrefetches++
		out.UsedPrefetched = true
		set.ClearPrefetched(probe.Tag())
	}

	h.fillL1(cache.NewLine(addr, write, h.l1Geom), out)
	h.triggerPrefetch(cache.NewLine(addr, false, h.l2Geom), out)

	return true
}

// fetchFromMemory simulates the always-succeeding memory fetch on a global
// miss: the block enters L2 at the LRU position, then L1 at MRU, and the
// prefetcher runs on the fetched block.
func (h *Hierarchy) fetchFromMemory(addr uint64, write bool, out *AccessOutcome) {
	h.stats.MemoryFetches++

	fetched := cache.NewLine(addr, false, h.l2Geom)
	set := h.l2[fetched.Index()]

	if evicted, ok := set.InsertAtLRU(fetched); ok {
		h.stats.L2Evictions++
		out.L2Evicted = true
		h.writeBackIfDirty(evicted, out)
	}

	h.fillL1(cache.NewLine(addr, write, h.l1Geom), out)
	h.triggerPrefetch(fetched, out)
}

// fillL1 inserts line into its L1 set at MRU. A displaced dirty block moves
// to the victim cache still marked dirty; a displaced clean block is
// dropped. A block the victim cache pushes out in turn is written back if
// dirty. Without a victim cache, dirty L1 victims write back directly.
func (h *Hierarchy) fillL1(line cache.Line, out *AccessOutcome) {
	set := h.l1[line.Index()]

	evicted, ok := set.InsertAtMRU(line)
	if !ok {
		return
	}

	h.stats.L1Evictions++
	out.L1Evicted = true

	if !evicted.Dirty() {
		return
	}

	if h.victim == nil {
		h.stats.Writebacks++
		out.Writebacks++

		return
	}

	if displaced, ok := h.victim.Insert(evicted); ok {
		h.stats.VictimEvictions++
		out.VictimEvicted = true
		h.writeBackIfDirty(displaced, out)
	}
}

// triggerPrefetch runs the prefetcher on the demand block and drains its
// eviction buffer. Prefetch evictions have no further backing tier: dirty
// ones write back, clean ones vanish.
func (h *Hierarchy) triggerPrefetch(start cache.Line, out *AccessOutcome) {
	if h.prefetcher == nil {
		return
	}

	h.prefetcher.Prefetch(start)
	h.stats.Prefetches++
	h.stats.PrefetchedBlocks += h.prefetcher.Inserted()

	for {
		evicted, ok := h.prefetcher.PopEviction()
		if !ok {
			break
		}

		h.stats.PrefetchEvictions++
		out.PrefetchEvictions++
		h.writeBackIfDirty(evicted, out)
	}
}

func (h *Hierarchy) writeBackIfDirty(line cache.Line, out *AccessOutcome) {
	if !line.Dirty() {
		return
	}

	h.stats.Writebacks++
	out.Writebacks++
}
