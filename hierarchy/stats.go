package hierarchy

// Statistics holds the monotonic counters the hierarchy updates on every
// access. Writebacks counts dirty blocks propagated to simulated memory,
// whichever tier they leave from.
type Statistics struct {
	// Accesses is the total number of accesses driven through the
	// hierarchy.
	Accesses uint64
	// Reads is the number of read accesses.
	Reads uint64
	// Writes is the number of write accesses.
	Writes uint64

	// L1Hits is the number of accesses served by L1.
	L1Hits uint64
	// L1Misses is the number of accesses that missed in L1.
	L1Misses uint64
	// VictimHits is the number of L1 misses served by the victim cache.
	VictimHits uint64
	// VictimMisses is the number of victim-cache lookups that missed.
	VictimMisses uint64
	// L2Hits is the number of L2 lookups that hit.
	L2Hits uint64
	// L2Misses is the number of L2 lookups that missed.
	L2Misses uint64
	// MemoryFetches is the number of blocks fetched from simulated memory.
	MemoryFetches uint64

	// L1Evictions counts blocks evicted from L1 by fills.
	L1Evictions uint64
	// VictimEvictions counts blocks evicted from the victim cache by FIFO
	// replacement.
	VictimEvictions uint64
	// L2Evictions counts blocks evicted from L2 by demand fills.
	L2Evictions uint64
	// Writebacks counts dirty blocks written back to simulated memory.
	Writebacks uint64

	// Prefetches counts prefetch triggers issued to the L2 prefetcher.
	Prefetches uint64
	// PrefetchedBlocks counts blocks actually inserted by the prefetcher.
	PrefetchedBlocks uint64
	// PrefetchEvictions counts blocks evicted from L2 by prefetch inserts.
	PrefetchEvictions uint64
	// UsefulPrefetches counts demand hits on blocks that were prefetched
	// and not yet touched.
	UsefulPrefetches uint64
}

// L1HitRate returns the fraction of accesses served by L1.
func (s Statistics) L1HitRate() float64 {
	return ratio(s.L1Hits, s.Accesses)
}

// VictimHitRate returns the fraction of victim-cache lookups that hit.
func (s Statistics) VictimHitRate() float64 {
	return ratio(s.VictimHits, s.VictimHits+s.VictimMisses)
}

// L2HitRate returns the fraction of L2 lookups that hit.
func (s Statistics) L2HitRate() float64 {
	return ratio(s.L2Hits, s.L2Hits+s.L2Misses)
}

// MissRate returns the fraction of accesses that fell through every tier to
// simulated memory.
func (s Statistics) MissRate() float64 {
	return ratio(s.MemoryFetches, s.Accesses)
}

// AverageAccessTime derives the average access time in cycles from the
// config's latency parameters: the L1 hit time plus the miss-rate-weighted
// L2 penalty, which in turn carries the miss-rate-weighted memory penalty.
// Victim-cache hits are charged at the L2 hit time.
func (s Statistics) AverageAccessTime(c Config) float64 {
	if s.Accesses == 0 {
		return 0
	}

	l2Penalty := c.L2HitTime +
		ratio(s.L2Misses, s.L2Hits+s.L2Misses)*c.MemoryAccessTime

	return c.L1HitTime + ratio(s.L1Misses, s.Accesses)*l2Penalty
}

func ratio(num, den uint64) float64 {
	if den == 0 {
		return 0
	}

	return float64(num) / float64(den)
}
