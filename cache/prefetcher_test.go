package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
)

var _ = Describe("Prefetcher", func() {
	var (
		geom cache.Geometry
		sets []*cache.LRUSet
	)

	BeforeEach(func() {
		// 2-way, 4 sets, 16-byte blocks.
		geom = cache.Geometry{C: 7, B: 4, S: 1}
		Expect(geom.Validate()).To(Succeed())

		sets = make([]*cache.LRUSet, geom.NumSets())
		for i := range sets {
			sets[i] = cache.NewLRUSet(geom)
		}
	})

	newPrefetcher := func(depth uint64) *cache.Prefetcher {
		return cache.NewPrefetcher(sets, depth)
	}

	residency := func(addr uint64) (cache.Line, bool) {
		probe := cache.NewLine(addr, false, geom)
		return sets[probe.Index()].Seek(probe.Tag())
	}

	It("should fetch the K following blocks", func() {
		p := newPrefetcher(3)
		p.Prefetch(cache.NewLine(0x00, false, geom))

		for _, addr := range []uint64{0x10, 0x20, 0x30} {
			line, ok := residency(addr)
			Expect(ok).To(BeTrue(), "block 0x%x should be resident", addr)
			Expect(line.Prefetched()).To(BeTrue())
			Expect(line.Dirty()).To(BeFalse())
		}

		_, ok := residency(0x00)
		Expect(ok).To(BeFalse(), "the demand block itself is not prefetched")
		Expect(p.Inserted()).To(Equal(uint64(3)))
		Expect(p.Empty()).To(BeTrue())
	})

	It("should stamp candidates clean even for a dirty start line", func() {
		p := newPrefetcher(1)
		p.Prefetch(cache.NewLine(0x00, true, geom))

		line, ok := residency(0x10)
		Expect(ok).To(BeTrue())
		Expect(line.Dirty()).To(BeFalse())
		Expect(line.Prefetched()).To(BeTrue())
	})

	It("should preserve the start line's byte offset in candidates", func() {
		p := newPrefetcher(1)
		p.Prefetch(cache.NewLine(0x07, false, geom))

		line, ok := residency(0x17)
		Expect(ok).To(BeTrue())
		Expect(line.ByteOffset()).To(Equal(uint64(0x7)))
	})

	It("should skip blocks that are already resident", func() {
		resident := cache.NewLine(0x10, true, geom)
		sets[resident.Index()].InsertAtMRU(resident)

		p := newPrefetcher(2)
		p.Prefetch(cache.NewLine(0x00, false, geom))

		// The resident block keeps its state; only 0x20 is new.
		line, _ := residency(0x10)
		Expect(line.Dirty()).To(BeTrue())
		Expect(line.Prefetched()).To(BeFalse())

		Expect(p.Inserted()).To(Equal(uint64(1)))
	})

	It("should not duplicate tags across repeated prefetches", func() {
		p := newPrefetcher(2)
		start := cache.NewLine(0x00, false, geom)

		p.Prefetch(start)
		p.Prefetch(start)

		for _, set := range sets {
			Expect(set.Len()).To(BeNumerically("<=", set.Ways()))
		}
		Expect(p.Inserted()).To(Equal(uint64(0)))
		Expect(p.Empty()).To(BeTrue())
	})

	Describe("eviction buffer", func() {
		BeforeEach(func() {
			// Fill set 1 and set 2 so every prefetch into them evicts.
			for _, addr := range []uint64{0x10, 0x50, 0x20, 0x60} {
				line := cache.NewLine(addr, false, geom)
				sets[line.Index()].InsertAtMRU(line)
			}
		})

		It("should buffer evictions oldest-first", func() {
			p := newPrefetcher(2)
			// Prefetches 0x90 (index 1) and 0xA0 (index 2), displacing the
			// LRU fill of each set in generation order.
			p.Prefetch(cache.NewLine(0x80, false, geom))

			Expect(p.Empty()).To(BeFalse())

			first, ok := p.PopEviction()
			Expect(ok).To(BeTrue())
			Expect(first.Address()).To(Equal(uint64(0x10)))

			second, ok := p.PopEviction()
			Expect(ok).To(BeTrue())
			Expect(second.Address()).To(Equal(uint64(0x20)))

			_, ok = p.PopEviction()
			Expect(ok).To(BeFalse())
			Expect(p.Empty()).To(BeTrue())
		})

		It("should clear the buffer on the next prefetch", func() {
			p := newPrefetcher(2)
			p.Prefetch(cache.NewLine(0x80, false, geom))
			Expect(p.Empty()).To(BeFalse())

			// Draining, then re-prefetching the same span: everything is
			// resident now, so nothing is inserted or evicted.
			for {
				if _, ok := p.PopEviction(); !ok {
					break
				}
			}

			p.Prefetch(cache.NewLine(0x80, false, geom))
			Expect(p.Empty()).To(BeTrue())
			Expect(p.Inserted()).To(Equal(uint64(0)))
		})
	})
})
