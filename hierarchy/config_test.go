package hierarchy_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/hierarchy"
)

var _ = Describe("Config", func() {
	It("should report derived geometry", func() {
		config := hierarchy.DefaultConfig()

		l1 := config.L1Geometry()
		Expect(l1.C).To(Equal(config.L1Capacity))
		Expect(l1.B).To(Equal(config.BlockSize))
		Expect(l1.S).To(Equal(config.L1Ways))

		Expect(config.VictimEnabled()).To(BeTrue())
		Expect(config.PrefetchEnabled()).To(BeTrue())
	})

	It("should treat zero depth as prefetch disabled", func() {
		config := hierarchy.DefaultConfig()
		config.PrefetchDepth = 0

		Expect(config.PrefetchEnabled()).To(BeFalse())
	})

	Describe("JSON round trip", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should save and reload a config", func() {
			config := hierarchy.DefaultConfig()
			config.L1Capacity = 11
			config.VictimBlocks = 8

			path := filepath.Join(dir, "config.json")
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := hierarchy.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should keep defaults for absent fields", func() {
			path := filepath.Join(dir, "partial.json")
			err := os.WriteFile(path, []byte(`{"l1_capacity": 12}`), 0644)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := hierarchy.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.L1Capacity).To(Equal(uint64(12)))
			Expect(loaded.L2Capacity).To(Equal(hierarchy.DefaultConfig().L2Capacity))
		})

		It("should fail on a missing file", func() {
			_, err := hierarchy.LoadConfig(filepath.Join(dir, "nope.json"))
			Expect(err).To(HaveOccurred())
		})

		It("should fail on malformed JSON", func() {
			path := filepath.Join(dir, "bad.json")
			err := os.WriteFile(path, []byte("{"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = hierarchy.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Statistics", func() {
	It("should derive rates from counters", func() {
		stats := hierarchy.Statistics{
			Accesses:      10,
			L1Hits:        6,
			L1Misses:      4,
			VictimHits:    1,
			VictimMisses:  3,
			L2Hits:        1,
			L2Misses:      2,
			MemoryFetches: 2,
		}

		Expect(stats.L1HitRate()).To(BeNumerically("~", 0.6, 1e-9))
		Expect(stats.VictimHitRate()).To(BeNumerically("~", 0.25, 1e-9))
		Expect(stats.L2HitRate()).To(BeNumerically("~", 1.0/3.0, 1e-9))
		Expect(stats.MissRate()).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("should not divide by zero on an idle run", func() {
		stats := hierarchy.Statistics{}

		Expect(stats.L1HitRate()).To(BeZero())
		Expect(stats.VictimHitRate()).To(BeZero())
		Expect(stats.L2HitRate()).To(BeZero())
		Expect(stats.MissRate()).To(BeZero())
		Expect(stats.AverageAccessTime(hierarchy.DefaultConfig())).To(BeZero())
	})

	It("should weight access time by miss rates", func() {
		config := hierarchy.Config{
			L1HitTime:        2,
			L2HitTime:        10,
			MemoryAccessTime: 100,
		}
		stats := hierarchy.Statistics{
			Accesses: 10,
			L1Hits:   5,
			L1Misses: 5,
			L2Hits:   4,
			L2Misses: 1,
		}

		// 2 + 0.5*(10 + 0.2*100) = 17
		Expect(stats.AverageAccessTime(config)).To(BeNumerically("~", 17.0, 1e-9))
	})
})
