// Package hierarchy assembles the cache primitives into a two-level
// hierarchy with a victim cache and an optional L2 stream prefetcher, and
// drives single-address accesses through it.
package hierarchy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/cachesim/cache"
)

// Config holds the geometry of the hierarchy for one run. Capacity, block
// size, and associativity are log2 exponents; the victim cache size and
// prefetch depth are plain counts. The hit/access times only feed the
// average-access-time report and have no effect on simulation behavior.
type Config struct {
	// L1Capacity is the log2 of the L1 data store size in bytes.
	L1Capacity uint64 `json:"l1_capacity"`
	// L1Ways is the log2 of the L1 associativity.
	L1Ways uint64 `json:"l1_ways"`
	// L2Capacity is the log2 of the L2 data store size in bytes.
	L2Capacity uint64 `json:"l2_capacity"`
	// L2Ways is the log2 of the L2 associativity.
	L2Ways uint64 `json:"l2_ways"`
	// BlockSize is the log2 of the block size in bytes, shared by every
	// tier.
	BlockSize uint64 `json:"block_size"`
	// VictimBlocks is the number of blocks in the victim cache. Zero
	// disables the victim cache.
	VictimBlocks uint64 `json:"victim_blocks"`
	// PrefetchDepth is the number of sequential blocks prefetched into L2
	// after each L2 lookup. Zero disables prefetching.
	PrefetchDepth uint64 `json:"prefetch_depth"`

	// L1HitTime is the L1 access time in cycles, for the AAT report.
	L1HitTime float64 `json:"l1_hit_time"`
	// L2HitTime is the L2 access time in cycles, for the AAT report.
	L2HitTime float64 `json:"l2_hit_time"`
	// MemoryAccessTime is the simulated memory access time in cycles, for
	// the AAT report.
	MemoryAccessTime float64 `json:"memory_access_time"`
}

// DefaultConfig returns the baseline geometry: a 32 KiB 8-way L1 and a
// 256 KiB 16-way L2 with 32-byte blocks, a 4-block victim cache, and a
// depth-2 prefetcher.
func DefaultConfig() Config {
	return Config{
		L1Capacity:    15,
		L1Ways:        3,
		L2Capacity:    18,
		L2Ways:        4,
		BlockSize:     5,
		VictimBlocks:  4,
		PrefetchDepth: 2,

		L1HitTime:        2,
		L2HitTime:        12,
		MemoryAccessTime: 100,
	}
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// L1Geometry returns the L1 geometry triple.
func (c Config) L1Geometry() cache.Geometry {
	return cache.Geometry{C: c.L1Capacity, B: c.BlockSize, S: c.L1Ways}
}

// L2Geometry returns the L2 geometry triple.
func (c Config) L2Geometry() cache.Geometry {
	return cache.Geometry{C: c.L2Capacity, B: c.BlockSize, S: c.L2Ways}
}

// PrefetchEnabled reports whether the L2 prefetcher is active.
func (c Config) PrefetchEnabled() bool {
	return c.PrefetchDepth > 0
}

// VictimEnabled reports whether the victim cache is present.
func (c Config) VictimEnabled() bool {
	return c.VictimBlocks > 0
}

// Validate checks both tier geometries. An invalid geometry is fatal at
// initialization; it can never surface during an access.
func (c Config) Validate() error {
	if err := c.L1Geometry().Validate(); err != nil {
		return fmt.Errorf("L1: %w", err)
	}

	if err := c.L2Geometry().Validate(); err != nil {
		return fmt.Errorf("L2: %w", err)
	}

	return nil
}
