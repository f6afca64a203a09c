// Package cache provides the storage and eviction primitives of a
// set-associative cache: address bit-field decomposition, per-block records,
// recency- and insertion-ordered associative sets, and a sequential block
// prefetcher.
package cache

import (
	"fmt"
	"math/bits"
)

// addrWidth is the width of a simulated memory address in bits.
const addrWidth = 64

// maxCapacityBits caps the data-store exponent so set vectors stay
// allocatable. Anything larger is a configuration mistake, not a workload.
const maxCapacityBits = 48

// Geometry describes the shape of a cache as three power-of-two exponents:
// 2^C bytes of data store, 2^B bytes per block, and 2^S ways per set. All
// address decomposition derives from these three values.
type Geometry struct {
	// C is the log2 of the total data store size in bytes.
	C uint64 `json:"c"`
	// B is the log2 of the block size in bytes.
	B uint64 `json:"b"`
	// S is the log2 of the number of ways per set.
	S uint64 `json:"s"`
}

// Validate reports whether the geometry describes a realizable cache. The
// index field must have non-negative width (C >= S+B) and the data store
// must fit in the simulated address space.
func (g Geometry) Validate() error {
	if g.C > maxCapacityBits {
		return fmt.Errorf(
			"cache geometry: capacity 2^%d bytes exceeds 2^%d limit",
			g.C, maxCapacityBits)
	}

	if g.B > g.C {
		return fmt.Errorf(
			"cache geometry: block size 2^%d exceeds capacity 2^%d",
			g.B, g.C)
	}

	if g.C < g.S+g.B {
		return fmt.Errorf(
			"cache geometry: negative index width (C=%d, B=%d, S=%d)",
			g.C, g.B, g.S)
	}

	return nil
}

// TagBits returns the width of the tag field.
func (g Geometry) TagBits() uint64 {
	return addrWidth - g.C + g.S
}

// IndexBits returns the width of the set-index field.
func (g Geometry) IndexBits() uint64 {
	return g.C - g.S - g.B
}

// OffsetBits returns the width of the byte-offset field.
func (g Geometry) OffsetBits() uint64 {
	return g.B
}

// NumSets returns the number of index slots, 2^IndexBits.
func (g Geometry) NumSets() uint64 {
	return 1 << g.IndexBits()
}

// Ways returns the associativity, 2^S.
func (g Geometry) Ways() uint64 {
	return 1 << g.S
}

// Tag extracts the tag field of addr.
func (g Geometry) Tag(addr uint64) uint64 {
	return extractField(addr, g.TagBits(), g.IndexBits()+g.OffsetBits())
}

// Index extracts the set-index field of addr.
func (g Geometry) Index(addr uint64) uint64 {
	return extractField(addr, g.IndexBits(), g.OffsetBits())
}

// ByteOffset extracts the byte-offset field of addr.
func (g Geometry) ByteOffset(addr uint64) uint64 {
	return extractField(addr, g.OffsetBits(), 0)
}

// BlockAddress returns addr with the offset field stripped, which is the
// concatenation of the tag and index fields.
func (g Geometry) BlockAddress(addr uint64) uint64 {
	return extractField(addr, g.TagBits()+g.IndexBits(), g.OffsetBits())
}

// WithBlockAddress replaces every bit of addr above the offset field with
// blockAddr, preserving the offset bits.
func (g Geometry) WithBlockAddress(addr, blockAddr uint64) uint64 {
	offset := addr & fieldMask(g.OffsetBits())
	return (blockAddr << g.OffsetBits()) | offset
}

// extractField shifts addr right by shift and masks the lowest width bits.
func extractField(addr, width, shift uint64) uint64 {
	return (addr >> shift) & fieldMask(width)
}

// fieldMask returns a mask of width low bits. Width 64 is a valid field
// width for degenerate geometries, so the shift overflow case is handled
// explicitly.
func fieldMask(width uint64) uint64 {
	if width >= addrWidth {
		return ^uint64(0)
	}

	return (1 << width) - 1
}

// ceilLog2 returns the number of bits needed to index n distinct entries.
func ceilLog2(n uint64) uint64 {
	if n <= 1 {
		return 0
	}

	return uint64(bits.Len64(n - 1))
}
