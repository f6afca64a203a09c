package cache

// A Line is the record a cache keeps per resident block: the full access
// address, the dirty bit, and whether the block arrived through a prefetch.
// A Line carries its own Geometry so that tag, index, and offset can be
// computed wherever the line ends up. Lines are plain values; moving a line
// between tiers copies it out of the source set and inserts the copy into
// the destination, never sharing storage.
type Line struct {
	addr       uint64
	dirty      bool
	prefetched bool
	geom       Geometry
}

// NewLine builds a line for addr under the given geometry. Writes enter the
// hierarchy dirty, reads clean.
func NewLine(addr uint64, dirty bool, geom Geometry) Line {
	return Line{addr: addr, dirty: dirty, geom: geom}
}

// Address returns the full access address.
func (l Line) Address() uint64 {
	return l.addr
}

// Dirty reports whether the block holds modifications not yet propagated.
func (l Line) Dirty() bool {
	return l.dirty
}

// SetDirty updates the dirty bit.
func (l *Line) SetDirty(dirty bool) {
	l.dirty = dirty
}

// Prefetched reports whether the block was brought in speculatively.
func (l Line) Prefetched() bool {
	return l.prefetched
}

// SetPrefetched updates the prefetch provenance flag.
func (l *Line) SetPrefetched(prefetched bool) {
	l.prefetched = prefetched
}

// Geometry returns the geometry the line is keyed under.
func (l Line) Geometry() Geometry {
	return l.geom
}

// WithGeometry returns a copy of the line re-keyed under a different
// geometry, as happens when a block moves between tiers with different
// shapes. Address, dirty bit, and prefetch flag are preserved.
func (l Line) WithGeometry(geom Geometry) Line {
	l.geom = geom
	return l
}

// Tag returns the tag field of the line's address.
func (l Line) Tag() uint64 {
	return l.geom.Tag(l.addr)
}

// Index returns the set-index field of the line's address.
func (l Line) Index() uint64 {
	return l.geom.Index(l.addr)
}

// ByteOffset returns the byte-offset field of the line's address.
func (l Line) ByteOffset() uint64 {
	return l.geom.ByteOffset(l.addr)
}

// BlockAddress returns the line's address without the offset field.
func (l Line) BlockAddress() uint64 {
	return l.geom.BlockAddress(l.addr)
}

// SetBlockAddress replaces all bits above the offset field while keeping
// the offset intact. The prefetcher uses this to step through successive
// block addresses.
func (l *Line) SetBlockAddress(blockAddr uint64) {
	l.addr = l.geom.WithBlockAddress(l.addr, blockAddr)
}
