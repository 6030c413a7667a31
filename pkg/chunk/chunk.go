// ABOUTME: Chunk container: block-aligned page aggregate with live/total accounting and lifecycle predicates
// ABOUTME: Occupancy is a packed bitset; a set bit marks a logically deleted page

package chunk

import (
	"math/bits"

	"github.com/nainya/kenchidb/pkg/kerr"
)

// BlockSize is the page/block alignment unit on disk.
const BlockSize = 4096

// MaxChunkID is the largest chunk id the 2^26-1 limit allows.
const MaxChunkID = 1<<26 - 1

// Occupancy is a packed bitset over [0, pageCount) where a set bit marks a
// logically deleted page.
type Occupancy struct {
	words []uint64
	n     int // number of tracked bits (== chunk.PageCount)
}

// NewOccupancy allocates an Occupancy tracking n page slots, all clear.
func NewOccupancy(n int) *Occupancy {
	return &Occupancy{words: make([]uint64, (n+63)/64), n: n}
}

// Grow extends the bitset to track n page slots, preserving existing bits.
func (o *Occupancy) Grow(n int) {
	if n <= o.n {
		return
	}
	need := (n + 63) / 64
	if need > len(o.words) {
		grown := make([]uint64, need)
		copy(grown, o.words)
		o.words = grown
	}
	o.n = n
}

// Set marks pageNumber deleted.
func (o *Occupancy) Set(pageNumber int) {
	o.words[pageNumber/64] |= 1 << uint(pageNumber%64)
}

// Clear marks pageNumber live.
func (o *Occupancy) Clear(pageNumber int) {
	o.words[pageNumber/64] &^= 1 << uint(pageNumber%64)
}

// IsSet reports whether pageNumber is marked deleted.
func (o *Occupancy) IsSet(pageNumber int) bool {
	return o.words[pageNumber/64]&(1<<uint(pageNumber%64)) != 0
}

// PopCount returns the number of set (deleted) bits.
func (o *Occupancy) PopCount() int {
	count := 0
	for _, w := range o.words {
		count += bits.OnesCount64(w)
	}
	return count
}

// Chunk is a contiguous, block-aligned range of the backing file holding an
// immutable set of pages plus structural metadata (spec.md section 3.3).
type Chunk struct {
	ID      uint32
	Version uint64
	Time    uint64
	Length  uint32 // blocks
	Block   uint64 // byte offset, 0 => unallocated

	PageCount     uint32
	PageCountLive uint32
	TOCPosition   uint32
	Occupancy     *Occupancy

	MaxLength     uint32
	MaxLengthLive uint32

	CollectPriority  uint16
	Unused           uint64 // ms, 0 = still used
	UnusedAtVersion  uint64
	PinCount         uint32

	LayoutRootPosition uint64
	mapID              uint32
	Next               uint64

	Buffer []byte // serialized form before persisting; emptied once written
}

// New creates an empty chunk with the given id, ready to accumulate pages
// for the current write epoch.
func New(id uint32, version uint64, timeMS uint64) (*Chunk, error) {
	if id > MaxChunkID {
		return nil, kerr.New(kerr.InvalidArgument, "chunk.new", "id exceeds 2^26-1")
	}
	return &Chunk{
		ID:        id,
		Version:   version,
		Time:      timeMS,
		Occupancy: NewOccupancy(0),
	}, nil
}

// IsAllocated reports whether the chunk has a backing byte position.
func (c *Chunk) IsAllocated() bool { return c.Block != 0 }

// IsSaved reports whether the chunk is allocated and its in-memory buffer
// has been flushed (emptied) after a successful write.
func (c *Chunk) IsSaved() bool { return c.IsAllocated() && len(c.Buffer) == 0 }

// IsLive reports whether the chunk still holds any live (non-deleted) pages.
func (c *Chunk) IsLive() bool { return c.PageCountLive > 0 }

// IsEvacuable reports whether no page in the chunk is currently pinned.
func (c *Chunk) IsEvacuable() bool { return c.PinCount == 0 }

// IsRewritable reports whether the chunk is a good compaction candidate:
// saved, live, evacuable, and holding at least one reclaimable (deleted)
// page.
func (c *Chunk) IsRewritable() bool {
	return c.IsSaved() && c.IsLive() && c.IsEvacuable() && c.PageCountLive < c.PageCount
}

// PredictedNext returns the byte position immediately following this
// chunk's allocated extent once it is saved, or 0 until then.
func (c *Chunk) PredictedNext() uint64 {
	if !c.IsSaved() {
		return 0
	}
	return c.Block + uint64(c.Length)*BlockSize
}

// AllocateMapID hands out the next map id for a newly registered named map
// whose root is being recorded in this chunk's table of contents.
func (c *Chunk) AllocateMapID() uint32 {
	c.mapID++
	return c.mapID
}

// MapID returns the last allocated map id.
func (c *Chunk) MapID() uint32 { return c.mapID }

// MarkPageDeleted flips pageNumber's occupancy bit and updates the
// live/total accounting. Marking an already-deleted page again is a no-op,
// so the page is never counted twice.
func (c *Chunk) MarkPageDeleted(pageNumber int) error {
	if pageNumber < 0 || uint32(pageNumber) >= c.PageCount {
		return kerr.New(kerr.NotFound, "chunk.mark_page_deleted", "page number out of range")
	}
	if c.Occupancy.IsSet(pageNumber) {
		return nil // already deleted
	}
	c.Occupancy.Set(pageNumber)
	c.PageCountLive--
	return nil
}

// AddPage records a freshly written live page, growing the occupancy
// bitset and incrementing both page counters.
func (c *Chunk) AddPage() int {
	pageNumber := int(c.PageCount)
	c.PageCount++
	c.PageCountLive++
	c.Occupancy.Grow(int(c.PageCount))
	return pageNumber
}

// CheckInvariants validates the structural invariants of spec.md section
// 3.3/8.1 and returns an error naming the first violation found.
func (c *Chunk) CheckInvariants() error {
	if c.PageCountLive > c.PageCount {
		return kerr.New(kerr.Corrupt, "chunk.check_invariants", "page_count_live exceeds page_count")
	}
	want := int(c.PageCount - c.PageCountLive)
	if got := c.Occupancy.PopCount(); got != want {
		return kerr.New(kerr.Corrupt, "chunk.check_invariants", "occupancy popcount does not match page_count - page_count_live")
	}
	if c.ID > MaxChunkID {
		return kerr.New(kerr.Corrupt, "chunk.check_invariants", "id exceeds 2^26-1")
	}
	return nil
}
