// ABOUTME: Packs a (chunk_id, page_number, slot_index) triple into a uint64
// ABOUTME: so it can ride as a BTree satellite value in the layout map

package locator

import "github.com/nainya/kenchidb/pkg/kerr"

// Locator resolves a document through the layout map to the page holding
// its record and the slot within that page. Spec section 6.3 defines this
// triple as the core's return value to the document/schema layer; section
// 9's open question ("does the BTree store satellite data") is resolved
// by packing it into the parallel Values array a node carries alongside
// its Keys (see pkg/arena, pkg/btree).
type Locator struct {
	ChunkID    uint32
	PageNumber uint32
	SlotIndex  uint16
}

const (
	chunkIDBits    = 26
	pageNumberBits = 26
	slotIndexBits  = 12

	maxChunkID    = 1<<chunkIDBits - 1
	maxPageNumber = 1<<pageNumberBits - 1
	maxSlotIndex  = 1<<slotIndexBits - 1

	pageNumberShift = slotIndexBits
	chunkIDShift    = slotIndexBits + pageNumberBits
)

// Pack encodes l into a single uint64: chunk id in the high 26 bits, page
// number in the middle 26 bits, slot index in the low 12 bits.
func Pack(l Locator) (uint64, error) {
	if l.ChunkID > maxChunkID {
		return 0, kerr.New(kerr.InvalidArgument, "locator.pack", "chunk id exceeds 2^26-1")
	}
	if l.PageNumber > maxPageNumber {
		return 0, kerr.New(kerr.InvalidArgument, "locator.pack", "page number exceeds 2^26-1")
	}
	if uint32(l.SlotIndex) > maxSlotIndex {
		return 0, kerr.New(kerr.InvalidArgument, "locator.pack", "slot index exceeds 2^12-1")
	}
	v := uint64(l.ChunkID)<<chunkIDShift | uint64(l.PageNumber)<<pageNumberShift | uint64(l.SlotIndex)
	return v, nil
}

// Unpack decodes a uint64 produced by Pack back into a Locator.
func Unpack(v uint64) Locator {
	return Locator{
		ChunkID:    uint32(v >> chunkIDShift),
		PageNumber: uint32((v >> pageNumberShift) & maxPageNumber),
		SlotIndex:  uint16(v & maxSlotIndex),
	}
}
