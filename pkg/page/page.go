// ABOUTME: Fixed 4 KiB slotted page: header, upward-growing slot directory, downward-growing record heap
// ABOUTME: Slot indices are dense and stable: the directory only ever grows by appending

package page

import (
	"encoding/binary"
	"fmt"

	"github.com/nainya/kenchidb/pkg/kerr"
)

// Size is the fixed on-disk and in-memory size of every page.
const Size = 4096

// Magic is the page header magic, 0x4B454E43 ("KENC" little-endian).
const Magic uint32 = 0x4B454E43

// Type distinguishes what a page's record heap holds.
type Type uint8

const (
	Data Type = iota + 1
	Meta
	Free
	Header
)

const (
	headerSize  = 24
	slotSize    = 4
	offMagic    = 0
	offType     = 4
	offCount    = 5
	offFreeTop  = 8  // free-space-start offset (next directory slot)
	offFreeSize = 10 // free-space-size
	offChecksum = 12
	offCollID   = 16
)

// Slot is one entry of the directory: a page-relative byte offset and
// length of one record in the heap.
type Slot struct {
	Offset uint16
	Length uint16
}

// Page is a fixed Size-byte slotted container, held in memory as a single
// backing buffer. The slot directory grows upward from the end of the
// header; the record heap grows downward from the end of the page.
type Page struct {
	buf          [Size]byte
	pageType     Type
	recordCount  uint16
	collectionID uint32
	slots        []Slot
	heapTop      uint16 // byte offset of the start of the used heap region
}

// New creates an empty page of the given type, owned by collectionID.
func New(pageType Type, collectionID uint32) *Page {
	p := &Page{
		pageType:     pageType,
		collectionID: collectionID,
		heapTop:      Size,
	}
	return p
}

// FreeSpaceStart is the next available directory slot offset.
func (p *Page) FreeSpaceStart() uint16 {
	return uint16(headerSize + len(p.slots)*slotSize)
}

// FreeSpaceSize is the number of bytes available for a new slot+record.
func (p *Page) FreeSpaceSize() uint16 {
	return p.heapTop - p.FreeSpaceStart()
}

// RecordCount is the number of records currently stored.
func (p *Page) RecordCount() int { return len(p.slots) }

// CollectionID is the owning collection id recorded in the header.
func (p *Page) CollectionID() uint32 { return p.collectionID }

// Type is the page's declared type.
func (p *Page) Type() Type { return p.pageType }

// InsertRecord appends data to the heap and a new slot to the directory,
// returning the new record's dense slot index. Fails with OutOfSpace if
// data plus its 4-byte slot entry would not fit.
func (p *Page) InsertRecord(data []byte) (int, error) {
	needed := len(data) + slotSize
	if needed > int(p.FreeSpaceSize()) {
		return 0, kerr.New(kerr.OutOfSpace, "page.insert_record",
			fmt.Sprintf("need %d bytes, have %d free", needed, p.FreeSpaceSize()))
	}

	offset := p.heapTop - uint16(len(data))
	copy(p.buf[offset:p.heapTop], data)
	p.heapTop = offset

	slot := Slot{Offset: offset, Length: uint16(len(data))}
	p.slots = append(p.slots, slot)

	return len(p.slots) - 1, nil
}

// GetRecord returns the bytes stored at slotIndex.
func (p *Page) GetRecord(slotIndex int) ([]byte, error) {
	if slotIndex < 0 || slotIndex >= len(p.slots) {
		return nil, kerr.New(kerr.NotFound, "page.get_record",
			fmt.Sprintf("slot %d out of range [0, %d)", slotIndex, len(p.slots)))
	}
	slot := p.slots[slotIndex]
	if int(slot.Offset)+int(slot.Length) > Size {
		return nil, kerr.New(kerr.Corrupt, "page.get_record", "slot extends past page bounds")
	}
	return p.buf[slot.Offset : slot.Offset+slot.Length], nil
}

// computeChecksum computes the wrapping 32-bit sum of every slot-directory
// byte and every heap byte, without touching the stored header value. The
// slot directory bytes read here are the ones already written into buf by
// Serialize/Deserialize; callers that mutate slots in place must call
// UpdateChecksum (which re-flattens the directory first) rather than this.
func (p *Page) computeChecksum() uint32 {
	var sum uint32
	dirStart := headerSize
	dirEnd := p.FreeSpaceStart()
	for i := dirStart; i < int(dirEnd); i++ {
		sum += uint32(p.buf[i])
	}
	for i := int(p.heapTop); i < Size; i++ {
		sum += uint32(p.buf[i])
	}
	return sum
}

// UpdateChecksum flattens the slot directory into the backing buffer and
// sets the header checksum to the wrapping 32-bit sum of every
// slot-directory byte and every heap byte. This checks the body, not the
// header itself.
func (p *Page) UpdateChecksum() uint32 {
	for i, s := range p.slots {
		pos := headerSize + i*slotSize
		binary.LittleEndian.PutUint16(p.buf[pos:], s.Offset)
		binary.LittleEndian.PutUint16(p.buf[pos+2:], s.Length)
	}
	sum := p.computeChecksum()
	binary.LittleEndian.PutUint32(p.buf[offChecksum:], sum)
	return sum
}

// Checksum returns the header's currently stored checksum without
// recomputing it.
func (p *Page) Checksum() uint32 {
	return binary.LittleEndian.Uint32(p.buf[offChecksum:])
}

// Serialize refreshes the checksum and slot directory into the backing
// buffer and returns the full Size-byte page.
func (p *Page) Serialize() [Size]byte {
	binary.LittleEndian.PutUint32(p.buf[offMagic:], Magic)
	p.buf[offType] = byte(p.pageType)
	binary.LittleEndian.PutUint16(p.buf[offCount:], uint16(len(p.slots)))
	binary.LittleEndian.PutUint16(p.buf[offFreeTop:], p.FreeSpaceStart())
	binary.LittleEndian.PutUint16(p.buf[offFreeSize:], p.FreeSpaceSize())
	binary.LittleEndian.PutUint32(p.buf[offCollID:], p.collectionID)

	p.UpdateChecksum()
	return p.buf
}

// Deserialize decodes a Size-byte page image. It validates the magic and
// reconstructs the slot directory and record heap; checksum verification
// is left to the caller via VerifyChecksum.
func Deserialize(data []byte) (*Page, error) {
	if len(data) != Size {
		return nil, kerr.New(kerr.Corrupt, "page.deserialize",
			fmt.Sprintf("expected %d bytes, got %d", Size, len(data)))
	}
	magic := binary.LittleEndian.Uint32(data[offMagic:])
	if magic != Magic {
		return nil, kerr.New(kerr.Corrupt, "page.deserialize",
			fmt.Sprintf("bad magic 0x%X", magic))
	}

	p := &Page{
		pageType:     Type(data[offType]),
		collectionID: binary.LittleEndian.Uint32(data[offCollID:]),
	}
	copy(p.buf[:], data)

	count := binary.LittleEndian.Uint16(data[offCount:])
	p.slots = make([]Slot, count)
	minOffset := uint16(Size)
	for i := 0; i < int(count); i++ {
		pos := headerSize + i*slotSize
		if pos+slotSize > Size {
			return nil, kerr.New(kerr.Corrupt, "page.deserialize", "slot directory overruns page")
		}
		off := binary.LittleEndian.Uint16(data[pos:])
		length := binary.LittleEndian.Uint16(data[pos+2:])
		if int(off)+int(length) > Size || off < headerSize {
			return nil, kerr.New(kerr.Corrupt, "page.deserialize", "slot out of bounds")
		}
		p.slots[i] = Slot{Offset: off, Length: length}
		if off < minOffset {
			minOffset = off
		}
	}
	if count == 0 {
		minOffset = Size
	}
	p.heapTop = minOffset

	return p, nil
}

// VerifyChecksum recomputes the body checksum and compares it to the
// stored header value, without mutating the page.
func (p *Page) VerifyChecksum() bool {
	return p.Checksum() == p.computeChecksum()
}
