// ABOUTME: ChunkHeader codec: 96-byte fixed little-endian layout with named field offsets
// ABOUTME: Trailing bytes are reserved zeros so the format can grow without reordering fields

package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/nainya/kenchidb/pkg/kerr"
)

// HeaderSize is the fixed on-disk size of a ChunkHeader.
const HeaderSize = 96

// Magic is the four ASCII bytes "KNCH".
var Magic = [4]byte{'K', 'N', 'C', 'H'}

const (
	hOffMagic             = 0
	hOffID                = 4
	hOffLength            = 8
	hOffVersion           = 12
	hOffTime              = 20
	hOffMaxLength         = 28
	hOffPageCount         = 32
	hOffPinCount          = 36
	hOffTOCPosition       = 40
	hOffLayoutRootPos     = 44
	hOffMapID             = 52
	hOffNext              = 56
	hReservedStart        = 64
	hReservedLen          = 32
)

// Header is the 96-byte chunk header written at offset 0 of every chunk.
type Header struct {
	ID                      uint32
	Length                  uint32 // in 4096-byte blocks
	Version                 uint64
	Time                    uint64 // ms since store epoch
	MaxLength               uint32
	PageCount               uint32
	PinCount                uint32
	TableOfContentPosition  uint32
	LayoutRootPosition      uint64
	MapID                   uint32
	Next                    uint64
}

// Serialize encodes h into a HeaderSize-byte little-endian buffer with
// the magic at offset 0 and all reserved trailing bytes zeroed.
func (h Header) Serialize() [HeaderSize]byte {
	var buf [HeaderSize]byte
	copy(buf[hOffMagic:], Magic[:])
	binary.LittleEndian.PutUint32(buf[hOffID:], h.ID)
	binary.LittleEndian.PutUint32(buf[hOffLength:], h.Length)
	binary.LittleEndian.PutUint64(buf[hOffVersion:], h.Version)
	binary.LittleEndian.PutUint64(buf[hOffTime:], h.Time)
	binary.LittleEndian.PutUint32(buf[hOffMaxLength:], h.MaxLength)
	binary.LittleEndian.PutUint32(buf[hOffPageCount:], h.PageCount)
	binary.LittleEndian.PutUint32(buf[hOffPinCount:], h.PinCount)
	binary.LittleEndian.PutUint32(buf[hOffTOCPosition:], h.TableOfContentPosition)
	binary.LittleEndian.PutUint64(buf[hOffLayoutRootPos:], h.LayoutRootPosition)
	binary.LittleEndian.PutUint32(buf[hOffMapID:], h.MapID)
	binary.LittleEndian.PutUint64(buf[hOffNext:], h.Next)
	// buf[hReservedStart : hReservedStart+hReservedLen] is left zero.
	return buf
}

// DeserializeHeader decodes a HeaderSize-byte buffer, validating the magic.
func DeserializeHeader(data []byte) (Header, error) {
	if len(data) != HeaderSize {
		return Header{}, kerr.New(kerr.Corrupt, "chunk.deserialize_header",
			fmt.Sprintf("expected %d bytes, got %d", HeaderSize, len(data)))
	}
	if string(data[hOffMagic:hOffMagic+4]) != string(Magic[:]) {
		return Header{}, kerr.New(kerr.Corrupt, "chunk.deserialize_header",
			fmt.Sprintf("bad magic %q", data[hOffMagic:hOffMagic+4]))
	}
	return Header{
		ID:                     binary.LittleEndian.Uint32(data[hOffID:]),
		Length:                 binary.LittleEndian.Uint32(data[hOffLength:]),
		Version:                binary.LittleEndian.Uint64(data[hOffVersion:]),
		Time:                   binary.LittleEndian.Uint64(data[hOffTime:]),
		MaxLength:              binary.LittleEndian.Uint32(data[hOffMaxLength:]),
		PageCount:              binary.LittleEndian.Uint32(data[hOffPageCount:]),
		PinCount:               binary.LittleEndian.Uint32(data[hOffPinCount:]),
		TableOfContentPosition: binary.LittleEndian.Uint32(data[hOffTOCPosition:]),
		LayoutRootPosition:     binary.LittleEndian.Uint64(data[hOffLayoutRootPos:]),
		MapID:                  binary.LittleEndian.Uint32(data[hOffMapID:]),
		Next:                   binary.LittleEndian.Uint64(data[hOffNext:]),
	}, nil
}
