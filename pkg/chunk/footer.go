// ABOUTME: ChunkFooter codec: the commit marker, independently checksummed with Fletcher32
// ABOUTME: A chunk whose footer fails verification is treated as uncommitted

package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/nainya/kenchidb/pkg/checksum"
	"github.com/nainya/kenchidb/pkg/kerr"
)

// FooterSize is the fixed on-disk size of a ChunkFooter (also reserved for
// future extension, like Header).
const FooterSize = 96

const (
	fOffID       = 0
	fOffLength   = 4
	fOffVersion  = 8
	fOffChecksum = 16
	fChecksumOverLen = 16 // fletcher32 covers bytes [0, 16)
)

// Footer is the 96-byte chunk footer written at the end of every chunk. It
// is the epoch's commit marker: Checksum covers only its first 16 bytes.
type Footer struct {
	ID       uint32
	Length   uint32
	Version  uint64
	Checksum uint32
}

// Serialize encodes f into a FooterSize-byte buffer, computing the
// Fletcher32 checksum over bytes [0, 16) itself (the Checksum field on f
// is ignored on input).
func (f Footer) Serialize() ([FooterSize]byte, error) {
	var buf [FooterSize]byte
	binary.LittleEndian.PutUint32(buf[fOffID:], f.ID)
	binary.LittleEndian.PutUint32(buf[fOffLength:], f.Length)
	binary.LittleEndian.PutUint64(buf[fOffVersion:], f.Version)

	sum, err := checksum.Fletcher32(buf[:], 0, fChecksumOverLen)
	if err != nil {
		return buf, kerr.Wrap(kerr.Io, "chunk.serialize_footer", err)
	}
	binary.LittleEndian.PutUint32(buf[fOffChecksum:], sum)
	return buf, nil
}

// DeserializeFooter decodes a FooterSize-byte buffer. It never constructs
// a footer of the wrong size.
func DeserializeFooter(data []byte) (Footer, error) {
	if len(data) != FooterSize {
		return Footer{}, kerr.New(kerr.Corrupt, "chunk.deserialize_footer",
			fmt.Sprintf("expected %d bytes, got %d", FooterSize, len(data)))
	}
	return Footer{
		ID:       binary.LittleEndian.Uint32(data[fOffID:]),
		Length:   binary.LittleEndian.Uint32(data[fOffLength:]),
		Version:  binary.LittleEndian.Uint64(data[fOffVersion:]),
		Checksum: binary.LittleEndian.Uint32(data[fOffChecksum:]),
	}, nil
}

// VerifyFooter recomputes the Fletcher32 checksum over bytes [0, 16) of a
// serialized footer and compares it to the stored checksum at [16, 20).
func VerifyFooter(data []byte) (bool, error) {
	if len(data) != FooterSize {
		return false, kerr.New(kerr.Corrupt, "chunk.verify_footer",
			fmt.Sprintf("expected %d bytes, got %d", FooterSize, len(data)))
	}
	want := binary.LittleEndian.Uint32(data[fOffChecksum:])
	got, err := checksum.Fletcher32(data, 0, fChecksumOverLen)
	if err != nil {
		return false, kerr.Wrap(kerr.Io, "chunk.verify_footer", err)
	}
	return want == got, nil
}
