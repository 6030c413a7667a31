// ABOUTME: Fletcher32 checksum with 360-word periodic folding
// ABOUTME: Used by the chunk footer as the independent commit-marker checksum

package checksum

import (
	"fmt"

	"github.com/nainya/kenchidb/pkg/kerr"
)

// wordsPerFold is the number of 16-bit words processed between reductions;
// 360 words (720 bytes) is the largest run that cannot overflow sum2 before
// a fold is due.
const wordsPerFold = 360

// Fletcher32 computes the Fletcher-32 checksum over bytes[offset:offset+length].
//
// Words are read big-endian two bytes at a time; an odd trailing byte is
// padded with a conceptual zero. Empty input returns 0xFFFFFFFF.
func Fletcher32(bytes []byte, offset, length int) (uint32, error) {
	if offset < 0 || length < 0 || offset+length > len(bytes) {
		return 0, kerr.New(kerr.InvalidArgument, "checksum.fletcher32",
			fmt.Sprintf("range [%d, %d) out of bounds for %d bytes", offset, offset+length, len(bytes)))
	}
	if length == 0 {
		return 0xFFFFFFFF, nil
	}

	data := bytes[offset : offset+length]
	sum1 := uint32(0xFFFF)
	sum2 := uint32(0xFFFF)

	i := 0
	wordsInFold := 0
	for i < length {
		var word uint32
		if i+1 < length {
			word = uint32(data[i])<<8 | uint32(data[i+1])
			i += 2
		} else {
			word = uint32(data[i]) << 8
			i++
		}
		sum1 += word
		sum2 += sum1
		wordsInFold++

		if wordsInFold == wordsPerFold {
			sum1 = (sum1 & 0xFFFF) + (sum1 >> 16)
			sum2 = (sum2 & 0xFFFF) + (sum2 >> 16)
			wordsInFold = 0
		}
	}

	// Fold once more in case the final partial block left carry bits.
	sum1 = (sum1 & 0xFFFF) + (sum1 >> 16)
	sum2 = (sum2 & 0xFFFF) + (sum2 >> 16)

	return (sum2 << 16) | sum1, nil
}
