// ABOUTME: Block-aligned append-only file wrapper with atomic I/O counters
// ABOUTME: Stateless with respect to content: callers interpret the bytes, this only moves them

package blockfile

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/nainya/kenchidb/pkg/kerr"
)

// File wraps a single *os.File with the absolute-offset read/write
// operations spec.md section 4.7 names, plus relaxed-ordering atomic
// counters safe to read concurrently with the single writer.
type File struct {
	f        *os.File
	readOnly bool

	size int64 // atomic

	readCount  uint64 // atomic
	readBytes  uint64 // atomic
	writeCount uint64 // atomic
	writeBytes uint64 // atomic
}

// Open opens path, creating it if absent, honoring readOnly by refusing
// writes. The initial file size is recorded for Size()/bounds checks.
func Open(path string, readOnly bool) (*File, error) {
	flag := os.O_RDWR | os.O_CREATE
	if readOnly {
		flag = os.O_RDONLY | os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, kerr.Wrap(kerr.Io, "blockfile.open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, kerr.Wrap(kerr.Io, "blockfile.open", err)
	}
	return &File{f: f, readOnly: readOnly, size: info.Size()}, nil
}

// Close closes the underlying file descriptor.
func (bf *File) Close() error {
	if err := bf.f.Close(); err != nil {
		return kerr.Wrap(kerr.Io, "blockfile.close", err)
	}
	return nil
}

// Size returns the current known file size in bytes.
func (bf *File) Size() int64 { return atomic.LoadInt64(&bf.size) }

// ReadOnly reports whether the file was opened read-only.
func (bf *File) ReadOnly() bool { return bf.readOnly }

// ReadFully seeks to offset and reads exactly length bytes.
func (bf *File) ReadFully(offset int64, length int) ([]byte, error) {
	size := bf.Size()
	if offset < 0 || offset >= size || offset+int64(length) > size {
		return nil, kerr.New(kerr.NotFound, "blockfile.read_fully",
			fmt.Sprintf("range [%d, %d) out of bounds for size %d", offset, offset+int64(length), size))
	}

	buf := make([]byte, length)
	if _, err := bf.f.ReadAt(buf, offset); err != nil {
		return nil, kerr.Wrap(kerr.Io, "blockfile.read_fully", err)
	}

	atomic.AddUint64(&bf.readCount, 1)
	atomic.AddUint64(&bf.readBytes, uint64(length))
	return buf, nil
}

// WriteFully seeks to offset and writes all of data. It does not flush; the
// file's known size is extended to offset+len(data) if needed.
func (bf *File) WriteFully(offset int64, data []byte) error {
	if bf.readOnly {
		return kerr.New(kerr.ReadOnly, "blockfile.write_fully", "file opened read-only")
	}
	if _, err := bf.f.WriteAt(data, offset); err != nil {
		return kerr.Wrap(kerr.Io, "blockfile.write_fully", err)
	}

	atomic.AddUint64(&bf.writeCount, 1)
	atomic.AddUint64(&bf.writeBytes, uint64(len(data)))

	newSize := offset + int64(len(data))
	for {
		cur := atomic.LoadInt64(&bf.size)
		if newSize <= cur {
			break
		}
		if atomic.CompareAndSwapInt64(&bf.size, cur, newSize) {
			break
		}
	}
	return nil
}

// Sync flushes OS buffers to the underlying device.
func (bf *File) Sync() error {
	if err := bf.f.Sync(); err != nil {
		return kerr.Wrap(kerr.Io, "blockfile.sync", err)
	}
	return nil
}

// ReadCount is the number of completed ReadFully calls.
func (bf *File) ReadCount() uint64 { return atomic.LoadUint64(&bf.readCount) }

// ReadBytes is the total number of bytes returned by ReadFully calls.
func (bf *File) ReadBytes() uint64 { return atomic.LoadUint64(&bf.readBytes) }

// WriteCount is the number of completed WriteFully calls.
func (bf *File) WriteCount() uint64 { return atomic.LoadUint64(&bf.writeCount) }

// WriteBytes is the total number of bytes accepted by WriteFully calls.
func (bf *File) WriteBytes() uint64 { return atomic.LoadUint64(&bf.writeBytes) }
