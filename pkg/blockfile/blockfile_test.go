package blockfile

import (
	"bytes"
	"path/filepath"
	"testing"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "block.dat")
}

func TestWriteThenReadFully(t *testing.T) {
	path := tempPath(t)
	bf, err := Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	defer bf.Close()

	data := []byte("hello, kenchidb")
	if err := bf.WriteFully(100, data); err != nil {
		t.Fatal(err)
	}

	got, err := bf.ReadFully(100, len(data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("ReadFully = %q, want %q", got, data)
	}

	if bf.ReadCount() != 1 || bf.ReadBytes() != uint64(len(data)) {
		t.Fatalf("read counters = (%d, %d), want (1, %d)", bf.ReadCount(), bf.ReadBytes(), len(data))
	}
	if bf.WriteCount() != 1 || bf.WriteBytes() != uint64(len(data)) {
		t.Fatalf("write counters = (%d, %d), want (1, %d)", bf.WriteCount(), bf.WriteBytes(), len(data))
	}
}

func TestWriteExtendsSizeToOffsetPlusLength(t *testing.T) {
	path := tempPath(t)
	bf, err := Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	defer bf.Close()

	if err := bf.WriteFully(4096, make([]byte, 10)); err != nil {
		t.Fatal(err)
	}
	if want := int64(4106); bf.Size() != want {
		t.Fatalf("Size() = %d, want %d", bf.Size(), want)
	}
}

func TestReadOutOfRangeFails(t *testing.T) {
	path := tempPath(t)
	bf, err := Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	defer bf.Close()

	if err := bf.WriteFully(0, make([]byte, 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := bf.ReadFully(5, 10); err == nil {
		t.Fatal("expected error reading past the end of the file")
	}
	if _, err := bf.ReadFully(20, 1); err == nil {
		t.Fatal("expected error reading starting past the end of the file")
	}
}

func TestWriteToReadOnlyFileFails(t *testing.T) {
	path := tempPath(t)
	bf, err := Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := bf.WriteFully(0, []byte("seed")); err != nil {
		t.Fatal(err)
	}
	bf.Close()

	ro, err := Open(path, true)
	if err != nil {
		t.Fatal(err)
	}
	defer ro.Close()

	if err := ro.WriteFully(0, []byte("x")); err == nil {
		t.Fatal("expected error writing to a read-only file")
	}
}

func TestSyncDoesNotError(t *testing.T) {
	path := tempPath(t)
	bf, err := Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	defer bf.Close()

	if err := bf.WriteFully(0, []byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := bf.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
