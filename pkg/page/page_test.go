package page

import (
	"bytes"
	"testing"

	"github.com/nainya/kenchidb/pkg/kerr"
)

func TestNewPageHasExpectedFreeSpace(t *testing.T) {
	p := New(Data, 7)
	if p.FreeSpaceStart() != headerSize {
		t.Fatalf("FreeSpaceStart() = %d, want %d", p.FreeSpaceStart(), headerSize)
	}
	if p.FreeSpaceSize() != Size-headerSize {
		t.Fatalf("FreeSpaceSize() = %d, want %d", p.FreeSpaceSize(), Size-headerSize)
	}
	if p.RecordCount() != 0 {
		t.Fatalf("RecordCount() = %d, want 0", p.RecordCount())
	}
}

func TestInsertAndGetRecordRoundTrip(t *testing.T) {
	p := New(Data, 7)
	records := [][]byte{
		bytes.Repeat([]byte{1}, 100),
		bytes.Repeat([]byte{2}, 50),
		bytes.Repeat([]byte{3}, 200),
	}

	var indexes []int
	for _, r := range records {
		idx, err := p.InsertRecord(r)
		if err != nil {
			t.Fatalf("InsertRecord: %v", err)
		}
		indexes = append(indexes, idx)
	}

	if p.RecordCount() != 3 {
		t.Fatalf("RecordCount() = %d, want 3", p.RecordCount())
	}

	for i, idx := range indexes {
		got, err := p.GetRecord(idx)
		if err != nil {
			t.Fatalf("GetRecord(%d): %v", idx, err)
		}
		if !bytes.Equal(got, records[i]) {
			t.Fatalf("GetRecord(%d) = %v, want %v", idx, got, records[i])
		}
	}
}

func TestSlotIndexesAreDenseAndStable(t *testing.T) {
	p := New(Data, 1)
	for i := 0; i < 5; i++ {
		idx, err := p.InsertRecord([]byte{byte(i)})
		if err != nil {
			t.Fatal(err)
		}
		if idx != i {
			t.Fatalf("slot index %d, want %d", idx, i)
		}
	}
}

func TestInsertRecordFailsOutOfSpace(t *testing.T) {
	p := New(Data, 1)
	maxRecord := int(p.FreeSpaceSize()) - slotSize
	big := bytes.Repeat([]byte{0xAA}, maxRecord+1)
	if _, err := p.InsertRecord(big); err == nil {
		t.Fatal("expected OutOfSpace error")
	} else if !kerr.Is(err, kerr.OutOfSpace) {
		t.Fatalf("expected OutOfSpace kind, got %v", err)
	}
}

func TestRepeatedInsertsEventuallyExhaustSpace(t *testing.T) {
	p := New(Data, 1)
	recordLen := 100
	record := bytes.Repeat([]byte{0x5}, recordLen)

	maxFit := int(p.FreeSpaceSize()) / (recordLen + slotSize)

	var lastErr error
	count := 0
	for i := 0; i < 2*maxFit; i++ {
		_, err := p.InsertRecord(record)
		if err != nil {
			lastErr = err
			break
		}
		count++
	}

	if count == 0 || count > maxFit {
		t.Fatalf("inserted %d records, expected up to %d before exhaustion", count, maxFit)
	}
	if lastErr == nil || !kerr.Is(lastErr, kerr.OutOfSpace) {
		t.Fatalf("expected OutOfSpace once capacity exhausted, got %v", lastErr)
	}
}

func TestGetRecordOutOfRangeIsNotFound(t *testing.T) {
	p := New(Data, 1)
	if _, err := p.GetRecord(0); err == nil {
		t.Fatal("expected NotFound error on empty page")
	} else if !kerr.Is(err, kerr.NotFound) {
		t.Fatalf("expected NotFound kind, got %v", err)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	p := New(Data, 7)
	records := [][]byte{
		bytes.Repeat([]byte{1}, 100),
		bytes.Repeat([]byte{2}, 50),
		bytes.Repeat([]byte{3}, 200),
	}
	for _, r := range records {
		if _, err := p.InsertRecord(r); err != nil {
			t.Fatal(err)
		}
	}

	raw := p.Serialize()
	decoded, err := Deserialize(raw[:])
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if decoded.RecordCount() != 3 {
		t.Fatalf("RecordCount() = %d, want 3", decoded.RecordCount())
	}
	if decoded.CollectionID() != 7 {
		t.Fatalf("CollectionID() = %d, want 7", decoded.CollectionID())
	}
	if decoded.Type() != Data {
		t.Fatalf("Type() = %v, want Data", decoded.Type())
	}
	for i, r := range records {
		got, err := decoded.GetRecord(i)
		if err != nil {
			t.Fatalf("GetRecord(%d): %v", i, err)
		}
		if !bytes.Equal(got, r) {
			t.Fatalf("GetRecord(%d) = %v, want %v", i, got, r)
		}
	}
	if !decoded.VerifyChecksum() {
		t.Fatal("deserialized page should verify its own checksum")
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	var raw [Size]byte
	if _, err := Deserialize(raw[:]); err == nil {
		t.Fatal("expected Corrupt error for zeroed (bad magic) page")
	} else if !kerr.Is(err, kerr.Corrupt) {
		t.Fatalf("expected Corrupt kind, got %v", err)
	}
}

func TestDeserializeRejectsWrongSize(t *testing.T) {
	if _, err := Deserialize(make([]byte, Size-1)); err == nil {
		t.Fatal("expected Corrupt error for wrong-size input")
	}
}

func TestVerifyChecksumDetectsCorruption(t *testing.T) {
	p := New(Data, 1)
	if _, err := p.InsertRecord([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	raw := p.Serialize()

	corrupted := raw
	corrupted[Size-1] ^= 0xFF // flip a byte inside the heap region

	decoded, err := Deserialize(corrupted[:])
	if err != nil {
		t.Fatal(err)
	}
	if decoded.VerifyChecksum() {
		t.Fatal("expected checksum mismatch after corrupting heap byte")
	}
}
