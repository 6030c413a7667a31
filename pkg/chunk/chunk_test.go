package chunk

import "testing"

func TestNewChunkRejectsOversizedID(t *testing.T) {
	if _, err := New(MaxChunkID+1, 1, 1); err == nil {
		t.Fatal("expected error for id exceeding 2^26-1")
	}
}

func TestLifecyclePredicates(t *testing.T) {
	c, err := New(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	if c.IsAllocated() || c.IsSaved() || c.IsLive() {
		t.Fatal("a fresh chunk should be unallocated, unsaved, and not live")
	}
	if !c.IsEvacuable() {
		t.Fatal("a fresh chunk with pin_count=0 should be evacuable")
	}

	c.AddPage()
	c.AddPage()
	if !c.IsLive() {
		t.Fatal("chunk with live pages should report IsLive")
	}

	c.Block = 4096
	c.Buffer = []byte{1, 2, 3}
	if !c.IsAllocated() {
		t.Fatal("chunk with non-zero block should be allocated")
	}
	if c.IsSaved() {
		t.Fatal("chunk with a non-empty buffer should not be saved")
	}

	c.Buffer = nil
	if !c.IsSaved() {
		t.Fatal("allocated chunk with empty buffer should be saved")
	}

	if c.IsRewritable() {
		t.Fatal("chunk with no deleted pages should not be rewritable yet")
	}

	if err := c.MarkPageDeleted(0); err != nil {
		t.Fatal(err)
	}
	if !c.IsRewritable() {
		t.Fatal("saved, live, evacuable chunk with a deleted page should be rewritable")
	}

	c.PinCount = 1
	if c.IsEvacuable() || c.IsRewritable() {
		t.Fatal("a pinned chunk should not be evacuable or rewritable")
	}
}

func TestOccupancyInvariant(t *testing.T) {
	c, err := New(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		c.AddPage()
	}
	if err := c.CheckInvariants(); err != nil {
		t.Fatalf("fresh chunk should satisfy invariants: %v", err)
	}

	for _, pn := range []int{2, 5, 7} {
		if err := c.MarkPageDeleted(pn); err != nil {
			t.Fatal(err)
		}
	}
	if c.PageCountLive != 7 {
		t.Fatalf("PageCountLive = %d, want 7", c.PageCountLive)
	}
	if got := c.Occupancy.PopCount(); got != 3 {
		t.Fatalf("PopCount() = %d, want 3", got)
	}
	if err := c.CheckInvariants(); err != nil {
		t.Fatalf("invariants should hold after marking pages deleted: %v", err)
	}

	// Marking the same page deleted twice must not double-count.
	if err := c.MarkPageDeleted(2); err != nil {
		t.Fatal(err)
	}
	if c.PageCountLive != 7 {
		t.Fatalf("re-deleting an already-deleted page changed PageCountLive to %d", c.PageCountLive)
	}
}

func TestMarkPageDeletedOutOfRange(t *testing.T) {
	c, err := New(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	c.AddPage()
	if err := c.MarkPageDeleted(5); err == nil {
		t.Fatal("expected NotFound error for out-of-range page number")
	}
}

func TestPredictedNextAndMapID(t *testing.T) {
	c, err := New(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.PredictedNext() != 0 {
		t.Fatal("unallocated chunk should predict next=0")
	}
	c.Block = 8192
	c.Length = 4
	if want := uint64(8192 + 4*BlockSize); c.PredictedNext() != want {
		t.Fatalf("PredictedNext() = %d, want %d", c.PredictedNext(), want)
	}

	if c.AllocateMapID() != 1 || c.AllocateMapID() != 2 {
		t.Fatal("AllocateMapID should increment monotonically from 1")
	}
	if c.MapID() != 2 {
		t.Fatalf("MapID() = %d, want 2", c.MapID())
	}
}
