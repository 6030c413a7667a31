package arena

import "testing"

func TestAllocateFreshRecordsAreCanonicalEmpty(t *testing.T) {
	a := New(3)
	id := a.Allocate()
	n := a.Get(id)

	if !n.IsLeaf {
		t.Fatalf("fresh node should be a leaf")
	}
	if n.N != 0 {
		t.Fatalf("fresh node should have n=0, got %d", n.N)
	}
	if len(n.Keys) != 2*3-1 {
		t.Fatalf("keys capacity = %d, want %d", len(n.Keys), 2*3-1)
	}
	if len(n.Children) != 2*3 {
		t.Fatalf("children capacity = %d, want %d", len(n.Children), 2*3)
	}
	if len(n.Values) != 2*3-1 {
		t.Fatalf("values capacity = %d, want %d", len(n.Values), 2*3-1)
	}
}

func TestAllocateIdsAreDenseAndStable(t *testing.T) {
	a := New(2)
	id0 := a.Allocate()
	id1 := a.Allocate()

	if id0 == id1 {
		t.Fatalf("distinct allocations got the same id")
	}

	a.Get(id0).N = 1
	a.Get(id0).Keys[0] = 42

	if got := a.Get(id0).Keys[0]; got != 42 {
		t.Fatalf("node record not stable between allocations: got %d", got)
	}
}

func TestDeallocateRecyclesId(t *testing.T) {
	a := New(2)
	id := a.Allocate()
	a.Get(id).N = 1
	a.Get(id).Keys[0] = 7

	a.Deallocate(id)
	if a.Len() != 0 {
		t.Fatalf("Len() after deallocate = %d, want 0", a.Len())
	}

	id2 := a.Allocate()
	if id2 != id {
		t.Fatalf("Allocate() after Deallocate() did not recycle the freed id: got %d, want %d", id2, id)
	}
	if n := a.Get(id2); n.N != 0 || !n.IsLeaf || n.Keys[0] != 0 {
		t.Fatalf("recycled node was not reset to canonical empty state: %+v", n)
	}
}

func TestLenAndCapTrackLiveAndTotalSlots(t *testing.T) {
	a := New(2)
	id0 := a.Allocate()
	_ = a.Allocate()

	if a.Len() != 2 || a.Cap() != 2 {
		t.Fatalf("Len()=%d Cap()=%d after 2 allocations, want 2/2", a.Len(), a.Cap())
	}

	a.Deallocate(id0)
	if a.Len() != 1 {
		t.Fatalf("Len() after one deallocate = %d, want 1", a.Len())
	}
	if a.Cap() != 2 {
		t.Fatalf("Cap() should not shrink on deallocate: got %d, want 2", a.Cap())
	}
}
