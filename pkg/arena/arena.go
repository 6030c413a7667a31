// ABOUTME: Slab allocator for fixed-capacity B-tree node records
// ABOUTME: NodeIds are dense vector indices, recycled through a free list

package arena

// NodeId is a stable, dense, non-negative identifier for a node record.
// NodeIds are indices, not pointers: they stay valid for the lifetime of
// the Arena between allocate/deallocate calls, but the backing vector is
// free to grow underneath them.
type NodeId uint32

// Node is the fixed-capacity record the Arena slabs out. Keys has a fixed
// capacity of 2t-1 and Children a fixed capacity of 2t; only the first N
// entries of each are meaningful at any time. Values runs parallel to Keys
// (same capacity, same meaningful range) and carries the satellite payload
// associated with Keys[i] — a document map keys on this directly; the
// layout map packs a locator into it (see pkg/locator).
type Node struct {
	N        int
	IsLeaf   bool
	Keys     []uint64
	Values   []uint64
	Children []NodeId
}

// Arena owns a dense vector of Node records plus a free list of recycled
// NodeIds. No node's storage is ever moved; allocate only ever appends or
// recycles. Records are boxed (*Node) so that growing the outer vector
// never invalidates a *Node obtained from an earlier Get.
type Arena struct {
	t     int
	nodes []*Node
	free  []NodeId
}

// New creates an Arena for a B-tree of minimum degree t (t >= 2).
func New(t int) *Arena {
	return &Arena{t: t}
}

// Len returns the number of currently allocated (live) node records.
func (a *Arena) Len() int {
	return len(a.nodes) - len(a.free)
}

// Cap returns the total number of node record slots the arena has ever
// allocated, live or freed.
func (a *Arena) Cap() int {
	return len(a.nodes)
}

func emptyNode(t int) *Node {
	return &Node{
		N:        0,
		IsLeaf:   true,
		Keys:     make([]uint64, 2*t-1),
		Values:   make([]uint64, 2*t-1),
		Children: make([]NodeId, 2*t),
	}
}

// Allocate returns a fresh, canonically-empty leaf node id: a recycled id
// if the free list is non-empty, otherwise a freshly appended record.
func (a *Arena) Allocate() NodeId {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.nodes[id] = emptyNode(a.t)
		return id
	}
	id := NodeId(len(a.nodes))
	a.nodes = append(a.nodes, emptyNode(a.t))
	return id
}

// Deallocate resets id's record to canonical empty state and returns it to
// the free list. Double-free and use-after-free are caller bugs and are not
// defensively checked.
func (a *Arena) Deallocate(id NodeId) {
	a.nodes[id] = emptyNode(a.t)
	a.free = append(a.free, id)
}

// Get returns the pointer to id's node record for in-place mutation. The
// pointer stays valid while the arena grows; once id is deallocated (or
// recycled by a later Allocate) its slot holds a fresh record and the old
// pointer no longer refers to it.
func (a *Arena) Get(id NodeId) *Node {
	return a.nodes[id]
}
