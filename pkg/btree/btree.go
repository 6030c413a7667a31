// ABOUTME: Arena-backed B-tree ordered map over 64-bit keys
// ABOUTME: Classical CLRS proactive top-down insert and delete, indexed by NodeId not pointers

package btree

import (
	"github.com/nainya/kenchidb/pkg/arena"
	"github.com/nainya/kenchidb/pkg/kerr"
)

// DuplicatePolicy resolves spec.md's open question on duplicate-key
// insertion.
type DuplicatePolicy int

const (
	// Reject fails Insert/Put with kerr.InvalidArgument when the key already exists.
	Reject DuplicatePolicy = iota
	// Overwrite replaces the existing key's satellite value in place.
	Overwrite
	// Ignore silently no-ops, leaving the existing key's value untouched.
	Ignore
)

// Observer receives notification of this tree's structural events as they
// happen. BTree stays free of any logging/metrics dependency itself;
// callers wire an Observer implementation from outside the package (see
// pkg/store) if they want split/merge/borrow events reported.
type Observer interface {
	OnSplit(nodeID uint32, t, parentN int)
	OnMerge(nodeID uint32, t, parentN int)
	OnBorrow(nodeID uint32, t, parentN int)
}

// BTree is an ordered map over 64-bit unsigned keys, built on an Arena of
// fixed-capacity node records addressed by NodeId. Each key carries a
// parallel uint64 satellite value (see arena.Node.Values) resolving
// spec.md's open question on whether the tree stores satellite data: the
// layout map packs a page locator into it (pkg/locator), while a plain
// key-set use (Insert/Search/Contains) simply leaves it at zero.
// Duplicates are disallowed at the tree surface; DuplicatePolicy governs
// what happens when Put/Insert is called with a key already present.
type BTree struct {
	t      int
	policy DuplicatePolicy
	arena  *arena.Arena
	root   arena.NodeId
	obs    Observer
}

// New builds an empty tree of minimum degree t with the default
// duplicate-key policy (Reject).
func New(t int) *BTree {
	return NewWithPolicy(t, Reject)
}

// NewWithPolicy builds an empty tree of minimum degree t with an explicit
// duplicate-key policy.
func NewWithPolicy(t int, policy DuplicatePolicy) *BTree {
	if t < 2 {
		panic("btree: minimum degree t must be >= 2")
	}
	a := arena.New(t)
	root := a.Allocate()
	return &BTree{t: t, policy: policy, arena: a, root: root}
}

// SetObserver attaches obs to receive this tree's split/merge/borrow
// events from this point on. Pass nil to detach.
func (bt *BTree) SetObserver(obs Observer) {
	bt.obs = obs
}

// Degree returns the tree's minimum degree t.
func (bt *BTree) Degree() int { return bt.t }

// Len returns the number of live node records backing the tree (for
// invariant checks and metrics, not the key count).
func (bt *BTree) Len() int { return bt.arena.Len() }

// Search performs an in-node linear scan to the smallest index i with
// keys[i] >= key at each node, descending until the key is found or a
// leaf is exhausted.
func (bt *BTree) Search(key uint64) (id arena.NodeId, index int, found bool) {
	return bt.search(bt.root, key)
}

func (bt *BTree) search(id arena.NodeId, key uint64) (arena.NodeId, int, bool) {
	node := bt.arena.Get(id)
	i := 0
	for i < node.N && node.Keys[i] < key {
		i++
	}
	if i < node.N && node.Keys[i] == key {
		return id, i, true
	}
	if node.IsLeaf {
		return 0, 0, false
	}
	return bt.search(node.Children[i], key)
}

// Contains reports whether key is present.
func (bt *BTree) Contains(key uint64) bool {
	_, _, found := bt.Search(key)
	return found
}

// Get returns key's satellite value and whether key is present.
func (bt *BTree) Get(key uint64) (uint64, bool) {
	id, index, found := bt.Search(key)
	if !found {
		return 0, false
	}
	return bt.arena.Get(id).Values[index], true
}

// Insert adds key to the tree with a zero satellite value. Equivalent to
// Put(key, 0).
func (bt *BTree) Insert(key uint64) error {
	return bt.Put(key, 0)
}

// Put adds key with the given satellite value via proactive top-down
// splitting: a full root is split before descending (the sole site where
// height grows), and any full child encountered on the way down is split
// before the recursion enters it.
func (bt *BTree) Put(key, value uint64) error {
	root := bt.arena.Get(bt.root)
	if root.N == 2*bt.t-1 {
		newRootID := bt.arena.Allocate()
		newRoot := bt.arena.Get(newRootID)
		newRoot.IsLeaf = false
		newRoot.Children[0] = bt.root
		bt.splitChild(newRootID, 0)
		bt.root = newRootID
	}
	return bt.insertNonFull(bt.root, key, value)
}

func (bt *BTree) insertNonFull(id arena.NodeId, key, value uint64) error {
	node := bt.arena.Get(id)

	if node.IsLeaf {
		i := node.N - 1
		for i >= 0 && key < node.Keys[i] {
			i--
		}
		if i >= 0 && node.Keys[i] == key {
			return bt.onDuplicate(node, i, value)
		}
		for j := node.N - 1; j > i; j-- {
			node.Keys[j+1] = node.Keys[j]
			node.Values[j+1] = node.Values[j]
		}
		node.Keys[i+1] = key
		node.Values[i+1] = value
		node.N++
		return nil
	}

	i := node.N - 1
	for i >= 0 && key < node.Keys[i] {
		i--
	}
	if i >= 0 && node.Keys[i] == key {
		return bt.onDuplicate(node, i, value)
	}
	i++

	child := bt.arena.Get(node.Children[i])
	if child.N == 2*bt.t-1 {
		bt.splitChild(id, i)
		node = bt.arena.Get(id) // re-fetch: splitChild mutated node's record in place, pointer still valid but be explicit
		switch {
		case key == node.Keys[i]:
			return bt.onDuplicate(node, i, value)
		case key > node.Keys[i]:
			i++
		}
	}
	return bt.insertNonFull(node.Children[i], key, value)
}

func (bt *BTree) onDuplicate(node *arena.Node, i int, value uint64) error {
	switch bt.policy {
	case Reject:
		return kerr.New(kerr.InvalidArgument, "btree.insert", "key already present")
	case Overwrite:
		node.Values[i] = value
		return nil
	default: // Ignore
		return nil
	}
}

// splitChild splits the full (2t-1 key) child at parent.Children[i],
// raising its median key into the parent at index i and installing the
// new right sibling at parent.Children[i+1].
func (bt *BTree) splitChild(parentID arena.NodeId, i int) {
	t := bt.t
	parent := bt.arena.Get(parentID)
	childID := parent.Children[i]
	child := bt.arena.Get(childID)

	siblingID := bt.arena.Allocate()
	sibling := bt.arena.Get(siblingID)
	sibling.IsLeaf = child.IsLeaf
	sibling.N = t - 1

	copy(sibling.Keys[:t-1], child.Keys[t:2*t-1])
	copy(sibling.Values[:t-1], child.Values[t:2*t-1])
	if !child.IsLeaf {
		copy(sibling.Children[:t], child.Children[t:2*t])
	}

	median := child.Keys[t-1]
	medianValue := child.Values[t-1]
	child.N = t - 1

	for j := parent.N; j > i; j-- {
		parent.Children[j+1] = parent.Children[j]
	}
	parent.Children[i+1] = siblingID

	for j := parent.N - 1; j >= i; j-- {
		parent.Keys[j+1] = parent.Keys[j]
		parent.Values[j+1] = parent.Values[j]
	}
	parent.Keys[i] = median
	parent.Values[i] = medianValue
	parent.N++

	if bt.obs != nil {
		bt.obs.OnSplit(uint32(childID), t, parent.N)
	}
}

// Delete removes key from the tree via proactive top-down underflow
// fixing: any child the recursion is about to descend into is first
// brought up to at least t keys (borrow or merge) so no node is ever
// entered while minimal.
func (bt *BTree) Delete(key uint64) error {
	bt.delete(bt.root, key)

	root := bt.arena.Get(bt.root)
	if !root.IsLeaf && root.N == 0 {
		old := bt.root
		bt.root = root.Children[0]
		bt.arena.Deallocate(old)
	}
	return nil
}

func (bt *BTree) delete(id arena.NodeId, key uint64) {
	node := bt.arena.Get(id)

	i := 0
	for i < node.N && key > node.Keys[i] {
		i++
	}

	if i < node.N && node.Keys[i] == key {
		bt.deleteFromNodeContaining(id, i)
		return
	}

	if node.IsLeaf {
		return // not present: no-op
	}

	childIdx := i
	if bt.arena.Get(node.Children[childIdx]).N == bt.t-1 {
		childIdx = bt.fixChild(id, childIdx)
	}
	// node may have been reallocated in place by fixChild (arena slices are
	// stable, but re-fetch for clarity after a merge may have changed N).
	node = bt.arena.Get(id)
	bt.delete(node.Children[childIdx], key)
}

// deleteFromNodeContaining handles CLRS case 1: key is present at index i
// of node id.
func (bt *BTree) deleteFromNodeContaining(id arena.NodeId, i int) {
	node := bt.arena.Get(id)
	key := node.Keys[i]

	if node.IsLeaf {
		for j := i; j < node.N-1; j++ {
			node.Keys[j] = node.Keys[j+1]
			node.Values[j] = node.Values[j+1]
		}
		node.N--
		return
	}

	leftID := node.Children[i]
	rightID := node.Children[i+1]
	left := bt.arena.Get(leftID)
	right := bt.arena.Get(rightID)

	switch {
	case left.N >= bt.t: // case 1a
		pred, predValue := bt.maxKeyValue(leftID)
		node.Keys[i] = pred
		node.Values[i] = predValue
		bt.delete(leftID, pred)
	case right.N >= bt.t: // case 1b
		succ, succValue := bt.minKeyValue(rightID)
		node.Keys[i] = succ
		node.Values[i] = succValue
		bt.delete(rightID, succ)
	default: // case 1c
		bt.mergeChildren(id, i)
		bt.delete(leftID, key)
	}
}

// fixChild applies CLRS case 2 to bring parent.Children[idx] up to at
// least t keys before the caller descends into it, returning the
// (possibly shifted, after a merge) index of the child to descend into.
func (bt *BTree) fixChild(parentID arena.NodeId, idx int) int {
	t := bt.t
	parent := bt.arena.Get(parentID)

	if idx > 0 && bt.arena.Get(parent.Children[idx-1]).N >= t {
		bt.borrowFromLeft(parentID, idx)
		return idx
	}
	if idx < parent.N && bt.arena.Get(parent.Children[idx+1]).N >= t {
		bt.borrowFromRight(parentID, idx)
		return idx
	}
	if idx > 0 {
		bt.mergeChildren(parentID, idx-1)
		return idx - 1
	}
	bt.mergeChildren(parentID, idx)
	return idx
}

// borrowFromLeft rotates the parent's separator at idx-1 down into the
// head of child idx, and the left sibling's last key up into that
// separator slot (case 2a).
func (bt *BTree) borrowFromLeft(parentID arena.NodeId, idx int) {
	parent := bt.arena.Get(parentID)
	childID := parent.Children[idx]
	child := bt.arena.Get(childID)
	leftSib := bt.arena.Get(parent.Children[idx-1])

	for j := child.N; j > 0; j-- {
		child.Keys[j] = child.Keys[j-1]
		child.Values[j] = child.Values[j-1]
	}
	child.Keys[0] = parent.Keys[idx-1]
	child.Values[0] = parent.Values[idx-1]

	if !child.IsLeaf {
		for j := child.N + 1; j > 0; j-- {
			child.Children[j] = child.Children[j-1]
		}
		child.Children[0] = leftSib.Children[leftSib.N]
	}
	child.N++

	parent.Keys[idx-1] = leftSib.Keys[leftSib.N-1]
	parent.Values[idx-1] = leftSib.Values[leftSib.N-1]
	leftSib.N--

	if bt.obs != nil {
		bt.obs.OnBorrow(uint32(childID), bt.t, parent.N)
	}
}

// borrowFromRight rotates the parent's separator at idx down into the
// tail of child idx, and the right sibling's first key up into that
// separator slot (case 2b).
func (bt *BTree) borrowFromRight(parentID arena.NodeId, idx int) {
	parent := bt.arena.Get(parentID)
	childID := parent.Children[idx]
	child := bt.arena.Get(childID)
	rightSib := bt.arena.Get(parent.Children[idx+1])

	child.Keys[child.N] = parent.Keys[idx]
	child.Values[child.N] = parent.Values[idx]
	if !child.IsLeaf {
		child.Children[child.N+1] = rightSib.Children[0]
	}
	child.N++

	parent.Keys[idx] = rightSib.Keys[0]
	parent.Values[idx] = rightSib.Values[0]

	for j := 0; j < rightSib.N-1; j++ {
		rightSib.Keys[j] = rightSib.Keys[j+1]
		rightSib.Values[j] = rightSib.Values[j+1]
	}
	if !rightSib.IsLeaf {
		for j := 0; j < rightSib.N; j++ {
			rightSib.Children[j] = rightSib.Children[j+1]
		}
	}
	rightSib.N--

	if bt.obs != nil {
		bt.obs.OnBorrow(uint32(childID), bt.t, parent.N)
	}
}

// mergeChildren folds parent.Keys[i] and the whole of parent.Children[i+1]
// into parent.Children[i], deallocates the now-empty right sibling, and
// shifts the parent's remaining keys/children left over the gap (case 2c,
// and case 1c's merge step).
func (bt *BTree) mergeChildren(parentID arena.NodeId, i int) {
	parent := bt.arena.Get(parentID)
	leftID := parent.Children[i]
	rightID := parent.Children[i+1]
	left := bt.arena.Get(leftID)
	right := bt.arena.Get(rightID)

	left.Keys[left.N] = parent.Keys[i]
	left.Values[left.N] = parent.Values[i]
	copy(left.Keys[left.N+1:left.N+1+right.N], right.Keys[:right.N])
	copy(left.Values[left.N+1:left.N+1+right.N], right.Values[:right.N])
	if !left.IsLeaf {
		copy(left.Children[left.N+1:left.N+1+right.N+1], right.Children[:right.N+1])
	}
	left.N = left.N + 1 + right.N

	for j := i; j < parent.N-1; j++ {
		parent.Keys[j] = parent.Keys[j+1]
		parent.Values[j] = parent.Values[j+1]
	}
	for j := i + 1; j < parent.N; j++ {
		parent.Children[j] = parent.Children[j+1]
	}
	parent.N--

	bt.arena.Deallocate(rightID)

	if bt.obs != nil {
		bt.obs.OnMerge(uint32(leftID), bt.t, parent.N)
	}
}

func (bt *BTree) maxKeyValue(id arena.NodeId) (uint64, uint64) {
	node := bt.arena.Get(id)
	for !node.IsLeaf {
		id = node.Children[node.N]
		node = bt.arena.Get(id)
	}
	return node.Keys[node.N-1], node.Values[node.N-1]
}

func (bt *BTree) minKeyValue(id arena.NodeId) (uint64, uint64) {
	node := bt.arena.Get(id)
	for !node.IsLeaf {
		id = node.Children[0]
		node = bt.arena.Get(id)
	}
	return node.Keys[0], node.Values[0]
}
