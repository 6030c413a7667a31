// ABOUTME: Functional-options configuration for opening a kenchidb store
// ABOUTME: No file/env loader: nothing in the btree/page/chunk layer needs one

package config

import "github.com/nainya/kenchidb/pkg/btree"

// Store holds the parameters needed to open or create a kenchidb file.
type Store struct {
	Path                string
	MinDegree           int
	BlockSize           int
	ChunkBlocks         int
	ReadOnly            bool
	DuplicateKeyPolicy  btree.DuplicatePolicy
}

// Option mutates a Store during construction.
type Option func(*Store)

// WithMinDegree sets the BTree's minimum degree t.
func WithMinDegree(t int) Option {
	return func(s *Store) { s.MinDegree = t }
}

// WithBlockSize sets the configured block size (default 4096). The store
// does not read it: chunks are always laid out in page.Size blocks.
func WithBlockSize(n int) Option {
	return func(s *Store) { s.BlockSize = n }
}

// WithChunkBlocks sets the chunk size, in blocks, recorded as each write
// epoch's MaxLength. It does not cap a chunk: a committed chunk's length
// follows from its page count.
func WithChunkBlocks(n int) Option {
	return func(s *Store) { s.ChunkBlocks = n }
}

// WithReadOnly opens the backing file without permitting writes.
func WithReadOnly(ro bool) Option {
	return func(s *Store) { s.ReadOnly = ro }
}

// WithDuplicateKeyPolicy resolves spec.md's open question on duplicate-key
// insertion; the default is btree.Reject.
func WithDuplicateKeyPolicy(p btree.DuplicatePolicy) Option {
	return func(s *Store) { s.DuplicateKeyPolicy = p }
}

// New builds a Store configuration for path with kenchidb's defaults,
// applying opts in order.
func New(path string, opts ...Option) Store {
	s := Store{
		Path:               path,
		MinDegree:          4,
		BlockSize:          4096,
		ChunkBlocks:        256,
		ReadOnly:           false,
		DuplicateKeyPolicy: btree.Reject,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
