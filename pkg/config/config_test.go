package config

import (
	"testing"

	"github.com/nainya/kenchidb/pkg/btree"
)

func TestNewAppliesDefaults(t *testing.T) {
	s := New("/tmp/x.kdb")
	if s.MinDegree != 4 {
		t.Fatalf("MinDegree = %d, want 4", s.MinDegree)
	}
	if s.BlockSize != 4096 {
		t.Fatalf("BlockSize = %d, want 4096", s.BlockSize)
	}
	if s.DuplicateKeyPolicy != btree.Reject {
		t.Fatalf("DuplicateKeyPolicy = %v, want Reject", s.DuplicateKeyPolicy)
	}
	if s.ReadOnly {
		t.Fatal("ReadOnly should default to false")
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	s := New("/tmp/x.kdb",
		WithMinDegree(8),
		WithBlockSize(8192),
		WithChunkBlocks(64),
		WithReadOnly(true),
		WithDuplicateKeyPolicy(btree.Ignore),
	)
	if s.MinDegree != 8 || s.BlockSize != 8192 || s.ChunkBlocks != 64 || !s.ReadOnly || s.DuplicateKeyPolicy != btree.Ignore {
		t.Fatalf("options did not apply: %+v", s)
	}
}
