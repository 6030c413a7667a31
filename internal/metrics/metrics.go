// Package metrics provides Prometheus metrics for kenchidb's core engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector kenchidb registers. Unlike a
// long-lived server process that registers into the global default
// registry once, New takes an explicit prometheus.Registerer so tests
// (and multiple Store instances in one process) don't collide on
// duplicate registration.
type Metrics struct {
	BTreeOperationsTotal *prometheus.CounterVec
	BTreeNodeCount       prometheus.Gauge
	BTreeSplitTotal      prometheus.Counter
	BTreeMergeTotal      prometheus.Counter
	BTreeBorrowTotal     prometheus.Counter

	ChunkPageCountLive *prometheus.GaugeVec
	ChunkPageCount     *prometheus.GaugeVec
	ChunkPinCount      *prometheus.GaugeVec

	BlockFileReadBytesTotal  prometheus.Counter
	BlockFileWriteBytesTotal prometheus.Counter
	BlockFileReadTotal       prometheus.Counter
	BlockFileWriteTotal      prometheus.Counter

	ChecksumMismatchesTotal prometheus.Counter
}

// New registers every kenchidb collector against reg and returns the
// bundle. Pass prometheus.NewRegistry() for an isolated instance (tests,
// multiple stores in one process) or prometheus.DefaultRegisterer for a
// single long-lived process.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BTreeOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kenchidb_btree_operations_total",
				Help: "Total number of B-tree operations by kind and result",
			},
			[]string{"op", "result"},
		),
		BTreeNodeCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kenchidb_btree_node_count",
			Help: "Number of live arena-backed B-tree node records",
		}),
		BTreeSplitTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kenchidb_btree_split_total",
			Help: "Total number of B-tree node splits",
		}),
		BTreeMergeTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kenchidb_btree_merge_total",
			Help: "Total number of B-tree node merges",
		}),
		BTreeBorrowTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kenchidb_btree_borrow_total",
			Help: "Total number of B-tree sibling key borrows",
		}),
		ChunkPageCountLive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kenchidb_chunk_page_count_live",
				Help: "Live (non-deleted) page count by chunk id",
			},
			[]string{"chunk_id"},
		),
		ChunkPageCount: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kenchidb_chunk_page_count",
				Help: "Total page count by chunk id",
			},
			[]string{"chunk_id"},
		),
		ChunkPinCount: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kenchidb_chunk_pin_count",
				Help: "Pinned page count by chunk id",
			},
			[]string{"chunk_id"},
		),
		BlockFileReadBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kenchidb_blockfile_read_bytes_total",
			Help: "Total bytes read from the backing block file",
		}),
		BlockFileWriteBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kenchidb_blockfile_write_bytes_total",
			Help: "Total bytes written to the backing block file",
		}),
		BlockFileReadTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kenchidb_blockfile_read_total",
			Help: "Total number of block file read operations",
		}),
		BlockFileWriteTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kenchidb_blockfile_write_total",
			Help: "Total number of block file write operations",
		}),
		ChecksumMismatchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kenchidb_checksum_mismatches_total",
			Help: "Total number of Fletcher32/page checksum verification failures",
		}),
	}
}
