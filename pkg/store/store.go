// ABOUTME: Orchestrates btree+chunk+page+blockfile into the engine section 2 of the spec describes
// ABOUTME: One writer epoch open at a time; reads resolve through the layout map to a block-file page

package store

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/nainya/kenchidb/internal/log"
	"github.com/nainya/kenchidb/internal/metrics"
	"github.com/nainya/kenchidb/pkg/blockfile"
	"github.com/nainya/kenchidb/pkg/btree"
	"github.com/nainya/kenchidb/pkg/chunk"
	"github.com/nainya/kenchidb/pkg/config"
	"github.com/nainya/kenchidb/pkg/kerr"
	"github.com/nainya/kenchidb/pkg/locator"
	"github.com/nainya/kenchidb/pkg/page"
)

// committedChunk is the in-memory index entry Store.Get consults once a
// chunk has been written to the block file: its byte extent within the
// file, keyed by chunk id.
type committedChunk struct {
	block       uint64
	length      uint32
	pageCount   uint32
	tocPosition uint32 // byte offset of the table of contents, relative to block
}

// btreeObserver adapts the ambient logging/metrics stack to btree.Observer,
// keeping pkg/btree itself free of any third-party dependency.
type btreeObserver struct {
	logger  *log.Logger // already scoped via BTreeLogger; nil means no logging
	metrics *metrics.Metrics
}

func newBTreeObserver(logger *log.Logger, m *metrics.Metrics) *btreeObserver {
	var scoped *log.Logger
	if logger != nil {
		scoped = logger.BTreeLogger()
	}
	return &btreeObserver{logger: scoped, metrics: m}
}

func (o *btreeObserver) OnSplit(nodeID uint32, t, parentN int) {
	if o.logger != nil {
		o.logger.LogSplit(nodeID, t, parentN)
	}
	if o.metrics != nil {
		o.metrics.BTreeSplitTotal.Inc()
	}
}

func (o *btreeObserver) OnMerge(nodeID uint32, t, parentN int) {
	if o.logger != nil {
		o.logger.LogMerge(nodeID, t, parentN)
	}
	if o.metrics != nil {
		o.metrics.BTreeMergeTotal.Inc()
	}
}

func (o *btreeObserver) OnBorrow(nodeID uint32, t, parentN int) {
	if o.logger != nil {
		o.logger.LogBorrow(nodeID, t, parentN)
	}
	if o.metrics != nil {
		o.metrics.BTreeBorrowTotal.Inc()
	}
}

// Store wires the core subsystems into the single-writer, append-only
// engine spec.md section 2 describes: a layout BTree mapping document ids
// to packed locators, an active write-epoch Chunk accumulating in-memory
// Pages, and a backing block file.
type Store struct {
	cfg     config.Store
	file    *blockfile.File
	layout  *btree.BTree
	logger  *log.Logger
	metrics *metrics.Metrics

	nextChunkID uint32
	version     uint64

	active      *chunk.Chunk
	activePages []*page.Page

	committed map[uint32]committedChunk
}

// Open creates or opens the backing file at cfg.Path and starts the first
// write epoch. logger and m may be nil; when non-nil they receive the
// structured log events and metrics SPEC_FULL.md's ambient stack names.
func Open(cfg config.Store, logger *log.Logger, m *metrics.Metrics) (*Store, error) {
	f, err := blockfile.Open(cfg.Path, cfg.ReadOnly)
	if err != nil {
		return nil, err
	}
	s := &Store{
		cfg:       cfg,
		file:      f,
		layout:    btree.NewWithPolicy(cfg.MinDegree, cfg.DuplicateKeyPolicy),
		logger:    logger,
		metrics:   m,
		committed: make(map[uint32]committedChunk),
	}
	s.layout.SetObserver(newBTreeObserver(logger, m))
	if err := s.beginEpoch(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the backing file. Any uncommitted records in the active
// epoch are lost, matching spec.md's "mid-epoch writes are invisible
// until commit" guarantee.
func (s *Store) Close() error {
	return s.file.Close()
}

func (s *Store) beginEpoch() error {
	c, err := chunk.New(s.nextChunkID, s.version, uint64(time.Now().UnixMilli()))
	if err != nil {
		return err
	}
	c.MaxLength = uint32(s.cfg.ChunkBlocks) * page.Size
	s.active = c
	s.activePages = nil
	s.nextChunkID++
	return nil
}

// Put encodes payload as an opaque record owned by collectionID, appends
// it to the active epoch's pages, and indexes docID -> its locator in the
// layout map. The returned Locator is also what the caller would persist
// if it tracked document identity itself (section 6.3).
func (s *Store) Put(docID uint64, collectionID uint32, payload []byte) (locator.Locator, error) {
	if existing, found := s.layout.Get(docID); found {
		switch s.cfg.DuplicateKeyPolicy {
		case btree.Reject:
			return locator.Locator{}, kerr.New(kerr.InvalidArgument, "store.put", "document id already present")
		case btree.Ignore:
			return locator.Unpack(existing), nil
		}
		// Overwrite: fall through and write a fresh record; the old one
		// becomes dead space in its page, reclaimed only by compaction
		// (out of core scope per section 1/4.6).
	}

	pageNumber, slotIndex, err := s.appendRecord(collectionID, payload)
	if err != nil {
		return locator.Locator{}, err
	}

	loc := locator.Locator{
		ChunkID:    s.active.ID,
		PageNumber: uint32(pageNumber),
		SlotIndex:  uint16(slotIndex),
	}
	packed, err := locator.Pack(loc)
	if err != nil {
		return locator.Locator{}, err
	}

	if err := s.layout.Put(docID, packed); err != nil {
		return locator.Locator{}, err
	}
	s.observeBTreeOp("insert", "ok")
	return loc, nil
}

func (s *Store) appendRecord(collectionID uint32, payload []byte) (pageNumber, slotIndex int, err error) {
	if n := len(s.activePages); n > 0 {
		last := s.activePages[n-1]
		if idx, err := last.InsertRecord(payload); err == nil {
			return n - 1, idx, nil
		}
	}

	p := page.New(page.Data, collectionID)
	idx, err := p.InsertRecord(payload)
	if err != nil {
		return 0, 0, err
	}
	pageNumber = s.active.AddPage()
	s.activePages = append(s.activePages, p)
	return pageNumber, idx, nil
}

// Get resolves docID through the layout map and returns the opaque
// payload bytes last written for it.
func (s *Store) Get(docID uint64) ([]byte, error) {
	packed, found := s.layout.Get(docID)
	if !found {
		s.observeBTreeOp("search", "not_found")
		return nil, kerr.New(kerr.NotFound, "store.get", "document not found")
	}
	s.observeBTreeOp("search", "ok")

	loc := locator.Unpack(packed)
	if loc.ChunkID == s.active.ID {
		if int(loc.PageNumber) >= len(s.activePages) {
			return nil, kerr.New(kerr.Corrupt, "store.get", "locator page number out of range for active epoch")
		}
		return s.activePages[loc.PageNumber].GetRecord(int(loc.SlotIndex))
	}
	return s.readCommittedRecord(loc)
}

// readCommittedRecord resolves loc through the chunk's on-disk table of
// contents (rather than assuming pages sit at a fixed stride after the
// header), then reads and verifies the page it names.
func (s *Store) readCommittedRecord(loc locator.Locator) ([]byte, error) {
	cc, ok := s.committed[loc.ChunkID]
	if !ok {
		return nil, kerr.New(kerr.NotFound, "store.get", "chunk id not found")
	}
	if loc.PageNumber >= cc.pageCount {
		return nil, kerr.New(kerr.Corrupt, "store.get", "locator page number out of range for chunk")
	}

	tocEntryOffset := int64(cc.block) + int64(cc.tocPosition) + int64(loc.PageNumber)*4
	tocEntry, err := s.file.ReadFully(tocEntryOffset, 4)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.BlockFileReadTotal.Inc()
		s.metrics.BlockFileReadBytesTotal.Add(float64(len(tocEntry)))
	}
	pagePos := binary.LittleEndian.Uint32(tocEntry)
	pageOffset := cc.block + uint64(pagePos)

	buf, err := s.file.ReadFully(int64(pageOffset), page.Size)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.BlockFileReadTotal.Inc()
		s.metrics.BlockFileReadBytesTotal.Add(float64(len(buf)))
	}

	p, err := page.Deserialize(buf)
	if err != nil {
		return nil, err
	}
	if !p.VerifyChecksum() {
		if s.metrics != nil {
			s.metrics.ChecksumMismatchesTotal.Inc()
		}
		if s.logger != nil {
			s.logger.ChunkLogger(loc.ChunkID).LogCorrupt("store.get", int64(pageOffset), kerr.New(kerr.Corrupt, "page.verify_checksum", "mismatch"))
		}
		return nil, kerr.New(kerr.Corrupt, "store.get", "page checksum mismatch")
	}
	return p.GetRecord(int(loc.SlotIndex))
}

// Delete removes docID's entry from the layout map. Page-level occupancy
// bookkeeping (marking the whole page it lived in as reclaimable) is a
// compaction concern outside the core's scope (section 1, 4.6).
func (s *Store) Delete(docID uint64) error {
	if !s.layout.Contains(docID) {
		s.observeBTreeOp("delete", "not_found")
		return kerr.New(kerr.NotFound, "store.delete", "document not found")
	}
	if err := s.layout.Delete(docID); err != nil {
		return err
	}
	s.observeBTreeOp("delete", "ok")
	return nil
}

// Commit assembles the active epoch's pages into one chunk-shaped buffer
// (header, pages, table of contents, footer — section 6.1) and appends it
// to the block file in a single write, then opens the next epoch.
func (s *Store) Commit() error {
	pageCount := len(s.activePages)
	tocBlock := 1 + pageCount
	tocBytes := pageCount * 4
	tocBlocks := (tocBytes + page.Size - 1) / page.Size
	footerBlock := tocBlock + tocBlocks
	totalBlocks := footerBlock + 1
	length := uint32(totalBlocks)

	buf := make([]byte, totalBlocks*page.Size)

	header := chunk.Header{
		ID:                     s.active.ID,
		Length:                 length,
		Version:                s.version,
		Time:                   s.active.Time,
		MaxLength:              s.active.MaxLength,
		PageCount:              uint32(pageCount),
		PinCount:               s.active.PinCount,
		TableOfContentPosition: uint32(tocBlock * page.Size),
		LayoutRootPosition:     0,
		MapID:                  s.active.MapID(),
		Next:                   0,
	}
	hbytes := header.Serialize()
	copy(buf[0:chunk.HeaderSize], hbytes[:])

	for i, p := range s.activePages {
		pbytes := p.Serialize()
		off := (1 + i) * page.Size
		copy(buf[off:off+page.Size], pbytes[:])
	}

	tocOff := tocBlock * page.Size
	for i := range s.activePages {
		pos := uint32((1 + i) * page.Size)
		binary.LittleEndian.PutUint32(buf[tocOff+i*4:], pos)
	}

	footer := chunk.Footer{ID: s.active.ID, Length: length, Version: s.version}
	fbytes, err := footer.Serialize()
	if err != nil {
		return err
	}
	copy(buf[len(buf)-chunk.FooterSize:], fbytes[:])

	offset := s.file.Size()
	if err := s.file.WriteFully(offset, buf); err != nil {
		return err
	}

	s.active.Block = uint64(offset)
	s.active.Length = length
	s.active.PageCount = uint32(pageCount)
	s.active.TOCPosition = header.TableOfContentPosition
	s.active.Buffer = nil

	s.committed[s.active.ID] = committedChunk{
		block:       uint64(offset),
		length:      length,
		pageCount:   uint32(pageCount),
		tocPosition: header.TableOfContentPosition,
	}

	if s.logger != nil {
		s.logger.ChunkLogger(s.active.ID).LogChunkCommit(s.active.ID, s.version, uint32(pageCount))
	}
	if s.metrics != nil {
		id := strconv.FormatUint(uint64(s.active.ID), 10)
		s.metrics.ChunkPageCount.WithLabelValues(id).Set(float64(pageCount))
		s.metrics.ChunkPageCountLive.WithLabelValues(id).Set(float64(s.active.PageCountLive))
		s.metrics.ChunkPinCount.WithLabelValues(id).Set(float64(s.active.PinCount))
		s.metrics.BlockFileWriteTotal.Inc()
		s.metrics.BlockFileWriteBytesTotal.Add(float64(len(buf)))
		s.metrics.BTreeNodeCount.Set(float64(s.layout.Len()))
	}

	s.version++
	return s.beginEpoch()
}

func (s *Store) observeBTreeOp(op, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.BTreeOperationsTotal.WithLabelValues(op, result).Inc()
}
