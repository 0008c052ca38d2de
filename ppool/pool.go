// Package ppool implements the Private (Temp) Page Pool (spec §4.5): a
// pool partitioned one-per-worker, backed by anonymous in-memory temp
// files via github.com/dsnet/golib/memfile instead of real files on
// disk, since private pages never need to survive a restart. Each
// worker only ever touches its own partition, so — as spec §5 notes —
// no mutex guards cross-worker access; the clock sweep inside one
// partition is grounded the same way as vpool/upool on
// hmarui66-blink-tree-go's BufMgr clock hand, narrowed to a single
// worker's slice.
package ppool

import (
	"fmt"

	"github.com/dsnet/golib/memfile"

	"github.com/mlmdb/storagecore/filemgr"
	"github.com/mlmdb/storagecore/pageid"
)

// FatalError marks conditions spec §7 treats as unrecoverable.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("ppool: %s: %v", e.Op, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

type slot struct {
	pageNo       uint64
	bytes        []byte
	pins         int32
	dirty        bool
	secondChance bool
	assigned     bool
}

// partition is one worker's private slab: its own slots, clock hand,
// lookup map and in-memory backing file.
type partition struct {
	fileID    pageid.FileId
	file      *memfile.File
	pageCount uint64

	slots     []slot
	ppMap     map[uint64]int
	clockHand int
}

// Pool is the Private Page Pool, partitioned into one slab per worker.
type Pool struct {
	perWorker  int
	partitions []*partition
}

// New builds a pool with workers partitions of perWorker slots each,
// per the Config.pp_pool_bytes_per_worker / workers wiring in spec §6.
func New(workers, perWorker int) *Pool {
	partitions := make([]*partition, workers)
	for i := range partitions {
		partitions[i] = &partition{
			fileID: pageid.FileId(i),
			file:   memfile.New(nil),
			slots:  make([]slot, perWorker),
			ppMap:  make(map[uint64]int),
		}
	}
	return &Pool{perWorker: perWorker, partitions: partitions}
}

// Page is a pinned handle into one private slot.
type Page struct {
	part   *partition
	slot   int
	PageID pageid.TmpFileId
	Bytes  []byte
}

// Unpin releases the caller's pin and sets the second-chance bit. No
// locking: only the owning worker ever calls into its partition.
func (p *Page) Unpin() {
	s := &p.part.slots[p.slot]
	if s.pins > 0 {
		s.pins--
	}
	s.secondChance = true
}

// GetPPage returns worker workerID's page at pageNo, faulting it in
// from the worker's backing temp file on a cache miss.
func (p *Pool) GetPPage(workerID uint32, pageNo uint64) (*Page, error) {
	part, err := p.partitionFor(workerID)
	if err != nil {
		return nil, err
	}

	if idx, ok := part.ppMap[pageNo]; ok {
		s := &part.slots[idx]
		s.pins++
		s.secondChance = false
		return &Page{part: part, slot: idx, PageID: tmpID(part, workerID), Bytes: s.bytes}, nil
	}

	idx, err := part.acquireFreeSlot()
	if err != nil {
		return nil, err
	}
	s := &part.slots[idx]
	dst := s.bytesOrAlloc()
	off := int64(pageNo) * pageid.PageSize
	// A short or empty read means this page was never written; zero
	// fill rather than failing (spec §4.2 read_tmp_page).
	n, _ := part.file.ReadAt(dst, off)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	s.pageNo = pageNo
	s.dirty = false
	s.assigned = true
	s.pins = 1
	s.secondChance = false
	part.ppMap[pageNo] = idx
	if pageNo+1 > part.pageCount {
		part.pageCount = pageNo + 1
	}
	return &Page{part: part, slot: idx, PageID: tmpID(part, workerID), Bytes: s.bytes}, nil
}

// AppendPPage extends worker workerID's private partition with a new
// zeroed page.
func (p *Pool) AppendPPage(workerID uint32) (*Page, error) {
	part, err := p.partitionFor(workerID)
	if err != nil {
		return nil, err
	}

	idx, err := part.acquireFreeSlot()
	if err != nil {
		return nil, err
	}
	pageNo := part.pageCount
	part.pageCount++

	s := &part.slots[idx]
	buf := s.bytesOrAlloc()
	for i := range buf {
		buf[i] = 0
	}
	s.pageNo = pageNo
	s.dirty = true
	s.assigned = true
	s.pins = 1
	s.secondChance = false
	part.ppMap[pageNo] = idx

	if _, err := part.file.WriteAt(s.bytes, int64(pageNo)*pageid.PageSize); err != nil {
		return nil, &FatalError{Op: "reserve tmp extent", Err: err}
	}
	return &Page{part: part, slot: idx, PageID: tmpID(part, workerID), Bytes: s.bytes}, nil
}

// RemoveTmp clears every slot of worker workerID's partition and
// discards its backing temp file, per spec §4.5 remove_tmp.
func (p *Pool) RemoveTmp(workerID uint32) error {
	part, err := p.partitionFor(workerID)
	if err != nil {
		return err
	}
	for i := range part.slots {
		part.slots[i] = slot{}
	}
	part.ppMap = make(map[uint64]int)
	part.clockHand = 0
	part.pageCount = 0
	part.file = memfile.New(nil)
	return nil
}

// Flush writes every dirty resident slot of every partition back to
// its worker's backing temp file. Temp files are never durable across
// restarts; this only keeps the in-memory file consistent should a
// page be re-read via GetPPage after eviction.
func (p *Pool) Flush() error {
	for _, part := range p.partitions {
		for i := range part.slots {
			s := &part.slots[i]
			if s.assigned && s.dirty {
				if _, err := part.file.WriteAt(s.bytes, int64(s.pageNo)*pageid.PageSize); err != nil {
					return &FatalError{Op: "flush", Err: err}
				}
				s.dirty = false
			}
		}
	}
	return nil
}

func (p *Pool) partitionFor(workerID uint32) (*partition, error) {
	if int(workerID) >= len(p.partitions) {
		return nil, &FatalError{Op: "partitionFor", Err: fmt.Errorf("worker id %d out of range [0,%d)", workerID, len(p.partitions))}
	}
	return p.partitions[workerID], nil
}

func tmpID(part *partition, workerID uint32) pageid.TmpFileId {
	return pageid.TmpFileId{FileId: part.fileID, PrivateBufferPos: workerID}
}

func (part *partition) acquireFreeSlot() (int, error) {
	n := len(part.slots)
	for scanned := 0; scanned < 4*n+1; scanned++ {
		idx := part.clockHand
		part.clockHand = (part.clockHand + 1) % n
		s := &part.slots[idx]

		if !s.assigned {
			return idx, nil
		}
		if s.pins > 0 {
			continue
		}
		if s.secondChance {
			s.secondChance = false
			continue
		}
		if s.dirty {
			if _, err := part.file.WriteAt(s.bytes, int64(s.pageNo)*pageid.PageSize); err != nil {
				return 0, &FatalError{Op: "evict-flush", Err: err}
			}
		}
		delete(part.ppMap, s.pageNo)
		s.assigned = false
		s.dirty = false
		s.secondChance = false
		return idx, nil
	}
	return 0, &FatalError{Op: "acquire slot", Err: fmt.Errorf("no evictable slot after full sweep; partition undersized for workload")}
}

func (s *slot) bytesOrAlloc() []byte {
	if s.bytes == nil {
		s.bytes = filemgr.NewAlignedPage()
	}
	return s.bytes
}
