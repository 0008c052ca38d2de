// Package upool implements the Unversioned Page Pool (spec §4.4): a
// shared cache for content that needs no snapshot isolation — the
// extendible hash's bucket pages and string blobs. Same clock-eviction shape as
// vpool but without version chains, grounded the same way on
// hmarui66-blink-tree-go's BufMgr.PinLatch/UnpinLatch single-array
// clock sweep, simplified back down since there is only ever one
// resident copy per PageId.
package upool

import (
	"fmt"
	"sync"

	"github.com/mlmdb/storagecore/filemgr"
	"github.com/mlmdb/storagecore/interfaces"
	"github.com/mlmdb/storagecore/pageid"
)

// FatalError marks conditions spec §7 treats as unrecoverable.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("upool: %s: %v", e.Op, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

type slot struct {
	pageID       pageid.PageId
	bytes        []byte
	pins         int32
	dirty        bool
	secondChance bool
	assigned     bool
}

// Pool is the Unversioned Page Pool.
type Pool struct {
	mu    sync.Mutex
	store interfaces.PageStore

	slots     []slot
	upMap     map[pageid.PageId]int
	clockHand int
}

// New builds a pool with numSlots fixed slots.
func New(store interfaces.PageStore, numSlots int) *Pool {
	return &Pool{
		store: store,
		slots: make([]slot, numSlots),
		upMap: make(map[pageid.PageId]int),
	}
}

// Page is a pinned handle into one UP slot.
type Page struct {
	pool   *Pool
	slot   int
	PageID pageid.PageId
	Bytes  []byte
}

// Unpin releases the caller's pin and sets the second-chance bit.
func (p *Page) Unpin() {
	p.pool.mu.Lock()
	defer p.pool.mu.Unlock()
	s := &p.pool.slots[p.slot]
	if s.pins > 0 {
		s.pins--
	}
	s.secondChance = true
}

// MarkDirty flags the page's bytes as modified so Flush writes them
// back.
func (p *Page) MarkDirty() {
	p.pool.mu.Lock()
	defer p.pool.mu.Unlock()
	p.pool.slots[p.slot].dirty = true
}

// GetUnversionedPage returns the page at (fid, pageNo), faulting it in
// from disk on a cache miss.
func (p *Pool) GetUnversionedPage(fid pageid.FileId, pageNo uint64) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := pageid.PageId{FileId: fid, PageNumber: pageNo}
	if idx, ok := p.upMap[id]; ok {
		s := &p.slots[idx]
		s.pins++
		s.secondChance = false
		return &Page{pool: p, slot: idx, PageID: id, Bytes: s.bytes}, nil
	}

	idx, err := p.acquireFreeSlotLocked()
	if err != nil {
		return nil, err
	}
	s := &p.slots[idx]
	if err := p.store.ReadExistingPage(id, s.bytesOrAlloc()); err != nil {
		return nil, &FatalError{Op: "fault in " + id.String(), Err: err}
	}
	s.pageID = id
	s.dirty = false
	s.assigned = true
	s.pins = 1
	s.secondChance = false
	p.upMap[id] = idx
	return &Page{pool: p, slot: idx, PageID: id, Bytes: s.bytes}, nil
}

// AppendUnversionedPage extends fid's file with a new zeroed page.
func (p *Pool) AppendUnversionedPage(fid pageid.FileId) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.acquireFreeSlotLocked()
	if err != nil {
		return nil, err
	}
	s := &p.slots[idx]
	buf := s.bytesOrAlloc()
	for i := range buf {
		buf[i] = 0
	}
	pageNo, err := p.store.AppendPage(fid, buf)
	if err != nil {
		return nil, &FatalError{Op: "append", Err: err}
	}
	id := pageid.PageId{FileId: fid, PageNumber: pageNo}
	s.pageID = id
	s.dirty = true
	s.assigned = true
	s.pins = 1
	s.secondChance = false
	p.upMap[id] = idx
	return &Page{pool: p, slot: idx, PageID: id, Bytes: s.bytes}, nil
}

// Flush writes every resident dirty page to disk.
func (p *Pool) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		s := &p.slots[i]
		if s.assigned && s.dirty {
			if err := p.store.Flush(s.pageID, s.bytes); err != nil {
				return &FatalError{Op: "flush " + s.pageID.String(), Err: err}
			}
			s.dirty = false
		}
	}
	return nil
}

func (p *Pool) acquireFreeSlotLocked() (int, error) {
	n := len(p.slots)
	for scanned := 0; scanned < 4*n+1; scanned++ {
		idx := p.clockHand
		p.clockHand = (p.clockHand + 1) % n
		s := &p.slots[idx]

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
			if err := p.store.Flush(s.pageID, s.bytes); err != nil {
				return 0, &FatalError{Op: "evict-flush " + s.pageID.String(), Err: err}
			}
		}
		delete(p.upMap, s.pageID)
		s.assigned = false
		s.dirty = false
		s.secondChance = false
		return idx, nil
	}
	return 0, &FatalError{Op: "acquire slot", Err: fmt.Errorf("no evictable slot after full sweep; pool undersized for workload")}
}

func (s *slot) bytesOrAlloc() []byte {
	if s.bytes == nil {
		s.bytes = filemgr.NewAlignedPage()
	}
	return s.bytes
}
