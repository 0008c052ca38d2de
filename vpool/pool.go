// Package vpool implements the Versioned Page Pool (spec §4.3): a
// fixed-size shared cache serving snapshot-isolated page reads and
// edits, with version chains per PageId and clock-based eviction.
//
// The slot table and clock sweep are grounded on
// hmarui66-blink-tree-go's BufMgr.PinLatch/UnpinLatch (latchSets +
// latchVictim clock hand, ClockBit-as-second-chance), adapted from a
// single-version hash-chained pool into one that threads prev/next
// version links per slot and consults a running-version registry
// instead of a raw pin count when deciding whether a chained slot may
// be reused.
package vpool

import (
	"fmt"
	"sync"

	"github.com/mlmdb/storagecore/filemgr"
	"github.com/mlmdb/storagecore/interfaces"
	"github.com/mlmdb/storagecore/pageid"
	"github.com/mlmdb/storagecore/version"
)

// FatalError marks conditions spec §7 treats as unrecoverable: a
// corrupted pool invariant or a propagated disk error.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("vpool: %s: %v", e.Op, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

const noSlot = -1

type slot struct {
	pageID       pageid.PageId
	version      uint64
	bytes        []byte
	pins         int32
	dirty        bool
	secondChance bool
	prev, next   int // slot indices, noSlot when absent
	assigned     bool
}

// Pool is the Versioned Page Pool. Its slot count is fixed at
// construction; Config.VPPoolBytes / PageSize in the engine package
// determines it (spec §6).
type Pool struct {
	mu    sync.Mutex
	store interfaces.PageStore
	reg   *version.Registry

	slots     []slot
	vpMap     map[pageid.PageId]int // PageId -> index of oldest resident version
	clockHand int
}

// New builds a pool with numSlots fixed slots. numSlots must be
// positive; the engine validates pool sizing against PAGE_SIZE before
// calling here (spec §6).
func New(store interfaces.PageStore, reg *version.Registry, numSlots int) *Pool {
	slots := make([]slot, numSlots)
	for i := range slots {
		slots[i].prev, slots[i].next = noSlot, noSlot
	}
	return &Pool{
		store: store,
		reg:   reg,
		slots: slots,
		vpMap: make(map[pageid.PageId]int),
	}
}

// Page is a pinned handle into one VP slot. Callers read/write Bytes
// directly; Unpin must be called exactly once when done.
type Page struct {
	pool    *Pool
	slot    int
	PageID  pageid.PageId
	Version uint64
	Bytes   []byte
}

// Unpin releases the caller's pin and sets the slot's second-chance
// bit, per spec §4.3.
func (p *Page) Unpin() {
	p.pool.mu.Lock()
	defer p.pool.mu.Unlock()
	s := &p.pool.slots[p.slot]
	if s.pins > 0 {
		s.pins--
	}
	s.secondChance = true
}

// GetPageReadonly returns the newest version of (fid, pageNo) visible
// to scope's snapshot, faulting it in from disk on a cache miss (spec
// §4.3 lookup & visibility algorithm).
func (p *Pool) GetPageReadonly(scope *version.Scope, fid pageid.FileId, pageNo uint64) (*Page, error) {
	snapshot := scope.ResultVersion

	p.mu.Lock()
	defer p.mu.Unlock()

	id := pageid.PageId{FileId: fid, PageNumber: pageNo}

	head, ok := p.vpMap[id]
	if !ok {
		idx, err := p.acquireFreeSlotLocked()
		if err != nil {
			return nil, err
		}
		s := &p.slots[idx]
		if err := p.store.ReadExistingPage(id, s.bytesOrAlloc()); err != nil {
			return nil, &FatalError{Op: "fault in " + id.String(), Err: err}
		}
		s.pageID = id
		s.version = scope.StartVersion
		s.dirty = false
		s.prev, s.next = noSlot, noSlot
		s.assigned = true
		s.pins = 1
		s.secondChance = false
		p.vpMap[id] = idx
		return &Page{pool: p, slot: idx, PageID: id, Version: s.version, Bytes: s.bytes}, nil
	}

	cur := head
	for {
		next := p.slots[cur].next
		if next == noSlot || p.slots[next].version > snapshot {
			break
		}
		cur = next
	}
	s := &p.slots[cur]
	s.pins++
	s.secondChance = false
	return &Page{pool: p, slot: cur, PageID: id, Version: s.version, Bytes: s.bytes}, nil
}

// NeedEditVersion reports whether page must be upgraded to a fresh
// version before editing under scope.
func NeedEditVersion(page *Page, scope *version.Scope) bool {
	return page.Version != scope.ResultVersion
}

// GetPageEditable returns the page pinned at exactly scope's
// ResultVersion, dirty and ready to mutate, creating a new chain link
// if one does not already exist (spec §4.3 create-new-version
// algorithm). scope must be editable.
func (p *Pool) GetPageEditable(scope *version.Scope, fid pageid.FileId, pageNo uint64) (*Page, error) {
	id := pageid.PageId{FileId: fid, PageNumber: pageNo}

	p.mu.Lock()
	defer p.mu.Unlock()

	head, ok := p.vpMap[id]
	if !ok {
		oldIdx, err := p.acquireFreeSlotLocked()
		if err != nil {
			return nil, err
		}
		old := &p.slots[oldIdx]
		if err := p.store.ReadExistingPage(id, old.bytesOrAlloc()); err != nil {
			return nil, &FatalError{Op: "fault in " + id.String(), Err: err}
		}
		old.pageID = id
		old.version = scope.StartVersion
		old.dirty = false
		old.assigned = true
		old.secondChance = false

		newIdx, err := p.acquireFreeSlotLocked()
		if err != nil {
			return nil, err
		}
		n := &p.slots[newIdx]
		n.pageID = id
		n.version = scope.ResultVersion
		n.dirty = true
		n.assigned = true
		n.pins = 1
		n.secondChance = false
		n.prev = oldIdx
		n.next = noSlot
		copy(n.bytesOrAlloc(), old.bytes)

		old.next = newIdx
		old.prev = noSlot
		old.pins = 0

		p.vpMap[id] = oldIdx
		scope.RecordModification(id)
		return &Page{pool: p, slot: newIdx, PageID: id, Version: n.version, Bytes: n.bytes}, nil
	}

	tail := head
	for p.slots[tail].next != noSlot {
		tail = p.slots[tail].next
	}
	if p.slots[tail].version == scope.ResultVersion {
		s := &p.slots[tail]
		s.pins++
		s.dirty = true
		s.secondChance = false
		return &Page{pool: p, slot: tail, PageID: id, Version: s.version, Bytes: s.bytes}, nil
	}

	newIdx, err := p.acquireFreeSlotLocked()
	if err != nil {
		return nil, err
	}
	pred := &p.slots[tail]
	n := &p.slots[newIdx]
	n.pageID = id
	n.version = scope.ResultVersion
	n.dirty = true
	n.assigned = true
	n.pins = 1
	n.secondChance = false
	n.prev = tail
	n.next = noSlot
	copy(n.bytesOrAlloc(), pred.bytes)
	pred.next = newIdx

	scope.RecordModification(id)
	return &Page{pool: p, slot: newIdx, PageID: id, Version: n.version, Bytes: n.bytes}, nil
}

// AppendVPage extends fid's file with a brand-new page at scope's
// ResultVersion.
func (p *Pool) AppendVPage(scope *version.Scope, fid pageid.FileId) (*Page, error) {
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
	s.version = scope.ResultVersion
	s.dirty = true
	s.assigned = true
	s.pins = 1
	s.secondChance = false
	s.prev, s.next = noSlot, noSlot

	p.vpMap[id] = idx
	scope.RecordModification(id)
	return &Page{pool: p, slot: idx, PageID: id, Version: s.version, Bytes: s.bytes}, nil
}

// Flush writes every resident dirty terminal version (dirty slot with
// no next_version) to disk, per spec §4.3 flush semantics.
func (p *Pool) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		s := &p.slots[i]
		if s.assigned && s.dirty && s.next == noSlot {
			if err := p.store.Flush(s.pageID, s.bytes); err != nil {
				return &FatalError{Op: "flush " + s.pageID.String(), Err: err}
			}
			s.dirty = false
		}
	}
	return nil
}

// acquireFreeSlotLocked runs the clock sweep (spec §4.3 eviction) and
// returns a slot index ready to be reassigned. Caller holds p.mu.
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

		if s.prev == noSlot && s.next == noSlot {
			if s.dirty {
				if err := p.store.Flush(s.pageID, s.bytes); err != nil {
					return 0, &FatalError{Op: "evict-flush " + s.pageID.String(), Err: err}
				}
			}
			p.detachLocked(idx)
			return idx, nil
		}

		if p.reg.IsLive(s.version) {
			continue
		}

		if s.next == noSlot {
			if s.dirty {
				if err := p.store.Flush(s.pageID, s.bytes); err != nil {
					return 0, &FatalError{Op: "evict-flush " + s.pageID.String(), Err: err}
				}
				for prev := s.prev; prev != noSlot; prev = p.slots[prev].prev {
					p.slots[prev].dirty = false
				}
			}
		}
		p.detachLocked(idx)
		return idx, nil
	}
	return 0, &FatalError{Op: "acquire slot", Err: fmt.Errorf("no evictable slot after full sweep; pool undersized for workload")}
}

// detachLocked splices slot idx out of its version chain and, if it
// was the map's head, relinks the map to its successor.
func (p *Pool) detachLocked(idx int) {
	s := &p.slots[idx]
	if s.assigned {
		if s.prev != noSlot {
			p.slots[s.prev].next = s.next
		}
		if s.next != noSlot {
			p.slots[s.next].prev = s.prev
		}
		if head, ok := p.vpMap[s.pageID]; ok && head == idx {
			if s.next != noSlot {
				p.vpMap[s.pageID] = s.next
				p.slots[s.next].prev = noSlot
			} else {
				delete(p.vpMap, s.pageID)
			}
		}
	}
	s.pageID = pageid.Unassigned
	s.version = 0
	s.dirty = false
	s.secondChance = false
	s.pins = 0
	s.prev, s.next = noSlot, noSlot
	s.assigned = false
}

func (s *slot) bytesOrAlloc() []byte {
	if s.bytes == nil {
		s.bytes = filemgr.NewAlignedPage()
	}
	return s.bytes
}
