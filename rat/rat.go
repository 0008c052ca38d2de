// Package rat implements the Random Access Table (spec §4.7): a
// versioned file treated as an implicit array of fixed-arity records.
// Grounded on original_source/src/storage/index/random_access_table/
// random_access_table.cc for the block/slot addressing and the
// read-before-upgrade append discipline, layered on vpool the way the
// teacher layers LoadPage/NewPage on BufMgr.PinLatch.
package rat

import (
	"fmt"
	"sync/atomic"

	"github.com/mlmdb/storagecore/pageid"
	"github.com/mlmdb/storagecore/version"
	"github.com/mlmdb/storagecore/vpool"
)

// Table wraps fid as an array of fixed-size records, recordsPerBlock
// per page. A Table does not discover its own length from disk: the
// caller (typically a catalog entry) tracks the logical record count
// and passes it to New; this mirrors the source, where the table's
// record count lives in the owning index structure, not in the RAT
// itself.
type Table struct {
	pool            *vpool.Pool
	fid             pageid.FileId
	recordSize      int
	recordsPerBlock int

	count uint64 // atomic: number of records ever appended
}

// New returns a Table over fid starting at initialCount records
// already present (0 for a brand-new file).
func New(pool *vpool.Pool, fid pageid.FileId, recordSize int, initialCount uint64) (*Table, error) {
	if recordSize <= 0 || recordSize > pageid.PageSize {
		return nil, fmt.Errorf("rat: invalid record size %d", recordSize)
	}
	return &Table{
		pool:            pool,
		fid:             fid,
		recordSize:      recordSize,
		recordsPerBlock: pageid.PageSize / recordSize,
		count:           initialCount,
	}, nil
}

// Count returns the number of records appended so far.
func (t *Table) Count() uint64 { return atomic.LoadUint64(&t.count) }

func (t *Table) locate(p uint64) (blockNo uint64, offset int) {
	blockNo = p / uint64(t.recordsPerBlock)
	offset = int(p%uint64(t.recordsPerBlock)) * t.recordSize
	return
}

// Read copies record p's bytes into a fresh slice as visible under
// scope.
func (t *Table) Read(scope *version.Scope, p uint64) ([]byte, error) {
	if p >= t.Count() {
		return nil, fmt.Errorf("rat: record %d out of range (count %d)", p, t.Count())
	}
	blockNo, offset := t.locate(p)
	page, err := t.pool.GetPageReadonly(scope, t.fid, blockNo)
	if err != nil {
		return nil, fmt.Errorf("rat: read record %d: %w", p, err)
	}
	defer page.Unpin()

	out := make([]byte, t.recordSize)
	copy(out, page.Bytes[offset:offset+t.recordSize])
	return out, nil
}

// Append writes record (len(record) == recordSize) to the next free
// position and returns its index. The last block is probed read-only
// first; a last block that still has room is then written through
// GetPageEditable (a new version of that block, not a new page), and
// only a full last block (or an empty table) triggers AppendVPage
// (spec §4.7).
func (t *Table) Append(scope *version.Scope, record []byte) (uint64, error) {
	if len(record) != t.recordSize {
		return 0, fmt.Errorf("rat: append record size %d, want %d", len(record), t.recordSize)
	}

	count := t.Count()
	if count > 0 {
		lastBlock, _ := t.locate(count - 1)
		usedInLastBlock := count - lastBlock*uint64(t.recordsPerBlock)

		if usedInLastBlock < uint64(t.recordsPerBlock) {
			// First probe read-only (spec §4.7): avoids creating a new
			// page version just to confirm there is room.
			probe, err := t.pool.GetPageReadonly(scope, t.fid, lastBlock)
			if err != nil {
				return 0, fmt.Errorf("rat: probe last block: %w", err)
			}
			probe.Unpin()

			page, err := t.pool.GetPageEditable(scope, t.fid, lastBlock)
			if err != nil {
				return 0, fmt.Errorf("rat: edit last block: %w", err)
			}
			offset := int(usedInLastBlock) * t.recordSize
			copy(page.Bytes[offset:offset+t.recordSize], record)
			page.Unpin()

			pos := atomic.AddUint64(&t.count, 1) - 1
			return pos, nil
		}
	}

	page, err := t.pool.AppendVPage(scope, t.fid)
	if err != nil {
		return 0, fmt.Errorf("rat: append block: %w", err)
	}
	copy(page.Bytes[:t.recordSize], record)
	page.Unpin()

	pos := atomic.AddUint64(&t.count, 1) - 1
	return pos, nil
}
