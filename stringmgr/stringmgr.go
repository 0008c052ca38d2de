// Package stringmgr is a minimal, functional String Manager (spec §2
// item 6): it appends string bytes into the unversioned pool's blob
// file and hands back an offset-based id, and compares stored bytes
// against a caller buffer. The String
// Manager's own internals sit outside this module's boundary, but the
// extendible strings hash needs a real collaborator to be testable
// against, so this package implements interfaces.StringStore over
// upool the same way the teacher layers BufMgr beneath the btree: one
// small package owning layout, delegating every byte read/write to the
// pool underneath.
//
// Layout: each blob is a length-prefixed record (uint32 big-endian
// length, then the bytes) appended to a dedicated unversioned file.
// The returned id is the byte offset the record starts at; offsets
// never change once assigned since the store is append-only.
package stringmgr

import (
	"encoding/binary"
	"fmt"

	"github.com/mlmdb/storagecore/pageid"
	"github.com/mlmdb/storagecore/upool"
)

const lengthPrefixSize = 4

// Manager is the String Manager. One Manager owns one blob file.
type Manager struct {
	pool *upool.Pool
	fid  pageid.FileId

	// tailPage is lazily created on first CreateNew and grown in place
	// until it runs out of room, mirroring the UP pool's single-file
	// append discipline.
	tailPageNo uint64
	tailOffset uint32
	haveTail   bool
}

// New returns a String Manager appending into fid through pool.
func New(pool *upool.Pool, fid pageid.FileId) *Manager {
	return &Manager{pool: pool, fid: fid}
}

// CreateNew appends bytes as a new string blob and returns the byte
// offset it was written at.
func (m *Manager) CreateNew(bytes []byte) (uint64, error) {
	record := make([]byte, lengthPrefixSize+len(bytes))
	binary.BigEndian.PutUint32(record, uint32(len(bytes)))
	copy(record[lengthPrefixSize:], bytes)

	if !m.haveTail {
		page, err := m.pool.AppendUnversionedPage(m.fid)
		if err != nil {
			return 0, fmt.Errorf("stringmgr: allocate blob page: %w", err)
		}
		m.tailPageNo = page.PageID.PageNumber
		m.tailOffset = 0
		m.haveTail = true
		page.Unpin()
	}

	startOffset := m.tailPageNo*pageid.PageSize + uint64(m.tailOffset)

	remaining := record
	for len(remaining) > 0 {
		page, err := m.pool.GetUnversionedPage(m.fid, m.tailPageNo)
		if err != nil {
			return 0, fmt.Errorf("stringmgr: fetch tail page: %w", err)
		}
		room := pageid.PageSize - int(m.tailOffset)
		n := len(remaining)
		if n > room {
			n = room
		}
		copy(page.Bytes[m.tailOffset:], remaining[:n])
		page.MarkDirty()
		page.Unpin()

		remaining = remaining[n:]
		m.tailOffset += uint32(n)

		if m.tailOffset == pageid.PageSize || len(remaining) > 0 {
			next, err := m.pool.AppendUnversionedPage(m.fid)
			if err != nil {
				return 0, fmt.Errorf("stringmgr: grow blob file: %w", err)
			}
			m.tailPageNo = next.PageID.PageNumber
			m.tailOffset = 0
			next.Unpin()
		}
	}

	return startOffset, nil
}

// BytesEq reports whether the size bytes of buf equal the stored
// string named by id. A length mismatch is decided from the length
// prefix alone; otherwise the stored body is copied into a temporary
// slice and compared byte by byte.
func (m *Manager) BytesEq(buf []byte, size int, id uint64) (bool, error) {
	stored, err := m.read(id, lengthPrefixSize)
	if err != nil {
		return false, err
	}
	storedLen := int(binary.BigEndian.Uint32(stored))
	if storedLen != size {
		return false, nil
	}
	body, err := m.read(id+lengthPrefixSize, size)
	if err != nil {
		return false, err
	}
	for i := 0; i < size; i++ {
		if body[i] != buf[i] {
			return false, nil
		}
	}
	return true, nil
}

// read returns n bytes starting at byte offset off, spanning pages as
// needed.
func (m *Manager) read(off uint64, n int) ([]byte, error) {
	out := make([]byte, n)
	read := 0
	for read < n {
		pageNo := (off + uint64(read)) / pageid.PageSize
		withinPage := uint32((off + uint64(read)) % pageid.PageSize)

		page, err := m.pool.GetUnversionedPage(m.fid, pageNo)
		if err != nil {
			return nil, fmt.Errorf("stringmgr: read blob: %w", err)
		}
		chunk := n - read
		if room := pageid.PageSize - int(withinPage); chunk > room {
			chunk = room
		}
		copy(out[read:read+chunk], page.Bytes[withinPage:int(withinPage)+chunk])
		page.Unpin()
		read += chunk
	}
	return out, nil
}
