// Package filemgr implements the File Manager (spec §4.2): it owns file
// handles, maps logical file names to FileIds, and performs fixed-size
// positional page I/O for every pool. Grounded on
// hmarui66-blink-tree-go's readPage/writePage (positional ReadAt/WriteAt
// against a single *os.File), extended to manage many files rather than
// the teacher's single btree file, and to allocate page-size-aligned
// buffers through github.com/ncw/directio so reads and writes stay
// friendly to O_DIRECT on platforms that support it, per spec §6.
package filemgr

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ncw/directio"

	"github.com/mlmdb/storagecore/pageid"
)

// FatalError marks a condition spec §7 requires this package to treat
// as unrecoverable: a corrupted or truncated page file. Callers other
// than the top-level engine should not try to recover from it.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("filemgr: %s: %v", e.Op, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// Manager owns every open page file for one database directory.
type Manager struct {
	dir string

	mu     sync.Mutex
	nextId pageid.FileId
	byPath map[string]pageid.FileId
	byId   map[pageid.FileId]*os.File
}

// New creates a File Manager rooted at dir. dir must already exist.
func New(dir string) *Manager {
	return &Manager{
		dir:    dir,
		nextId: 0,
		byPath: make(map[string]pageid.FileId),
		byId:   make(map[pageid.FileId]*os.File),
	}
}

// GetFileId returns the FileId for name (relative to the manager's
// directory), opening or creating the backing file if necessary.
func (m *Manager) GetFileId(name string) (pageid.FileId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byPath[name]; ok {
		return id, nil
	}

	full := filepath.Join(m.dir, name)
	f, err := openDirectReadWrite(full)
	if err != nil {
		return 0, &FatalError{Op: "open " + name, Err: err}
	}

	id := m.nextId
	m.nextId++
	m.byPath[name] = id
	m.byId[id] = f
	return id, nil
}

func (m *Manager) fileFor(id pageid.FileId) (*os.File, error) {
	m.mu.Lock()
	f, ok := m.byId[id]
	m.mu.Unlock()
	if !ok {
		return nil, &FatalError{Op: "lookup", Err: fmt.Errorf("unknown file id %v", id)}
	}
	return f, nil
}

// CountPages returns the number of PageSize-sized pages currently
// stored in fileId's file.
func (m *Manager) CountPages(fileId pageid.FileId) (uint64, error) {
	f, err := m.fileFor(fileId)
	if err != nil {
		return 0, err
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, &FatalError{Op: "seek", Err: err}
	}
	return uint64(size) / pageid.PageSize, nil
}

// ReadExistingPage reads exactly pageid.PageSize bytes at the page's
// offset into dst. A short read is a fatal integrity failure: the
// storage core treats corrupted files as unrecoverable (spec §7).
func (m *Manager) ReadExistingPage(id pageid.PageId, dst []byte) error {
	f, err := m.fileFor(id.FileId)
	if err != nil {
		return err
	}
	off := int64(id.PageNumber) * pageid.PageSize
	n, err := f.ReadAt(dst[:pageid.PageSize], off)
	if err != nil || n != pageid.PageSize {
		return &FatalError{Op: fmt.Sprintf("read %s", id), Err: shortReadErr(n, err)}
	}
	return nil
}

// ReadTmpPage behaves like ReadExistingPage but zero-fills dst instead
// of failing when the backing file has not been extended that far,
// since private pool temp files are written lazily.
func (m *Manager) ReadTmpPage(id pageid.PageId, dst []byte) error {
	f, err := m.fileFor(id.FileId)
	if err != nil {
		return err
	}
	off := int64(id.PageNumber) * pageid.PageSize
	n, err := f.ReadAt(dst[:pageid.PageSize], off)
	if err != nil && err != io.EOF {
		return &FatalError{Op: fmt.Sprintf("read tmp %s", id), Err: err}
	}
	for i := n; i < pageid.PageSize; i++ {
		dst[i] = 0
	}
	return nil
}

// AppendPage writes src as a new page at the end of fileId's file and
// returns the 0-based page number it was assigned.
func (m *Manager) AppendPage(fileId pageid.FileId, src []byte) (uint64, error) {
	f, err := m.fileFor(fileId)
	if err != nil {
		return 0, err
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, &FatalError{Op: "seek", Err: err}
	}
	if size%pageid.PageSize != 0 {
		return 0, &FatalError{Op: "append", Err: fmt.Errorf("file size %d not page aligned", size)}
	}
	pageNo := uint64(size) / pageid.PageSize
	if _, err := f.WriteAt(src[:pageid.PageSize], size); err != nil {
		return 0, &FatalError{Op: "append", Err: err}
	}
	return pageNo, nil
}

// Flush performs a positional write of a page's current bytes.
func (m *Manager) Flush(id pageid.PageId, src []byte) error {
	f, err := m.fileFor(id.FileId)
	if err != nil {
		return err
	}
	off := int64(id.PageNumber) * pageid.PageSize
	if _, err := f.WriteAt(src[:pageid.PageSize], off); err != nil {
		return &FatalError{Op: fmt.Sprintf("flush %s", id), Err: err}
	}
	return nil
}

// Close closes every open file. Errors are collected but do not stop
// the attempt to close the rest.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, f := range m.byId {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewAlignedPage allocates a PageSize buffer aligned to the platform's
// direct-I/O block size, so pages read through this manager can be
// handed straight to O_DIRECT reads/writes without an extra copy.
func NewAlignedPage() []byte {
	return directio.AlignedBlock(pageid.PageSize)
}

func shortReadErr(n int, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("short read: got %d bytes, want %d", n, pageid.PageSize)
}

func openDirectReadWrite(path string) (*os.File, error) {
	f, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		// Direct I/O is unavailable on this platform/filesystem for
		// this path (e.g. non-Linux, tmpfs); fall back to a regular
		// file. Pages are still aligned in memory via NewAlignedPage,
		// just not O_DIRECT on the wire to the filesystem.
		return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	}
	return f, nil
}
