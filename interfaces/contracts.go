// Package interfaces declares the small cross-package contracts that
// let the buffer pools, the random access table and the extendible hash
// depend on a collaborator's behavior without importing its concrete
// type — the same role the teacher's interfaces.ParentBufMgr /
// interfaces.ParentPage play between BufMgr and its backing pool,
// generalized here to the File Manager and String Manager boundaries
// spec.md draws around this module.
package interfaces

//go:generate -command mockgen go run go.uber.org/mock/mockgen
//go:generate mockgen -destination=./interfacesmock/mocks.go -package=interfacesmock github.com/mlmdb/storagecore/interfaces PageStore,StringStore

import "github.com/mlmdb/storagecore/pageid"

// PageStore is the File Manager surface every pool reads and writes
// fixed-size pages through (spec §4.2). Implementations are expected to
// treat I/O errors as fatal, per spec §7: storage corruption is not a
// condition this interface asks callers to recover from.
type PageStore interface {
	// GetFileId returns the FileId for path, creating the file if it
	// does not exist yet.
	GetFileId(path string) (pageid.FileId, error)
	// CountPages returns the number of fixed-size pages currently
	// stored in fileId's file.
	CountPages(fileId pageid.FileId) (uint64, error)
	// ReadExistingPage fills dst (len(dst) == page size) with the bytes
	// at id's position. Short reads are a fatal integrity failure.
	ReadExistingPage(id pageid.PageId, dst []byte) error
	// AppendPage writes src as a new page at the end of fileId's file
	// and returns the 0-based page number assigned to it.
	AppendPage(fileId pageid.FileId, src []byte) (uint64, error)
	// Flush performs a positional write of a page's current bytes.
	Flush(id pageid.PageId, src []byte) error
	// ReadTmpPage behaves like ReadExistingPage but tolerates a file
	// that has not been extended that far yet, zero-filling dst instead
	// of failing — temp files backing the private pool may be sparse.
	ReadTmpPage(id pageid.PageId, dst []byte) error
}

// StringStore is the String Manager surface the extendible strings hash
// consumes (spec §2 item 6, §4.6). This module implements a minimal,
// functional StringStore (package stringmgr) so the hash's tests have a
// real collaborator to run against, even though the String Manager's own
// internals sit outside this spec's boundary.
type StringStore interface {
	// CreateNew appends bytes as a new string blob and returns its id.
	CreateNew(bytes []byte) (uint64, error)
	// BytesEq reports whether the size bytes of buf equal the stored
	// string named by id.
	BytesEq(buf []byte, size int, id uint64) (bool, error)
}
