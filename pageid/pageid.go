// Package pageid defines the identifiers shared by every page pool:
// the file-qualified page address, and the temp-file address private
// pages are addressed by.
package pageid

import "fmt"

// PageSize is the compile-time fixed page size every pool and the file
// manager agree on. 4 KiB matches the source's default block size.
const PageSize = 4096

// FileId names a file known to the File Manager, which hands out ids
// from 0 upward; UnassignedFileId marks a pool slot that holds no page.
type FileId uint32

// UnassignedFileId marks a buffer slot that does not currently hold a page.
const UnassignedFileId FileId = 0xFFFFFFFF

// IsAssigned reports whether id refers to a real, opened file.
func (id FileId) IsAssigned() bool {
	return id != UnassignedFileId
}

func (id FileId) String() string {
	if !id.IsAssigned() {
		return "file:<unassigned>"
	}
	return fmt.Sprintf("file:%d", uint32(id))
}

// PageId is the address of one fixed-size page within a file.
type PageId struct {
	FileId     FileId
	PageNumber uint64
}

// Unassigned is the PageId (FileId UnassignedFileId) used to mark a free
// pool slot.
var Unassigned = PageId{FileId: UnassignedFileId}

// IsAssigned reports whether p addresses a real page.
func (p PageId) IsAssigned() bool {
	return p.FileId.IsAssigned()
}

func (p PageId) String() string {
	return fmt.Sprintf("%s/%d", p.FileId, p.PageNumber)
}

// TmpFileId is the address of a private, per-worker temporary file: the
// worker's partition within the Private Page Pool plus the FileId of the
// temp file itself. The Private Page Pool numbers its in-memory temp
// files by worker position; they are not registered with the File
// Manager.
type TmpFileId struct {
	FileId           FileId
	PrivateBufferPos uint32
}

func (t TmpFileId) String() string {
	return fmt.Sprintf("%s@worker%d", t.FileId, t.PrivateBufferPos)
}
