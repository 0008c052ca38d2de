package filemgr

import (
	"bytes"
	"testing"

	"github.com/mlmdb/storagecore/pageid"
)

func TestAppendAndReadBack(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)
	defer m.Close()

	fid, err := m.GetFileId("data.qm")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}

	page := make([]byte, pageid.PageSize)
	for i := range page {
		page[i] = 0xAB
	}
	pageNo, err := m.AppendPage(fid, page)
	if err != nil {
		t.Fatalf("AppendPage: %v", err)
	}
	if pageNo != 0 {
		t.Fatalf("AppendPage returned %d, want 0", pageNo)
	}

	got := make([]byte, pageid.PageSize)
	if err := m.ReadExistingPage(pageid.PageId{FileId: fid, PageNumber: 0}, got); err != nil {
		t.Fatalf("ReadExistingPage: %v", err)
	}
	if !bytes.Equal(got, page) {
		t.Fatalf("read back bytes differ")
	}

	count, err := m.CountPages(fid)
	if err != nil {
		t.Fatalf("CountPages: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountPages = %d, want 1", count)
	}
}

func TestFirstPageReadsBackAfterLaterAppends(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)
	defer m.Close()

	fid, err := m.GetFileId("f.qm")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}

	for i := 0; i < 4; i++ {
		page := make([]byte, pageid.PageSize)
		for j := range page {
			page[j] = byte(i)
		}
		if _, err := m.AppendPage(fid, page); err != nil {
			t.Fatalf("AppendPage(%d): %v", i, err)
		}
	}

	got := make([]byte, pageid.PageSize)
	if err := m.ReadExistingPage(pageid.PageId{FileId: fid, PageNumber: 0}, got); err != nil {
		t.Fatalf("ReadExistingPage: %v", err)
	}
	if got[0] != 0 {
		t.Fatalf("page 0 byte = %d, want 0", got[0])
	}
}

func TestReadTmpPageZeroFillsMissingTail(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)
	defer m.Close()

	fid, err := m.GetFileId("tmp.bin")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}

	dst := make([]byte, pageid.PageSize)
	for i := range dst {
		dst[i] = 0xFF
	}
	if err := m.ReadTmpPage(pageid.PageId{FileId: fid, PageNumber: 5}, dst); err != nil {
		t.Fatalf("ReadTmpPage: %v", err)
	}
	for i, b := range dst {
		if b != 0 {
			t.Fatalf("dst[%d] = %x, want zero fill on unwritten tmp page", i, b)
		}
	}
}

func TestGetFileIdIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)
	defer m.Close()

	id1, err := m.GetFileId("same.qm")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}
	id2, err := m.GetFileId("same.qm")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("GetFileId not idempotent: %v != %v", id1, id2)
	}
}
