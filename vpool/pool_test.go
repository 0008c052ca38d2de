package vpool

import (
	"bytes"
	"testing"

	"github.com/mlmdb/storagecore/filemgr"
	"github.com/mlmdb/storagecore/pageid"
	"github.com/mlmdb/storagecore/version"
)

func newPoolForTest(t *testing.T, numSlots int) (*Pool, *version.Registry, pageid.FileId) {
	t.Helper()
	dir := t.TempDir()
	fm := filemgr.New(dir)
	t.Cleanup(func() { fm.Close() })

	fid, err := fm.GetFileId("data.qm")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}
	reg := version.NewRegistry()
	return New(fm, reg, numSlots), reg, fid
}

func TestAppendEditReadRoundTrip(t *testing.T) {
	pool, reg, fid := newPoolForTest(t, 8)

	w := reg.StartEditable()
	page, err := pool.AppendVPage(w, fid)
	if err != nil {
		t.Fatalf("AppendVPage: %v", err)
	}
	copy(page.Bytes, []byte("hello"))
	page.Unpin()
	w.Close()

	r := reg.StartReadOnly()
	defer r.Close()

	got, err := pool.GetPageReadonly(r, fid, page.PageID.PageNumber)
	if err != nil {
		t.Fatalf("GetPageReadonly: %v", err)
	}
	defer got.Unpin()
	if !bytes.HasPrefix(got.Bytes, []byte("hello")) {
		t.Fatalf("read back %q, want prefix hello", got.Bytes[:5])
	}
}

func TestEditableScopeCreatesNewVersionNotVisibleToOlderReader(t *testing.T) {
	pool, reg, fid := newPoolForTest(t, 8)

	w0 := reg.StartEditable()
	page, err := pool.AppendVPage(w0, fid)
	if err != nil {
		t.Fatalf("AppendVPage: %v", err)
	}
	pageNo := page.PageID.PageNumber
	copy(page.Bytes, []byte("v1"))
	page.Unpin()
	w0.Close()

	reader := reg.StartReadOnly()

	w1 := reg.StartEditable()
	edit, err := pool.GetPageEditable(w1, fid, pageNo)
	if err != nil {
		t.Fatalf("GetPageEditable: %v", err)
	}
	copy(edit.Bytes, []byte("v2"))
	edit.Unpin()
	w1.Close()

	seenByReader, err := pool.GetPageReadonly(reader, fid, pageNo)
	if err != nil {
		t.Fatalf("GetPageReadonly: %v", err)
	}
	if !bytes.HasPrefix(seenByReader.Bytes, []byte("v1")) {
		t.Fatalf("reader opened before the edit saw %q, want v1", seenByReader.Bytes[:2])
	}
	seenByReader.Unpin()
	reader.Close()

	fresh := reg.StartReadOnly()
	defer fresh.Close()
	seenByFresh, err := pool.GetPageReadonly(fresh, fid, pageNo)
	if err != nil {
		t.Fatalf("GetPageReadonly: %v", err)
	}
	defer seenByFresh.Unpin()
	if !bytes.HasPrefix(seenByFresh.Bytes, []byte("v2")) {
		t.Fatalf("reader opened after the edit saw %q, want v2", seenByFresh.Bytes[:2])
	}
}

func TestEvictionSurvivesFullSweepWithoutLosingDirtyData(t *testing.T) {
	pool, reg, fid := newPoolForTest(t, 2)

	var pageNos []uint64
	for i := 0; i < 5; i++ {
		w := reg.StartEditable()
		page, err := pool.AppendVPage(w, fid)
		if err != nil {
			t.Fatalf("AppendVPage(%d): %v", i, err)
		}
		copy(page.Bytes, []byte{byte(i)})
		page.Unpin()
		w.Close()
		pageNos = append(pageNos, page.PageID.PageNumber)
	}

	r := reg.StartReadOnly()
	defer r.Close()
	for i, pn := range pageNos {
		got, err := pool.GetPageReadonly(r, fid, pn)
		if err != nil {
			t.Fatalf("GetPageReadonly(%d): %v", i, err)
		}
		if got.Bytes[0] != byte(i) {
			t.Fatalf("page %d byte = %d, want %d", i, got.Bytes[0], i)
		}
		got.Unpin()
	}
}

func TestFlushWritesDirtyTerminalVersions(t *testing.T) {
	pool, reg, fid := newPoolForTest(t, 8)

	w := reg.StartEditable()
	page, err := pool.AppendVPage(w, fid)
	if err != nil {
		t.Fatalf("AppendVPage: %v", err)
	}
	copy(page.Bytes, []byte("flush-me"))
	page.Unpin()

	if err := pool.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	w.Close()
}
