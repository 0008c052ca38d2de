package rat

import (
	"bytes"
	"testing"

	"github.com/mlmdb/storagecore/filemgr"
	"github.com/mlmdb/storagecore/pageid"
	"github.com/mlmdb/storagecore/version"
	"github.com/mlmdb/storagecore/vpool"
)

func newTableForTest(t *testing.T, recordSize int) (*Table, *version.Registry) {
	t.Helper()
	dir := t.TempDir()
	fm := filemgr.New(dir)
	t.Cleanup(func() { fm.Close() })

	fid, err := fm.GetFileId("records.dat")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}
	reg := version.NewRegistry()
	pool := vpool.New(fm, reg, 16)

	tbl, err := New(pool, fid, recordSize, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tbl, reg
}

func fixedRecord(recordSize int, b byte) []byte {
	r := make([]byte, recordSize)
	for i := range r {
		r[i] = b
	}
	return r
}

func TestAppendAndReadRoundTrip(t *testing.T) {
	tbl, reg := newTableForTest(t, 64)

	w := reg.StartEditable()
	pos, err := tbl.Append(w, fixedRecord(64, 0x42))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	w.Close()

	r := reg.StartReadOnly()
	defer r.Close()
	got, err := tbl.Read(r, pos)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, fixedRecord(64, 0x42)) {
		t.Fatalf("Read(%d) returned wrong bytes", pos)
	}
}

func TestAppendFillsBlockBeforeCreatingNewVersion(t *testing.T) {
	recordSize := 64
	tbl, reg := newTableForTest(t, recordSize)
	recordsPerBlock := pageid.PageSize / recordSize

	var positions []uint64
	for i := 0; i < recordsPerBlock+2; i++ {
		w := reg.StartEditable()
		pos, err := tbl.Append(w, fixedRecord(recordSize, byte(i)))
		if err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
		w.Close()
		positions = append(positions, pos)
	}

	if positions[0] != 0 || positions[len(positions)-1] != uint64(recordsPerBlock+1) {
		t.Fatalf("unexpected record positions: %v", positions)
	}

	r := reg.StartReadOnly()
	defer r.Close()
	for i, pos := range positions {
		got, err := tbl.Read(r, pos)
		if err != nil {
			t.Fatalf("Read(%d): %v", pos, err)
		}
		if !bytes.Equal(got, fixedRecord(recordSize, byte(i))) {
			t.Fatalf("record %d corrupted after spanning blocks", i)
		}
	}
}

func TestReadOutOfRangeFails(t *testing.T) {
	tbl, reg := newTableForTest(t, 32)
	r := reg.StartReadOnly()
	defer r.Close()
	if _, err := tbl.Read(r, 0); err == nil {
		t.Fatalf("Read on empty table should fail")
	}
}
