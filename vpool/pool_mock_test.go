package vpool

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"

	"github.com/mlmdb/storagecore/interfaces/interfacesmock"
	"github.com/mlmdb/storagecore/pageid"
	"github.com/mlmdb/storagecore/version"
)

// TestGetPageReadonlyFaultFailureIsFatal drives a cache miss against a
// PageStore that fails the disk read, using a generated mock instead of
// a real temp file: the point is to exercise the fault path's error
// wrapping, not real file I/O.
func TestGetPageReadonlyFaultFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := interfacesmock.NewMockPageStore(ctrl)

	fid := pageid.FileId(3)
	diskErr := errors.New("disk gone")
	store.EXPECT().
		ReadExistingPage(pageid.PageId{FileId: fid, PageNumber: 0}, gomock.Any()).
		Return(diskErr)

	reg := version.NewRegistry()
	pool := New(store, reg, 4)

	r := reg.StartReadOnly()
	defer r.Close()

	_, err := pool.GetPageReadonly(r, fid, 0)
	if err == nil {
		t.Fatalf("expected an error from a failing disk read")
	}
	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a *FatalError, got %T: %v", err, err)
	}
	if !errors.Is(err, diskErr) {
		t.Fatalf("wrapped error should unwrap to the disk error, got %v", err)
	}
}

// TestAppendVPageWritesExactBytes checks that AppendVPage hands the
// store exactly a zeroed, page-sized buffer, using go-cmp for the
// struct-shaped comparison of the recorded call's arguments.
func TestAppendVPageWritesExactBytes(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := interfacesmock.NewMockPageStore(ctrl)

	fid := pageid.FileId(7)
	want := make([]byte, pageid.PageSize)
	var got []byte
	store.EXPECT().
		AppendPage(fid, gomock.Any()).
		DoAndReturn(func(_ pageid.FileId, src []byte) (uint64, error) {
			got = append([]byte(nil), src...)
			return 0, nil
		})

	reg := version.NewRegistry()
	pool := New(store, reg, 2)

	w := reg.StartEditable()
	defer w.Close()
	if _, err := pool.AppendVPage(w, fid); err != nil {
		t.Fatalf("AppendVPage: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("AppendPage buffer mismatch (-want +got):\n%s", diff)
	}
}
