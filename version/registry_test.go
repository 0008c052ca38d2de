package version

import (
	"testing"

	"github.com/mlmdb/storagecore/pageid"
)

func pidFor(file pageid.FileId, page uint64) pageid.PageId {
	return pageid.PageId{FileId: file, PageNumber: page}
}

func TestReadOnlySeesCommittedSnapshot(t *testing.T) {
	r := NewRegistry()

	w := r.StartEditable()
	if w.StartVersion != 0 || w.ResultVersion != 1 {
		t.Fatalf("writer versions = %d/%d, want 0/1", w.StartVersion, w.ResultVersion)
	}
	if !r.IsLive(0) || !r.IsLive(1) {
		t.Fatalf("writer's start and result versions should both be live")
	}
	w.Close()

	if r.LastStableVersion() != 1 {
		t.Fatalf("LastStableVersion = %d, want 1", r.LastStableVersion())
	}

	reader := r.StartReadOnly()
	if reader.StartVersion != 1 || reader.ResultVersion != 1 {
		t.Fatalf("reader versions = %d/%d, want 1/1", reader.StartVersion, reader.ResultVersion)
	}
	reader.Close()

	if r.IsLive(1) {
		t.Fatalf("version 1 should no longer be live once every scope referencing it closed")
	}
}

func TestEditableScopeIsExclusive(t *testing.T) {
	r := NewRegistry()
	w := r.StartEditable()

	done := make(chan struct{})
	go func() {
		w2 := r.StartEditable()
		w2.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("second editable scope started while the first was still open")
	default:
	}

	w.Close()
	<-done
}

func TestRecordModificationTracksTouchedPages(t *testing.T) {
	r := NewRegistry()
	w := r.StartEditable()
	defer w.Close()

	w.RecordModification(pidFor(1, 0))
	w.RecordModification(pidFor(1, 1))

	if got := w.Modifications(); len(got) != 2 {
		t.Fatalf("Modifications() = %v, want 2 entries", got)
	}
}
