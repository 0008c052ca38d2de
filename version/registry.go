// Package version implements the running-version registry and the
// VersionScope lifecycle (spec §3, §4.8): the bookkeeping that lets the
// Versioned Page Pool decide which page versions are still observable
// by some in-flight query, and that publishes a writer's changes to
// future readers when its scope destructs.
//
// Grounded on original_source/src/storage/buffer_manager.cc's
// running_version_count map and BufferManager::VersionScope/terminate,
// translated from a destructor-triggered callback into an explicit
// Close method, matching how the teacher replaces C++ RAII with
// explicit Unpin/Close calls everywhere in BufMgr.
package version

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/google/uuid"

	"github.com/mlmdb/storagecore/pageid"
)

// Registry owns last_stable_version, the running-version reference
// counts, and the single global writer lock (spec §5: "at most one
// editable VersionScope may exist").
type Registry struct {
	mu                sync.Mutex
	lastStableVersion uint64
	counts            map[uint64]int32
	live              *roaring64.Bitmap

	writerMu sync.Mutex
}

// NewRegistry returns a registry with no committed versions yet.
func NewRegistry() *Registry {
	return &Registry{
		counts: make(map[uint64]int32),
		live:   roaring64.New(),
	}
}

// IsLive reports whether some active scope may still observe version v.
// vpool's eviction gate 4 uses this as "version absent from the
// registry is safe to recycle regardless of chain position".
func (r *Registry) IsLive(v uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live.Contains(v)
}

func (r *Registry) incrLocked(v uint64) {
	r.counts[v]++
	r.live.Add(v)
}

func (r *Registry) decrLocked(v uint64) {
	c := r.counts[v] - 1
	if c <= 0 {
		delete(r.counts, v)
		r.live.Remove(v)
		return
	}
	r.counts[v] = c
}

// Scope is a query-lifetime handle to a specific visible snapshot
// (spec §3 VersionScope). StartVersion is always the snapshot a reader
// sees; ResultVersion equals StartVersion for a read-only scope and
// StartVersion+1 for an editable one (the version new page edits land
// on).
type Scope struct {
	reg          *Registry
	SessionID    uuid.UUID
	StartVersion uint64
	ResultVersion uint64
	Editable     bool

	mu                   sync.Mutex
	closed               bool
	currentModifications []pageid.PageId
}

// StartReadOnly opens a snapshot scope pinned to the last version that
// committed before this call.
func (r *Registry) StartReadOnly() *Scope {
	r.mu.Lock()
	start := r.lastStableVersion
	r.incrLocked(start)
	r.mu.Unlock()

	return &Scope{
		reg:           r,
		SessionID:     uuid.New(),
		StartVersion:  start,
		ResultVersion: start,
	}
}

// StartEditable blocks until no other editable scope is active, then
// opens a writer scope targeting the next version.
func (r *Registry) StartEditable() *Scope {
	r.writerMu.Lock()

	r.mu.Lock()
	start := r.lastStableVersion
	r.incrLocked(start)
	r.incrLocked(start + 1)
	r.mu.Unlock()

	return &Scope{
		reg:           r,
		SessionID:     uuid.New(),
		StartVersion:  start,
		ResultVersion: start + 1,
		Editable:      true,
	}
}

// RecordModification notes that page id now has a dirty version created
// under this scope. Never persisted by this package — spec §9 notes
// there is no write-ahead log here; a caller wanting durability hooks in
// before Close publishes the new version.
func (s *Scope) RecordModification(id pageid.PageId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentModifications = append(s.currentModifications, id)
}

// Modifications returns the pages touched under this scope so far.
func (s *Scope) Modifications() []pageid.PageId {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pageid.PageId, len(s.currentModifications))
	copy(out, s.currentModifications)
	return out
}

// Close ends the scope: running-version counts are decremented, and for
// an editable scope last_stable_version is bumped, publishing
// ResultVersion to every reader scope started after this call returns.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	r := s.reg
	r.mu.Lock()
	r.decrLocked(s.StartVersion)
	if s.Editable {
		r.decrLocked(s.ResultVersion)
		r.lastStableVersion++
	}
	r.mu.Unlock()

	if s.Editable {
		s.mu.Lock()
		s.currentModifications = nil
		s.mu.Unlock()
		r.writerMu.Unlock()
	}
}

// LastStableVersion returns the most recently committed version number.
func (r *Registry) LastStableVersion() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStableVersion
}
