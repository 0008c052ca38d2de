package exthash

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/mlmdb/storagecore/filemgr"
	"github.com/mlmdb/storagecore/stringmgr"
	"github.com/mlmdb/storagecore/upool"
)

func newHashForTest(t *testing.T, minGlobalDepth uint) *Hash {
	t.Helper()
	dir := t.TempDir()
	fm := filemgr.New(dir)
	t.Cleanup(func() { fm.Close() })

	bucketFid, err := fm.GetFileId("hash.buckets")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}
	stringFid, err := fm.GetFileId("hash.strings")
	if err != nil {
		t.Fatalf("GetFileId: %v", err)
	}

	pool := upool.New(fm, 64)
	strings := stringmgr.New(pool, stringFid)

	h, err := NewWithFloor(pool, strings, bucketFid, minGlobalDepth)
	if err != nil {
		t.Fatalf("NewWithFloor: %v", err)
	}
	return h
}

// fnvHash is a simple, deterministic 64-bit hash good enough to
// exercise directory growth without pulling in a hashing dependency
// the hash package itself has no opinion about.
func fnvHash(b []byte) uint64 {
	var h uint64 = 1469598103934665603
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}

func TestCreateOrGetIDIsIdempotent(t *testing.T) {
	h := newHashForTest(t, 8)

	key := []byte("alice")
	hash := fnvHash(key)

	id1, err := h.CreateOrGetID(key, len(key), hash)
	if err != nil {
		t.Fatalf("CreateOrGetID: %v", err)
	}
	id2, err := h.CreateOrGetID(key, len(key), hash)
	if err != nil {
		t.Fatalf("CreateOrGetID: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("CreateOrGetID not idempotent: %d != %d", id1, id2)
	}
}

func TestGetIDNotFoundForUninserted(t *testing.T) {
	h := newHashForTest(t, 8)

	if _, err := h.GetID([]byte("ghost"), 5, fnvHash([]byte("ghost"))); err != NotFound {
		t.Fatalf("GetID = %v, want NotFound", err)
	}
}

func TestGrowthUnderManyInserts(t *testing.T) {
	h := newHashForTest(t, 8)

	type inserted struct {
		key string
		id  uint64
	}
	var all []inserted

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("string-%d", i)
		buf := []byte(key)
		hash := fnvHash(buf)
		id, err := h.CreateOrGetID(buf, len(buf), hash)
		if err != nil {
			t.Fatalf("CreateOrGetID(%s): %v", key, err)
		}
		all = append(all, inserted{key: key, id: id})
	}

	for _, e := range all {
		buf := []byte(e.key)
		hash := fnvHash(buf)
		got, err := h.GetID(buf, len(buf), hash)
		if err != nil {
			t.Fatalf("GetID(%s): %v", e.key, err)
		}
		if got != e.id {
			t.Fatalf("GetID(%s) = %d, want %d", e.key, got, e.id)
		}
	}

	if h.globalDepth == 0 {
		t.Fatalf("directory never grew past a single bucket across 1000 inserts")
	}
}

// TestConcurrentLookupsAfterBulkLoad loads a batch of strings serially
// (CreateOrGetID mutates the directory and is not safe for concurrent
// callers, matching the single-writer assumption the rest of this
// module makes), then fans out concurrent GetID lookups through an
// errgroup.Group the way a read-heavy workload would drive the hash
// once loaded.
func TestConcurrentLookupsAfterBulkLoad(t *testing.T) {
	h := newHashForTest(t, 8)

	const n = 200
	keys := make([]string, n)
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("bulk-%d", i)
		buf := []byte(key)
		id, err := h.CreateOrGetID(buf, len(buf), fnvHash(buf))
		if err != nil {
			t.Fatalf("CreateOrGetID(%s): %v", key, err)
		}
		keys[i] = key
		ids[i] = id
	}

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			buf := []byte(keys[i])
			got, err := h.GetID(buf, len(buf), fnvHash(buf))
			if err != nil {
				return fmt.Errorf("GetID(%s): %w", keys[i], err)
			}
			if got != ids[i] {
				return fmt.Errorf("GetID(%s) = %d, want %d", keys[i], got, ids[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestReconstructIDRoundTrip(t *testing.T) {
	ids := []uint64{0, 1, 0xFFF00000001, 0xABC12345678}
	for _, id := range ids {
		id &= (1 << 44) - 1
		arr1, arr2 := splitID(id)
		got := reconstructID(arr1, arr2)
		if got != id {
			t.Fatalf("splitID/reconstructID round trip: got %d, want %d", got, id)
		}
	}
}

func TestBucketHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	putBucketHeader(buf, 7, 3)
	count, depth := bucketHeader(buf)
	if count != 7 || depth != 3 {
		t.Fatalf("bucketHeader roundtrip = (%d, %d), want (7, 3)", count, depth)
	}
}
