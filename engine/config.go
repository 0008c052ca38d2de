// Package engine wires the pools, the File Manager, and the running
// version registry into one storage core, reads the catalog's model
// identifier, and exposes the Config/New surface the CLI binds to
// (spec §6). Constructor-time validation follows
// hmarui66-blink-tree-go's NewBufMgr: reject bad sizing up front with
// a descriptive error rather than letting a later operation fail
// obscurely.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/devlights/gomy/ptr"

	"github.com/mlmdb/storagecore/pageid"
)

// FatalError marks a condition spec §7 requires the process to treat
// as unrecoverable: bad configuration, a corrupted catalog, or a
// propagated pool/file-manager fatal error.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("engine: %s: %v", e.Op, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// Config configures one storage core instance (spec §6 "Configuration
// struct for Buffer Manager initialization"). All *Bytes fields must be
// positive multiples of pageid.PageSize.
type Config struct {
	Dir string

	VPPoolBytes          uint64
	UPPoolBytes          uint64
	PPPoolBytesPerWorker uint64
	Workers              int

	// LoadStringsBytes bounds the bulk string-load working set (CLI
	// --load-strings); the engine does not itself enforce it, it is
	// surfaced for callers that implement bulk loading on top.
	LoadStringsBytes uint64

	// Timeout is optional: a nil value means the caller's default
	// applies (see TimeoutOrDefault, which reads it through
	// devlights/gomy's ptr.Deref). The CLI always sets it from --timeout.
	Timeout *uint64
}

// Validate rejects a Config that would make the pools impossible to
// size, per spec §6 ("constructor fails fatal otherwise").
func (c Config) Validate() error {
	if c.Dir == "" {
		return &FatalError{Op: "validate config", Err: fmt.Errorf("database directory is required")}
	}
	for name, v := range map[string]uint64{
		"vp_pool_bytes":            c.VPPoolBytes,
		"up_pool_bytes":            c.UPPoolBytes,
		"pp_pool_bytes_per_worker": c.PPPoolBytesPerWorker,
	} {
		if v == 0 || v%pageid.PageSize != 0 {
			return &FatalError{Op: "validate config", Err: fmt.Errorf("%s must be a positive multiple of %d, got %d", name, pageid.PageSize, v)}
		}
	}
	if c.Workers <= 0 {
		return &FatalError{Op: "validate config", Err: fmt.Errorf("workers must be positive, got %d", c.Workers)}
	}
	return nil
}

// VPSlots returns the number of fixed VP pool slots this config
// implies.
func (c Config) VPSlots() int { return int(c.VPPoolBytes / pageid.PageSize) }

// UPSlots returns the number of fixed UP pool slots this config
// implies.
func (c Config) UPSlots() int { return int(c.UPPoolBytes / pageid.PageSize) }

// PPSlotsPerWorker returns the number of fixed PP slots per worker
// partition this config implies.
func (c Config) PPSlotsPerWorker() int { return int(c.PPPoolBytesPerWorker / pageid.PageSize) }

// TimeoutOrDefault returns the configured timeout, or def if the user
// never set one.
func (c Config) TimeoutOrDefault(def uint64) uint64 {
	return ptr.Deref(c.Timeout, def)
}

func logConfig(log *slog.Logger, c Config) {
	log.Info("storage core configuration",
		"dir", c.Dir,
		"vp_slots", c.VPSlots(),
		"up_slots", c.UPSlots(),
		"pp_slots_per_worker", c.PPSlotsPerWorker(),
		"workers", c.Workers,
	)
}
