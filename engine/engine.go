package engine

import (
	"log/slog"
	"os"

	"github.com/mlmdb/storagecore/filemgr"
	"github.com/mlmdb/storagecore/ppool"
	"github.com/mlmdb/storagecore/upool"
	"github.com/mlmdb/storagecore/version"
	"github.com/mlmdb/storagecore/vpool"
)

// Engine is one running storage core: the File Manager, the three
// pools, the version registry, and the catalog's declared model.
type Engine struct {
	cfg   Config
	log   *slog.Logger
	Model ModelID

	Files    *filemgr.Manager
	Versions *version.Registry
	VP       *vpool.Pool
	UP       *upool.Pool
	PP       *ppool.Pool

	metrics *metricsSet
}

// New validates cfg, opens the database directory's File Manager, reads
// its catalog model, and wires up every pool. Any failure here is
// fatal per spec §6/§7.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logConfig(log, cfg)

	model, err := readCatalogModel(cfg.Dir)
	if err != nil {
		log.Error("failed to read catalog", "err", err)
		return nil, err
	}
	log.Info("catalog model identified", "model", model.String())

	files := filemgr.New(cfg.Dir)
	reg := version.NewRegistry()

	metrics := newMetricsSet()

	e := &Engine{
		cfg:      cfg,
		log:      log,
		Model:    model,
		Files:    files,
		Versions: reg,
		VP:       vpool.New(files, reg, cfg.VPSlots()),
		UP:       upool.New(files, cfg.UPSlots()),
		PP:       ppool.New(cfg.Workers, cfg.PPSlotsPerWorker()),
		metrics:  metrics,
	}
	return e, nil
}

// StartReadOnly opens a read-only VersionScope against the engine's
// running version registry.
func (e *Engine) StartReadOnly() *version.Scope {
	e.metrics.scopesStarted.WithLabelValues("readonly").Inc()
	return e.Versions.StartReadOnly()
}

// StartEditable opens an editable VersionScope, blocking until any
// other editable scope has closed (spec §5 single-writer invariant).
func (e *Engine) StartEditable() *version.Scope {
	e.metrics.scopesStarted.WithLabelValues("editable").Inc()
	return e.Versions.StartEditable()
}

// Close flushes every pool to disk and closes the File Manager. Called
// on clean shutdown; spec §9 notes there is no write-ahead log, so a
// crash between a scope's close and this call can still lose the
// scope's writes.
func (e *Engine) Close() error {
	e.log.Info("shutting down storage core")

	if err := e.VP.Flush(); err != nil {
		e.log.Error("vp flush failed", "err", err)
		return err
	}
	if err := e.UP.Flush(); err != nil {
		e.log.Error("up flush failed", "err", err)
		return err
	}
	if err := e.PP.Flush(); err != nil {
		e.log.Error("pp flush failed", "err", err)
		return err
	}
	if err := e.Files.Close(); err != nil {
		e.log.Error("file manager close failed", "err", err)
		return err
	}
	return nil
}
