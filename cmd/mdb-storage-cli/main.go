// Command mdb-storage-cli opens a storage core against an existing
// database directory and keeps it running until interrupted. It is the
// bundled collaborator the engine package expects to be constructed by
// (spec §6 "CLI surface"): a thin flag-to-Config translation, nothing
// more.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/c2h5oh/datasize"

	"github.com/mlmdb/storagecore/engine"
)

type cli struct {
	Database string `arg:"" type:"existingdir" help:"Path to an existing database directory."`

	Timeout           int               `help:"Session timeout in seconds [1,36000]." default:"60"`
	LoadStrings       datasize.ByteSize `help:"Bulk string-load working set size [1MiB,1TiB]." default:"2GB"`
	VersionedBuffer   datasize.ByteSize `help:"Versioned page pool size." default:"1GB"`
	PrivateBuffer     datasize.ByteSize `help:"Per-worker private page pool size." default:"64MB"`
	UnversionedBuffer datasize.ByteSize `help:"Unversioned page pool size." default:"128MB"`
	Workers           int               `help:"Number of worker partitions for the private page pool." default:"1"`
}

func (c *cli) Validate() error {
	if c.Timeout < 1 || c.Timeout > 36000 {
		return fmt.Errorf("--timeout must be within [1, 36000], got %d", c.Timeout)
	}
	const mib = 1 << 20
	const tib = 1 << 40
	if b := uint64(c.LoadStrings.Bytes()); b < mib || b > tib {
		return fmt.Errorf("--load-strings must be within [1MiB, 1TiB], got %s", c.LoadStrings)
	}
	if c.Workers < 1 {
		return fmt.Errorf("--workers must be positive, got %d", c.Workers)
	}
	return nil
}

func (c *cli) toConfig() engine.Config {
	timeout := uint64(c.Timeout)
	return engine.Config{
		Dir:                  c.Database,
		VPPoolBytes:          uint64(c.VersionedBuffer.Bytes()),
		UPPoolBytes:          uint64(c.UnversionedBuffer.Bytes()),
		PPPoolBytesPerWorker: uint64(c.PrivateBuffer.Bytes()),
		Workers:              c.Workers,
		LoadStringsBytes:     uint64(c.LoadStrings.Bytes()),
		Timeout:              &timeout,
	}
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Description("Run the MillenniumDB-style storage core against an existing database directory."),
		kong.UsageOnError(),
	)

	e, err := engine.New(c.toConfig())
	kctx.FatalIfErrorf(err)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	kctx.FatalIfErrorf(e.Close())
}
