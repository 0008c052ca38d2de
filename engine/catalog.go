package engine

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ModelID identifies which data model a catalog.dat belongs to (spec
// §6).
type ModelID uint64

const (
	QuadModelID ModelID = 1
	RDFModelID  ModelID = 2
)

func (m ModelID) String() string {
	switch m {
	case QuadModelID:
		return "quad"
	case RDFModelID:
		return "rdf"
	default:
		return fmt.Sprintf("unknown(%d)", uint64(m))
	}
}

// readCatalogModel reads catalog.dat's first 8 bytes (little-endian)
// and returns the model they identify. An unknown or corrupted id is
// fatal, per spec §6: "Corruption or unknown id is fatal with message
// 'Unknown model identifier'."
func readCatalogModel(dir string) (ModelID, error) {
	f, err := os.Open(filepath.Join(dir, "catalog.dat"))
	if err != nil {
		return 0, &FatalError{Op: "open catalog", Err: err}
	}
	defer f.Close()

	var buf [8]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return 0, &FatalError{Op: "read catalog", Err: err}
	}

	id := ModelID(binary.LittleEndian.Uint64(buf[:]))
	switch id {
	case QuadModelID, RDFModelID:
		return id, nil
	default:
		return 0, &FatalError{Op: "read catalog", Err: fmt.Errorf("Unknown model identifier")}
	}
}
