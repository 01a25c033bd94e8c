// Package store persists queue snapshots for the download manager.
package store

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/warpdl/warptube/pkg/logger"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var ErrCorruptSnapshot = errors.New("queue snapshot is corrupt")

// Store is a tubelib.Store that holds resources until closed.
type Store interface {
	tubelib.Store
	io.Closer
}

// Open returns the backend named kind rooted at dir.
func Open(kind, dir string, l logger.Logger) (Store, error) {
	switch kind {
	case "", BackendFile:
		return NewFileStore(afero.NewOsFs(), filepath.Join(dir, "queue.gob"), l), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "queue.db"))
	}
	return nil, fmt.Errorf("unknown store backend %q", kind)
}
