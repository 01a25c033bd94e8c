package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/warpdl/warptube/pkg/logger"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// FileStore keeps the snapshot gob-encoded in one file. Saves go through
// a temporary file and a rename so a crash never leaves a torn snapshot.
type FileStore struct {
	fs   afero.Fs
	path string
	log  logger.Logger
	mu   sync.Mutex
}

func NewFileStore(fsys afero.Fs, path string, l logger.Logger) *FileStore {
	return &FileStore{fs: fsys, path: path, log: logger.OrNop(l)}
}

func (s *FileStore) Save(snap *tubelib.Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Load returns nil, nil when nothing was saved yet. A file that does not
// decode is moved aside to <path>.corrupt and reported.
func (s *FileStore) Load() (*tubelib.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var snap tubelib.Snapshot
	if decErr := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); decErr != nil {
		if decErr == io.EOF {
			return nil, nil
		}
		aside := s.path + ".corrupt"
		if err := s.fs.Rename(s.path, aside); err != nil {
			s.log.Warning("store: could not move corrupt snapshot aside: %v", err)
		} else {
			s.log.Warning("store: corrupt snapshot moved to %s", aside)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, decErr)
	}
	return &snap, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
