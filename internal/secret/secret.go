// Package secret manages the bearer token guarding the daemon's RPC
// endpoint. The token comes from the environment, the OS keyring, or a
// 0600 file in the config directory, in that order.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

const (
	Service  = "warptube"
	Account  = "rpc-secret"
	FileName = "rpc.secret"

	fileMode = 0o600
)

// Source tells where a secret came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
	SourceFile    Source = "file"
)

var ErrNoSecret = errors.New("no rpc secret configured; start the daemon first or set WARPTUBE_RPC_SECRET")

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

// Store resolves and persists the secret.
type Store struct {
	fs  afero.Fs
	dir string
}

// New returns a Store keeping its fallback file under dir.
func New(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

func (s *Store) path() string { return filepath.Join(s.dir, FileName) }

// Load returns an existing secret without creating one.
func (s *Store) Load(env string) (string, Source, error) {
	if env = strings.TrimSpace(env); env != "" {
		return env, SourceEnv, nil
	}
	if v, err := keyringGet(Service, Account); err == nil && v != "" {
		return v, SourceKeyring, nil
	}
	data, err := afero.ReadFile(s.fs, s.path())
	if err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			return v, SourceFile, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("read secret file: %w", err)
	}
	return "", "", ErrNoSecret
}

// Ensure is Load that generates and stores a fresh secret when none
// exists, preferring the keyring over the file.
func (s *Store) Ensure(env string) (string, Source, error) {
	v, src, err := s.Load(env)
	if !errors.Is(err, ErrNoSecret) {
		return v, src, err
	}
	v, err = Generate()
	if err != nil {
		return "", "", err
	}
	if err := keyringSet(Service, Account, v); err == nil {
		return v, SourceKeyring, nil
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create config dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path(), []byte(v), fileMode); err != nil {
		return "", "", fmt.Errorf("write secret file: %w", err)
	}
	return v, SourceFile, nil
}

// Reset forgets the stored secret in both the keyring and the file.
func (s *Store) Reset() error {
	kerr := keyringDelete(Service, Account)
	if errors.Is(kerr, keyring.ErrNotFound) {
		kerr = nil
	}
	ferr := s.fs.Remove(s.path())
	if errors.Is(ferr, os.ErrNotExist) {
		ferr = nil
	}
	return errors.Join(kerr, ferr)
}

// Generate returns 32 random bytes, hex encoded.
func Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
