package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store persists an opaque settings blob.
// Load returns (nil, nil) when nothing has been stored yet.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore keeps the record in a single file.
type FileStore struct {
	Path string
}

// Load reads the record file.
func (f *FileStore) Load() ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", f.Path, err)
	}
	return b, nil
}

// Save replaces the record file atomically.
func (f *FileStore) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o750); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("settings: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("settings: rename %s: %w", tmp, err)
	}
	return nil
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu    sync.Mutex
	data  []byte
	Saves int
}

// Load returns a copy of the stored blob.
func (m *MemStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

// Save stores a copy of data.
func (m *MemStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.Saves++
	return nil
}

// Load reads and validates the stored record. Missing or invalid records are
// replaced with Defaults, which are written back. The returned settings are
// always usable; the error only reports a failed write-back.
func Load(st Store, logger *slog.Logger) (RuntimeSettings, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b, err := st.Load()
	if err != nil {
		logger.Warn("settings load failed, using defaults", "error", err)
	}
	var s RuntimeSettings
	if b != nil {
		uerr := s.UnmarshalBinary(b)
		if uerr == nil {
			return s, nil
		}
		logger.Warn("stored settings rejected, resetting to defaults", "error", uerr)
	} else if err == nil {
		logger.Info("no stored settings, writing defaults")
	}

	s = Defaults()
	if err := Save(st, s); err != nil {
		return s, err
	}
	return s, nil
}

// Save validates and persists s.
func Save(st Store, s RuntimeSettings) error {
	b, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	return st.Save(b)
}
