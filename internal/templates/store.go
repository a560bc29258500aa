package templates

import (
	"log/slog"
	"sync/atomic"
)

// Store holds the current template library and swaps it atomically on reload.
type Store struct {
	dir    string
	logger *slog.Logger
	lib    atomic.Pointer[Library]
}

// NewStore loads dir and returns a Store serving it.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lib, err := Load(dir, logger)
	if err != nil {
		return nil, err
	}

	s := &Store{dir: dir, logger: logger}
	s.lib.Store(lib)
	return s, nil
}

// StaticStore wraps an already-built library. Reload on a static store
// re-reads the library's own directory.
func StaticStore(lib *Library) *Store {
	s := &Store{dir: lib.Dir(), logger: slog.Default()}
	s.lib.Store(lib)
	return s
}

// Library returns the current library snapshot.
func (s *Store) Library() *Library {
	return s.lib.Load()
}

// Reload re-reads the template directory. On failure the previous library
// stays in place and the error is returned.
func (s *Store) Reload() error {
	lib, err := Load(s.dir, s.logger)
	if err != nil {
		return err
	}

	prev := s.lib.Swap(lib)
	s.logger.Info("templates reloaded", "dir", s.dir, "count", lib.Len(), "previous", prev.Len())
	return nil
}
