// Package store implements the client-local persistent key-value store.
//
// Entries are plain string keys and values, no schema versioning, held in a
// single JSON file. Writes are atomic (temp file + rename) so a concurrent
// reader never observes a torn file. Watch surfaces changes made by other
// processes, mirroring the storage-change notification browsers give tabs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/prode/pkg/logger"
)

// Well-known keys shared by the token store and score cache.
const (
	KeyToken = "token"
	KeyScore = "score"
	KeyYear  = "year"
)

const storeFileMode = 0o600

// Store is a file-backed string key-value store.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
	log    logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open loads the store file at path, creating parent directories as needed.
// A missing file is an empty store, not an error.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]string),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and persists the store.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persist()
}

// Delete removes key and persists the store. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.persist()
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Watch reports external changes to the backing file. Each signal on the
// returned channel means the in-memory snapshot was reloaded from disk.
// The channel closes when ctx is canceled.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatchStore, err)
	}
	// Watch the directory: atomic writes replace the file by rename, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("%w: %w", ErrWatchStore, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()
		base := filepath.Base(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
					continue
				}
				s.mu.Lock()
				changed, err := s.reloadLocked()
				s.mu.Unlock()
				if err != nil {
					s.log.Warn(ctx, "store reload after external change failed", logger.Error(err))
					continue
				}
				// This process's own atomic writes raise directory events
				// too; the snapshot is already current then, so only a
				// reload that changed something is worth reporting.
				if !changed {
					continue
				}
				// Coalesce: a pending signal is enough.
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn(ctx, "store watcher error", logger.Error(err))
			}
		}
	}()
	return changes, nil
}

func (s *Store) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.reloadLocked()
	return err
}

// reloadLocked replaces the snapshot from disk and reports whether any
// value actually differed. Callers hold s.mu.
func (s *Store) reloadLocked() (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		changed := len(s.values) > 0
		s.values = make(map[string]string)
		return changed, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return false, fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}
	changed := !maps.Equal(s.values, values)
	s.values = values
	return changed, nil
}

// persist writes the whole map atomically. Callers hold s.mu.
func (s *Store) persist() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistStore, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, storeFileMode); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistStore, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistStore, err)
	}
	return nil
}
