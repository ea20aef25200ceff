// Package queue implements a bounded, insertion-ordered queue of screenshot
// files that owns its backing directory.
package queue

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
)

// DefaultCapacity is the number of screenshots each queue keeps.
const DefaultCapacity = 5

// Store holds at most capacity references; adding past that evicts the oldest
// and deletes its file.
type Store struct {
	name     string
	dir      string
	capacity int
	metrics  *metrics.Metrics

	mu   sync.Mutex
	refs []string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(name, dir string, capacity int, m *metrics.Metrics) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodePersistenceFailed, "failed to create %s directory", name)
	}
	return &Store{
		name:     name,
		dir:      dir,
		capacity: capacity,
		metrics:  m,
		refs:     make([]string, 0, capacity+1),
	}, nil
}

func (s *Store) Name() string  { return s.name }
func (s *Store) Dir() string   { return s.dir }
func (s *Store) Capacity() int { return s.capacity }

// Add writes data as a new uniquely named PNG and appends it. A write failure
// leaves the queue untouched. Evicted references have already been deleted
// from disk (best effort) when Add returns.
func (s *Store) Add(data []byte) (string, []string, error) {
	path := filepath.Join(s.dir, "screenshot-"+uuid.NewString()+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.CodePersistenceFailed, "failed to save screenshot").
			WithMetadata("queue", s.name)
	}

	s.mu.Lock()
	s.refs = append(s.refs, path)
	var evicted []string
	if over := len(s.refs) - s.capacity; over > 0 {
		evicted = slices.Clone(s.refs[:over])
		s.refs = slices.Delete(s.refs, 0, over)
	}
	n := len(s.refs)
	s.mu.Unlock()

	for _, old := range evicted {
		if err := removeFile(old); err != nil {
			slog.Error("failed to remove evicted screenshot", "queue", s.name, "path", old, "error", err)
			continue
		}
		slog.Debug("evicted screenshot", "queue", s.name, "path", old)
	}
	s.metrics.Evicted(s.name, len(evicted))
	s.metrics.SetQueueLength(s.name, n)
	return path, evicted, nil
}

// List returns a snapshot of references, oldest first.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.refs)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// Contains reports whether path is held by this queue.
func (s *Store) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.refs, path)
}

// Last returns the newest reference.
func (s *Store) Last() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.refs) == 0 {
		return "", false
	}
	return s.refs[len(s.refs)-1], true
}

// Owns reports whether path lives directly inside this queue's directory,
// whether or not it is currently referenced.
func (s *Store) Owns(path string) bool {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && !strings.Contains(rel, string(filepath.Separator)) && !strings.HasPrefix(rel, "..")
}

// Delete removes path's file (a missing file is fine) and then its reference.
// If the file cannot be removed the queue is left unchanged.
func (s *Store) Delete(path string) error {
	if err := removeFile(path); err != nil {
		return apperrors.Wrap(err, apperrors.CodePersistenceFailed, "failed to delete screenshot").
			WithMetadata("queue", s.name)
	}

	s.mu.Lock()
	s.refs = slices.DeleteFunc(s.refs, func(p string) bool { return p == path })
	n := len(s.refs)
	s.mu.Unlock()

	s.metrics.SetQueueLength(s.name, n)
	return nil
}

// Clear deletes every referenced file (best effort) and empties the queue.
func (s *Store) Clear() int {
	s.mu.Lock()
	refs := s.refs
	s.refs = make([]string, 0, s.capacity+1)
	s.mu.Unlock()

	for _, path := range refs {
		if err := removeFile(path); err != nil {
			slog.Error("failed to delete screenshot", "queue", s.name, "path", path, "error", err)
		}
	}
	s.metrics.SetQueueLength(s.name, 0)
	return len(refs)
}

// Purge removes every .png left in the directory, e.g. after a crash, and
// empties the queue.
func (s *Store) Purge() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.CodePersistenceFailed, "failed to list %s directory", s.name)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := removeFile(path); err != nil {
			slog.Error("failed to delete stale screenshot", "queue", s.name, "path", path, "error", err)
			continue
		}
		removed++
	}

	s.mu.Lock()
	s.refs = s.refs[:0]
	s.mu.Unlock()
	s.metrics.SetQueueLength(s.name, 0)
	return removed, nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
