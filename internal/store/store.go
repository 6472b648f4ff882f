// Package store manages the central collection of domains and their tasks
// under <home>/domains.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
	"github.com/kingrea/ctxlayer/internal/gitio"
)

// Domain is a top-level container of tasks.
type Domain struct {
	Name string
	Path string
}

// Task is a unit of work nested under a domain.
type Task struct {
	Name   string
	Domain string
	Path   string
}

// Origin describes how a new domain is populated. An empty CloneURL means
// the domain is created from scratch.
type Origin struct {
	CloneURL string
	// InitRepo turns a scratch domain into an empty repository.
	InitRepo bool
}

// Store is the authoritative domain store.
type Store struct {
	root string
	git  gitio.Runner
}

// New builds a Store rooted at root. git may be nil when no domain will be
// created through this Store.
func New(root string, git gitio.Runner) *Store {
	return &Store{root: root, git: git}
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// DomainPath returns store_root/name.
func (s *Store) DomainPath(name string) string {
	return filepath.Join(s.root, name)
}

// TaskPath returns store_root/domain/task.
func (s *Store) TaskPath(domain, task string) string {
	return filepath.Join(s.root, domain, task)
}

// EnsureRoot creates the store root when absent.
func (s *Store) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("store: ensure root %s: %w", s.root, err)
	}
	return nil
}

// List returns the names of all domains in directory order.
func (s *Store) List() ([]string, error) {
	names, err := subdirs(s.root, false)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ctxerr.ErrStoreRootMissing, s.root)
		}
		return nil, fmt.Errorf("store: list %s: %w", s.root, err)
	}
	return names, nil
}

// Exists reports whether a domain directory is present.
func (s *Store) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	return isDir(s.DomainPath(name))
}

// TaskExists reports whether a task directory is present.
func (s *Store) TaskExists(domain, task string) bool {
	if ValidateName(domain) != nil || ValidateName(task) != nil {
		return false
	}
	return isDir(s.TaskPath(domain, task))
}

// Create makes a new domain directory and populates it according to origin.
// The directory is created exclusively, so a concurrent creator loses with
// ErrAlreadyExists rather than sharing the slot. If cloning or initializing
// fails the directory is removed again.
func (s *Store) Create(ctx context.Context, name string, origin Origin) (Domain, error) {
	if err := ValidateName(name); err != nil {
		return Domain{}, err
	}
	if err := s.EnsureRoot(); err != nil {
		return Domain{}, err
	}
	path := s.DomainPath(name)
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Domain{}, fmt.Errorf("%w: domain %q", ctxerr.ErrAlreadyExists, name)
		}
		return Domain{}, fmt.Errorf("store: create %s: %w", path, err)
	}
	if err := s.populate(ctx, path, origin); err != nil {
		// The slot was ours alone; leave no half-populated domain behind.
		_ = os.RemoveAll(path)
		return Domain{}, err
	}
	return Domain{Name: name, Path: path}, nil
}

func (s *Store) populate(ctx context.Context, path string, origin Origin) error {
	switch {
	case origin.CloneURL != "":
		if s.git == nil {
			return fmt.Errorf("store: clone %s: no git runner configured", origin.CloneURL)
		}
		return s.git.Clone(ctx, origin.CloneURL, path)
	case origin.InitRepo:
		if s.git == nil {
			return fmt.Errorf("store: init %s: no git runner configured", path)
		}
		return s.git.Init(ctx, path)
	}
	return nil
}

// Delete removes a domain and everything beneath it.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	path := s.DomainPath(name)
	if !isDir(path) {
		return fmt.Errorf("%w: domain %q in %s", ctxerr.ErrNotFound, name, s.root)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("store: delete %s: %w", path, err)
	}
	return nil
}

// ListTasks returns the task names of a domain, skipping dot-directories
// such as .git.
func (s *Store) ListTasks(domain string) ([]string, error) {
	if err := ValidateName(domain); err != nil {
		return nil, err
	}
	path := s.DomainPath(domain)
	names, err := subdirs(path, true)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: domain %q", ctxerr.ErrNotFound, domain)
		}
		return nil, fmt.Errorf("store: list tasks %s: %w", path, err)
	}
	return names, nil
}

// DeleteTask removes a task directory from the store.
func (s *Store) DeleteTask(domain, task string) error {
	if err := ValidateName(domain); err != nil {
		return err
	}
	if err := ValidateName(task); err != nil {
		return err
	}
	path := s.TaskPath(domain, task)
	if !isDir(path) {
		return fmt.Errorf("%w: task %q in domain %q", ctxerr.ErrNotFound, task, domain)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("store: delete %s: %w", path, err)
	}
	return nil
}

// ValidateName rejects names that are empty or would escape their parent
// directory.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ctxerr.ErrEmptyName
	}
	if name != strings.TrimSpace(name) ||
		strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ctxerr.ErrInvalidName, name)
	}
	return nil
}

func subdirs(dir string, skipHidden bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if skipHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
