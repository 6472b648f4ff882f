// Package linker maintains the per-workspace mirror: .ctxlayer/<domain>/<task>
// symlinks that point into the central store.
package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
	"github.com/kingrea/ctxlayer/internal/store"
)

// Link describes one mirror entry.
type Link struct {
	Domain string
	Task   string
	Path   string
	Target string
	// Broken is set when the target no longer resolves.
	Broken bool
}

// Linker creates and prunes mirror entries under localRoot.
type Linker struct {
	localRoot string
	storeRoot string
}

// New builds a Linker. localRoot is <workdir>/.ctxlayer and storeRoot is the
// domain store the links point into.
func New(localRoot, storeRoot string) *Linker {
	return &Linker{localRoot: localRoot, storeRoot: storeRoot}
}

// DomainDir returns the local directory for a domain.
func (l *Linker) DomainDir(domain string) string {
	return filepath.Join(l.localRoot, domain)
}

// LinkPath returns the location of a task's mirror link.
func (l *Linker) LinkPath(domain, task string) string {
	return filepath.Join(l.localRoot, domain, task)
}

// EnsureTaskLink creates the mirror link for a task unless an entry already
// occupies its path. Existing entries, including broken links, are left
// alone. It reports whether a link was created.
func (l *Linker) EnsureTaskLink(domain, task string) (bool, error) {
	if task == "" {
		return false, nil
	}
	if err := validPair(domain, task); err != nil {
		return false, err
	}
	dir := l.DomainDir(domain)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("linker: ensure %s: %w", dir, err)
	}
	linkPath := l.LinkPath(domain, task)
	if _, err := os.Lstat(linkPath); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("linker: stat %s: %w", linkPath, err)
	}
	target, err := filepath.Abs(filepath.Join(l.storeRoot, domain, task))
	if err != nil {
		return false, fmt.Errorf("linker: resolve target for %s/%s: %w", domain, task, err)
	}
	if err := os.Symlink(target, linkPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("linker: link %s -> %s: %w", linkPath, target, err)
	}
	return true, nil
}

// ListLocalDomains returns the domain directories present in the mirror,
// skipping dot-directories.
// A missing local root yields an empty list.
func (l *Linker) ListLocalDomains() ([]string, error) {
	entries, err := os.ReadDir(l.localRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("linker: list %s: %w", l.localRoot, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// ListLinks returns the mirror entries of one local domain.
func (l *Linker) ListLinks(domain string) ([]Link, error) {
	if err := store.ValidateName(domain); err != nil {
		return nil, err
	}
	dir := l.DomainDir(domain)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: local domain %q", ctxerr.ErrNotFound, domain)
		}
		return nil, fmt.Errorf("linker: list %s: %w", dir, err)
	}
	links := make([]Link, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		link := Link{Domain: domain, Task: entry.Name(), Path: path}
		if entry.Type()&fs.ModeSymlink != 0 {
			link.Target, _ = os.Readlink(path)
		}
		if _, err := os.Stat(path); err != nil {
			link.Broken = true
		}
		links = append(links, link)
	}
	return links, nil
}

// HasTaskLink reports whether a mirror entry exists for the task.
func (l *Linker) HasTaskLink(domain, task string) bool {
	if validPair(domain, task) != nil {
		return false
	}
	_, err := os.Lstat(l.LinkPath(domain, task))
	return err == nil
}

// HasDomainDir reports whether the mirror holds a directory for domain.
func (l *Linker) HasDomainDir(domain string) bool {
	if store.ValidateName(domain) != nil {
		return false
	}
	info, err := os.Lstat(l.DomainDir(domain))
	return err == nil && info.IsDir()
}

// DropTaskLink removes one mirror link and prunes its domain directory if
// that leaves it empty.
func (l *Linker) DropTaskLink(domain, task string) error {
	if err := validPair(domain, task); err != nil {
		return err
	}
	linkPath := l.LinkPath(domain, task)
	if _, err := os.Lstat(linkPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: link %s/%s", ctxerr.ErrNotFound, domain, task)
		}
		return fmt.Errorf("linker: stat %s: %w", linkPath, err)
	}
	// os.Remove unlinks without following; a non-empty real directory fails.
	if err := os.Remove(linkPath); err != nil {
		return fmt.Errorf("linker: remove %s: %w", linkPath, err)
	}
	return l.pruneDomainDir(domain)
}

// DropDomainDir removes a local domain directory with all of its links. The
// store is never touched: links are removed, not followed.
func (l *Linker) DropDomainDir(domain string) error {
	if err := store.ValidateName(domain); err != nil {
		return err
	}
	if !l.HasDomainDir(domain) {
		return fmt.Errorf("%w: local domain %q", ctxerr.ErrNotFound, domain)
	}
	dir := l.DomainDir(domain)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("linker: remove %s: %w", dir, err)
	}
	return nil
}

func (l *Linker) pruneDomainDir(domain string) error {
	dir := l.DomainDir(domain)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("linker: list %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return nil
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("linker: prune %s: %w", dir, err)
	}
	return nil
}

// validPair keeps every mirror path one directory below localRoot.
func validPair(domain, task string) error {
	if err := store.ValidateName(domain); err != nil {
		return err
	}
	return store.ValidateName(task)
}
