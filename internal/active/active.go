// Package active persists the workspace's focused (domain, task) pair in
// .ctxlayer/config.yaml and keeps the local folder out of version control.
package active

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kingrea/ctxlayer/internal/config"
	"github.com/kingrea/ctxlayer/internal/ctxerr"
)

var (
	domainLine = regexp.MustCompile(`(?m)^active-domain:[ \t]*(.*)$`)
	taskLine   = regexp.MustCompile(`(?m)^active-task:[ \t]*(.*)$`)
)

// Selection is the focused pair. Task is only meaningful alongside Domain.
type Selection struct {
	Domain string
	Task   string
}

// IsComplete reports whether both a domain and a task are set.
func (s Selection) IsComplete() bool {
	return s.Domain != "" && s.Task != ""
}

// Parse extracts a Selection from config file contents. Keys may appear in
// any order; the first non-empty value of each is used.
func Parse(data []byte) Selection {
	sel := Selection{
		Domain: firstValue(domainLine, data),
		Task:   firstValue(taskLine, data),
	}
	if sel.Domain == "" {
		sel.Task = ""
	}
	return sel
}

func firstValue(line *regexp.Regexp, data []byte) string {
	for _, m := range line.FindAllSubmatch(data, -1) {
		if v := strings.TrimSpace(string(m[1])); v != "" {
			return v
		}
	}
	return ""
}

// Format renders a Selection in the on-disk line format.
func Format(sel Selection) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "active-domain: %s\n", sel.Domain)
	if sel.Task != "" {
		fmt.Fprintf(&b, "active-task: %s\n", sel.Task)
	}
	return []byte(b.String())
}

// Store reads and writes the active selection for one workspace.
type Store struct {
	localDir    string
	path        string
	ignorePath  string
	ignoreEntry string
}

// NewStore builds a Store for the workspace described by cfg.
func NewStore(cfg *config.Config) *Store {
	return &Store{
		localDir:    cfg.LocalDir(),
		path:        cfg.ActiveConfigPath(),
		ignorePath:  cfg.IgnorePath(),
		ignoreEntry: cfg.IgnoreEntry(),
	}
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// Read returns the persisted selection. It fails with ErrMissingConfig when
// the file is absent and ErrMissingActiveDomain when no domain is recorded.
func (s *Store) Read() (Selection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Selection{}, ctxerr.ErrMissingConfig
		}
		return Selection{}, fmt.Errorf("active: read %s: %w", s.path, err)
	}
	sel := Parse(data)
	if sel.Domain == "" {
		return Selection{}, fmt.Errorf("%w in %s", ctxerr.ErrMissingActiveDomain, s.path)
	}
	return sel, nil
}

// ReadOptional is Read for flows that recover by prompting: a missing file
// or missing domain yields ok == false rather than an error.
func (s *Store) ReadOptional() (sel Selection, ok bool, err error) {
	sel, err = s.Read()
	switch {
	case err == nil:
		return sel, true, nil
	case errors.Is(err, ctxerr.ErrMissingConfig), errors.Is(err, ctxerr.ErrMissingActiveDomain):
		return Selection{}, false, nil
	default:
		return Selection{}, false, err
	}
}

// Write overwrites the config file with the given pair.
func (s *Store) Write(domain, task string) error {
	if err := os.MkdirAll(s.localDir, 0o755); err != nil {
		return fmt.Errorf("active: ensure %s: %w", s.localDir, err)
	}
	data := Format(Selection{Domain: domain, Task: task})
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("active: write %s: %w", s.path, err)
	}
	return nil
}

// Setup records domain as active with no task and makes sure the local
// folder is ignored. Used right after a domain is created or chosen.
func (s *Store) Setup(domain string) error {
	if err := s.Write(domain, ""); err != nil {
		return err
	}
	return s.EnsureIgnored()
}

// EnsureInitialized creates the local folder and an empty config file when
// missing, then ensures the ignore rule. Safe to call repeatedly.
func (s *Store) EnsureInitialized() error {
	if err := os.MkdirAll(s.localDir, 0o755); err != nil {
		return fmt.Errorf("active: ensure %s: %w", s.localDir, err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	switch {
	case err == nil:
		if cerr := f.Close(); cerr != nil {
			return fmt.Errorf("active: create %s: %w", s.path, cerr)
		}
	case errors.Is(err, fs.ErrExist):
	default:
		return fmt.Errorf("active: create %s: %w", s.path, err)
	}
	return s.EnsureIgnored()
}

// EnsureIgnored appends the local folder to the ignore file unless an
// equivalent entry is already present. Nothing happens when the ignore
// file's directory does not exist (e.g. .git/info outside a repository).
func (s *Store) EnsureIgnored() error {
	if _, err := os.Stat(filepath.Dir(s.ignorePath)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("active: stat %s: %w", filepath.Dir(s.ignorePath), err)
	}
	data, err := os.ReadFile(s.ignorePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("active: read %s: %w", s.ignorePath, err)
	}
	content := string(data)
	if hasIgnoreEntry(content, s.ignoreEntry) {
		return nil
	}
	prefix := ""
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		prefix = "\n"
	}
	f, err := os.OpenFile(s.ignorePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("active: open %s: %w", s.ignorePath, err)
	}
	defer f.Close()
	if _, err := f.WriteString(prefix + s.ignoreEntry + "\n"); err != nil {
		return fmt.Errorf("active: append %s: %w", s.ignorePath, err)
	}
	return nil
}

func hasIgnoreEntry(content, entry string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/")
		line = strings.TrimSuffix(line, "/")
		if line == entry {
			return true
		}
	}
	return false
}
