// Package task creates tasks inside a domain and brings the workspace in
// line with the new task.
package task

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
	"github.com/kingrea/ctxlayer/internal/store"
)

// Layout lists the subdirectories every task starts with.
var Layout = []string{"docs", "data"}

// Linker is the slice of the workspace linker the factory needs.
type Linker interface {
	EnsureTaskLink(domain, task string) (bool, error)
}

// SelectionWriter persists the active pair.
type SelectionWriter interface {
	Write(domain, task string) error
}

// Step names one committed side effect of Create.
type Step string

const (
	StepDirectory Step = "directory"
	StepLink      Step = "link"
	StepSelection Step = "selection"
)

// StepError reports which step failed and which ones were already
// committed. Nothing is rolled back.
type StepError struct {
	Failed    Step
	Committed []Step
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("task: %s step failed after %v: %v", e.Failed, e.Committed, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Factory creates tasks.
type Factory struct {
	domains   *store.Store
	links     Linker
	selection SelectionWriter
}

// NewFactory wires a Factory to its collaborators.
func NewFactory(domains *store.Store, links Linker, selection SelectionWriter) *Factory {
	return &Factory{domains: domains, links: links, selection: selection}
}

// Create makes domain/name with its fixed layout, links it into the
// workspace and marks it active, in that order. A same-named entry, even a
// partially created one, fails with ErrAlreadyExists.
func (f *Factory) Create(domain, name string) (store.Task, error) {
	if err := store.ValidateName(name); err != nil {
		return store.Task{}, err
	}
	if !f.domains.Exists(domain) {
		return store.Task{}, fmt.Errorf("%w: domain %q", ctxerr.ErrNotFound, domain)
	}
	path := f.domains.TaskPath(domain, name)
	t := store.Task{Name: name, Domain: domain, Path: path}

	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return store.Task{}, fmt.Errorf("%w: task %q in domain %q", ctxerr.ErrAlreadyExists, name, domain)
		}
		return store.Task{}, &StepError{Failed: StepDirectory, Err: err}
	}
	for _, sub := range Layout {
		if err := os.Mkdir(filepath.Join(path, sub), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return t, &StepError{Failed: StepDirectory, Err: err}
		}
	}
	committed := []Step{StepDirectory}

	if _, err := f.links.EnsureTaskLink(domain, name); err != nil {
		return t, &StepError{Failed: StepLink, Committed: committed, Err: err}
	}
	committed = append(committed, StepLink)

	if err := f.selection.Write(domain, name); err != nil {
		return t, &StepError{Failed: StepSelection, Committed: committed, Err: err}
	}
	return t, nil
}
