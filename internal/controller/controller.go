// Package controller implements the user-facing ctx operations. Each
// operation reads the current state, asks the chooser to resolve any
// ambiguity, then mutates the store, the local mirror and the active
// selection in a fixed order.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/ctxlayer/internal/active"
	"github.com/kingrea/ctxlayer/internal/config"
	"github.com/kingrea/ctxlayer/internal/ctxerr"
	"github.com/kingrea/ctxlayer/internal/gitio"
	"github.com/kingrea/ctxlayer/internal/linker"
	"github.com/kingrea/ctxlayer/internal/logbook"
	"github.com/kingrea/ctxlayer/internal/prompt"
	"github.com/kingrea/ctxlayer/internal/store"
	"github.com/kingrea/ctxlayer/internal/task"
)

// Domain sources offered when no domain is settled yet.
const (
	sourceFetch    = "fetch"
	sourceScratch  = "scratch"
	sourceExisting = "existing"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	brokenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Controller wires the workspace components together.
type Controller struct {
	cfg     *config.Config
	chooser prompt.Chooser
	git     gitio.Runner
	book    *logbook.Logbook
	out     io.Writer

	active  *active.Store
	domains *store.Store
	links   *linker.Linker
	tasks   *task.Factory
}

// Option customizes Controller construction for tests and alternate runtimes.
type Option func(*Controller)

// WithOutput redirects user-facing output.
func WithOutput(w io.Writer) Option {
	return func(c *Controller) {
		if w != nil {
			c.out = w
		}
	}
}

// WithGitRunner overrides the version-control collaborator.
func WithGitRunner(r gitio.Runner) Option {
	return func(c *Controller) {
		if r != nil {
			c.git = r
		}
	}
}

// WithLogbook attaches the operation journal.
func WithLogbook(book *logbook.Logbook) Option {
	return func(c *Controller) {
		c.book = book
	}
}

// New builds a Controller for the workspace described by cfg.
func New(cfg *config.Config, chooser prompt.Chooser, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		chooser: chooser,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.git == nil {
		c.git = gitio.New(cfg.GitBinary())
	}
	c.active = active.NewStore(cfg)
	c.domains = store.New(cfg.StoreRoot(), c.git)
	c.links = linker.New(cfg.LocalDir(), cfg.StoreRoot())
	c.tasks = task.NewFactory(c.domains, c.links, c.active)
	return c
}

// resolveDomain runs the fetch / scratch / existing sub-flow. created is
// true when a new domain was made, in which case the local setup has
// already been performed.
func (c *Controller) resolveDomain(ctx context.Context) (name string, created bool, err error) {
	source, err := c.chooser.SelectOne(ctx, "How do you want to pick a domain?", []prompt.Option{
		{Label: "Fetch from a git repository", Value: sourceFetch, Hint: "clone a remote into the store"},
		{Label: "Create from scratch", Value: sourceScratch, Hint: "start an empty domain"},
		{Label: "Select an existing domain", Value: sourceExisting, Hint: "reuse a domain from the store"},
	}, sourceExisting)
	if err != nil {
		return "", false, err
	}
	switch source {
	case sourceFetch:
		name, err = c.fetchDomain(ctx)
		return name, err == nil, err
	case sourceScratch:
		name, err = c.scratchDomain(ctx)
		return name, err == nil, err
	case sourceExisting:
		name, err = c.pickStoreDomain(ctx, "", "")
		return name, false, err
	default:
		return "", false, fmt.Errorf("controller: unknown domain source %q", source)
	}
}

func (c *Controller) fetchDomain(ctx context.Context) (string, error) {
	url, err := c.chooser.TextInput(ctx, "Git repository URL", "")
	if err != nil {
		return "", err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return "", fmt.Errorf("repository URL: %w", ctxerr.ErrEmptyName)
	}
	name, err := c.chooser.TextInput(ctx, "Domain name", repoBaseName(url))
	if err != nil {
		return "", err
	}
	return c.createDomain(ctx, strings.TrimSpace(name), store.Origin{CloneURL: url})
}

func (c *Controller) scratchDomain(ctx context.Context) (string, error) {
	name, err := c.chooser.TextInput(ctx, "Domain name", "")
	if err != nil {
		return "", err
	}
	return c.createDomain(ctx, strings.TrimSpace(name), store.Origin{InitRepo: c.cfg.InitReposOnCreate()})
}

// createDomain makes the domain and immediately records it as the active
// domain of this workspace.
func (c *Controller) createDomain(ctx context.Context, name string, origin store.Origin) (string, error) {
	domain, err := c.domains.Create(ctx, name, origin)
	if err != nil {
		return "", err
	}
	if origin.CloneURL != "" {
		c.book.Info("domain %s cloned from %s", name, origin.CloneURL)
	} else {
		c.book.Info("domain %s created", name)
	}
	c.say("%s Created domain %s", successStyle.Render("✓"), labelStyle.Render(name))
	c.say("  %s", mutedStyle.Render(domain.Path))
	if err := c.active.Setup(name); err != nil {
		return "", err
	}
	c.book.Info("active selection set to %s", name)
	return name, nil
}

func (c *Controller) pickStoreDomain(ctx context.Context, preset, defaultName string) (string, error) {
	names, err := c.domains.List()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w in %s", ctxerr.ErrEmptyStore, c.domains.Root())
	}
	return c.selectFrom(ctx, "Select a domain", names, preset, defaultName)
}

// selectFrom asks the chooser for one of values. preset, when non-empty,
// skips the question but must name a member of values.
func (c *Controller) selectFrom(ctx context.Context, title string, values []string, preset, defaultValue string) (string, error) {
	if preset != "" {
		if !contains(values, preset) {
			return "", fmt.Errorf("%w: %q", ctxerr.ErrNotFound, preset)
		}
		return preset, nil
	}
	if !contains(values, defaultValue) {
		defaultValue = ""
	}
	choice, err := c.chooser.SelectOne(ctx, title, prompt.Values(values), defaultValue)
	if err != nil {
		return "", err
	}
	if !contains(values, choice) {
		return "", fmt.Errorf("%w: %q is not one of the offered choices", ctxerr.ErrNotFound, choice)
	}
	return choice, nil
}

// journalFailure records a failed operation. Cancellations are not failures.
func (c *Controller) journalFailure(op string, errp *error) {
	if errp == nil || *errp == nil || ctxerr.IsCancelled(*errp) {
		return
	}
	c.book.Error("%s: %v", op, *errp)
}

func (c *Controller) say(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Controller) notice(format string, args ...any) {
	c.say("%s", noticeStyle.Render(fmt.Sprintf(format, args...)))
}

// ignoreNotFound turns best-effort cleanup misses into success.
func ignoreNotFound(err error) error {
	if errors.Is(err, ctxerr.ErrNotFound) {
		return nil
	}
	return err
}

func contains(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// repoBaseName derives a domain name from a repository URL:
// git@host:org/notes.git and https://host/org/notes both yield "notes".
func repoBaseName(url string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(url), "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	if idx := strings.LastIndexAny(trimmed, "/:"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return trimmed
}
