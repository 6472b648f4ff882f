package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
)

// Init prepares the workspace and settles on a domain, which becomes the
// active domain with no active task.
func (c *Controller) Init(ctx context.Context) (err error) {
	defer c.journalFailure("init", &err)

	if err := c.active.EnsureInitialized(); err != nil {
		return err
	}
	domain, created, err := c.resolveDomain(ctx)
	if err != nil {
		return err
	}
	if !created {
		if err := c.active.Setup(domain); err != nil {
			return err
		}
		c.book.Info("active selection set to %s", domain)
	}
	c.say("%s Workspace ready, active domain %s", successStyle.Render("✓"), labelStyle.Render(domain))
	return nil
}

// NewTask creates a task and makes it active. The domain is the active one
// when the user confirms it; otherwise it is resolved through the
// fetch / scratch / existing sub-flow. name may be empty to prompt for it.
func (c *Controller) NewTask(ctx context.Context, name string) (err error) {
	defer c.journalFailure("new", &err)

	if err := c.active.EnsureInitialized(); err != nil {
		return err
	}
	current, ok, err := c.active.ReadOptional()
	if err != nil {
		return err
	}

	var domain string
	if ok && c.domains.Exists(current.Domain) {
		reuse, err := c.chooser.Confirm(ctx, fmt.Sprintf("Create the task in active domain %q?", current.Domain), true)
		if err != nil {
			return err
		}
		if reuse {
			domain = current.Domain
		}
	}
	if domain == "" {
		domain, _, err = c.resolveDomain(ctx)
		if err != nil {
			return err
		}
	}

	if name == "" {
		name, err = c.chooser.TextInput(ctx, "Task name", "")
		if err != nil {
			return err
		}
	}
	created, err := c.tasks.Create(domain, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	c.book.Info("task %s/%s created and activated", created.Domain, created.Name)
	c.say("%s Created task %s in %s", successStyle.Render("✓"), labelStyle.Render(created.Name), labelStyle.Render(created.Domain))
	c.say("  %s -> %s", mutedStyle.Render(c.links.LinkPath(created.Domain, created.Name)), mutedStyle.Render(created.Path))
	return nil
}

// SetActive focuses the workspace on a (domain, task) pair. Empty arguments
// are resolved by prompting, defaulting to the current selection. A domain
// without tasks is an error; use NewTask to create one.
func (c *Controller) SetActive(ctx context.Context, domain, taskName string) (err error) {
	defer c.journalFailure("set", &err)

	current, _, err := c.active.ReadOptional()
	if err != nil {
		return err
	}
	domain, taskName, err = c.pickTask(ctx, domain, taskName, current.Domain, current.Task)
	if err != nil {
		return err
	}

	if err := c.active.EnsureInitialized(); err != nil {
		return err
	}
	if err := c.active.Write(domain, taskName); err != nil {
		return err
	}
	c.book.Info("active selection set to %s/%s", domain, taskName)
	if created, err := c.links.EnsureTaskLink(domain, taskName); err != nil {
		return err
	} else if created {
		c.book.Info("link %s/%s created", domain, taskName)
	}
	c.say("%s Active: %s / %s", successStyle.Render("✓"), labelStyle.Render(domain), labelStyle.Render(taskName))
	return nil
}

// Import links a task into the workspace. It only takes focus when the
// workspace has no complete selection yet.
func (c *Controller) Import(ctx context.Context, domain, taskName string) (err error) {
	defer c.journalFailure("import", &err)

	domain, taskName, err = c.pickTask(ctx, domain, taskName, "", "")
	if errors.Is(err, ctxerr.ErrNoTasks) {
		c.notice("Domain %q has no tasks to import. Create one with `ctx new`.", domain)
		return nil
	}
	if err != nil {
		return err
	}

	current, ok, err := c.active.ReadOptional()
	if err != nil {
		return err
	}
	if err := c.active.EnsureInitialized(); err != nil {
		return err
	}
	created, err := c.links.EnsureTaskLink(domain, taskName)
	if err != nil {
		return err
	}
	if created {
		c.book.Info("link %s/%s created", domain, taskName)
	}
	c.say("%s Imported %s / %s", successStyle.Render("✓"), labelStyle.Render(domain), labelStyle.Render(taskName))

	if !ok || !current.IsComplete() {
		if err := c.active.Write(domain, taskName); err != nil {
			return err
		}
		c.book.Info("active selection set to %s/%s", domain, taskName)
		c.say("  %s", mutedStyle.Render("now the active task"))
	}
	return nil
}

// pickTask resolves a store (domain, task) pair. Presets skip the matching
// question; defaults pre-select an entry. On ErrNoTasks the returned domain
// names the empty domain.
func (c *Controller) pickTask(ctx context.Context, domainPreset, taskPreset, domainDefault, taskDefault string) (string, string, error) {
	domain, err := c.pickStoreDomain(ctx, domainPreset, domainDefault)
	if err != nil {
		return "", "", err
	}
	tasks, err := c.domains.ListTasks(domain)
	if err != nil {
		return "", "", err
	}
	if len(tasks) == 0 {
		return domain, "", fmt.Errorf("%w: %q", ctxerr.ErrNoTasks, domain)
	}
	if domain != domainDefault {
		taskDefault = ""
	}
	taskName, err := c.selectFrom(ctx, fmt.Sprintf("Select a task in %s", domain), tasks, taskPreset, taskDefault)
	if err != nil {
		return "", "", err
	}
	return domain, taskName, nil
}
