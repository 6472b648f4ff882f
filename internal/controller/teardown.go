package controller

import (
	"context"
	"fmt"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
	"github.com/kingrea/ctxlayer/internal/store"
)

// DropTask removes one task link from the workspace. The store is untouched
// and no confirmation is asked. With a name, the active domain is used.
func (c *Controller) DropTask(ctx context.Context, name string) (err error) {
	defer c.journalFailure("drop task", &err)

	current, err := c.active.Read()
	if err != nil {
		return err
	}

	var domain string
	if name != "" {
		if err := store.ValidateName(name); err != nil {
			return err
		}
		domain = current.Domain
		if !c.links.HasTaskLink(domain, name) {
			return fmt.Errorf("%w: link %s/%s", ctxerr.ErrNotFound, domain, name)
		}
	} else {
		domain, err = c.pickLocalDomain(ctx, current.Domain)
		if err != nil {
			return err
		}
		links, err := c.links.ListLinks(domain)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			return fmt.Errorf("%w: no task links under %s", ctxerr.ErrNotFound, domain)
		}
		names := make([]string, len(links))
		for i, l := range links {
			names[i] = l.Task
		}
		name, err = c.selectFrom(ctx, fmt.Sprintf("Select a task link to drop from %s", domain), names, "", current.Task)
		if err != nil {
			return err
		}
	}

	if err := c.links.DropTaskLink(domain, name); err != nil {
		return err
	}
	c.book.Info("link %s/%s dropped", domain, name)
	c.say("%s Dropped %s / %s from this workspace", successStyle.Render("✓"), labelStyle.Render(domain), labelStyle.Render(name))
	return nil
}

// DropDomain removes a local domain directory and all of its links after
// confirmation. The store is untouched.
func (c *Controller) DropDomain(ctx context.Context, name string) (err error) {
	defer c.journalFailure("drop domain", &err)

	current, err := c.active.Read()
	if err != nil {
		return err
	}
	if name != "" {
		if err := store.ValidateName(name); err != nil {
			return err
		}
		if !c.links.HasDomainDir(name) {
			return fmt.Errorf("%w: local domain %q", ctxerr.ErrNotFound, name)
		}
	} else {
		name, err = c.pickLocalDomain(ctx, current.Domain)
		if err != nil {
			return err
		}
	}

	ok, err := c.chooser.Confirm(ctx, fmt.Sprintf("Drop %s and all of its task links from this workspace?", name), false)
	if err != nil {
		return err
	}
	if !ok {
		c.say("%s", mutedStyle.Render("Cancelled."))
		return nil
	}
	if err := c.links.DropDomainDir(name); err != nil {
		return err
	}
	c.book.Info("local domain %s dropped", name)
	c.say("%s Dropped %s from this workspace", successStyle.Render("✓"), labelStyle.Render(name))
	return nil
}

// DeleteTask removes a task from the store after confirmation, then drops
// its link when the workspace has one. With a name, the active domain is
// used.
func (c *Controller) DeleteTask(ctx context.Context, name string) (err error) {
	defer c.journalFailure("delete task", &err)

	var domain string
	if name != "" {
		if err := store.ValidateName(name); err != nil {
			return err
		}
		current, err := c.active.Read()
		if err != nil {
			return err
		}
		domain = current.Domain
		if !c.domains.TaskExists(domain, name) {
			return fmt.Errorf("%w: task %q in domain %q", ctxerr.ErrNotFound, name, domain)
		}
	} else {
		current, _, err := c.active.ReadOptional()
		if err != nil {
			return err
		}
		domain, name, err = c.pickTask(ctx, "", "", current.Domain, current.Task)
		if err != nil {
			return err
		}
	}

	ok, err := c.chooser.Confirm(ctx, fmt.Sprintf("Delete task %s/%s from the store? This removes its files.", domain, name), false)
	if err != nil {
		return err
	}
	if !ok {
		c.say("%s", mutedStyle.Render("Cancelled."))
		return nil
	}
	if err := c.domains.DeleteTask(domain, name); err != nil {
		return err
	}
	c.book.Info("task %s/%s deleted", domain, name)
	if err := ignoreNotFound(c.links.DropTaskLink(domain, name)); err != nil {
		return err
	}
	c.say("%s Deleted task %s from %s", successStyle.Render("✓"), labelStyle.Render(name), labelStyle.Render(domain))
	return nil
}

// DeleteDomain removes a domain from the store after confirmation, then
// drops its local directory when present.
func (c *Controller) DeleteDomain(ctx context.Context, name string) (err error) {
	defer c.journalFailure("delete domain", &err)

	if name != "" {
		if err := store.ValidateName(name); err != nil {
			return err
		}
		if !c.domains.Exists(name) {
			return fmt.Errorf("%w: domain %q in %s", ctxerr.ErrNotFound, name, c.domains.Root())
		}
	} else {
		current, _, err := c.active.ReadOptional()
		if err != nil {
			return err
		}
		name, err = c.pickStoreDomain(ctx, "", current.Domain)
		if err != nil {
			return err
		}
	}

	ok, err := c.chooser.Confirm(ctx, fmt.Sprintf("Delete domain %s and all of its tasks from the store?", name), false)
	if err != nil {
		return err
	}
	if !ok {
		c.say("%s", mutedStyle.Render("Cancelled."))
		return nil
	}
	if err := c.domains.Delete(name); err != nil {
		return err
	}
	c.book.Info("domain %s deleted", name)
	if err := ignoreNotFound(c.links.DropDomainDir(name)); err != nil {
		return err
	}
	c.say("%s Deleted domain %s", successStyle.Render("✓"), labelStyle.Render(name))
	return nil
}

func (c *Controller) pickLocalDomain(ctx context.Context, defaultName string) (string, error) {
	names, err := c.links.ListLocalDomains()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no local domains in %s", ctxerr.ErrNotFound, c.cfg.LocalDir())
	}
	return c.selectFrom(ctx, "Select a local domain", names, "", defaultName)
}
