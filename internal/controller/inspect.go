package controller

import (
	"context"
	"fmt"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
)

// DefaultLogLines is how many journal entries Log prints when asked for none.
const DefaultLogLines = 20

// Status prints the active selection and the workspace links.
func (c *Controller) Status(_ context.Context) (err error) {
	defer c.journalFailure("status", &err)

	current, err := c.active.Read()
	if err != nil {
		return err
	}
	task := current.Task
	if task == "" {
		task = mutedStyle.Render("(none)")
	}
	c.say("%s %s", labelStyle.Render("Active domain:"), current.Domain)
	c.say("%s %s", labelStyle.Render("Active task:"), task)
	if !c.domains.Exists(current.Domain) {
		c.notice("Domain %q is missing from the store at %s.", current.Domain, c.domains.Root())
	}

	domains, err := c.links.ListLocalDomains()
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		c.say("%s", mutedStyle.Render("No tasks linked into this workspace."))
		return nil
	}
	c.say("")
	c.say("%s", labelStyle.Render("Linked tasks:"))
	for _, domain := range domains {
		links, err := c.links.ListLinks(domain)
		if err != nil {
			return err
		}
		for _, l := range links {
			marker := " "
			if l.Domain == current.Domain && l.Task == current.Task {
				marker = successStyle.Render("*")
			}
			line := fmt.Sprintf("  %s %s/%s", marker, l.Domain, l.Task)
			if l.Broken {
				line += " " + brokenStyle.Render("(broken)")
			}
			c.say("%s", line)
		}
	}
	return nil
}

// List prints every store domain with its tasks. The active pair is starred
// and tasks linked into this workspace are tagged.
func (c *Controller) List(_ context.Context) (err error) {
	defer c.journalFailure("list", &err)

	domains, err := c.domains.List()
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		c.notice("No domains yet. Create one with `ctx init` or `ctx new`.")
		return nil
	}
	current, _, err := c.active.ReadOptional()
	if err != nil {
		return err
	}
	for _, domain := range domains {
		heading := labelStyle.Render(domain)
		if domain == current.Domain {
			heading += " " + successStyle.Render("(active)")
		}
		c.say("%s", heading)
		tasks, err := c.domains.ListTasks(domain)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			c.say("    %s", mutedStyle.Render("no tasks"))
			continue
		}
		for _, name := range tasks {
			marker := " "
			if domain == current.Domain && name == current.Task {
				marker = successStyle.Render("*")
			}
			line := fmt.Sprintf("  %s %s", marker, name)
			if c.links.HasTaskLink(domain, name) {
				line += " " + mutedStyle.Render("[linked]")
			}
			c.say("%s", line)
		}
	}
	return nil
}

// Log prints the most recent journal entries.
func (c *Controller) Log(_ context.Context, n int) error {
	if n <= 0 {
		n = DefaultLogLines
	}
	if c.book == nil {
		c.say("%s", mutedStyle.Render("Journal is disabled."))
		return nil
	}
	lines, total := c.book.Tail(n)
	if total == 0 {
		c.say("%s", mutedStyle.Render("Journal is empty."))
		return nil
	}
	for _, line := range lines {
		c.say("%s", line)
	}
	if total > len(lines) {
		c.say("%s", mutedStyle.Render(fmt.Sprintf("(%d of %d entries, %s)", len(lines), total, c.book.Path())))
	}
	return nil
}

// Git runs a git command inside the active task's store directory with the
// process streams attached.
func (c *Controller) Git(ctx context.Context, args []string) (err error) {
	defer c.journalFailure("git", &err)

	current, err := c.active.Read()
	if err != nil {
		return err
	}
	if current.Task == "" {
		return fmt.Errorf("%w in %s", ctxerr.ErrMissingActiveTask, c.active.Path())
	}
	if !c.domains.TaskExists(current.Domain, current.Task) {
		return fmt.Errorf("%w: task %q in domain %q", ctxerr.ErrNotFound, current.Task, current.Domain)
	}
	return c.git.Run(ctx, c.domains.TaskPath(current.Domain, current.Task), args...)
}
