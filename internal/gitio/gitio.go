// Package gitio runs the version-control operations ctx needs: creating
// and cloning domain repositories through go-git, and passing arbitrary
// commands through to the git binary.
package gitio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
)

// Runner is the collaborator used by the store and the controller.
type Runner interface {
	// Init turns dir into an empty repository.
	Init(ctx context.Context, dir string) error
	// Clone fetches url into dest, which must be absent or empty.
	Clone(ctx context.Context, url, dest string) error
	// Run executes the git binary with args inside dir.
	Run(ctx context.Context, dir string, args ...string) error
}

// Git is the default Runner.
type Git struct {
	binary string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option customizes Git construction.
type Option func(*Git)

// WithStdio overrides the streams handed to passthrough commands and clone
// progress output.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(g *Git) {
		g.stdin = stdin
		g.stdout = stdout
		g.stderr = stderr
	}
}

// New builds a Git runner. An empty binary falls back to "git".
func New(binary string, opts ...Option) *Git {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "git"
	}
	g := &Git{
		binary: binary,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Init creates a repository in dir.
func (g *Git) Init(_ context.Context, dir string) error {
	if _, err := git.PlainInit(dir, false); err != nil {
		return fmt.Errorf("%w: initializing repository in %s: %v", ctxerr.ErrSubprocessFailed, dir, err)
	}
	return nil
}

// Clone fetches url into dest.
func (g *Git) Clone(ctx context.Context, url, dest string) error {
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:      url,
		Progress: g.stderr,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: cloning %s: %v", ctxerr.ErrSubprocessFailed, url, err)
	}
	return nil
}

// Run executes the git binary in dir with the configured stdio.
func (g *Git) Run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = dir
	cmd.Stdin = g.stdin
	cmd.Stdout = g.stdout
	cmd.Stderr = g.stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited with status %d", ctxerr.ErrSubprocessFailed, g.binary, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %s: %v", ctxerr.ErrSubprocessFailed, g.binary, err)
	}
	return nil
}
