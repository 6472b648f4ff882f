// Package ctxerr defines the error kinds surfaced by ctx and maps them to
// process exit statuses.
package ctxerr

import (
	"context"
	"errors"
)

// Exit statuses returned by the ctx binary.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitCancelled = 130
)

var (
	ErrMissingConfig       = errors.New("no workspace config found; run `ctx init` first")
	ErrMissingActiveDomain = errors.New("no active domain set")
	ErrMissingActiveTask   = errors.New("no active task set")
	ErrStoreRootMissing    = errors.New("domain store does not exist")
	ErrEmptyStore          = errors.New("no domains found")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrEmptyName           = errors.New("name must not be empty")
	ErrInvalidName         = errors.New("invalid name")
	ErrNoTasks             = errors.New("domain has no tasks")
	ErrCancelled           = errors.New("cancelled")
	ErrSubprocessFailed    = errors.New("subprocess failed")
	ErrNotInteractive      = errors.New("interactive input required but stdin is not a terminal")
)

// IsCancelled reports whether err stems from the user aborting a prompt or
// from an interrupted context.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// ExitCode maps err onto the process exit status contract.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsCancelled(err):
		return ExitCancelled
	default:
		return ExitFailure
	}
}
