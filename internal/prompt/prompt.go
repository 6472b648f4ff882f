// Package prompt defines how ctx asks the user to resolve ambiguity. The
// controller only sees Chooser; the terminal implementation lives in tui.
package prompt

import (
	"context"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
)

// Option is one entry offered by SelectOne.
type Option struct {
	Label string
	Value string
	// Hint is rendered next to the label when the chooser supports it.
	Hint string
}

// Chooser resolves user choices. Every method may return an error wrapping
// ctxerr.ErrCancelled when the user aborts.
type Chooser interface {
	SelectOne(ctx context.Context, title string, options []Option, defaultValue string) (string, error)
	TextInput(ctx context.Context, title, defaultValue string) (string, error)
	Confirm(ctx context.Context, title string, defaultValue bool) (bool, error)
}

// Values wraps plain strings as options whose label is their value.
func Values(values []string) []Option {
	options := make([]Option, len(values))
	for i, v := range values {
		options[i] = Option{Label: v, Value: v}
	}
	return options
}

// AssumeYes answers every confirmation with yes and delegates the rest.
func AssumeYes(inner Chooser) Chooser {
	return assumeYes{Chooser: inner}
}

type assumeYes struct {
	Chooser
}

func (assumeYes) Confirm(context.Context, string, bool) (bool, error) {
	return true, nil
}

// Unavailable is used when stdin is not a terminal: every question fails
// with ctxerr.ErrNotInteractive.
type Unavailable struct{}

func (Unavailable) SelectOne(context.Context, string, []Option, string) (string, error) {
	return "", ctxerr.ErrNotInteractive
}

func (Unavailable) TextInput(context.Context, string, string) (string, error) {
	return "", ctxerr.ErrNotInteractive
}

func (Unavailable) Confirm(context.Context, string, bool) (bool, error) {
	return false, ctxerr.ErrNotInteractive
}
