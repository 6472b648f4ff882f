// internal/tui/prompter.go
//
// Prompter answers the controller's questions with small bubbletea programs:
// a list for selections, a text field for names and URLs, and a y/n
// question for confirmations. Each question runs its own program and leaves
// a one-line summary behind once answered.

package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/ctxlayer/internal/ctxerr"
	"github.com/kingrea/ctxlayer/internal/prompt"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6BCB77"))
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4D96FF"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Prompter implements prompt.Chooser on a terminal.
type Prompter struct {
	input  io.Reader
	output io.Writer
}

var _ prompt.Chooser = (*Prompter)(nil)

// PrompterOption customizes the terminal streams.
type PrompterOption func(*Prompter)

// WithInput reads keys from r instead of stdin.
func WithInput(r io.Reader) PrompterOption {
	return func(p *Prompter) {
		p.input = r
	}
}

// WithOutput renders prompts to w instead of stderr.
func WithOutput(w io.Writer) PrompterOption {
	return func(p *Prompter) {
		p.output = w
	}
}

// NewPrompter builds a Prompter. Prompts render on stderr so command output
// on stdout stays clean.
func NewPrompter(opts ...PrompterOption) *Prompter {
	p := &Prompter{input: os.Stdin, output: os.Stderr}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SelectOne shows options as a list with defaultValue preselected.
func (p *Prompter) SelectOne(ctx context.Context, title string, options []prompt.Option, defaultValue string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("tui: %s: nothing to choose from", title)
	}
	final, err := p.run(ctx, newSelectModel(title, options, defaultValue))
	if err != nil {
		return "", err
	}
	m := final.(*selectModel)
	if m.cancelled {
		return "", ctxerr.ErrCancelled
	}
	return m.choice, nil
}

// TextInput asks for a line of text. An empty answer yields defaultValue.
func (p *Prompter) TextInput(ctx context.Context, title, defaultValue string) (string, error) {
	final, err := p.run(ctx, newTextModel(title, defaultValue))
	if err != nil {
		return "", err
	}
	m := final.(*textModel)
	if m.cancelled {
		return "", ctxerr.ErrCancelled
	}
	return m.value, nil
}

// Confirm asks a yes/no question. Enter accepts defaultValue.
func (p *Prompter) Confirm(ctx context.Context, title string, defaultValue bool) (bool, error) {
	final, err := p.run(ctx, newConfirmModel(title, defaultValue))
	if err != nil {
		return false, err
	}
	m := final.(*confirmModel)
	if m.cancelled {
		return false, ctxerr.ErrCancelled
	}
	return m.answer, nil
}

func (p *Prompter) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithInput(p.input),
		tea.WithOutput(p.output),
	)
	final, err := program.Run()
	if err != nil {
		// An interrupted context surfaces as context.Canceled, which maps
		// to the cancelled exit status.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("tui: run prompt: %w", err)
	}
	return final, nil
}

// answered renders the line left on screen after a prompt closes.
func answered(title, answer string) string {
	return fmt.Sprintf("%s %s\n", titleStyle.Render("?")+" "+title, answerStyle.Render(answer))
}
