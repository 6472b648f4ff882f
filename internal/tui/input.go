package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type textModel struct {
	title        string
	defaultValue string
	input        textinput.Model
	value        string
	done         bool
	cancelled    bool
}

func newTextModel(title, defaultValue string) *textModel {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = defaultValue
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()
	return &textModel{title: title, defaultValue: defaultValue, input: ti}
}

func (m *textModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *textModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			m.value = strings.TrimSpace(m.input.Value())
			if m.value == "" {
				m.value = m.defaultValue
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *textModel) View() string {
	switch {
	case m.cancelled:
		return ""
	case m.done:
		return answered(m.title, m.value)
	}
	return fmt.Sprintf("%s\n%s\n%s\n",
		titleStyle.Render(m.title),
		m.input.View(),
		hintStyle.Render("enter to accept • esc to cancel"),
	)
}

type confirmModel struct {
	title        string
	defaultValue bool
	answer       bool
	done         bool
	cancelled    bool
}

func newConfirmModel(title string, defaultValue bool) *confirmModel {
	return &confirmModel{title: title, defaultValue: defaultValue}
}

func (m *confirmModel) Init() tea.Cmd {
	return nil
}

func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "y":
		m.answer = true
	case "n":
		m.answer = false
	case "enter":
		m.answer = m.defaultValue
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m *confirmModel) View() string {
	switch {
	case m.cancelled:
		return ""
	case m.done:
		if m.answer {
			return answered(m.title, "yes")
		}
		return answered(m.title, "no")
	}
	choices := "[y/N]"
	if m.defaultValue {
		choices = "[Y/n]"
	}
	return fmt.Sprintf("%s %s ", titleStyle.Render(m.title), hintStyle.Render(choices))
}
