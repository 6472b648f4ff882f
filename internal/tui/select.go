package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/ctxlayer/internal/prompt"
)

const (
	selectWidth     = 72
	selectMaxHeight = 20
	// Lists longer than this get type-to-filter.
	filterThreshold = 7
)

// optionItem wraps a prompt.Option for the list display
type optionItem struct {
	option prompt.Option
}

func (i optionItem) Title() string       { return i.option.Label }
func (i optionItem) Description() string { return i.option.Hint }
func (i optionItem) FilterValue() string { return i.option.Label }

type selectModel struct {
	title     string
	list      list.Model
	choice    string
	label     string
	cancelled bool
}

func newSelectModel(title string, options []prompt.Option, defaultValue string) *selectModel {
	hasHints := false
	items := make([]list.Item, len(options))
	for i, opt := range options {
		items[i] = optionItem{option: opt}
		if opt.Hint != "" {
			hasHints = true
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	rowHeight := 2
	if !hasHints {
		delegate.ShowDescription = false
		rowHeight = 1
	}
	delegate.SetHeight(rowHeight)

	height := len(items)*rowHeight + 6
	if height > selectMaxHeight {
		height = selectMaxHeight
	}
	l := list.New(items, delegate, selectWidth, height)
	l.Title = title
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(len(items) > filterThreshold)
	l.DisableQuitKeybindings()
	for i, opt := range options {
		if opt.Value == defaultValue {
			l.Select(i)
			break
		}
	}
	return &selectModel{title: title, list: l}
}

func (m *selectModel) Init() tea.Cmd {
	return nil
}

func (m *selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width
		if width > selectWidth {
			width = selectWidth
		}
		m.list.SetWidth(width)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
		// While typing a filter every key belongs to the list.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break
			}
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			item, ok := m.list.SelectedItem().(optionItem)
			if !ok {
				return m, nil
			}
			m.choice = item.option.Value
			m.label = item.option.Label
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *selectModel) View() string {
	switch {
	case m.cancelled:
		return ""
	case m.choice != "":
		return answered(m.title, m.label)
	}
	return m.list.View() + "\n"
}
