package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/reana/pkg/featuremodel"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// ConfigListModel - Interactive configuration selection
// =============================================================================

// ConfigListModel is the bubbletea model for choosing configurations.
type ConfigListModel struct {
	Configs  []featuremodel.Configuration
	Selected map[int]bool
	Cursor   int
	Height   int
	Offset   int
	Aborted  bool
}

// NewConfigListModel creates a new configuration list model.
func NewConfigListModel(cfgs []featuremodel.Configuration) ConfigListModel {
	return ConfigListModel{
		Configs:  cfgs,
		Selected: make(map[int]bool),
		Height:   15,
	}
}

func (m ConfigListModel) Init() tea.Cmd {
	return nil
}

func (m ConfigListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Configs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			m.toggle(m.Cursor)
		case "a":
			all := len(m.Selected) < len(m.Configs)
			for i := range m.Configs {
				if all {
					m.Selected[i] = true
				} else {
					delete(m.Selected, i)
				}
			}
		case "enter":
			if len(m.Selected) == 0 {
				m.toggle(m.Cursor)
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m ConfigListModel) toggle(i int) {
	if m.Selected[i] {
		delete(m.Selected, i)
	} else {
		m.Selected[i] = true
	}
}

// Chosen returns the selected configurations in list order.
func (m ConfigListModel) Chosen() []featuremodel.Configuration {
	var out []featuremodel.Configuration
	for i, cfg := range m.Configs {
		if m.Selected[i] {
			out = append(out, cfg)
		}
	}
	return out
}

func (m ConfigListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Configurations"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Configs))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := "[ ]"
		if m.Selected[i] {
			mark = "[x]"
		}
		cfg := m.Configs[i]
		rows = append(rows, []string{cursor, mark, cfg.String(), strconv.Itoa(cfg.Len())})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Configuration", "Features").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			base := lipgloss.NewStyle()
			if col == 3 {
				base = base.Foreground(colorDim)
			}
			switch {
			case idx == m.Cursor:
				return base.Foreground(colorCyan).Bold(true)
			case m.Selected[idx]:
				return base.Foreground(colorGreen)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d selected", m.Cursor+1, len(m.Configs), len(m.Selected))))

	return b.String()
}
