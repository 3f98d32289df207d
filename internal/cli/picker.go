package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"pybale/pkg/bundle"
	"pybale/pkg/errors"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// EntryListModel is the bubbletea model for interactive entry-point
// selection. Candidates are the files carrying a __main__ guard; when none
// does, every collected file is listed.
type EntryListModel struct {
	Files    []*bundle.SourceFile
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewEntryListModel creates a new entry list model.
func NewEntryListModel(files []*bundle.SourceFile) EntryListModel {
	return EntryListModel{
		Files:  files,
		Height: 15,
	}
}

func (m EntryListModel) Init() tea.Cmd {
	return nil
}

func (m EntryListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Files)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Files[m.Cursor].Rel
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m EntryListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Entry Point"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Files) {
		end = len(m.Files)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		f := m.Files[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		guard := "—"
		if len(f.AST.Guards) > 0 {
			guard = "✓"
		}

		rows = append(rows, []string{cursor, f.Rel, f.Module, guard, fmt.Sprintf("%d", len(f.AST.Imports))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "File", "Module", "Guard", "Imports").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Files))))

	return b.String()
}

// runPicker shows the interactive entry-point picker and returns the chosen
// relative path.
func runPicker(files []*bundle.SourceFile) (string, error) {
	model, err := tea.NewProgram(NewEntryListModel(files)).Run()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "entry picker")
	}
	final, ok := model.(EntryListModel)
	if !ok || final.Selected == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "no entry point selected")
	}
	return final.Selected, nil
}
