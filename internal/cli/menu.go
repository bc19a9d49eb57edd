package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// SchemaCount is one entry of the schema menu.
type SchemaCount struct {
	Name  string
	Count int
}

type schemaItem SchemaCount

func (i schemaItem) FilterValue() string { return i.Name }

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(schemaItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s (%d)", index+1, i.Name, i.Count)

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + s[0])
		}
	}

	_, _ = fmt.Fprint(w, fn(str))
}

// SchemaMenuModel picks one schema out of the registered ones.
type SchemaMenuModel struct {
	list     list.Model
	choice   string
	quitting bool
}

func (m SchemaMenuModel) Init() tea.Cmd {
	return nil
}

func (m SchemaMenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)

		return m, nil

	case tea.KeyMsg:
		switch keypress := msg.String(); keypress {
		case "ctrl+c", "q", "esc":
			m.quitting = true

			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(schemaItem); ok {
				m.choice = i.Name
			}

			return m, tea.Quit
		}
	}

	var cmd tea.Cmd

	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m SchemaMenuModel) View() string {
	if m.choice != "" || m.quitting {
		return ""
	}

	return "\n" + m.list.View()
}

// Choice returns the picked schema name, or "" when the menu was left.
func (m SchemaMenuModel) Choice() string {
	return m.choice
}

func NewSchemaMenu(schemas []SchemaCount) SchemaMenuModel {
	items := make([]list.Item, len(schemas))
	for i, s := range schemas {
		items[i] = schemaItem(s)
	}

	const defaultWidth = 20

	l := list.New(items, itemDelegate{}, defaultWidth, 15)
	l.Title = "objrepo schemas"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return SchemaMenuModel{list: l}
}
