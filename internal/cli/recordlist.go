package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
)

const maxDescription = 96

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)
)

type recordItem struct {
	rec  schema.Record
	body string
}

func newRecordItem(rec schema.Record) recordItem {
	data, err := json.Marshal(rec)
	if err != nil {
		return recordItem{rec: rec, body: err.Error()}
	}

	return recordItem{rec: rec, body: string(data)}
}

func (i recordItem) Title() string {
	return fmt.Sprintf("%s/%s", i.rec.SchemaName(), i.rec.PrimaryKey())
}

func (i recordItem) Description() string {
	if len(i.body) > maxDescription {
		return i.body[:maxDescription-3] + "..."
	}

	return i.body
}

func (i recordItem) FilterValue() string {
	return i.rec.PrimaryKey().String() + " " + i.body
}

// RecordListModel browses the records of a lazy view.
type RecordListModel struct {
	list     list.Model
	selected schema.Record
	quitting bool
}

func (m RecordListModel) Init() tea.Cmd {
	return nil
}

func (m RecordListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)

		return m, nil

	case tea.KeyMsg:
		// Let the filter input consume keys while it is focused.
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true

			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(recordItem); ok {
				m.selected = i.rec
			}

			return m, tea.Quit
		}
	}

	var cmd tea.Cmd

	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m RecordListModel) View() string {
	if m.quitting {
		return ""
	}

	return docStyle.Render(m.list.View())
}

// Selected returns the record chosen with enter, or nil.
func (m RecordListModel) Selected() schema.Record {
	return m.selected
}

// NewRecordList reads r once and builds a filterable list of its records.
func NewRecordList(r *store.Results) (RecordListModel, error) {
	var items []list.Item

	if err := r.Each(func(rec schema.Record) error {
		items = append(items, newRecordItem(rec))

		return nil
	}); err != nil {
		return RecordListModel{}, err
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%s (%d)", r.Schema(), len(items))
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)

	return RecordListModel{list: l}, nil
}
