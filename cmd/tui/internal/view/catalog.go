package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/catalog/importer"
)

const importTimeout = 2 * time.Minute

type catalogState int

const (
	catalogStateList catalogState = iota
	catalogStateForm
	catalogStateFilePick
	catalogStateImporting
	catalogStateResult
)

// CatalogModel lists items and lets the user add one by hand or import a
// CSV file.
type CatalogModel struct {
	CommonModel
	svc      *catalog.Service
	importer *importer.Service

	state      catalogState
	table      table.Model
	items      []*catalog.Item
	form       *huh.Form
	filePicker filepicker.Model

	status string
	err    error
}

func NewCatalogModel(svc *catalog.Service, imp *importer.Service, common CommonModel) CatalogModel {
	columns := []table.Column{
		{Title: "Label", Width: 30},
		{Title: "Price excl. tax", Width: 16},
		{Title: "Tax rate", Width: 9},
		{Title: "Price incl. tax", Width: 16},
	}

	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return CatalogModel{
		CommonModel: common,
		svc:         svc,
		importer:    imp,
		table:       newTable(columns),
		filePicker:  fp,
	}
}

func (m CatalogModel) Title() string { return "Catalog" }

func (m CatalogModel) ShortHelp() string {
	switch m.state {
	case catalogStateForm:
		return "Enter: next | Esc: cancel"
	case catalogStateFilePick:
		return "Enter: select | Esc: cancel"
	}

	return "Esc: back | n: new item | i: import CSV | r: refresh"
}

func (m CatalogModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m CatalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadItemsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.items = msg.items
		m.refreshTable()

		return m, nil

	case itemsStoredMsg:
		m.state = catalogStateResult
		m.err = msg.err

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Stored %d item(s).", msg.count)

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == catalogStateList {
			return m.updateList(msg)
		}
	}

	switch m.state {
	case catalogStateForm:
		return m.updateForm(msg)
	case catalogStateFilePick:
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.state = catalogStateImporting
			m.status = fmt.Sprintf("Importing from %s...", path)

			return m, m.importCmd(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m CatalogModel) handleEsc() (tea.Model, tea.Cmd) {
	if m.state == catalogStateList {
		return m, Back
	}

	m.state = catalogStateList
	m.status = ""
	m.err = nil

	return m, nil
}

func (m CatalogModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m, m.loadCmd()
	case "n":
		m.form = newItemForm()
		m.state = catalogStateForm

		return m, m.form.Init()
	case "i":
		m.state = catalogStateFilePick
		return m, m.filePicker.Init()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m CatalogModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = catalogStateImporting
	m.status = "Saving item..."

	return m, m.createCmd(catalog.CreateParams{
		Label:         m.form.GetString("label"),
		Description:   m.form.GetString("description"),
		PriceDutyFree: decimal.RequireFromString(strings.TrimSpace(m.form.GetString("price"))),
		TaxRate:       decimal.RequireFromString(strings.TrimSpace(m.form.GetString("rate"))),
	})
}

func newItemForm() *huh.Form {
	rate := "20"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("label").
				Title("Label").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("label cannot be empty")
					}
					return nil
				}),
			huh.NewText().
				Key("description").
				Title("Description"),
			huh.NewInput().
				Key("price").
				Title("Price excl. tax").
				Validate(validDecimal),
			huh.NewInput().
				Key("rate").
				Title("Tax rate (%)").
				Value(&rate).
				Validate(validDecimal),
		),
	).WithWidth(60).WithShowHelp(false)
}

func validDecimal(s string) error {
	if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("not a number")
	}

	return nil
}

func (m CatalogModel) View() string {
	switch m.state {
	case catalogStateForm:
		return lipgloss.NewStyle().Padding(1).Render("New item\n\n" + m.form.View())
	case catalogStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render("Select CSV file to import:\n\n" + m.filePicker.View())
	case catalogStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case catalogStateResult:
		color := lipgloss.Color("46")
		if m.err != nil {
			color = lipgloss.Color("196")
		}

		return lipgloss.NewStyle().Padding(2).Render(
			lipgloss.NewStyle().Foreground(color).Render(m.status) + "\n\n(Esc to go back)",
		)
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(fmt.Sprintf("Catalog | %d item(s)", len(m.items))),
		boxed(m.table.View()),
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	))
}

func (m *CatalogModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))

	for _, it := range m.items {
		rows = append(rows, table.Row{
			it.Label,
			FormatAmount(it.PriceDutyFree),
			it.TaxRate.String() + " %",
			FormatAmount(it.PriceIncludingTax()),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadItemsMsg struct {
	items []*catalog.Item
	err   error
}

type itemsStoredMsg struct {
	count int
	err   error
}

func (m CatalogModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		items, err := m.svc.List(ctx, m.Who, catalog.ListFilter{})

		return loadItemsMsg{items: items, err: err}
	}
}

func (m CatalogModel) createCmd(params catalog.CreateParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := m.svc.Create(ctx, m.Who, params); err != nil {
			return itemsStoredMsg{err: err}
		}

		return itemsStoredMsg{count: 1}
	}
}

func (m CatalogModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return itemsStoredMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		items, err := m.importer.Import(ctx, m.Who, f)
		if err != nil {
			return itemsStoredMsg{err: err}
		}

		return itemsStoredMsg{count: len(items)}
	}
}
