package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entreprenapp/backoffice/internal/sales"
)

// DocumentsModel lists estimates or invoices. Estimates can be converted
// to invoices and invoices can be marked paid.
type DocumentsModel struct {
	CommonModel
	svc  *sales.Service
	kind sales.Kind

	table  table.Model
	docs   []*sales.Document
	period period
	unpaid bool

	loading bool
	err     error
	status  string
}

func NewDocumentsModel(svc *sales.Service, kind sales.Kind, common CommonModel) DocumentsModel {
	columns := []table.Column{
		{Title: "Number", Width: 10},
		{Title: "Date", Width: 12},
		{Title: "Saler", Width: 24},
		{Title: "Customer", Width: 24},
		{Title: "Total incl. tax", Width: 16},
		{Title: "Status", Width: 12},
	}

	return DocumentsModel{
		CommonModel: common,
		svc:         svc,
		kind:        kind,
		table:       newTable(columns),
		loading:     true,
	}
}

func (m DocumentsModel) Title() string { return m.kind.Label() + "s" }

func (m DocumentsModel) ShortHelp() string {
	switch m.kind {
	case sales.KindEstimate:
		return "Esc: back | c: convert to invoice | d: period | r: refresh"
	default:
		return "Esc: back | p: toggle paid | u: unpaid only | d: period | r: refresh"
	}
}

func (m DocumentsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DocumentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDocumentsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.docs = msg.docs
		m.refreshTable()

		return m, nil

	case documentActionMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "d":
			m.period = (m.period + 1) % periodCount
			return m, m.loadCmd()
		case "u":
			if m.kind == sales.KindInvoice {
				m.unpaid = !m.unpaid
				return m, m.loadCmd()
			}
		case "c":
			if doc := m.selected(); doc != nil && m.kind == sales.KindEstimate {
				return m, m.convertCmd(doc)
			}
		case "p":
			if doc := m.selected(); doc != nil && m.kind == sales.KindInvoice {
				return m, m.togglePaidCmd(doc)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DocumentsModel) selected() *sales.Document {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.docs) {
		return nil
	}

	return m.docs[idx]
}

func (m DocumentsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Loading %ss...", m.kind))
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf("%ss | [d] Period: %s", m.kind.Label(), activeStyle(m.period.String()))
	if m.kind == sales.KindInvoice {
		paid := "All"
		if m.unpaid {
			paid = "Unpaid"
		}

		header += fmt.Sprintf(" | [u] %s", activeStyle(paid))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *DocumentsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.docs))

	for _, d := range m.docs {
		status := ""

		switch {
		case !d.Active:
			status = "deleted"
		case d.Kind == sales.KindInvoice && d.IsPaid:
			status = "paid"
		case d.Kind == sales.KindInvoice:
			status = "unpaid"
		case d.ValidityDate != nil && d.ValidityDate.Before(time.Now()):
			status = "expired"
		}

		rows = append(rows, table.Row{
			fmt.Sprintf("%08d", d.Number),
			FormatDate(d.Date),
			partyName(d.Saler != nil, func() string { return d.Saler.Name }),
			partyName(d.Customer != nil, func() string { return d.Customer.Name }),
			FormatAmount(d.Totals().IncludingTax),
			status,
		})
	}

	m.table.SetRows(rows)
}

func partyName(ok bool, name func() string) string {
	if !ok {
		return "-"
	}

	return name()
}

func (m DocumentsModel) filter() sales.ListFilter {
	var f sales.ListFilter

	f.From, f.To = m.period.bounds(time.Now())

	if m.unpaid {
		f.IsPaid = new(false)
	}

	return f
}

// Messages

type loadDocumentsMsg struct {
	docs []*sales.Document
	err  error
}

func (m DocumentsModel) loadCmd() tea.Cmd {
	filter := m.filter()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		docs, err := m.svc.List(ctx, m.Who, m.kind, filter)

		return loadDocumentsMsg{docs: docs, err: err}
	}
}

type documentActionMsg struct {
	status string
	err    error
}

func (m DocumentsModel) convertCmd(doc *sales.Document) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		inv, err := m.svc.ConvertEstimate(ctx, m.Who, doc.ID)
		if err != nil {
			return documentActionMsg{err: err}
		}

		return documentActionMsg{status: fmt.Sprintf("%s converted to %s", doc.Title(), inv.Title())}
	}
}

func (m DocumentsModel) togglePaidCmd(doc *sales.Document) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.svc.SetPaid(ctx, m.Who, doc.ID, !doc.IsPaid)
		if err != nil {
			return documentActionMsg{err: err}
		}

		state := "unpaid"
		if updated.IsPaid {
			state = "paid"
		}

		return documentActionMsg{status: fmt.Sprintf("%s marked %s", updated.Title(), state)}
	}
}
