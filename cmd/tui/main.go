package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/entreprenapp/backoffice/cmd/tui/internal/view"
	"github.com/entreprenapp/backoffice/internal/app"
	"github.com/entreprenapp/backoffice/internal/config"
	"github.com/entreprenapp/backoffice/internal/database"
	"github.com/entreprenapp/backoffice/internal/sales"
)

type model struct {
	svc *app.Services

	common      view.CommonModel
	userEmail   string
	currentView View

	loginView     view.LoginModel
	estimatesView view.DocumentsModel
	invoicesView  view.DocumentsModel
	catalogView   view.CatalogModel
}

type View int

const (
	ViewLogin     View = 0
	ViewMenu      View = 1
	ViewEstimates View = 2
	ViewInvoices  View = 3
	ViewCatalog   View = 4
)

func initialModel(svc *app.Services) model {
	return model{
		svc:         svc,
		currentView: ViewLogin,
		loginView:   view.NewLoginModel(svc.Users),
	}
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewEstimates
				m.estimatesView = view.NewDocumentsModel(m.svc.Sales, sales.KindEstimate, m.common)

				return m, m.estimatesView.Init()
			case "2":
				m.currentView = ViewInvoices
				m.invoicesView = view.NewDocumentsModel(m.svc.Sales, sales.KindInvoice, m.common)

				return m, m.invoicesView.Init()
			case "3":
				m.currentView = ViewCatalog
				m.catalogView = view.NewCatalogModel(m.svc.Catalog, m.svc.Importer, m.common)

				return m, m.catalogView.Init()
			}
		}
	case view.LoggedInMsg:
		m.common = view.CommonModel{Who: msg.User.Identity()}
		m.userEmail = msg.User.Email
		m.currentView = ViewMenu

		return m, nil
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewEstimates:
		var newModel tea.Model
		newModel, cmd = m.estimatesView.Update(msg)
		m.estimatesView = newModel.(view.DocumentsModel)
	case ViewInvoices:
		var newModel tea.Model
		newModel, cmd = m.invoicesView.Update(msg)
		m.invoicesView = newModel.(view.DocumentsModel)
	case ViewCatalog:
		var newModel tea.Model
		newModel, cmd = m.catalogView.Update(msg)
		m.catalogView = newModel.(view.CatalogModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Back office | " + m.userEmail + "\n\n" +
				"1. Estimates\n" +
				"2. Invoices\n" +
				"3. Catalog\n\n" +
				"q. Quit",
		)
	case ViewEstimates:
		return m.estimatesView.View()
	case ViewInvoices:
		return m.invoicesView.View()
	case ViewCatalog:
		return m.catalogView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The UI owns the terminal; logs only go to LOG_FILE.
	var logOut io.Writer = io.Discard

	if path := cfg.Log.File; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			slog.Error("failed to open log file", "error", err)
			os.Exit(1)
		}
		defer f.Close()

		logOut = f
	}

	logger, err := cfg.NewLogger(logOut)
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc, err := app.New(context.Background(), cfg, db)
	if err != nil {
		slog.Error("failed to build services", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	slog.SetDefault(logger)

	p := tea.NewProgram(initialModel(svc))
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
