package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/entreprenapp/backoffice/internal/user"
)

// LoggedInMsg is sent once credentials are accepted.
type LoggedInMsg struct {
	User *user.User
}

type LoginModel struct {
	users *user.Service

	form   *huh.Form
	status string
}

func NewLoginModel(users *user.Service) LoginModel {
	m := LoginModel{users: users}
	m.form = newLoginForm()

	return m
}

// Values are read back with GetString because the model is copied on every
// update.
func newLoginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("email cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) Title() string     { return "Login" }
func (m LoginModel) ShortHelp() string { return "Enter: next | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		if res.err != nil {
			m.status = fmt.Sprintf("Login failed: %v", res.err)
			m.form = newLoginForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return LoggedInMsg{User: res.user} }
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.loginCmd()
}

func (m LoginModel) View() string {
	content := "Back office\n\n" + m.form.View()

	if m.status != "" {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

type loginResultMsg struct {
	user *user.User
	err  error
}

func (m LoginModel) loginCmd() tea.Cmd {
	email, password := m.form.GetString("email"), m.form.GetString("password")

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		session, err := m.users.Login(ctx, email, password)
		if err != nil {
			return loginResultMsg{err: err}
		}

		return loginResultMsg{user: session.User}
	}
}
