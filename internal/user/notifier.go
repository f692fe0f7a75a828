package user

import (
	"context"
	"log/slog"
	"net/url"
)

// LogNotifier writes the reset link to the log. It stands in for mail
// delivery on installations without an SMTP relay.
type LogNotifier struct {
	BaseURL string
}

func (n LogNotifier) SendPasswordReset(_ context.Context, u *User, token string) error {
	link := n.BaseURL + "/reset-password?token=" + url.QueryEscape(token)
	slog.Info("password reset link", "email", u.Email, "link", link)

	return nil
}
