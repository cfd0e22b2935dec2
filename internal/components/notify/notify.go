package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// Notifier tells an operator that something happened to a background job.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Notify(context.Context, string, string) error {
	return nil
}

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Enabled reports whether enough of the config is filled in to send mail.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && c.Port > 0 && c.EmailAddress != "" && len(c.To) > 0
}

// Smtp sends notifications as plain text email.
type Smtp struct {
	config SmtpConfig
}

func NewSmtp(config SmtpConfig) Smtp {
	return Smtp{config: config}
}

// FromConfig returns an Smtp notifier if the config is usable and Noop otherwise.
func FromConfig(config SmtpConfig) Notifier {
	if !config.Enabled() {
		return Noop{}
	}
	return NewSmtp(config)
}

func (s Smtp) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("poeroll <%s>", s.config.EmailAddress)
	mail.To = s.config.To
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server),
	)
	if err != nil && (strings.Contains(err.Error(), "server doesn't support AUTH") ||
		strings.Contains(err.Error(), "unencrypted connection")) {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}
