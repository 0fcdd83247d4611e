package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
)

// Sender abstracts the SendGrid client so tests can capture messages.
type Sender interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// Ensure SendGridMailer implements the interface.
var _ driven.Mailer = (*SendGridMailer)(nil)

// SendGridMailer sends transactional email through SendGrid.
type SendGridMailer struct {
	sender     Sender
	from       string
	templateID string
}

// NewSendGridMailer creates a mailer from the mail settings.
func NewSendGridMailer(cfg domain.MailSettings) *SendGridMailer {
	return NewSendGridMailerWithSender(sendgrid.NewSendClient(cfg.APIKey), cfg)
}

// NewSendGridMailerWithSender creates a mailer using a custom sender.
func NewSendGridMailerWithSender(sender Sender, cfg domain.MailSettings) *SendGridMailer {
	return &SendGridMailer{
		sender:     sender,
		from:       cfg.From,
		templateID: cfg.TemplateID,
	}
}

// SendVerificationCode sends a one-time sign-in code.
func (m *SendGridMailer) SendVerificationCode(ctx context.Context, msg driven.VerificationMail) error {
	data := map[string]any{
		"kind":       "verification_code",
		"name":       msg.Name,
		"code":       msg.Code,
		"expires_in": msg.ExpiresIn,
	}
	subject, body := verificationText(msg)
	return m.send(ctx, msg.To, msg.Name, subject, body, data)
}

// SendSetupLink sends a password setup link.
func (m *SendGridMailer) SendSetupLink(ctx context.Context, msg driven.SetupMail) error {
	data := map[string]any{
		"kind": "password_setup",
		"name": msg.Name,
		"link": msg.Link,
	}
	subject, body := setupText(msg)
	return m.send(ctx, msg.To, msg.Name, subject, body, data)
}

func (m *SendGridMailer) send(ctx context.Context, to, name, subject, body string, data map[string]any) error {
	from := sgmail.NewEmail("ZMG", m.from)
	recipient := sgmail.NewEmail(name, to)

	var message *sgmail.SGMailV3
	if m.templateID != "" {
		p := sgmail.NewPersonalization()
		p.AddTos(recipient)
		for k, v := range data {
			p.SetDynamicTemplateData(k, v)
		}
		message = sgmail.NewV3Mail()
		message.SetFrom(from)
		message.AddPersonalizations(p)
		message.SetTemplateID(m.templateID)
	} else {
		message = sgmail.NewSingleEmail(from, subject, recipient, body, "")
	}

	resp, err := m.sender.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp != nil && resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func verificationText(msg driven.VerificationMail) (string, string) {
	subject := "Your ZMG sign-in code"
	body := fmt.Sprintf("Hello %s,\n\nYour sign-in code is %s. It expires in %s.\n\n"+
		"If you did not try to sign in, you can ignore this email.\n", greeting(msg.Name), msg.Code, msg.ExpiresIn)
	return subject, body
}

func setupText(msg driven.SetupMail) (string, string) {
	subject := "Set your ZMG password"
	body := fmt.Sprintf("Hello %s,\n\nOpen the link below to set your password:\n\n%s\n\n"+
		"The link can be used once.\n", greeting(msg.Name), msg.Link)
	return subject, body
}

func greeting(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
