package mail

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// Ensure LogMailer implements the interface.
var _ driven.Mailer = LogMailer{}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

// SendVerificationCode logs the code.
func (LogMailer) SendVerificationCode(_ context.Context, msg driven.VerificationMail) error {
	logger.Info("mail to %s: sign-in code %s (expires in %s)", msg.To, msg.Code, msg.ExpiresIn)
	return nil
}

// SendSetupLink logs the link.
func (LogMailer) SendSetupLink(_ context.Context, msg driven.SetupMail) error {
	logger.Info("mail to %s: password setup link %s", msg.To, msg.Link)
	return nil
}

// New returns the mailer for the configured provider.
func New(cfg domain.MailSettings) driven.Mailer {
	if cfg.Provider == domain.MailProviderSendGrid {
		return NewSendGridMailer(cfg)
	}
	logger.Warn("mail provider is %q, messages are only logged", cfg.Provider)
	return LogMailer{}
}
