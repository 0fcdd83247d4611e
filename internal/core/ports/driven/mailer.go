package driven

import "context"

// VerificationMail is the data rendered into a sign-in code email.
type VerificationMail struct {
	To        string
	Name      string
	Code      string
	ExpiresIn string
}

// SetupMail is the data rendered into a password setup email.
type SetupMail struct {
	To   string
	Name string
	Link string
}

// Mailer delivers transactional email.
type Mailer interface {
	// SendVerificationCode sends a one-time sign-in code.
	SendVerificationCode(ctx context.Context, msg VerificationMail) error

	// SendSetupLink sends a password setup link.
	SendSetupLink(ctx context.Context, msg SetupMail) error
}
