// Package mail implements driven.Mailer.
//
// SendGridMailer delivers through the SendGrid v3 API, either with a dynamic
// template or with built-in plain text bodies. LogMailer writes messages to
// the application log and is meant for local development only.
package mail
