package domain

import (
	"net/mail"
	"strings"
	"time"
)

// User is a person allowed to sign in to the management system.
type User struct {
	// ID is the unique identifier (UUID).
	ID string `json:"id"`
	// Email is the normalised sign-in address.
	Email string `json:"email"`
	// Name is the display name.
	Name string `json:"name"`
	// Role determines the user's permissions.
	Role Role `json:"role"`
	// PasswordHash is the bcrypt hash of the password. Empty until setup completes.
	PasswordHash string `json:"-"`
	// Active is false for deactivated accounts.
	Active bool `json:"active"`
	// PasswordUpdatedAt is when the password was last set.
	PasswordUpdatedAt time.Time `json:"password_updated_at,omitempty"`
	// CreatedAt is when the user was created.
	CreatedAt time.Time `json:"created_at"`
}

// HasPassword returns true if the user has completed password setup.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address parses as a bare email address.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && addr.Name == ""
}

// ValidPassword checks the password policy: at least 8 characters
// with at least one letter and one digit.
func ValidPassword(password string) bool {
	if len([]rune(password)) < 8 {
		return false
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letter = true
		}
	}
	return letter && digit
}
