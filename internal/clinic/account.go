// Package clinic manages tenant accounts: the credentials the dashboard logs
// in with, the display name stamped onto appointment documents, and the
// WhatsApp channel number that maps inbound chatbot traffic to a tenant.
package clinic

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the lookup key.
	ErrAccountNotFound = errors.New("clinic: account not found")
	// ErrDuplicateAccount is returned when a signup reuses an id or username.
	ErrDuplicateAccount = errors.New("clinic: account already exists")
	// ErrInvalidCredentials is returned when a login fails.
	ErrInvalidCredentials = errors.New("clinic: invalid credentials")
)

// Account is one tenant of the CRM.
//
// Password is stored and compared as plaintext. These are demo-grade
// credentials managed out of band; hardening them is tracked separately from
// this service.
type Account struct {
	ClinicID       string `json:"clinicId"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Email          string `json:"email,omitempty"`
	WhatsAppNumber string `json:"whatsappNumber,omitempty"`
}

// Validate checks the fields required to create an account.
func (a *Account) Validate() error {
	if a.ClinicID == "" || a.Username == "" || a.Password == "" {
		return errors.New("clinic: clinicId, username and password are required")
	}
	return nil
}

// Public returns the account without its credential fields, the shape the
// API responds with.
func (a *Account) Public() map[string]string {
	return map[string]string{
		"clinicId": a.ClinicID,
		"name":     a.Name,
	}
}
