package model

import (
	"time"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Account represents a platform user account and its Microsoft 365 credential.
// Token fields are tagged for masq so they never appear in log output.
type Account struct {
	ID    types.AccountID
	Name  string
	Email string

	MicrosoftID    string
	AccessToken    string `masq:"secret"`
	RefreshToken   string `masq:"secret"`
	TokenExpiresAt time.Time
	CalendarID     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks required account fields
func (x *Account) Validate() error {
	if err := x.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid account")
	}
	return nil
}

// Connected reports whether the account has a usable Microsoft credential.
// A missing refresh token means disconnected regardless of the access token.
func (x *Account) Connected() bool {
	return x.RefreshToken != ""
}

// Disconnect clears the Microsoft credential and identity fields
func (x *Account) Disconnect() {
	x.MicrosoftID = ""
	x.AccessToken = ""
	x.RefreshToken = ""
	x.TokenExpiresAt = time.Time{}
	x.CalendarID = ""
}
