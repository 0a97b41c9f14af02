package model

import (
	"time"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// PrimaryCalendarID is the sentinel addressing the account's default calendar.
// It selects a different Graph URL template than a named calendar ID, so it
// must never be sent to the API as a literal calendar identifier.
const PrimaryCalendarID = "primary"

// Role is the organizing entity (venue, talent or curator) that owns a
// calendar binding and initiates sync. AccountID points at the account whose
// credential is used for delegated calls.
type Role struct {
	ID        types.RoleID
	Name      string
	Subdomain string
	Timezone  string
	AccountID types.AccountID

	CalendarBinding CalendarBinding

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalendarBinding holds the per-role remote calendar configuration and the
// webhook subscription metadata reserved for push-based sync.
type CalendarBinding struct {
	CalendarID   string
	CalendarName string
	Direction    types.SyncDirection

	WebhookSubscriptionID string
	WebhookExpiresAt      time.Time
}

// Validate checks required role fields
func (x *Role) Validate() error {
	if err := x.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid role")
	}
	if x.Subdomain == "" {
		return goerr.New("role subdomain is required", goerr.V("id", x.ID))
	}
	if dir := x.CalendarBinding.Direction; dir != "" && !dir.IsValid() {
		return goerr.New("invalid sync direction", goerr.V("id", x.ID), goerr.V("direction", dir))
	}
	return nil
}

// CalendarID returns the bound remote calendar ID, or the primary sentinel
// when no specific calendar is selected
func (x *Role) CalendarID() string {
	if x.CalendarBinding.CalendarID == "" {
		return PrimaryCalendarID
	}
	return x.CalendarBinding.CalendarID
}

// HasCalendarSettings reports whether a specific remote calendar is bound
func (x *Role) HasCalendarSettings() bool {
	return x.CalendarBinding.CalendarID != ""
}

// SyncsToRemote reports whether local events are pushed to this role's calendar
func (x *Role) SyncsToRemote() bool {
	return x.CalendarBinding.Direction.SyncsTo()
}

// SyncsFromRemote reports whether remote events are pulled for this role
func (x *Role) SyncsFromRemote() bool {
	return x.CalendarBinding.Direction.SyncsFrom()
}

// TimezoneOrUTC returns the configured timezone, defaulting to UTC
func (x *Role) TimezoneOrUTC() string {
	if x.Timezone == "" {
		return "UTC"
	}
	return x.Timezone
}

// ClearWebhook drops the webhook subscription metadata
func (x *CalendarBinding) ClearWebhook() {
	x.WebhookSubscriptionID = ""
	x.WebhookExpiresAt = time.Time{}
}
