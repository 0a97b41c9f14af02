package model

import (
	"time"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// EventRoleLink is the join record between an event and an organizing role.
// It owns the remote identity of the synced calendar event: RemoteEventID is
// set on first successful remote create, and RemoteChangeKey is only
// meaningful while RemoteEventID is present. Deleting either endpoint of the
// join removes the link, so no mapping can outlive the association.
type EventRoleLink struct {
	EventID types.EventID
	RoleID  types.RoleID

	RemoteEventID   string
	RemoteChangeKey string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks link identity and the change-key invariant
func (x *EventRoleLink) Validate() error {
	if err := x.EventID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid link")
	}
	if err := x.RoleID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid link")
	}
	if x.RemoteChangeKey != "" && x.RemoteEventID == "" {
		return goerr.New("change key without remote event ID",
			goerr.V("event_id", x.EventID), goerr.V("role_id", x.RoleID))
	}
	return nil
}

// Synced reports whether a remote calendar event is recorded for this pair
func (x *EventRoleLink) Synced() bool {
	return x.RemoteEventID != ""
}
