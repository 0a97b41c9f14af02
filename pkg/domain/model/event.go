package model

import (
	"time"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultEventDurationHours is assumed when an event has no duration set
const DefaultEventDurationHours = 2

// Event is a platform event as seen by the sync subsystem: only the fields
// that feed the remote payload builder plus identity.
type Event struct {
	ID            types.EventID
	Name          string
	Description   string
	StartsAt      time.Time
	DurationHours int
	VenueAddress  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks required event fields
func (x *Event) Validate() error {
	if err := x.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid event")
	}
	if x.Name == "" {
		return goerr.New("event name is required", goerr.V("id", x.ID))
	}
	if x.StartsAt.IsZero() {
		return goerr.New("event start time is required", goerr.V("id", x.ID))
	}
	return nil
}

// StartDateTime returns the computed start instant of the event
func (x *Event) StartDateTime() time.Time {
	return x.StartsAt
}

// EndDateTime returns the start plus the event duration, defaulting to
// DefaultEventDurationHours when no duration is set
func (x *Event) EndDateTime() time.Time {
	hours := x.DurationHours
	if hours <= 0 {
		hours = DefaultEventDurationHours
	}
	return x.StartsAt.Add(time.Duration(hours) * time.Hour)
}
