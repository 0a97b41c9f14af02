package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// AccountID is a UUID-based identifier for a platform account
type AccountID string

// NewAccountID generates a new UUID v4 AccountID
func NewAccountID() AccountID {
	return AccountID(uuid.New().String())
}

func (x AccountID) String() string {
	return string(x)
}

// Validate checks if the account ID is non-empty
func (x AccountID) Validate() error {
	if x == "" {
		return goerr.New("account ID is empty")
	}
	return nil
}

// RoleID is a UUID-based identifier for an organizing role (venue, talent or curator)
type RoleID string

// NewRoleID generates a new UUID v4 RoleID
func NewRoleID() RoleID {
	return RoleID(uuid.New().String())
}

func (x RoleID) String() string {
	return string(x)
}

// Validate checks if the role ID is non-empty
func (x RoleID) Validate() error {
	if x == "" {
		return goerr.New("role ID is empty")
	}
	return nil
}

// EventID is a UUID-based identifier for a platform event
type EventID string

// NewEventID generates a new UUID v4 EventID
func NewEventID() EventID {
	return EventID(uuid.New().String())
}

func (x EventID) String() string {
	return string(x)
}

// Validate checks if the event ID is non-empty
func (x EventID) Validate() error {
	if x == "" {
		return goerr.New("event ID is empty")
	}
	return nil
}
