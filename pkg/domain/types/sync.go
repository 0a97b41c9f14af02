package types

import "fmt"

// SyncAction represents the remote mutation requested for an (event, role) pair
type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
)

// AllSyncActions returns all valid sync actions
func AllSyncActions() []SyncAction {
	return []SyncAction{
		SyncActionCreate,
		SyncActionUpdate,
		SyncActionDelete,
	}
}

// IsValid checks if the sync action is valid
func (x SyncAction) IsValid() bool {
	switch x {
	case SyncActionCreate,
		SyncActionUpdate,
		SyncActionDelete:
		return true
	default:
		return false
	}
}

// String returns the string representation of the sync action
func (x SyncAction) String() string {
	return string(x)
}

// ParseSyncAction parses a string into a SyncAction
func ParseSyncAction(s string) (SyncAction, error) {
	action := SyncAction(s)
	if !action.IsValid() {
		return "", fmt.Errorf("invalid sync action: %s", s)
	}
	return action, nil
}

// SyncDirection represents which way calendar data flows for a role
type SyncDirection string

const (
	SyncDirectionTo   SyncDirection = "to"
	SyncDirectionFrom SyncDirection = "from"
	SyncDirectionBoth SyncDirection = "both"
	SyncDirectionNone SyncDirection = "none"
)

// AllSyncDirections returns all valid sync directions
func AllSyncDirections() []SyncDirection {
	return []SyncDirection{
		SyncDirectionTo,
		SyncDirectionFrom,
		SyncDirectionBoth,
		SyncDirectionNone,
	}
}

// IsValid checks if the sync direction is valid
func (x SyncDirection) IsValid() bool {
	switch x {
	case SyncDirectionTo,
		SyncDirectionFrom,
		SyncDirectionBoth,
		SyncDirectionNone:
		return true
	default:
		return false
	}
}

// Normalize returns the direction, treating empty as SyncDirectionNone
func (x SyncDirection) Normalize() SyncDirection {
	if x == "" {
		return SyncDirectionNone
	}
	return x
}

// SyncsTo reports whether local events are pushed to the remote calendar
func (x SyncDirection) SyncsTo() bool {
	return x == SyncDirectionTo || x == SyncDirectionBoth
}

// SyncsFrom reports whether remote events are pulled into the platform
func (x SyncDirection) SyncsFrom() bool {
	return x == SyncDirectionFrom || x == SyncDirectionBoth
}

// String returns the string representation of the sync direction
func (x SyncDirection) String() string {
	return string(x)
}

// ParseSyncDirection parses a string into a SyncDirection
func ParseSyncDirection(s string) (SyncDirection, error) {
	dir := SyncDirection(s)
	if !dir.IsValid() {
		return "", fmt.Errorf("invalid sync direction: %s", s)
	}
	return dir, nil
}
