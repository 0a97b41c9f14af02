package graph

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
)

// Sentinel errors for Graph API failures, checked with errors.Is
var (
	ErrUnauthorized = goerr.New("graph request unauthorized")
	ErrNotFound     = goerr.New("graph resource not found")
	ErrRateLimited  = goerr.New("graph request rate limited")
	ErrTransient    = goerr.New("graph transient failure")
)

// Service provides access to the Microsoft Graph API. Delegated operations
// take the account's access token; room and app-only operations use the
// client-credentials token source.
type Service interface {
	// OAuth2 authorization-code flow
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, *Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	// Delegated calendar operations
	ListCalendars(ctx context.Context, accessToken string) ([]*Calendar, error)
	CreateEvent(ctx context.Context, accessToken, calendarID string, payload *EventPayload) (*RemoteEvent, error)
	UpdateEvent(ctx context.Context, accessToken, calendarID, remoteEventID string, payload *EventPayload) (*RemoteEvent, error)
	DeleteEvent(ctx context.Context, accessToken, calendarID, remoteEventID string) error

	// Delegated directory operations
	ListGroups(ctx context.Context, accessToken string) ([]*Group, error)
	GetGroup(ctx context.Context, accessToken, groupID string) (*Group, error)
	GetGroupMembers(ctx context.Context, accessToken, groupID string) ([]*GroupMember, error)

	// App-only room operations
	AppToken(ctx context.Context) (string, error)
	GetRoomCalendar(ctx context.Context, appToken, roomEmail string) (*RoomCalendar, error)
	GetRoomEvents(ctx context.Context, appToken, roomEmail string, start, end time.Time) ([]*RoomEvent, error)
}

// Identity is the subject extracted from the OAuth id_token at callback
type Identity struct {
	MicrosoftID string
	Email       string
}

// Calendar is a calendar owned by the connected account
type Calendar struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefaultCalendar"`
}

// DateTimeZone is the Graph representation of a wall-clock time in a zone
type DateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// ItemBody is the Graph representation of an event body
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Location is the Graph representation of an event location
type Location struct {
	DisplayName string `json:"displayName"`
}

// EventPayload is the request body for event create and update. The same
// payload is used for both so that a create followed by an update with
// unchanged fields is a no-op on the remote side.
type EventPayload struct {
	Subject  string       `json:"subject"`
	Body     ItemBody     `json:"body"`
	Start    DateTimeZone `json:"start"`
	End      DateTimeZone `json:"end"`
	Location *Location    `json:"location,omitempty"`
}

// RemoteEvent is the identity of an event stored in the remote calendar
type RemoteEvent struct {
	ID        string
	ChangeKey string
}

// Group is a mail-enabled distribution list from the directory
type Group struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Mail        string   `json:"mail"`
	Description string   `json:"description"`
	CreatedAt   string   `json:"createdDateTime"`
	RenewedAt   string   `json:"renewedDateTime"`
	GroupTypes  []string `json:"groupTypes"`
	MemberCount int      `json:"memberCount"`
}

// GroupMember is a directory object belonging to a group
type GroupMember struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Mail        string `json:"mail"`
}

// RoomCalendar is a bookable room's calendar fetched with app permissions
type RoomCalendar struct {
	ID    string
	Name  string
	Email string
}

// RoomEvent is a booking on a room calendar
type RoomEvent struct {
	ID        string       `json:"id"`
	Subject   string       `json:"subject"`
	Start     DateTimeZone `json:"start"`
	End       DateTimeZone `json:"end"`
	Location  Location     `json:"location"`
	Organizer struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"organizer"`
}
