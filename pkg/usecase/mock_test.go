package usecase_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/gighall/calsync/pkg/service/rooms"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
)

// graphMock records call counts per operation and returns canned responses
type graphMock struct {
	refreshCalls int32
	createCalls  int32
	updateCalls  int32
	deleteCalls  int32

	refreshErr error
	createErr  error
	updateErr  error
	deleteErr  error

	lastCreateCalendarID string
	lastCreatePayload    *graph.EventPayload
	lastUpdatePayload    *graph.EventPayload
	lastUpdateRemoteID   string

	groups  []*graph.Group
	members []*graph.GroupMember
}

func (m *graphMock) AuthCodeURL(state string) string {
	return "https://login.example.com/authorize?state=" + state
}

func (m *graphMock) Exchange(ctx context.Context, code string) (*oauth2.Token, *graph.Identity, error) {
	if code == "" {
		return nil, nil, goerr.New("invalid code")
	}
	token := &oauth2.Token{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		Expiry:       time.Now().Add(time.Hour),
	}
	return token, &graph.Identity{MicrosoftID: "ms-oid-1", Email: "connected@example.com"}, nil
}

func (m *graphMock) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	atomic.AddInt32(&m.refreshCalls, 1)
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return &oauth2.Token{
		AccessToken: "refreshed-access",
		Expiry:      time.Now().Add(time.Hour),
	}, nil
}

func (m *graphMock) ListCalendars(ctx context.Context, accessToken string) ([]*graph.Calendar, error) {
	return []*graph.Calendar{
		{ID: "primary-cal", Name: "Calendar", IsDefault: true},
		{ID: "AAMkBookings", Name: "Bookings"},
	}, nil
}

func (m *graphMock) CreateEvent(ctx context.Context, accessToken, calendarID string, payload *graph.EventPayload) (*graph.RemoteEvent, error) {
	atomic.AddInt32(&m.createCalls, 1)
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.lastCreateCalendarID = calendarID
	m.lastCreatePayload = payload
	return &graph.RemoteEvent{ID: "AAMkAGI-created", ChangeKey: "ck-1"}, nil
}

func (m *graphMock) UpdateEvent(ctx context.Context, accessToken, calendarID, remoteEventID string, payload *graph.EventPayload) (*graph.RemoteEvent, error) {
	atomic.AddInt32(&m.updateCalls, 1)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.lastUpdateRemoteID = remoteEventID
	m.lastUpdatePayload = payload
	return &graph.RemoteEvent{ID: remoteEventID, ChangeKey: "ck-2"}, nil
}

func (m *graphMock) DeleteEvent(ctx context.Context, accessToken, calendarID, remoteEventID string) error {
	atomic.AddInt32(&m.deleteCalls, 1)
	return m.deleteErr
}

func (m *graphMock) ListGroups(ctx context.Context, accessToken string) ([]*graph.Group, error) {
	return m.groups, nil
}

func (m *graphMock) GetGroup(ctx context.Context, accessToken, groupID string) (*graph.Group, error) {
	for _, group := range m.groups {
		if group.ID == groupID {
			return group, nil
		}
	}
	return nil, goerr.Wrap(graph.ErrNotFound, "group not found")
}

func (m *graphMock) GetGroupMembers(ctx context.Context, accessToken, groupID string) ([]*graph.GroupMember, error) {
	return m.members, nil
}

func (m *graphMock) AppToken(ctx context.Context) (string, error) {
	return "app-token", nil
}

func (m *graphMock) GetRoomCalendar(ctx context.Context, appToken, roomEmail string) (*graph.RoomCalendar, error) {
	return &graph.RoomCalendar{ID: "room-cal", Name: roomEmail, Email: roomEmail}, nil
}

func (m *graphMock) GetRoomEvents(ctx context.Context, appToken, roomEmail string, start, end time.Time) ([]*graph.RoomEvent, error) {
	return nil, nil
}

type roomsResult struct {
	events []*graph.RoomEvent
	err    bool
}

// roomsMock serves canned per-room results keyed by email
type roomsMock struct {
	results map[string]*roomsResult
}

func (m *roomsMock) GetEventsForRooms(ctx context.Context, emails []string, window model.RoomWindow) (map[string]*rooms.Result, error) {
	out := make(map[string]*rooms.Result, len(emails))
	for _, email := range emails {
		canned, ok := m.results[email]
		if !ok {
			continue
		}
		result := &rooms.Result{Events: canned.events}
		if canned.err {
			result.Err = goerr.New("room fetch failed")
		}
		out[email] = result
	}
	return out, nil
}

func (m *roomsMock) GetRoomCalendar(ctx context.Context, email string) (*graph.RoomCalendar, error) {
	return &graph.RoomCalendar{ID: "room-cal", Name: email, Email: email}, nil
}

func newRoomEvent(id, subject, organizer string) *graph.RoomEvent {
	event := &graph.RoomEvent{
		ID:      id,
		Subject: subject,
		Start:   graph.DateTimeZone{DateTime: "2026-09-01T10:00:00", TimeZone: "UTC"},
		End:     graph.DateTimeZone{DateTime: "2026-09-01T11:00:00", TimeZone: "UTC"},
	}
	event.Organizer.EmailAddress.Name = organizer
	event.Organizer.EmailAddress.Address = organizer + "@example.com"
	return event
}
