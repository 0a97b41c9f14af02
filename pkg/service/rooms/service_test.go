package rooms_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/gighall/calsync/pkg/service/rooms"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"golang.org/x/oauth2"
)

type graphMock struct {
	tokenCalls int32
	fetchCalls int32
	fetch      func(roomEmail string) ([]*graph.RoomEvent, error)
}

func (m *graphMock) AppToken(ctx context.Context) (string, error) {
	atomic.AddInt32(&m.tokenCalls, 1)
	return "app-token", nil
}

func (m *graphMock) GetRoomEvents(ctx context.Context, appToken, roomEmail string, start, end time.Time) ([]*graph.RoomEvent, error) {
	atomic.AddInt32(&m.fetchCalls, 1)
	if m.fetch != nil {
		return m.fetch(roomEmail)
	}
	return []*graph.RoomEvent{{ID: "evt-" + roomEmail, Subject: "Booked"}}, nil
}

func (m *graphMock) GetRoomCalendar(ctx context.Context, appToken, roomEmail string) (*graph.RoomCalendar, error) {
	return &graph.RoomCalendar{ID: "cal-1", Name: "Boardroom", Email: roomEmail}, nil
}

func (m *graphMock) AuthCodeURL(state string) string { return "" }
func (m *graphMock) Exchange(ctx context.Context, code string) (*oauth2.Token, *graph.Identity, error) {
	return nil, nil, nil
}
func (m *graphMock) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return nil, nil
}
func (m *graphMock) ListCalendars(ctx context.Context, accessToken string) ([]*graph.Calendar, error) {
	return nil, nil
}
func (m *graphMock) CreateEvent(ctx context.Context, accessToken, calendarID string, payload *graph.EventPayload) (*graph.RemoteEvent, error) {
	return nil, nil
}
func (m *graphMock) UpdateEvent(ctx context.Context, accessToken, calendarID, remoteEventID string, payload *graph.EventPayload) (*graph.RemoteEvent, error) {
	return nil, nil
}
func (m *graphMock) DeleteEvent(ctx context.Context, accessToken, calendarID, remoteEventID string) error {
	return nil
}
func (m *graphMock) ListGroups(ctx context.Context, accessToken string) ([]*graph.Group, error) {
	return nil, nil
}
func (m *graphMock) GetGroup(ctx context.Context, accessToken, groupID string) (*graph.Group, error) {
	return nil, nil
}
func (m *graphMock) GetGroupMembers(ctx context.Context, accessToken, groupID string) ([]*graph.GroupMember, error) {
	return nil, nil
}

func testWindow() model.RoomWindow {
	return model.RoomWindow{
		Start: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 5, 1, 23, 59, 59, 0, time.UTC),
	}
}

func TestBatchFetchSharesOneToken(t *testing.T) {
	mock := &graphMock{}
	svc, err := rooms.New(mock)
	gt.NoError(t, err).Required()

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	results, err := svc.GetEventsForRooms(context.Background(), emails, testWindow())
	gt.NoError(t, err).Required()

	gt.Value(t, len(results)).Equal(3)
	gt.Value(t, atomic.LoadInt32(&mock.tokenCalls)).Equal(int32(1))
	gt.Value(t, atomic.LoadInt32(&mock.fetchCalls)).Equal(int32(3))
}

func TestCacheHitAvoidsNetwork(t *testing.T) {
	mock := &graphMock{}
	svc, err := rooms.New(mock)
	gt.NoError(t, err).Required()

	window := testWindow()
	emails := []string{"cached@example.com"}

	_, err = svc.GetEventsForRooms(context.Background(), emails, window)
	gt.NoError(t, err).Required()
	_, err = svc.GetEventsForRooms(context.Background(), emails, window)
	gt.NoError(t, err).Required()

	gt.Value(t, atomic.LoadInt32(&mock.fetchCalls)).Equal(int32(1))
	gt.Value(t, atomic.LoadInt32(&mock.tokenCalls)).Equal(int32(1))
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	current := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	mock := &graphMock{}
	svc, err := rooms.New(mock,
		rooms.WithCacheTTL(60*time.Second),
		rooms.WithClock(func() time.Time { return current }),
	)
	gt.NoError(t, err).Required()

	window := testWindow()
	emails := []string{"room@example.com"}

	_, err = svc.GetEventsForRooms(context.Background(), emails, window)
	gt.NoError(t, err).Required()

	current = current.Add(61 * time.Second)
	_, err = svc.GetEventsForRooms(context.Background(), emails, window)
	gt.NoError(t, err).Required()

	gt.Value(t, atomic.LoadInt32(&mock.fetchCalls)).Equal(int32(2))
}

func TestPerRoomErrorIsolation(t *testing.T) {
	mock := &graphMock{
		fetch: func(roomEmail string) ([]*graph.RoomEvent, error) {
			if roomEmail == "broken@example.com" {
				return nil, goerr.New("room fetch failed")
			}
			return []*graph.RoomEvent{{ID: "evt-ok"}}, nil
		},
	}
	svc, err := rooms.New(mock)
	gt.NoError(t, err).Required()

	results, err := svc.GetEventsForRooms(context.Background(),
		[]string{"ok@example.com", "broken@example.com"}, testWindow())
	gt.NoError(t, err).Required()

	gt.Value(t, results["broken@example.com"].Err).NotNil()
	gt.NoError(t, results["ok@example.com"].Err)
	gt.Value(t, len(results["ok@example.com"].Events)).Equal(1)
}

func TestFailedRoomIsNotCached(t *testing.T) {
	var failed int32
	mock := &graphMock{
		fetch: func(roomEmail string) ([]*graph.RoomEvent, error) {
			if atomic.AddInt32(&failed, 1) == 1 {
				return nil, goerr.New("transient failure")
			}
			return []*graph.RoomEvent{{ID: "evt-retry"}}, nil
		},
	}
	svc, err := rooms.New(mock)
	gt.NoError(t, err).Required()

	window := testWindow()
	emails := []string{"flaky@example.com"}

	results, err := svc.GetEventsForRooms(context.Background(), emails, window)
	gt.NoError(t, err).Required()
	gt.Value(t, results["flaky@example.com"].Err).NotNil()

	results, err = svc.GetEventsForRooms(context.Background(), emails, window)
	gt.NoError(t, err).Required()
	gt.NoError(t, results["flaky@example.com"].Err)
	gt.Value(t, atomic.LoadInt32(&mock.fetchCalls)).Equal(int32(2))
}
