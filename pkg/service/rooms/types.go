package rooms

import (
	"context"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/service/graph"
)

// Service provides room calendar availability for the dashboard. Results
// are cached per room and window for a short period to absorb dashboard
// refreshes.
type Service interface {
	// GetEventsForRooms fetches the calendar view of each room over the
	// window. Failures are isolated per room; only a failure to obtain the
	// app token fails the whole batch.
	GetEventsForRooms(ctx context.Context, emails []string, window model.RoomWindow) (map[string]*Result, error)

	// GetRoomCalendar resolves a single room's calendar metadata
	GetRoomCalendar(ctx context.Context, email string) (*graph.RoomCalendar, error)
}

// Result is the outcome of one room's fetch
type Result struct {
	Events []*graph.RoomEvent
	Err    error
}
