package usecase

import (
	"context"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/service/rooms"
	"github.com/m-mizutani/goerr/v2"
)

// RoomUseCase serves room availability for the dashboard from the
// configured room directory.
type RoomUseCase struct {
	rooms     rooms.Service
	directory []model.Room
}

func NewRoomUseCase(roomSvc rooms.Service) *RoomUseCase {
	return &RoomUseCase{
		rooms: roomSvc,
	}
}

// SetDirectory replaces the configured room directory
func (uc *RoomUseCase) SetDirectory(directory []model.Room) {
	uc.directory = directory
}

// Directory returns the configured rooms
func (uc *RoomUseCase) Directory() []model.Room {
	return uc.directory
}

// RoomAvailability is one room's dashboard entry
type RoomAvailability struct {
	Room   model.Room          `json:"room"`
	Events []*RoomEventSummary `json:"events"`
	Error  string              `json:"error,omitempty"`
}

// RoomEventSummary is the dashboard projection of a remote room booking
type RoomEventSummary struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Location  string `json:"location,omitempty"`
	Organizer string `json:"organizer,omitempty"`
}

// Availability fetches the calendar view of the requested rooms. An empty
// emails list means the whole directory. Failures surface per room; the
// client sees a generic reason only.
func (uc *RoomUseCase) Availability(ctx context.Context, emails []string, window model.RoomWindow) ([]*RoomAvailability, error) {
	if uc.rooms == nil {
		return nil, goerr.New("room service is not configured")
	}

	selected := uc.selectRooms(emails)
	if len(selected) == 0 {
		return []*RoomAvailability{}, nil
	}

	addresses := make([]string, len(selected))
	for i, room := range selected {
		addresses[i] = room.Email
	}

	results, err := uc.rooms.GetEventsForRooms(ctx, addresses, window)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch room availability")
	}

	availability := make([]*RoomAvailability, 0, len(selected))
	for _, room := range selected {
		entry := &RoomAvailability{Room: room, Events: []*RoomEventSummary{}}

		result, ok := results[room.Email]
		switch {
		case !ok:
			entry.Error = "no response"
		case result.Err != nil:
			entry.Error = "failed to fetch events"
		default:
			for _, event := range result.Events {
				summary := &RoomEventSummary{
					ID:       event.ID,
					Subject:  event.Subject,
					Start:    event.Start.DateTime,
					End:      event.End.DateTime,
					Location: event.Location.DisplayName,
				}
				if event.Organizer.EmailAddress.Name != "" {
					summary.Organizer = event.Organizer.EmailAddress.Name
				} else {
					summary.Organizer = event.Organizer.EmailAddress.Address
				}
				entry.Events = append(entry.Events, summary)
			}
		}

		availability = append(availability, entry)
	}

	return availability, nil
}

// selectRooms filters the directory down to the requested emails, keeping
// directory order. Unknown emails are ignored.
func (uc *RoomUseCase) selectRooms(emails []string) []model.Room {
	if len(emails) == 0 {
		return uc.directory
	}

	requested := make(map[string]bool, len(emails))
	for _, email := range emails {
		requested[email] = true
	}

	var selected []model.Room
	for _, room := range uc.directory {
		if requested[room.Email] {
			selected = append(selected, room)
		}
	}
	return selected
}
