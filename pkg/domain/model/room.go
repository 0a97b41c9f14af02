package model

import "time"

// Room is a shared resource mailbox (conference room) whose calendar is read
// with application-only auth.
type Room struct {
	Email string `json:"email" toml:"email"`
	Name  string `json:"name" toml:"name"`
}

// RoomWindow is the half-open time window of a room calendar view
type RoomWindow struct {
	Start time.Time
	End   time.Time
}

// DefaultRoomWindow returns the original dashboard default: today at 00:00
// UTC through end-of-day 30 days out.
func DefaultRoomWindow(now time.Time) RoomWindow {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30).Add(24*time.Hour - time.Second)
	return RoomWindow{Start: start, End: end}
}
