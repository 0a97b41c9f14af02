package config

import (
	"os"
	"strings"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Rooms holds CLI flags for the room directory and availability cache
type Rooms struct {
	directoryPath string
	cacheTTL      time.Duration
	concurrency   int
}

// roomDirectory is the TOML document layout of the room directory file
type roomDirectory struct {
	Rooms []model.Room `toml:"room"`
}

// Flags returns CLI flags for room dashboard configuration
func (x *Rooms) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "room-directory",
			Usage:       "Path to the TOML room directory (room dashboard disabled when empty)",
			Category:    "Rooms",
			Sources:     cli.EnvVars("CALSYNC_ROOM_DIRECTORY"),
			Destination: &x.directoryPath,
		},
		&cli.DurationFlag{
			Name:        "room-cache-ttl",
			Usage:       "Room availability cache TTL",
			Category:    "Rooms",
			Value:       time.Minute,
			Sources:     cli.EnvVars("CALSYNC_ROOM_CACHE_TTL"),
			Destination: &x.cacheTTL,
		},
		&cli.IntFlag{
			Name:        "room-concurrency",
			Usage:       "Max concurrent room calendar fetches",
			Category:    "Rooms",
			Value:       8,
			Sources:     cli.EnvVars("CALSYNC_ROOM_CONCURRENCY"),
			Destination: &x.concurrency,
		},
	}
}

// Enabled reports whether a room directory is configured
func (x *Rooms) Enabled() bool {
	return x.directoryPath != ""
}

// CacheTTL returns the configured availability cache TTL
func (x *Rooms) CacheTTL() time.Duration {
	return x.cacheTTL
}

// Concurrency returns the configured fetch concurrency
func (x *Rooms) Concurrency() int {
	return x.concurrency
}

// Configure loads and validates the room directory file
func (x *Rooms) Configure() ([]model.Room, error) {
	if x.directoryPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(x.directoryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "room directory file not found",
				goerr.V("path", x.directoryPath))
		}
		return nil, goerr.Wrap(err, "failed to read room directory",
			goerr.V("path", x.directoryPath))
	}

	var directory roomDirectory
	if err := toml.Unmarshal(data, &directory); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse room directory",
			goerr.V("path", x.directoryPath), goerr.V("cause", err.Error()))
	}

	return validateRooms(directory.Rooms)
}

func validateRooms(rooms []model.Room) ([]model.Room, error) {
	seen := make(map[string]bool, len(rooms))
	for i := range rooms {
		email := strings.ToLower(strings.TrimSpace(rooms[i].Email))
		if email == "" {
			return nil, goerr.Wrap(ErrMissingRoomEmail, "room entry has no email",
				goerr.V("index", i))
		}
		if seen[email] {
			return nil, goerr.Wrap(ErrDuplicateRoom, "room email appears twice",
				goerr.V("email", email))
		}
		seen[email] = true
		rooms[i].Email = email
		if rooms[i].Name == "" {
			rooms[i].Name = email
		}
	}
	return rooms, nil
}
