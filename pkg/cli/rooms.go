package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"

	"github.com/gighall/calsync/pkg/cli/config"
	"github.com/gighall/calsync/pkg/domain/model"
	roomsvc "github.com/gighall/calsync/pkg/service/rooms"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// cmdRooms dumps the availability of the configured rooms as JSON. It is a
// one-shot diagnostic for the room dashboard wiring.
func cmdRooms() *cli.Command {
	var msCfg config.Microsoft
	var roomsCfg config.Rooms

	flags := append(msCfg.Flags(), roomsCfg.Flags()...)

	return &cli.Command{
		Name:  "rooms",
		Usage: "Dump room availability as JSON",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !roomsCfg.Enabled() {
				return goerr.New("room-directory is required")
			}
			if msCfg.TenantID() == "" {
				return goerr.New("ms-tenant-id is required for room calendars")
			}

			graphSvc, _, err := msCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Microsoft Graph client")
			}

			directory, err := roomsCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load room directory")
			}

			roomSvc, err := roomsvc.New(graphSvc,
				roomsvc.WithCacheTTL(roomsCfg.CacheTTL()),
				roomsvc.WithConcurrency(roomsCfg.Concurrency()),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to build room service")
			}

			roomUC := usecase.NewRoomUseCase(roomSvc)
			roomUC.SetDirectory(directory)

			availability, err := roomUC.Availability(ctx, nil, model.RoomWindow{})
			if err != nil {
				return goerr.Wrap(err, "failed to fetch room availability")
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(availability); err != nil {
				return goerr.Wrap(err, "failed to encode availability")
			}

			return nil
		},
	}
}
