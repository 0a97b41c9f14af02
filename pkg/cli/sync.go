package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/gighall/calsync/pkg/cli/config"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/gighall/calsync/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var subdomain string
	var repoCfg config.Repository
	var msCfg config.Microsoft

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "subdomain",
			Usage:       "Subdomain of the role to backfill",
			Required:    true,
			Sources:     cli.EnvVars("CALSYNC_SYNC_SUBDOMAIN"),
			Destination: &subdomain,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, msCfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Backfill a role's events to its remote calendar",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			graphSvc, _, err := msCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Microsoft Graph client")
			}

			role, err := repo.Role().GetBySubdomain(ctx, subdomain)
			if err != nil {
				return goerr.Wrap(err, "failed to find role", goerr.V("subdomain", subdomain))
			}

			uc := usecase.New(repo, graphSvc)

			report, err := uc.Sync.SyncAll(ctx, role.ID)
			if err != nil {
				return goerr.Wrap(err, "bulk sync failed", goerr.V("subdomain", subdomain))
			}

			logger.Info("Bulk sync completed",
				"subdomain", subdomain,
				"created", report.Created,
				"skipped", report.Skipped,
				"errors", report.Errors)

			return nil
		},
	}
}
