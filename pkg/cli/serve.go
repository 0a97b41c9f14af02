package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/gighall/calsync/pkg/cli/config"
	httpctrl "github.com/gighall/calsync/pkg/controller/http"
	"github.com/gighall/calsync/pkg/service/notify"
	"github.com/gighall/calsync/pkg/service/queue"
	"github.com/gighall/calsync/pkg/service/rooms"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/gighall/calsync/pkg/utils/async"
	"github.com/gighall/calsync/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var queueWorkers int
	var queueMaxAttempts int
	var repoCfg config.Repository
	var msCfg config.Microsoft
	var roomsCfg config.Rooms
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CALSYNC_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "queue-workers",
			Usage:       "Number of sync queue workers",
			Value:       4,
			Sources:     cli.EnvVars("CALSYNC_QUEUE_WORKERS"),
			Destination: &queueWorkers,
		},
		&cli.IntFlag{
			Name:        "queue-max-attempts",
			Usage:       "Attempt budget per sync task before dead-lettering",
			Value:       3,
			Sources:     cli.EnvVars("CALSYNC_QUEUE_MAX_ATTEMPTS"),
			Destination: &queueMaxAttempts,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, msCfg.Flags()...)
	flags = append(flags, roomsCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server and the sync queue",
		Flags:   flags,
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

			graphSvc, appTokens, err := msCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Microsoft Graph client")
			}
			logger.Info("Microsoft Graph client configured", "microsoft", msCfg)

			ucOpts := []usecase.Option{}

			if roomsCfg.Enabled() {
				if appTokens == nil {
					return goerr.New("ms-tenant-id is required for the room dashboard")
				}
				roomSvc, err := rooms.New(graphSvc,
					rooms.WithCacheTTL(roomsCfg.CacheTTL()),
					rooms.WithConcurrency(roomsCfg.Concurrency()),
				)
				if err != nil {
					return goerr.Wrap(err, "failed to build room service")
				}
				ucOpts = append(ucOpts, usecase.WithRooms(roomSvc))
			}

			uc := usecase.New(repo, graphSvc, ucOpts...)

			if roomsCfg.Enabled() {
				directory, err := roomsCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to load room directory")
				}
				uc.Room.SetDirectory(directory)
				logger.Info("Room dashboard enabled", "rooms", len(directory))
			}

			notifySvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack notification")
			}
			if notifySvc != nil {
				logger.Info("Slack notification enabled", "slack", slackCfg)
			}

			q, err := buildQueue(uc, notifySvc, queueWorkers, queueMaxAttempts)
			if err != nil {
				return goerr.Wrap(err, "failed to build sync queue")
			}
			if err := q.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start sync queue")
			}
			uc.AttachQueue(q)

			httpHandler, err := httpctrl.New(uc)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				q.Stop()
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				// Wait for in-flight sync handlers before closing the
				// repository. Queued tasks still in the buffer are dropped;
				// the sync command backfills them.
				q.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// buildQueue wires the sync engine into the queue handler and routes
// dead-lettered tasks to the Slack notifier when one is configured.
func buildQueue(uc *usecase.UseCases, notifySvc notify.Service, workers, maxAttempts int) (*queue.Queue, error) {
	handler := func(ctx context.Context, task *queue.Task) error {
		return uc.Sync.SyncEvent(ctx, task.EventID, task.RoleID, task.Action)
	}

	opts := []queue.Option{
		queue.WithWorkers(workers),
		queue.WithMaxAttempts(maxAttempts),
	}

	if notifySvc != nil {
		opts = append(opts, queue.WithDeadLetter(func(ctx context.Context, task *queue.Task, err error) {
			// Notification must not block the queue worker
			async.Dispatch(ctx, func(ctx context.Context) error {
				return notifySvc.NotifySyncFailure(ctx, task.EventID, task.RoleID, task.Action, task.Attempt, err)
			})
		}))
	}

	return queue.New(handler, opts...)
}
