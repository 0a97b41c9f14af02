package config

import (
	"log/slog"

	"github.com/gighall/calsync/pkg/service/notify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the dead-letter notification channel
type Slack struct {
	oauthToken string
	channel    string
}

// Flags returns CLI flags for Slack configuration
func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-oauth-token",
			Usage:       "Slack Bot User OAuth Token (notifications disabled when empty)",
			Category:    "Slack",
			Sources:     cli.EnvVars("CALSYNC_SLACK_OAUTH_TOKEN"),
			Destination: &x.oauthToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel for sync failure notifications",
			Category:    "Slack",
			Sources:     cli.EnvVars("CALSYNC_SLACK_CHANNEL"),
			Destination: &x.channel,
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("oauth-token.len", len(x.oauthToken)),
		slog.String("channel", x.channel),
	)
}

// Configure builds the notification service, or returns nil when Slack is
// not configured.
func (x *Slack) Configure() (notify.Service, error) {
	if x.oauthToken == "" {
		return nil, nil
	}
	if x.channel == "" {
		return nil, goerr.New("slack-channel is required when slack-oauth-token is set")
	}

	return notify.New(x.oauthToken, x.channel)
}
