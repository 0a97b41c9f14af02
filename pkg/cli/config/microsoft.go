package config

import (
	"log/slog"

	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Microsoft holds CLI flags for the Microsoft Graph integration
type Microsoft struct {
	clientID     string
	clientSecret string
	tenantID     string
	redirectURI  string
}

// Flags returns CLI flags for Microsoft Graph configuration
func (x *Microsoft) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "ms-client-id",
			Usage:       "Microsoft application (client) ID",
			Category:    "Microsoft",
			Sources:     cli.EnvVars("CALSYNC_MS_CLIENT_ID"),
			Destination: &x.clientID,
		},
		&cli.StringFlag{
			Name:        "ms-client-secret",
			Usage:       "Microsoft client secret",
			Category:    "Microsoft",
			Sources:     cli.EnvVars("CALSYNC_MS_CLIENT_SECRET"),
			Destination: &x.clientSecret,
		},
		&cli.StringFlag{
			Name:        "ms-tenant-id",
			Usage:       "Microsoft tenant ID (defaults to the common endpoint)",
			Category:    "Microsoft",
			Sources:     cli.EnvVars("CALSYNC_MS_TENANT_ID"),
			Destination: &x.tenantID,
		},
		&cli.StringFlag{
			Name:        "ms-redirect-uri",
			Usage:       "OAuth redirect URI registered for the application",
			Category:    "Microsoft",
			Sources:     cli.EnvVars("CALSYNC_MS_REDIRECT_URI"),
			Destination: &x.redirectURI,
		},
	}
}

func (x Microsoft) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("client-id.len", len(x.clientID)),
		slog.Int("client-secret.len", len(x.clientSecret)),
		slog.String("tenant-id", x.tenantID),
		slog.String("redirect-uri", x.redirectURI),
	)
}

// TenantID returns the configured tenant ID
func (x *Microsoft) TenantID() string {
	return x.tenantID
}

// Configure builds the Graph client. The app-only token source is only
// created when a tenant ID is set; room calendars require it.
func (x *Microsoft) Configure() (graph.Service, *graph.AppTokenSource, error) {
	if x.clientID == "" || x.clientSecret == "" {
		return nil, nil, goerr.New("ms-client-id and ms-client-secret are required")
	}
	if x.redirectURI == "" {
		return nil, nil, goerr.New("ms-redirect-uri is required")
	}

	var appTokens *graph.AppTokenSource
	if x.tenantID != "" {
		tokens, err := graph.NewAppTokenSource(x.clientID, x.clientSecret, x.tenantID)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to build app token source")
		}
		appTokens = tokens
	}

	svc, err := graph.New(x.clientID, x.clientSecret, x.tenantID, x.redirectURI, appTokens)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to build Graph client")
	}

	return svc, appTokens, nil
}
