package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2/clientcredentials"
)

// appTokenSafetyMargin is subtracted from the token expiry so that a token
// handed out near the end of its lifetime does not expire mid-batch.
const appTokenSafetyMargin = 60 * time.Second

// AppTokenSource issues app-only access tokens over the client-credentials
// grant. The token is cached across calls and refreshed under a mutex so
// that concurrent batches share one token.
type AppTokenSource struct {
	cfg *clientcredentials.Config

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// AppTokenOption configures the AppTokenSource
type AppTokenOption func(*AppTokenSource)

// WithTokenURL overrides the token endpoint
func WithTokenURL(tokenURL string) AppTokenOption {
	return func(s *AppTokenSource) {
		s.cfg.TokenURL = tokenURL
	}
}

// NewAppTokenSource creates a token source for the given app registration
func NewAppTokenSource(clientID, clientSecret, tenantID string, opts ...AppTokenOption) (*AppTokenSource, error) {
	if clientID == "" || clientSecret == "" {
		return nil, goerr.New("Microsoft client credentials are required")
	}
	if tenantID == "" {
		return nil, goerr.New("tenant ID is required for app-only tokens")
	}

	s := &AppTokenSource{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
			Scopes:       []string{"https://graph.microsoft.com/.default"},
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Token returns a valid app-only access token, fetching a new one when the
// cached token is missing or within the safety margin of its expiry.
func (s *AppTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	token, err := s.cfg.Token(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch app access token")
	}

	s.token = token.AccessToken
	s.expiresAt = token.Expiry.Add(-appTokenSafetyMargin)

	return s.token, nil
}
