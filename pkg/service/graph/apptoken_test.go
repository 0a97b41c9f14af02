package graph_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/m-mizutani/gt"
)

func newTokenEndpoint(t *testing.T, expiresIn int, calls *int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		gt.NoError(t, r.ParseForm()).Required()
		gt.Value(t, r.Form.Get("grant_type")).Equal("client_credentials")
		gt.Value(t, r.Form.Get("scope")).Equal("https://graph.microsoft.com/.default")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "app-token-value",
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAppTokenSourceCachesToken(t *testing.T) {
	var calls int
	server := newTokenEndpoint(t, 3600, &calls)

	source, err := graph.NewAppTokenSource("client-id", "client-secret", "tenant-id",
		graph.WithTokenURL(server.URL),
	)
	gt.NoError(t, err).Required()

	ctx := context.Background()
	first, err := source.Token(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, first).Equal("app-token-value")

	second, err := source.Token(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, second).Equal(first)
	gt.Value(t, calls).Equal(1)
}

func TestAppTokenSourceRefreshesNearExpiry(t *testing.T) {
	var calls int
	// Expiry inside the safety margin forces a fetch on every call
	server := newTokenEndpoint(t, 30, &calls)

	source, err := graph.NewAppTokenSource("client-id", "client-secret", "tenant-id",
		graph.WithTokenURL(server.URL),
	)
	gt.NoError(t, err).Required()

	ctx := context.Background()
	_, err = source.Token(ctx)
	gt.NoError(t, err).Required()
	_, err = source.Token(ctx)
	gt.NoError(t, err).Required()

	gt.Value(t, calls).Equal(2)
}

func TestAppTokenSourceRequiresTenant(t *testing.T) {
	_, err := graph.NewAppTokenSource("client-id", "client-secret", "")
	gt.Value(t, err).NotNil()
}
