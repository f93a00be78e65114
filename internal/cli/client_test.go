package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratrace/internal/api"
	"ratrace/internal/config"
	"ratrace/internal/game"
)

func newTestAPI(t *testing.T, token string) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := game.NewEngine(nil, logger, game.Options{Seed: 5})
	srv := httptest.NewServer(api.New(config.APIConfig{Token: token}, logger, engine).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstAPI(t *testing.T) {
	ctx := context.Background()
	srv := newTestAPI(t, "tok")
	c := NewClient(srv.URL+"/", "tok")

	out, err := c.NewGame(ctx, "engineer", "retire_early", "Jordan", "", "")
	require.NoError(t, err)
	assert.Equal(t, "@jordan", out["handle"])

	dash, err := c.Dashboard(ctx)
	require.NoError(t, err)
	assert.Contains(t, dash, "net_worth_micros")

	_, err = c.PlaceOrder(ctx, "BTC", "buy", "", "order-1", game.QtyScale/100)
	require.NoError(t, err)

	_, err = c.PlaceOrder(ctx, "BTC", "sell", "", "", 50*game.QtyScale)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "insufficient quantity")
	assert.True(t, IsAPIError(err))

	rep, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Contains(t, rep, "report")

	msgs, err := c.Messages(ctx, false)
	require.NoError(t, err)
	assert.NotEmpty(t, msgs["messages"])
}

func TestClientUnauthorized(t *testing.T) {
	srv := newTestAPI(t, "tok")
	_, err := NewClient(srv.URL, "wrong").Dashboard(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid token", apiErr.Message)
}

func TestClientNetworkErrorIsNotAPIError(t *testing.T) {
	srv := newTestAPI(t, "")
	url := srv.URL
	srv.Close()

	c := NewClient(url, "")
	c.HTTP.Timeout = time.Second
	_, err := c.Dashboard(context.Background())
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("RATRACE_HOME", t.TempDir())

	s, err := LoadSession()
	require.NoError(t, err)
	assert.Empty(t, s.APIBaseURL)

	require.NoError(t, SaveSession(Session{APIBaseURL: "http://host:8080", Token: "abc"}))
	s, err = LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "http://host:8080", s.APIBaseURL)
	assert.Equal(t, "abc", s.Token)

	require.NoError(t, ClearSession())
	require.NoError(t, ClearSession())
	s, err = LoadSession()
	require.NoError(t, err)
	assert.Empty(t, s.Token)
}
