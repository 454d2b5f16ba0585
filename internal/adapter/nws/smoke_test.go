//go:build nws

package nws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
	"github.com/couchcryptid/nws-observation-service/internal/observability"
)

// These tests hit the real api.weather.gov. NWS asks for a contact in the
// User-Agent; set NWS_USER_AGENT to yours.
// Run with: go test -tags=nws ./internal/adapter/nws/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	ua := os.Getenv("NWS_USER_AGENT")
	if ua == "" {
		t.Fatal("NWS_USER_AGENT must be set to run smoke tests")
	}
	return NewClient(
		&http.Client{Timeout: 15 * time.Second},
		"https://api.weather.gov",
		ua,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)
}

func TestSmoke_FullChain(t *testing.T) {
	c := smokeClient(t)
	ctx := context.Background()

	stationsURL, err := c.ResolveStationsURL(ctx, caledonia)
	require.NoError(t, err)
	assert.Contains(t, stationsURL, "/gridpoints/GRR/")

	station, err := c.ResolveStation(ctx, stationsURL)
	require.NoError(t, err)
	assert.NotEmpty(t, station.Identifier)

	doc, err := c.LatestObservation(ctx, station.Identifier)
	require.NoError(t, err)

	obs, err := domain.NormalizeObservation(doc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.False(t, obs.Timestamp.IsZero())
	assert.Greater(t, int(obs.Temperature), -80)
	assert.Less(t, int(obs.Temperature), 140)
}

func TestSmoke_PointOutsideCoverage(t *testing.T) {
	c := smokeClient(t)

	// Middle of the Atlantic: the points endpoint answers 404.
	_, err := c.ResolveStationsURL(context.Background(), domain.Coordinate{Latitude: 30, Longitude: -40})
	var statusErr *domain.StatusCodeError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}
