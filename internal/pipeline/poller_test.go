package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
	"github.com/couchcryptid/nws-observation-service/internal/observability"
	"github.com/couchcryptid/nws-observation-service/internal/pipeline"
)

type mockReportFetcher struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
	delay time.Duration
}

func (m *mockReportFetcher) FetchReport(_ context.Context, location string, coord domain.Coordinate) (domain.Report, error) {
	m.mu.Lock()
	m.calls = append(m.calls, location)
	m.mu.Unlock()

	time.Sleep(m.delay)
	if err := m.fail[location]; err != nil {
		return domain.Report{}, err
	}
	return domain.Report{
		Location:   location,
		Coordinate: coord,
		Station:    domain.Station{Identifier: "K" + location},
	}, nil
}

func (m *mockReportFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockPublisher struct {
	mu        sync.Mutex
	err       error
	published []domain.Report
}

func (m *mockPublisher) Publish(_ context.Context, r domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, r)
	return nil
}

var testLocations = []domain.Location{
	{Name: "GRR", Coordinate: domain.Coordinate{Latitude: 42.88, Longitude: -85.52}},
	{Name: "DEN", Coordinate: domain.Coordinate{Latitude: 39.74, Longitude: -104.99}},
	{Name: "MIA", Coordinate: domain.Coordinate{Latitude: 25.76, Longitude: -80.19}},
}

func TestPoller_Poll(t *testing.T) {
	fetcher := &mockReportFetcher{}
	pub := &mockPublisher{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.NewPoller(fetcher, pub, testLocations, "@every 1h", discardLogger(), metrics)
	require.Error(t, p.CheckReadiness(context.Background()))

	n := p.Poll(context.Background())
	assert.Equal(t, 3, n)
	require.Len(t, pub.published, 3)
	assert.Equal(t, "KDEN", pub.published[1].Station.Identifier)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.ReportsPublished), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PollTicks), 0)
}

func TestPoller_Poll_FetchFailureSkipsLocation(t *testing.T) {
	fetcher := &mockReportFetcher{fail: map[string]error{"DEN": &domain.StatusCodeError{Code: 500}}}
	pub := &mockPublisher{}

	p := pipeline.NewPoller(fetcher, pub, testLocations, "@every 1h", discardLogger(), observability.NewMetricsForTesting())
	assert.Equal(t, 2, p.Poll(context.Background()))
	assert.Equal(t, []string{"GRR", "DEN", "MIA"}, fetcher.calls)
}

func TestPoller_Poll_PublishFailure(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.NewPoller(&mockReportFetcher{}, pub, testLocations, "@every 1h", discardLogger(), metrics)
	assert.Equal(t, 0, p.Poll(context.Background()))
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.PublishErrors), 0)
}

func TestPoller_Poll_StopsOnCancel(t *testing.T) {
	fetcher := &mockReportFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.NewPoller(fetcher, &mockPublisher{}, testLocations, "@every 1h", discardLogger(), observability.NewMetricsForTesting())
	assert.Equal(t, 0, p.Poll(ctx))
	assert.Empty(t, fetcher.calls)
}

func TestPoller_Start_InvalidSchedule(t *testing.T) {
	p := pipeline.NewPoller(&mockReportFetcher{}, &mockPublisher{}, testLocations, "every now and then", discardLogger(), observability.NewMetricsForTesting())
	err := p.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every now and then")
}

func TestPoller_StartStop(t *testing.T) {
	fetcher := &mockReportFetcher{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.NewPoller(fetcher, &mockPublisher{}, testLocations[:1], "@every 1s", discardLogger(), metrics)
	require.NoError(t, p.Start(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PollerRunning), 0)

	assert.Eventually(t, func() bool { return fetcher.callCount() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.Stop(ctx)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PollerRunning), 0)
}

func TestPoller_PollNow_StopWaits(t *testing.T) {
	fetcher := &mockReportFetcher{delay: 200 * time.Millisecond}
	pub := &mockPublisher{}

	p := pipeline.NewPoller(fetcher, pub, testLocations[:1], "@every 1h", discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.Start(context.Background()))
	p.PollNow()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.Stop(ctx)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.published, 1, "Stop returns only after the immediate tick published")
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPoller_PollNow_SkipsWhileRunning(t *testing.T) {
	fetcher := &mockReportFetcher{delay: 300 * time.Millisecond}

	p := pipeline.NewPoller(fetcher, &mockPublisher{}, testLocations[:1], "@every 1h", discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.Start(context.Background()))
	p.PollNow()
	assert.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, 10*time.Millisecond)
	p.PollNow()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.Stop(ctx)
	assert.Equal(t, 1, fetcher.callCount())
}

func TestPoller_PollNow_BeforeStart(t *testing.T) {
	fetcher := &mockReportFetcher{}
	p := pipeline.NewPoller(fetcher, &mockPublisher{}, testLocations, "@every 1h", discardLogger(), observability.NewMetricsForTesting())
	p.PollNow()
	p.Stop(context.Background())
	assert.Zero(t, fetcher.callCount())
}

func TestLogPublisher(t *testing.T) {
	pub := pipeline.NewLogPublisher(discardLogger())
	assert.NoError(t, pub.Publish(context.Background(), domain.Report{Location: "GRR"}))
}
