package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
	"github.com/couchcryptid/nws-observation-service/internal/jsontree"
	"github.com/couchcryptid/nws-observation-service/internal/observability"
)

// EndpointResolver finds the station listing URL for a coordinate.
type EndpointResolver interface {
	ResolveStationsURL(ctx context.Context, coord domain.Coordinate) (string, error)
}

// StationResolver picks the station to read from a station listing URL.
type StationResolver interface {
	ResolveStation(ctx context.Context, stationsURL string) (domain.Station, error)
}

// ObservationSource fetches the raw latest observation of a station.
type ObservationSource interface {
	LatestObservation(ctx context.Context, stationID string) (jsontree.Value, error)
}

// Normalizer turns a raw observation document into an Observation.
type Normalizer interface {
	Normalize(ctx context.Context, stationID string, doc jsontree.Value) (domain.Observation, error)
}

// Fetcher runs the coordinate → station → observation lookup chain. It keeps
// no state between calls and may be used concurrently.
type Fetcher struct {
	endpoints    EndpointResolver
	stations     StationResolver
	observations ObservationSource
	normalizer   Normalizer
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewFetcher creates a Fetcher with the given stages and observability.
func NewFetcher(e EndpointResolver, s StationResolver, o ObservationSource, n Normalizer, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		endpoints:    e,
		stations:     s,
		observations: o,
		normalizer:   n,
		logger:       logger,
		metrics:      metrics,
	}
}

// FetchWeather returns the latest observation of the first station covering
// coord. The first failing stage's error is returned unchanged and no later
// stage runs.
func (f *Fetcher) FetchWeather(ctx context.Context, coord domain.Coordinate) (domain.Observation, error) {
	_, obs, err := f.fetch(ctx, coord)
	return obs, err
}

// FetchReport is FetchWeather wrapped in a timestamped Report.
func (f *Fetcher) FetchReport(ctx context.Context, location string, coord domain.Coordinate) (domain.Report, error) {
	station, obs, err := f.fetch(ctx, coord)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.NewReport(location, coord, station, obs), nil
}

func (f *Fetcher) fetch(ctx context.Context, coord domain.Coordinate) (station domain.Station, obs domain.Observation, err error) {
	start := time.Now()
	logger := f.logger.With("coordinate", coord.String())
	defer func() {
		f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
		f.metrics.Fetches.WithLabelValues(domain.ErrorKind(err)).Inc()
		if err != nil {
			logger.Warn("fetch observation failed", "error", err, "kind", domain.ErrorKind(err))
		}
	}()

	stationsURL, err := f.endpoints.ResolveStationsURL(ctx, coord)
	if err != nil {
		return domain.Station{}, domain.Observation{}, err
	}
	logger.Debug("observation stations resolved", "url", stationsURL)

	station, err = f.stations.ResolveStation(ctx, stationsURL)
	if err != nil {
		return domain.Station{}, domain.Observation{}, err
	}

	doc, err := f.observations.LatestObservation(ctx, station.Identifier)
	if err != nil {
		return domain.Station{}, domain.Observation{}, err
	}

	obs, err = f.normalizer.Normalize(ctx, station.Identifier, doc)
	if err != nil {
		return domain.Station{}, domain.Observation{}, err
	}

	logger.Info("observation fetched",
		"station", station.Identifier,
		"temperature_f", int(obs.Temperature),
		"feels_like_f", int(obs.FeelsLike()),
		"duration", time.Since(start),
	)
	return station, obs, nil
}
