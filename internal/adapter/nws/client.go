// Package nws fetches points, station listings and latest observations from
// the National Weather Service API.
package nws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
	"github.com/couchcryptid/nws-observation-service/internal/jsontree"
	"github.com/couchcryptid/nws-observation-service/internal/observability"
)

// Stage names, used in logs, wrapped errors and metric labels.
const (
	StagePoints      = "points"
	StageStations    = "stations"
	StageObservation = "observation"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to api.weather.gov. It holds no per-request state and is safe
// for concurrent use.
type Client struct {
	httpClient Doer
	baseURL    string
	userAgent  string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an NWS API client. baseURL has no trailing slash, e.g.
// https://api.weather.gov.
func NewClient(httpClient Doer, baseURL, userAgent string, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		logger:     logger,
		metrics:    metrics,
	}
}

// ResolveStationsURL asks the points endpoint which station listing covers coord.
func (c *Client) ResolveStationsURL(ctx context.Context, coord domain.Coordinate) (stationsURL string, err error) {
	defer c.observe(StagePoints, time.Now(), &err)

	doc, err := c.getJSON(ctx, StagePoints, c.baseURL+"/points/"+coord.String())
	if err != nil {
		return "", err
	}
	return domain.ExtractObservationStationsURL(doc)
}

// ResolveStation fetches the station listing and returns its first station.
func (c *Client) ResolveStation(ctx context.Context, stationsURL string) (station domain.Station, err error) {
	defer c.observe(StageStations, time.Now(), &err)

	doc, err := c.getJSON(ctx, StageStations, stationsURL)
	if err != nil {
		return domain.Station{}, err
	}
	listing, err := domain.ParseStationListing(doc)
	if err != nil {
		return domain.Station{}, err
	}
	station, err = listing.First()
	if err != nil {
		return domain.Station{}, err
	}
	c.logger.Debug("station resolved", "station", station.Identifier, "name", station.Name, "candidates", len(listing))
	return station, nil
}

// LatestObservation fetches the raw latest observation document of a station.
func (c *Client) LatestObservation(ctx context.Context, stationID string) (doc jsontree.Value, err error) {
	defer c.observe(StageObservation, time.Now(), &err)

	u := fmt.Sprintf("%s/stations/%s/observations/latest", c.baseURL, url.PathEscape(stationID))
	return c.getJSON(ctx, StageObservation, u)
}

func (c *Client) observe(stage string, start time.Time, errp *error) {
	c.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	c.metrics.StageRequests.WithLabelValues(stage, domain.ErrorKind(*errp)).Inc()
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// getJSON performs one GET and decodes the body into a JSON object tree.
func (c *Client) getJSON(ctx context.Context, stage, rawURL string) (jsontree.Value, error) {
	req, err := c.newRequest(ctx, rawURL)
	if err != nil {
		return jsontree.Value{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return jsontree.Value{}, fmt.Errorf("%s request: %w", stage, err)
	}
	if resp == nil {
		return jsontree.Value{}, domain.ErrResponseNotHTTP
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("nws request unsuccessful", "stage", stage, "url", rawURL, "status", resp.StatusCode)
		return jsontree.Value{}, &domain.StatusCodeError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return jsontree.Value{}, fmt.Errorf("%s read body: %w", stage, err)
	}
	if len(body) > maxBodyBytes {
		c.logger.Warn("nws response too large", "stage", stage, "url", rawURL, "limit_bytes", maxBodyBytes)
		return jsontree.Value{}, fmt.Errorf("%s: %w", stage, domain.ErrResponseTooLarge)
	}

	doc, err := jsontree.Parse(body)
	if err != nil {
		c.logger.Warn("nws response is not json", "stage", stage, "url", rawURL, "error", err)
		return jsontree.Value{}, domain.ErrDataIsNotJSON
	}
	if doc.Kind() != jsontree.KindObject {
		c.logger.Warn("nws response is not a json object", "stage", stage, "url", rawURL, "kind", doc.Kind())
		return jsontree.Value{}, domain.ErrDataIsNotJSON
	}
	return doc, nil
}
