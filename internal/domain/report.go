package domain

import "time"

// Report is an observation together with where and when it was fetched. It
// is what the poller publishes and what the HTTP and CLI surfaces render.
type Report struct {
	Location    string      `json:"location,omitempty"`
	Coordinate  Coordinate  `json:"coordinate"`
	Station     Station     `json:"station"`
	Observation Observation `json:"observation"`
	FeelsLike   Temperature `json:"feels_like_f"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// NewReport stamps obs with the current time and its feels-like temperature.
func NewReport(location string, coord Coordinate, station Station, obs Observation) Report {
	return Report{
		Location:    location,
		Coordinate:  coord,
		Station:     station,
		Observation: obs,
		FeelsLike:   obs.FeelsLike(),
		FetchedAt:   clock.Now().UTC(),
	}
}
