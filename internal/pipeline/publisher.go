package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
)

// LogPublisher writes reports to the log. It is the sink when SINK=none.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, r domain.Report) error {
	p.logger.InfoContext(ctx, "observation report",
		"location", r.Location,
		"station", r.Station.Identifier,
		"observed_at", r.Observation.Timestamp,
		"description", r.Observation.TextDescription,
		"temperature_f", int(r.Observation.Temperature),
		"feels_like_f", int(r.FeelsLike),
		"wind_mph", r.Observation.Wind.SpeedMph,
	)
	return nil
}
