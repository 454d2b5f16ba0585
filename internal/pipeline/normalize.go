package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
	"github.com/couchcryptid/nws-observation-service/internal/jsontree"
)

// ObservationNormalizer implements Normalizer with domain.NormalizeObservation.
type ObservationNormalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates an ObservationNormalizer. Degraded fields are logged to logger.
func NewNormalizer(logger *slog.Logger) *ObservationNormalizer {
	return &ObservationNormalizer{logger: logger}
}

func (n *ObservationNormalizer) Normalize(_ context.Context, stationID string, doc jsontree.Value) (domain.Observation, error) {
	obs, err := domain.NormalizeObservation(doc, n.logger.With("station", stationID))
	if err != nil {
		return domain.Observation{}, err
	}
	obs.StationID = stationID
	return obs, nil
}
