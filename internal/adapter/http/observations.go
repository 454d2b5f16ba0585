package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
)

type observationQuery struct {
	Lat  string `validate:"required,latitude"`
	Lon  string `validate:"required,longitude"`
	Name string `validate:"omitempty,max=64,printascii"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := observationQuery{
		Lat:  strings.TrimSpace(q.Get("lat")),
		Lon:  strings.TrimSpace(q.Get("lon")),
		Name: q.Get("name"),
	}
	if err := s.validate.Struct(query); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
		return
	}

	// Both values passed the latitude/longitude validators.
	lat, _ := strconv.ParseFloat(query.Lat, 64)
	lon, _ := strconv.ParseFloat(query.Lon, 64)
	coord := domain.Coordinate{Latitude: lat, Longitude: lon}

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	report, err := s.fetcher.FetchReport(ctx, query.Name, coord)
	if err != nil {
		kind := domain.ErrorKind(err)
		s.logger.Warn("observation request failed", "coordinate", coord.String(), "kind", kind, "error", err)
		s.writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: kind})
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// statusFor maps a fetch failure to the status returned to the caller.
func statusFor(err error) int {
	var statusErr *domain.StatusCodeError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.Code == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrStationIdentifierNotFound):
		return http.StatusNotFound
	}

	switch domain.ErrorKind(err) {
	case "timeout":
		return http.StatusGatewayTimeout
	case "canceled":
		// The client went away; nobody reads this.
		return 499
	default:
		return http.StatusBadGateway
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "max":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is longer than "+fe.Param()+" characters")
		default:
			msgs = append(msgs, strings.ToLower(fe.Field())+" is not a valid "+fe.Tag())
		}
	}
	return strings.Join(msgs, "; ")
}
