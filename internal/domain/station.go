package domain

import (
	"fmt"
	"net/url"

	"github.com/couchcryptid/nws-observation-service/internal/jsontree"
)

// Station is an NWS observation station.
type Station struct {
	Identifier string `json:"id"`
	Name       string `json:"name,omitempty"`
}

// StationListing holds the stations of a listing in document order.
type StationListing []Station

// ExtractObservationStationsURL returns properties.observationStations from
// a points document.
func ExtractObservationStationsURL(doc jsontree.Value) (string, error) {
	props, err := doc.Object("properties")
	if err != nil {
		return "", &ParseFailedError{Field: "properties", Err: err}
	}
	raw, err := props.String("observationStations")
	if err != nil {
		return "", &ParseFailedError{Field: "observationStations", Err: err}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &ParseFailedError{Field: "observationStations", Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return "", &ParseFailedError{Field: "observationStations", Err: fmt.Errorf("not an absolute URL: %q", raw)}
	}
	return raw, nil
}

// ParseStationListing reads the features of a station listing document.
// Features without a readable identifier are kept with an empty Identifier
// so that document order is preserved.
func ParseStationListing(doc jsontree.Value) (StationListing, error) {
	features, err := doc.Array("features")
	if err != nil {
		return nil, &ParseFailedError{Field: "features", Err: err}
	}

	listing := make(StationListing, 0, len(features))
	for _, feature := range features {
		var s Station
		if props, err := feature.Object("properties"); err == nil {
			s.Identifier, _ = props.String("stationIdentifier")
			s.Name, _ = props.String("name")
		}
		listing = append(listing, s)
	}
	return listing, nil
}

// First returns the first station of the listing. No ranking is applied.
func (l StationListing) First() (Station, error) {
	if len(l) == 0 || l[0].Identifier == "" {
		return Station{}, ErrStationIdentifierNotFound
	}
	return l[0], nil
}
