package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/nws-observation-service/internal/jsontree"
)

type fallback uint8

const (
	// fallbackNone propagates every failure.
	fallbackNone fallback = iota
	// fallbackAbsent treats a missing or null value as absent. A wrong shape
	// still fails.
	fallbackAbsent
	// fallbackDefault logs any failure and substitutes the zero value.
	fallbackDefault
)

type fieldPolicy struct {
	required bool
	fallback fallback
	logLevel slog.Level // fallbackDefault only
	// unusableAbsent extends fallbackAbsent to a measurement whose value is
	// not a usable number, e.g. "NA". The measurement object itself must
	// still have the right shape.
	unusableAbsent bool
}

var (
	requiredField = fieldPolicy{required: true}
	optionalField = fieldPolicy{fallback: fallbackAbsent}
	// optionalReading is an optional measurement that upstream may fill with
	// placeholder text.
	optionalReading = fieldPolicy{fallback: fallbackAbsent, unusableAbsent: true}
)

// observationFields is the failure policy of every field read from an
// observation's properties.
var observationFields = map[string]fieldPolicy{
	"timestamp":          requiredField,
	"textDescription":    requiredField,
	"temperature":        requiredField,
	"dewpoint":           requiredField,
	"windChill":          optionalReading,
	"heatIndex":          optionalReading,
	"windDirection":      {fallback: fallbackDefault, logLevel: slog.LevelWarn},
	"windSpeed":          {fallback: fallbackDefault, logLevel: slog.LevelWarn},
	"windGust":           {fallback: fallbackDefault, logLevel: slog.LevelDebug},
	"barometricPressure": requiredField,
	"visibility":         requiredField,
	"relativeHumidity":   optionalField,
	"cloudLayers":        requiredField,
}

// extract reads name with read and applies the field's policy. ok is false
// when the value is absent or was replaced by its default.
func extract[T any](props jsontree.Value, name string, read func(jsontree.Value, string) (T, error), logger *slog.Logger) (value T, ok bool, err error) {
	policy, known := observationFields[name]
	if !known {
		return value, false, fmt.Errorf("no extraction policy for field %q", name)
	}

	v, err := read(props, name)
	if err == nil {
		return v, true, nil
	}

	switch policy.fallback {
	case fallbackDefault:
		logger.Log(context.Background(), policy.logLevel, "observation field unusable, using default",
			"field", name,
			"error", err,
		)
		return value, false, nil
	case fallbackAbsent:
		if isAbsent(err) {
			return value, false, nil
		}
		if policy.unusableAbsent && isUnusableValue(err) {
			logger.Debug("observation field value unusable, treating as absent",
				"field", name,
				"error", err,
			)
			return value, false, nil
		}
	}
	return value, false, classify(name, err)
}

// isAbsent reports whether err means "no value" rather than "bad value".
func isAbsent(err error) bool {
	var nilErr *NilFoundError
	return jsontree.IsAbsent(err) || errors.As(err, &nilErr)
}

// isUnusableValue reports whether err is about the "value" member of a
// measurement holding something other than a representable number.
func isUnusableValue(err error) bool {
	var fe *jsontree.FieldError
	if !errors.As(err, &fe) || fe.Field != "value" {
		return false
	}
	return fe.Reason == jsontree.ReasonWrongType || fe.Reason == jsontree.ReasonOutOfRange
}

// classify turns accessor failures into domain errors. Errors that are
// already domain errors pass through.
func classify(name string, err error) error {
	var fe *jsontree.FieldError
	if !errors.As(err, &fe) {
		return err
	}
	if fe.Reason == jsontree.ReasonOutOfRange {
		return &ConvertTypeError{Field: name, Value: fe.Path}
	}
	return &ParseFailedError{Field: name, Err: err}
}

// measurement returns the {unitCode, value} object name and its unit code.
func measurement(props jsontree.Value, name string) (jsontree.Value, string, error) {
	node, err := props.Object(name)
	if err != nil {
		return jsontree.Value{}, "", err
	}
	unit, _ := node.Get("unitCode")
	code, _ := unit.AsString()
	return node, code, nil
}

// measurementErr maps a failure reading "value" inside measurement name.
func measurementErr(name string, err error) error {
	if jsontree.IsAbsent(err) {
		return &NilFoundError{Field: name}
	}
	return err
}

func readString(props jsontree.Value, name string) (string, error) {
	return props.String(name)
}

// timestampLayouts have whole seconds and a zone. time.Parse would accept
// fractional seconds after them, so readTimestamp rejects those first.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
}

// secondsEnd is the offset just past the seconds field of the layouts.
const secondsEnd = len("2006-01-02T15:04:05")

func readTimestamp(props jsontree.Value, name string) (time.Time, error) {
	raw, err := props.String(name)
	if err != nil {
		return time.Time{}, err
	}
	if len(raw) > secondsEnd && raw[secondsEnd] == '.' {
		return time.Time{}, &ConvertTypeError{Field: name, Value: raw}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ConvertTypeError{Field: name, Value: raw}
}

func readTemperature(props jsontree.Value, name string) (Temperature, error) {
	node, unit, err := measurement(props, name)
	if err != nil {
		return 0, err
	}
	v, err := node.Float64("value")
	if err != nil {
		return 0, measurementErr(name, err)
	}
	switch unit {
	case "", "wmoUnit:degC":
		return FahrenheitFromCelsius(v), nil
	case "wmoUnit:degF":
		return Temperature(math.Round(v)), nil
	default:
		return 0, &ConvertTypeError{Field: name, Value: unit}
	}
}

func readSpeed(props jsontree.Value, name string) (float64, error) {
	node, unit, err := measurement(props, name)
	if err != nil {
		return 0, err
	}
	v, err := node.Float64("value")
	if err != nil {
		return 0, measurementErr(name, err)
	}
	switch unit {
	case "", "wmoUnit:km_h-1":
		return v * mphPerKmh, nil
	case "wmoUnit:m_s-1":
		return v * mphPerMps, nil
	default:
		return 0, &ConvertTypeError{Field: name, Value: unit}
	}
}

func readInt(props jsontree.Value, name string) (int, error) {
	node, _, err := measurement(props, name)
	if err != nil {
		return 0, err
	}
	v, err := node.Int("value")
	if err != nil {
		return 0, measurementErr(name, err)
	}
	return v, nil
}

func readCloudLayers(props jsontree.Value, name string) ([]CloudLayer, error) {
	elems, err := props.Array(name)
	if err != nil {
		return nil, err
	}

	layers := make([]CloudLayer, 0, len(elems))
	for _, elem := range elems {
		code, err := elem.String("amount")
		if err != nil {
			return nil, err
		}
		amount, ok := ParseCloudAmount(code)
		if !ok {
			return nil, &EnumElementNotFoundError{Field: name + ".amount", Value: code}
		}

		layer := CloudLayer{Amount: amount}
		base, err := elem.Lookup("base", "value")
		switch {
		case err == nil:
			meters, ok := base.AsInt()
			if !ok {
				return nil, &ConvertTypeError{Field: name + ".base", Value: base.Path()}
			}
			layer.BaseMeters = &meters
		case !jsontree.IsAbsent(err):
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}
