package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel failures of the lookup chain.
var (
	// ErrResponseNotHTTP means the transport returned neither a response nor an error.
	ErrResponseNotHTTP = errors.New("response is not an HTTP response")
	// ErrDataIsNotJSON means a response body could not be decoded as a JSON object.
	ErrDataIsNotJSON = errors.New("response body is not JSON")
	// ErrStationIdentifierNotFound means the station listing named no usable station.
	ErrStationIdentifierNotFound = errors.New("station identifier not found")
	// ErrResponseTooLarge means a response body exceeded the read limit.
	ErrResponseTooLarge = errors.New("response body too large")
)

// StatusCodeError reports a non-200 upstream response.
type StatusCodeError struct {
	Code int
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

// ParseFailedError reports a field that is missing or has the wrong shape.
type ParseFailedError struct {
	Field string
	Err   error
}

func (e *ParseFailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s failed", e.Field)
	}
	return fmt.Sprintf("parse %s failed: %v", e.Field, e.Err)
}

func (e *ParseFailedError) Unwrap() error { return e.Err }

// ConvertTypeError reports a present value that could not be coerced to its
// target type.
type ConvertTypeError struct {
	Field string
	Value string
}

func (e *ConvertTypeError) Error() string {
	return fmt.Sprintf("convert %s: unusable value %q", e.Field, e.Value)
}

// NilFoundError reports a required measurement whose value is null or absent.
type NilFoundError struct {
	Field string
}

func (e *NilFoundError) Error() string {
	return fmt.Sprintf("required field %s has no value", e.Field)
}

// EnumElementNotFoundError reports a code outside a closed set, such as an
// unknown cloud amount.
type EnumElementNotFoundError struct {
	Field string
	Value string
}

func (e *EnumElementNotFoundError) Error() string {
	return fmt.Sprintf("%s: unknown value %q", e.Field, e.Value)
}

// ErrorKind returns a short stable label for err, used as a metric label,
// a log attribute and for mapping errors to HTTP statuses.
func ErrorKind(err error) string {
	var (
		statusErr  *StatusCodeError
		parseErr   *ParseFailedError
		convertErr *ConvertTypeError
		nilErr     *NilFoundError
		enumErr    *EnumElementNotFoundError
		netErr     net.Error
	)

	switch {
	case err == nil:
		return "success"
	case errors.As(err, &statusErr):
		return "status_code"
	case errors.Is(err, ErrResponseNotHTTP):
		return "response_not_http"
	case errors.Is(err, ErrDataIsNotJSON):
		return "data_not_json"
	case errors.Is(err, ErrResponseTooLarge):
		return "response_too_large"
	case errors.Is(err, ErrStationIdentifierNotFound):
		return "station_not_found"
	case errors.As(err, &enumErr):
		return "enum_not_found"
	case errors.As(err, &convertErr):
		return "convert_type"
	case errors.As(err, &nilErr):
		return "nil_found"
	case errors.As(err, &parseErr):
		return "parse_failed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}
