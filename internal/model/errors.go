package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks empty or malformed raw price data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData marks a smoothed series too short for pattern detection.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUpstream marks a failure of the external data source.
	ErrUpstream = errors.New("upstream failure")
)

// UpstreamError wraps a data-source failure for one symbol.
type UpstreamError struct {
	Symbol string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure for %s: %v", e.Symbol, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstream) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// NewUpstreamError creates an UpstreamError.
func NewUpstreamError(symbol string, err error) *UpstreamError {
	return &UpstreamError{Symbol: symbol, Err: err}
}

// ErrorKind is the stable, serializable classification of a per-symbol failure.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindInvalidInput     ErrorKind = "invalid_input"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindUpstream         ErrorKind = "upstream"
	KindUnknown          ErrorKind = "unknown"
)

// KindOf classifies err. Upstream wins over the wrapped cause.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	default:
		return KindUnknown
	}
}
