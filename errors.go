package logship

import "errors"

// Option validation errors returned by Open.
var (
	ErrNoDataDir  = errors.New("logship: Options.DataDir is required")
	ErrNoName     = errors.New("logship: Options.Name is required")
	ErrNoEndpoint = errors.New("logship: Options.EndpointURL is required")
)
