package repository

import "errors"

var (
	// ErrNoChannelData indicates a channel carries no samples, source or statistics
	ErrNoChannelData = errors.New("channel has no data")

	// ErrSourceBackendDisabled indicates no fetcher is configured for a source kind
	ErrSourceBackendDisabled = errors.New("source backend not configured")

	// ErrInconsistentSamples indicates inline samples do not match their geometry
	ErrInconsistentSamples = errors.New("samples do not match width x height")
)
