package api

import "errors"

// Sentinel kinds for API client errors. Callers branch with errors.Is.
var (
	// ErrValidation marks a client-local precondition failure; the request
	// never reached the network.
	ErrValidation = errors.New("validation failed")

	// ErrAuth marks a missing or rejected credential.
	ErrAuth = errors.New("authorization failed")

	// ErrRemote marks a completed call the server answered with a failure
	// status. The wrapped message comes from the server's error payload.
	ErrRemote = errors.New("server rejected request")

	// ErrNetwork marks a call that could not complete at all.
	ErrNetwork = errors.New("request failed")
)

// errNotFound is internal: lookups that treat 404 as "no data yet" map it to
// an empty result instead of surfacing an error.
var errNotFound = errors.New("not found")
