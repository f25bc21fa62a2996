package app

import "errors"

var (
	// ErrStartSession indicates the client session could not be wired up.
	ErrStartSession = errors.New("failed to start client session")
	// ErrNotStarted indicates an operation ran before Start.
	ErrNotStarted = errors.New("client session is not started")
)
