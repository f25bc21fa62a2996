package form

import "errors"

// Sentinel kinds for form errors.
var (
	ErrLoadForm    = errors.New("form load failed")
	ErrBadPosition = errors.New("position out of range")
	ErrReadOnly    = errors.New("form is read-only")
	ErrNotRaceForm = errors.New("not a race form")
)
