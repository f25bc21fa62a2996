package prediction

import "errors"

// Sentinel kinds for prediction validation errors.
var (
	ErrIncompletePicks = errors.New("incomplete picks")
	ErrDuplicatePick   = errors.New("duplicate pick")
	ErrNegativeDNF     = errors.New("negative dnf count")
	ErrKindMismatch    = errors.New("prediction kind mismatch")
	ErrUnknownKind     = errors.New("unknown prediction kind")
)
