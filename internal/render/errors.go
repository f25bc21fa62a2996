package render

import "errors"

// ErrNoPrediction is returned when there is nothing to compose.
var ErrNoPrediction = errors.New("no prediction to display")
