package store

import "errors"

// Sentinel kinds for store errors.
var (
	ErrOpenStore    = errors.New("open store failed")
	ErrCorruptStore = errors.New("store file corrupt")
	ErrPersistStore = errors.New("persist store failed")
	ErrWatchStore   = errors.New("watch store failed")
)
