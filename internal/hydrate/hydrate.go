// Package hydrate progressively resolves per-session result status for
// admin views.
//
// Concurrency is bounded by a fixed worker count pulling from a shared index
// cursor: each worker grabs the next session only after its own fetch
// resolves, which caps outstanding requests without any queue structure.
package hydrate

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/prode/internal/domain/types"
	"github.com/okian/prode/pkg/logger"
	"github.com/okian/prode/pkg/metrics"
)

// DefaultWorkers bounds simultaneous outstanding fetches.
const DefaultWorkers = 6

// Status is one session's resolved result availability.
type Status struct {
	SessionID  int
	HasResults bool
	// Err is set when the status could not be determined; the session is
	// still reported so views can render an unknown marker.
	Err error
}

// Fetcher is the slice of the REST client the hydrator needs.
type Fetcher interface {
	FetchTopResults(ctx context.Context, sessionID, limit int) ([]types.ResultRow, error)
}

// Hydrator resolves result status across many sessions.
type Hydrator struct {
	fetcher Fetcher
	workers int
	topN    int
	log     logger.Logger
}

// Option applies a configuration option to the Hydrator.
type Option func(*Hydrator)

// WithWorkers sets the fixed worker count.
func WithWorkers(n int) Option {
	return func(h *Hydrator) {
		if n > 0 {
			h.workers = n
		}
	}
}

// WithTopN sets how many result rows to probe for.
func WithTopN(n int) Option {
	return func(h *Hydrator) {
		if n > 0 {
			h.topN = n
		}
	}
}

// WithLogger sets a custom logger for the hydrator.
func WithLogger(l logger.Logger) Option {
	return func(h *Hydrator) {
		if l != nil {
			h.log = l
		}
	}
}

// New creates a Hydrator over fetcher.
func New(fetcher Fetcher, opts ...Option) *Hydrator {
	h := &Hydrator{
		fetcher: fetcher,
		workers: DefaultWorkers,
		topN:    1,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run resolves every session id and reports each through onStatus. onStatus
// is called from worker goroutines and must be safe for concurrent use. Run
// returns when all sessions are resolved or ctx is canceled.
func (h *Hydrator) Run(ctx context.Context, sessionIDs []int, onStatus func(Status)) {
	workers := h.workers
	if workers > len(sessionIDs) {
		workers = len(sessionIDs)
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				idx := int(cursor.Add(1)) - 1
				if idx >= len(sessionIDs) {
					return
				}
				h.resolve(ctx, sessionIDs[idx], onStatus)
			}
		}()
	}
	wg.Wait()
}

func (h *Hydrator) resolve(ctx context.Context, sessionID int, onStatus func(Status)) {
	metrics.HydrateStarted()
	rows, err := h.fetcher.FetchTopResults(ctx, sessionID, h.topN)
	if err != nil {
		metrics.HydrateFinished("error")
		h.log.Warn(ctx, "result status fetch failed",
			logger.Int("session", sessionID),
			logger.Error(err),
		)
		onStatus(Status{SessionID: sessionID, Err: err})
		return
	}
	metrics.HydrateFinished("ok")
	onStatus(Status{SessionID: sessionID, HasResults: len(rows) > 0})
}
