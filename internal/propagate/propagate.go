// Package propagate refreshes the local score cache after a server-side
// score recomputation.
//
// The whole chain is best-effort: a refresh failure is logged and swallowed
// so it never blocks the admin action that triggered it.
package propagate

import (
	"context"

	"github.com/okian/prode/internal/auth"
	"github.com/okian/prode/internal/domain/types"
	"github.com/okian/prode/internal/scorecache"
	"github.com/okian/prode/pkg/logger"
	"github.com/okian/prode/pkg/metrics"
)

// ScoreAPI is the slice of the REST client the propagator needs.
type ScoreAPI interface {
	FetchScore(ctx context.Context, userID, year int) (*float64, error)
	FetchMe(ctx context.Context, userID int) (*types.User, error)
}

// Identity yields the locally decoded claims of the current user.
type Identity interface {
	Claims() (auth.Claims, bool)
}

// Propagator republishes recomputed scores into the cache.
type Propagator struct {
	api   ScoreAPI
	id    Identity
	cache *scorecache.Cache
	year  int
	log   logger.Logger
}

// Option applies a configuration option to the Propagator.
type Option func(*Propagator)

// WithLogger sets a custom logger for the propagator.
func WithLogger(l logger.Logger) Option {
	return func(p *Propagator) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates a Propagator for the given season year.
func New(api ScoreAPI, id Identity, cache *scorecache.Cache, year int, opts ...Option) *Propagator {
	p := &Propagator{
		api:   api,
		id:    id,
		cache: cache,
		year:  year,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh pulls the authoritative score and republishes it to the cache.
// With no identified user it is skipped entirely. The dedicated score lookup
// is tried first; the full user record is the fallback. Nothing is returned:
// every failure path only logs.
func (p *Propagator) Refresh(ctx context.Context) {
	claims, ok := p.id.Claims()
	if !ok || claims.UserID == 0 {
		p.log.Debug(ctx, "score refresh skipped, no identified user")
		return
	}

	score, err := p.api.FetchScore(ctx, claims.UserID, p.year)
	if err == nil && score != nil {
		p.put(ctx, *score, "lookup")
		return
	}
	if err != nil {
		p.log.Warn(ctx, "score lookup failed, falling back to user record", logger.Error(err))
	}

	user, err := p.api.FetchMe(ctx, claims.UserID)
	if err != nil {
		p.log.Warn(ctx, "user record fetch failed, score cache left as-is", logger.Error(err))
		return
	}
	if user.Score == nil {
		p.log.Debug(ctx, "user record carries no score, cache left as-is")
		return
	}
	p.put(ctx, *user.Score, "user")
}

func (p *Propagator) put(ctx context.Context, score float64, source string) {
	if err := p.cache.Put(score, p.year); err != nil {
		p.log.Warn(ctx, "persisting refreshed score failed", logger.Error(err))
		return
	}
	metrics.RecordCacheRefresh(source)
	p.log.Info(ctx, "score cache refreshed",
		logger.Float64("score", score),
		logger.String("source", source),
		logger.Int("year", p.year),
	)
}
