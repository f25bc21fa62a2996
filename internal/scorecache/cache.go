// Package scorecache holds the user's latest known total score.
//
// It is an explicit observable store with a single writer: Put persists the
// value and notifies same-process subscribers synchronously, so score widgets
// update without a reload. Other processes pick the change up through the
// store watcher (WatchExternal), the explicit stand-in for the browser's
// cross-tab storage event. Semantics are last-write-wins.
package scorecache

import (
	"context"
	"strconv"
	"sync"

	"github.com/okian/prode/internal/store"
	"github.com/okian/prode/pkg/logger"
	"github.com/okian/prode/pkg/metrics"
)

// Snapshot is one observed cache state.
type Snapshot struct {
	Score float64
	Year  int
	// Valid is false when the cache holds no usable score.
	Valid bool
}

// Cache is the process-wide score cache.
type Cache struct {
	mu     sync.Mutex
	st     *store.Store
	subs   map[int]func(Snapshot)
	nextID int
	log    logger.Logger
}

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Cache backed by st.
func New(st *store.Store, opts ...Option) *Cache {
	c := &Cache{
		st:   st,
		subs: make(map[int]func(Snapshot)),
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current reads through to the store.
func (c *Cache) Current() Snapshot {
	raw, ok := c.st.Get(store.KeyScore)
	if !ok {
		return Snapshot{}
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Snapshot{}
	}
	snap := Snapshot{Score: score, Valid: true}
	if rawYear, ok := c.st.Get(store.KeyYear); ok {
		if year, err := strconv.Atoi(rawYear); err == nil {
			snap.Year = year
		}
	}
	return snap
}

// Put persists a new score and season year, then notifies subscribers
// synchronously before returning.
func (c *Cache) Put(score float64, year int) error {
	c.mu.Lock()
	if err := c.st.Set(store.KeyScore, strconv.FormatFloat(score, 'f', -1, 64)); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.st.Set(store.KeyYear, strconv.Itoa(year)); err != nil {
		c.mu.Unlock()
		return err
	}
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	snap := Snapshot{Score: score, Year: year, Valid: true}
	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

// Subscribe registers fn to run on every cache update. The returned cancel
// removes the subscription.
func (c *Cache) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// WatchExternal relays store changes made by other processes into the
// subscriber fan-out until ctx is canceled.
func (c *Cache) WatchExternal(ctx context.Context) error {
	changes, err := c.st.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for range changes {
			snap := c.Current()
			if !snap.Valid {
				continue
			}
			metrics.RecordCacheRefresh("external")
			c.mu.Lock()
			subs := make([]func(Snapshot), 0, len(c.subs))
			for _, fn := range c.subs {
				subs = append(subs, fn)
			}
			c.mu.Unlock()
			for _, fn := range subs {
				fn(snap)
			}
			c.log.Debug(ctx, "score cache refreshed externally",
				logger.Float64("score", snap.Score),
				logger.Int("year", snap.Year),
			)
		}
	}()
	return nil
}
