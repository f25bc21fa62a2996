// Package watchdog flips prediction forms into a locked state a fixed window
// before session start.
//
// The lock is advisory UX: a submit already in flight when the lock fires is
// not canceled, and the server stays the authority on the deadline.
package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/okian/prode/pkg/logger"
	"github.com/okian/prode/pkg/metrics"
)

// Default timing constants.
const (
	DefaultLockWindow   = 5 * time.Minute
	DefaultPollInterval = 30 * time.Second
)

// Watchdog observes one session's start time and fires a one-shot lock
// signal when the remaining time enters the lock window.
type Watchdog struct {
	start    time.Time
	window   time.Duration
	interval time.Duration
	now      func() time.Time
	onLock   func()

	once     sync.Once
	stopOnce sync.Once
	stop     chan struct{}
	log      logger.Logger
}

// Option applies a configuration option to the Watchdog.
type Option func(*Watchdog)

// WithLockWindow sets how long before session start the lock fires.
func WithLockWindow(d time.Duration) Option {
	return func(w *Watchdog) {
		if d > 0 {
			w.window = d
		}
	}
}

// WithPollInterval sets the recurring check interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watchdog) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Watchdog) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets a custom logger for the watchdog.
func WithLogger(l logger.Logger) Option {
	return func(w *Watchdog) {
		if l != nil {
			w.log = l
		}
	}
}

// New creates a Watchdog for a session starting at start. onLock runs at most
// once, from the goroutine that observed the window.
func New(start time.Time, onLock func(), opts ...Option) *Watchdog {
	w := &Watchdog{
		start:    start,
		window:   DefaultLockWindow,
		interval: DefaultPollInterval,
		now:      time.Now,
		onLock:   onLock,
		stop:     make(chan struct{}),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start checks immediately and then on every poll interval until the lock
// fires, ctx is canceled, or Stop is called.
func (w *Watchdog) Start(ctx context.Context) {
	if w.Check(ctx) {
		return
	}
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				if w.Check(ctx) {
					return
				}
			}
		}
	}()
}

// Stop ends the polling loop. It does not un-fire a lock. Safe to call from
// multiple goroutines.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
}

// Check runs one window comparison and reports whether the lock has fired.
// Locking happens iff 0 < start-now <= window: once the session has started
// the diff is no longer positive and the watchdog never (re-)locks.
func (w *Watchdog) Check(ctx context.Context) bool {
	diff := w.start.Sub(w.now())
	if diff > 0 && diff <= w.window {
		w.fire(ctx, diff)
		return true
	}
	return false
}

func (w *Watchdog) fire(ctx context.Context, remaining time.Duration) {
	w.once.Do(func() {
		metrics.RecordFormLock()
		w.log.Info(ctx, "session entering lock window, locking form",
			logger.Duration("remaining", remaining),
		)
		if w.onLock != nil {
			w.onLock()
		}
	})
}
