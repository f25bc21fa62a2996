// Package app wires the client components into one long-lived session:
// local store, token store, REST client, score cache and the propagation
// path that ties them together.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/prode/internal/api"
	"github.com/okian/prode/internal/auth"
	"github.com/okian/prode/internal/domain/prediction"
	"github.com/okian/prode/internal/domain/types"
	"github.com/okian/prode/internal/form"
	"github.com/okian/prode/internal/hydrate"
	"github.com/okian/prode/internal/propagate"
	"github.com/okian/prode/internal/scorecache"
	"github.com/okian/prode/internal/store"
	"github.com/okian/prode/internal/watchdog"
	"github.com/okian/prode/pkg/logger"
)

// Session is the wired client. Components are created in Start, in
// dependency order.
type Session struct {
	mu sync.Mutex

	// Configuration
	baseURL      string
	storePath    string
	httpTimeout  time.Duration
	seasonYear   int
	lockWindow   time.Duration
	pollInterval time.Duration
	onExpired    func()

	// Components
	st     *store.Store
	tokens *auth.TokenStore
	client *api.Client
	cache  *scorecache.Cache
	prop   *propagate.Propagator

	started bool
	log     logger.Logger
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithBaseURL points the client at a backend.
func WithBaseURL(url string) Option {
	return func(s *Session) {
		if url != "" {
			s.baseURL = url
		}
	}
}

// WithStorePath sets the client-local store file.
func WithStorePath(path string) Option {
	return func(s *Session) {
		if path != "" {
			s.storePath = path
		}
	}
}

// WithHTTPTimeout bounds every API request.
func WithHTTPTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.httpTimeout = d
		}
	}
}

// WithSeasonYear tags cached scores with their season.
func WithSeasonYear(year int) Option {
	return func(s *Session) {
		if year > 0 {
			s.seasonYear = year
		}
	}
}

// WithLockWindow sets how long before session start forms lock.
func WithLockWindow(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.lockWindow = d
		}
	}
}

// WithPollInterval sets the watchdog check interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithSessionExpiredFunc registers the callback fired when the server
// rejects the stored credential.
func WithSessionExpiredFunc(fn func()) Option {
	return func(s *Session) {
		s.onExpired = fn
	}
}

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a Session with default configuration.
func New(opts ...Option) *Session {
	s := &Session{
		baseURL:      "http://localhost:9080",
		storePath:    "prode-store.json",
		httpTimeout:  10 * time.Second,
		seasonYear:   time.Now().Year(),
		lockWindow:   watchdog.DefaultLockWindow,
		pollInterval: watchdog.DefaultPollInterval,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the local store and wires every component. A token found in
// the store becomes the default credential immediately.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	st, err := store.Open(s.storePath, store.WithLogger(s.log.Named("store")))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStartSession, err)
	}
	s.st = st
	s.tokens = auth.NewTokenStore(st,
		auth.WithLogger(s.log.Named("auth")),
		auth.WithSessionExpiredFunc(s.onExpired),
	)
	s.client = api.New(s.baseURL,
		api.WithTimeout(s.httpTimeout),
		api.WithCredentials(s.tokens),
		api.WithLogger(s.log.Named("api")),
	)
	s.cache = scorecache.New(st, scorecache.WithLogger(s.log.Named("scorecache")))
	s.prop = propagate.New(s.client, s.tokens, s.cache, s.seasonYear,
		propagate.WithLogger(s.log.Named("propagate")),
	)

	s.started = true
	s.log.Info(ctx, "client session started",
		logger.String("base_url", s.baseURL),
		logger.Int("season", s.seasonYear),
		logger.Bool("logged_in", s.tokens.Token() != ""),
	)
	return nil
}

// Stop tears the session down. Safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.log.Info(context.Background(), "client session stopped")
}

// Login exchanges credentials for a token, persists it and runs score
// propagation so the cache warms up right away. Returns the decoded claims
// of the new identity.
func (s *Session) Login(ctx context.Context, username, password string) (auth.Claims, error) {
	if s.client == nil {
		return auth.Claims{}, ErrNotStarted
	}
	token, err := s.client.Login(ctx, username, password)
	if err != nil {
		return auth.Claims{}, err
	}
	if err := s.tokens.Set(token); err != nil {
		return auth.Claims{}, err
	}
	s.prop.Refresh(ctx)
	claims, _ := s.tokens.Claims()
	return claims, nil
}

// Logout drops the stored credential.
func (s *Session) Logout() error {
	if s.tokens == nil {
		return ErrNotStarted
	}
	return s.tokens.Clear()
}

// Tokens exposes the token store.
func (s *Session) Tokens() *auth.TokenStore { return s.tokens }

// API exposes the REST client.
func (s *Session) API() *api.Client { return s.client }

// Cache exposes the score cache.
func (s *Session) Cache() *scorecache.Cache { return s.cache }

// SeasonYear returns the configured season.
func (s *Session) SeasonYear() int { return s.seasonYear }

// NewForm builds the prediction form for one session and its deadline
// watchdog, wired to lock the form. The watchdog is not started; the caller
// owns its lifecycle.
func (s *Session) NewForm(sess types.Session) (*form.Form, *watchdog.Watchdog) {
	claims, _ := s.tokens.Claims()
	f := form.New(s.client, claims.UserID, sess, form.WithLogger(s.log.Named("form")))
	w := watchdog.New(sess.Start, f.Lock,
		watchdog.WithLockWindow(s.lockWindow),
		watchdog.WithPollInterval(s.pollInterval),
		watchdog.WithLogger(s.log.Named("watchdog")),
	)
	return f, w
}

// NewHydrator builds the admin result-status hydrator.
func (s *Session) NewHydrator(workers, topN int) *hydrate.Hydrator {
	return hydrate.New(s.client,
		hydrate.WithWorkers(workers),
		hydrate.WithTopN(topN),
		hydrate.WithLogger(s.log.Named("hydrate")),
	)
}

// Recompute triggers server-side score recomputation for a session and then
// runs score propagation. Propagation is best-effort: its failures never
// surface past the log.
func (s *Session) Recompute(ctx context.Context, kind prediction.Kind, sessionID int) (string, error) {
	msg, err := s.client.RecomputeScores(ctx, kind, sessionID)
	if err != nil {
		return "", err
	}
	s.prop.Refresh(ctx)
	return msg, nil
}

// RefreshScore runs score propagation on its own, for callers that already
// know a recompute happened elsewhere.
func (s *Session) RefreshScore(ctx context.Context) {
	s.prop.Refresh(ctx)
}

// WatchExternalScore relays score changes written by other processes into
// the cache's subscriber fan-out until ctx is canceled.
func (s *Session) WatchExternalScore(ctx context.Context) error {
	return s.cache.WatchExternal(ctx)
}
