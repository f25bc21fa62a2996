package propagate_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prode/internal/auth"
	"github.com/okian/prode/internal/domain/types"
	"github.com/okian/prode/internal/propagate"
	"github.com/okian/prode/internal/scorecache"
	"github.com/okian/prode/internal/store"
)

type fakeIdentity struct {
	claims auth.Claims
	ok     bool
}

func (f fakeIdentity) Claims() (auth.Claims, bool) { return f.claims, f.ok }

type fakeScoreAPI struct {
	score     *float64
	scoreErr  error
	user      *types.User
	userErr   error
	scoreHits int
	userHits  int
}

func (f *fakeScoreAPI) FetchScore(ctx context.Context, userID, year int) (*float64, error) {
	f.scoreHits++
	return f.score, f.scoreErr
}

func (f *fakeScoreAPI) FetchMe(ctx context.Context, userID int) (*types.User, error) {
	f.userHits++
	return f.user, f.userErr
}

func ptr(v float64) *float64 { return &v }

func newCache(t *testing.T) *scorecache.Cache {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatal(err)
	}
	return scorecache.New(st)
}

func TestRefresh(t *testing.T) {
	Convey("Given an identified user", t, func() {
		id := fakeIdentity{claims: auth.Claims{UserID: 9, Username: "nando"}, ok: true}
		cache := newCache(t)
		ctx := context.Background()

		Convey("The dedicated lookup wins when it yields a number", func() {
			api := &fakeScoreAPI{score: ptr(88.5)}
			propagate.New(api, id, cache, 2026).Refresh(ctx)

			snap := cache.Current()
			So(snap.Valid, ShouldBeTrue)
			So(snap.Score, ShouldEqual, 88.5)
			So(snap.Year, ShouldEqual, 2026)
			So(api.userHits, ShouldEqual, 0)
		})

		Convey("A failed lookup falls back to the user record", func() {
			api := &fakeScoreAPI{
				scoreErr: errors.New("lookup unavailable"),
				user:     &types.User{ID: 9, Score: ptr(61)},
			}
			propagate.New(api, id, cache, 2026).Refresh(ctx)

			snap := cache.Current()
			So(snap.Valid, ShouldBeTrue)
			So(snap.Score, ShouldEqual, 61)
			So(api.userHits, ShouldEqual, 1)
		})

		Convey("A lookup with no usable number also falls back", func() {
			api := &fakeScoreAPI{score: nil, user: &types.User{ID: 9, Score: ptr(50)}}
			propagate.New(api, id, cache, 2026).Refresh(ctx)
			So(cache.Current().Score, ShouldEqual, 50)
		})

		Convey("Both paths failing leaves the cache untouched and surfaces nothing", func() {
			So(cache.Put(42, 2025), ShouldBeNil)
			api := &fakeScoreAPI{
				scoreErr: errors.New("lookup down"),
				userErr:  errors.New("users down"),
			}
			So(func() { propagate.New(api, id, cache, 2026).Refresh(ctx) }, ShouldNotPanic)
			So(cache.Current().Score, ShouldEqual, 42)
			So(cache.Current().Year, ShouldEqual, 2025)
		})

		Convey("A user record without a score leaves the cache untouched", func() {
			api := &fakeScoreAPI{user: &types.User{ID: 9}}
			propagate.New(api, id, cache, 2026).Refresh(ctx)
			So(cache.Current().Valid, ShouldBeFalse)
		})
	})

	Convey("Given no identified user", t, func() {
		cache := newCache(t)
		api := &fakeScoreAPI{score: ptr(99)}

		propagate.New(api, fakeIdentity{}, cache, 2026).Refresh(context.Background())

		Convey("The refresh is skipped entirely", func() {
			So(api.scoreHits, ShouldEqual, 0)
			So(api.userHits, ShouldEqual, 0)
			So(cache.Current().Valid, ShouldBeFalse)
		})
	})
}

// Recompute-then-refresh: a same-process subscriber observes the new value
// without any reload.
func TestRefreshNotifiesSubscribers(t *testing.T) {
	Convey("Given a score widget subscribed to the cache", t, func() {
		cache := newCache(t)
		var widget []scorecache.Snapshot
		cancel := cache.Subscribe(func(s scorecache.Snapshot) { widget = append(widget, s) })
		defer cancel()

		id := fakeIdentity{claims: auth.Claims{UserID: 9}, ok: true}
		api := &fakeScoreAPI{score: ptr(120.5)}

		Convey("When the propagator refreshes after a recompute", func() {
			propagate.New(api, id, cache, 2026).Refresh(context.Background())

			So(len(widget), ShouldEqual, 1)
			So(widget[0].Score, ShouldEqual, 120.5)
			So(widget[0].Year, ShouldEqual, 2026)
		})
	})
}
