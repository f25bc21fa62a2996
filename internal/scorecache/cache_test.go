package scorecache_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prode/internal/scorecache"
	"github.com/okian/prode/internal/store"
)

func openCache(t *testing.T) (*scorecache.Cache, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatal(err)
	}
	return scorecache.New(st), st
}

func TestCacheCurrent(t *testing.T) {
	Convey("Given a fresh cache", t, func() {
		c, st := openCache(t)

		Convey("It starts invalid", func() {
			So(c.Current().Valid, ShouldBeFalse)
		})

		Convey("A persisted score reads through", func() {
			So(st.Set(store.KeyScore, "73.5"), ShouldBeNil)
			So(st.Set(store.KeyYear, "2026"), ShouldBeNil)
			snap := c.Current()
			So(snap.Valid, ShouldBeTrue)
			So(snap.Score, ShouldEqual, 73.5)
			So(snap.Year, ShouldEqual, 2026)
		})

		Convey("Garbage in the store reads as invalid", func() {
			So(st.Set(store.KeyScore, "not-a-number"), ShouldBeNil)
			So(c.Current().Valid, ShouldBeFalse)
		})
	})
}

func TestCachePutNotifiesSynchronously(t *testing.T) {
	Convey("Given a cache with a subscriber", t, func() {
		c, _ := openCache(t)

		var seen []scorecache.Snapshot
		cancel := c.Subscribe(func(s scorecache.Snapshot) { seen = append(seen, s) })

		Convey("Put notifies before returning", func() {
			So(c.Put(88.5, 2026), ShouldBeNil)
			So(len(seen), ShouldEqual, 1)
			So(seen[0].Score, ShouldEqual, 88.5)
			So(seen[0].Year, ShouldEqual, 2026)
			So(seen[0].Valid, ShouldBeTrue)
		})

		Convey("Last write wins", func() {
			So(c.Put(10, 2026), ShouldBeNil)
			So(c.Put(25, 2026), ShouldBeNil)
			So(c.Current().Score, ShouldEqual, 25)
			So(len(seen), ShouldEqual, 2)
		})

		Convey("A canceled subscription stops receiving", func() {
			cancel()
			So(c.Put(99, 2026), ShouldBeNil)
			So(seen, ShouldBeEmpty)
		})
	})
}

func TestCachePutNotifiesOnceWithExternalWatchActive(t *testing.T) {
	Convey("Given a cache with the external relay running", t, func() {
		c, _ := openCache(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		So(c.WatchExternal(ctx), ShouldBeNil)

		var notified atomic.Int32
		unsub := c.Subscribe(func(scorecache.Snapshot) { notified.Add(1) })
		defer unsub()

		Convey("Put fans out exactly once, not again via the file watcher", func() {
			So(c.Put(55, 2026), ShouldBeNil)
			So(notified.Load(), ShouldEqual, 1)
			// Leave the relay enough time to deliver any echo of the write.
			time.Sleep(300 * time.Millisecond)
			So(notified.Load(), ShouldEqual, 1)
		})
	})
}

func TestCachePersistsAcrossInstances(t *testing.T) {
	Convey("Given a score put through one cache", t, func() {
		path := filepath.Join(t.TempDir(), "store.json")
		st1, err := store.Open(path)
		So(err, ShouldBeNil)
		So(scorecache.New(st1).Put(42, 2026), ShouldBeNil)

		Convey("A second cache over the same file sees it", func() {
			st2, err := store.Open(path)
			So(err, ShouldBeNil)
			snap := scorecache.New(st2).Current()
			So(snap.Valid, ShouldBeTrue)
			So(snap.Score, ShouldEqual, 42)
		})
	})
}
