package logger

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field constructors", t, func() {
		Convey("String builds a string field", func() {
			f := String("k", "v")
			So(f.Key, ShouldEqual, "k")
			So(f.Value, ShouldEqual, "v")
		})

		Convey("Int builds an int field", func() {
			f := Int("n", 42)
			So(f.Key, ShouldEqual, "n")
			So(f.Value, ShouldEqual, 42)
		})

		Convey("Bool builds a bool field", func() {
			f := Bool("b", true)
			So(f.Key, ShouldEqual, "b")
			So(f.Value, ShouldEqual, true)
		})

		Convey("Error builds a field keyed error", func() {
			f := Error(nil)
			So(f.Key, ShouldEqual, "error")
		})
	})
}

func TestNopLogger(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()

		Convey("All levels are safe to call", func() {
			ctx := context.Background()
			So(func() {
				l.Info(ctx, "info")
				l.Warn(ctx, "warn")
				l.Error(ctx, "error")
				l.Debug(ctx, "debug")
			}, ShouldNotPanic)
		})

		Convey("Named returns a usable logger", func() {
			So(l.Named("sub"), ShouldNotBeNil)
		})
	})
}

func TestGlobalLogger(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("Get before Init returns a nop logger", func() {
			// global may have been initialized by another test; only assert
			// that Get never returns nil.
			So(Get(), ShouldNotBeNil)
		})

		Convey("Init installs a real logger", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(func() { Get().Info(context.Background(), "hello", String("k", "v")) }, ShouldNotPanic)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		Convey("Known levels parse", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "  INFO "} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("Unknown levels fail", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}
