package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/prode/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		os.Unsetenv("PRODE_CONFIG")
		os.Unsetenv("PRODE_BASE_URL")
		os.Unsetenv("PRODE_LOCK_WINDOW_MIN")

		cfg, err := config.Load(context.Background())

		Convey("Then defaults apply", func() {
			So(err, ShouldBeNil)
			So(cfg.LockWindowMin, ShouldEqual, 5)
			So(cfg.PollIntervalSec, ShouldEqual, 30)
			So(cfg.HydrateWorkers, ShouldEqual, 6)
			So(cfg.TopN, ShouldEqual, 3)
			So(cfg.BaseURL, ShouldNotBeEmpty)
			So(cfg.StorePath, ShouldNotBeEmpty)
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	Convey("Given env overrides", t, func() {
		os.Unsetenv("PRODE_CONFIG")
		t.Setenv("PRODE_BASE_URL", "https://api.example.test")
		t.Setenv("PRODE_LOCK_WINDOW_MIN", "10")
		t.Setenv("PRODE_LOG_LEVEL", "debug")

		cfg, err := config.Load(context.Background())

		Convey("Then env values win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.BaseURL, ShouldEqual, "https://api.example.test")
			So(cfg.LockWindowMin, ShouldEqual, 10)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "prode.yaml")
		yaml := "base_url: https://file.example.test\ntop_n: 5\n"
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		t.Setenv("PRODE_CONFIG", path)

		Convey("Then file values layer over defaults", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.BaseURL, ShouldEqual, "https://file.example.test")
			So(cfg.TopN, ShouldEqual, 5)
			So(cfg.LockWindowMin, ShouldEqual, 5)
		})

		Convey("And env still wins over file", func() {
			t.Setenv("PRODE_BASE_URL", "https://env.example.test")
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.BaseURL, ShouldEqual, "https://env.example.test")
		})
	})
}

func TestLoadValidation(t *testing.T) {
	Convey("Given invalid overrides", t, func() {
		os.Unsetenv("PRODE_CONFIG")

		Convey("Empty base_url is rejected", func() {
			t.Setenv("PRODE_BASE_URL", "")
			// koanf treats the empty env value as set; Load must reject it.
			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
		})

		Convey("Non-positive lock window is rejected", func() {
			t.Setenv("PRODE_LOCK_WINDOW_MIN", "0")
			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
		})
	})
}
