package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/meritrack/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.GitHubAPIURL, convey.ShouldEqual, "https://api.github.com")
			convey.So(cfg.ResyncSchedule, convey.ShouldEqual, "@every 6h")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Postgres needs a database url", func() {
			cfg.StoreDriver = config.DriverPostgres
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			cfg.DatabaseURL = "postgres://localhost/meritrack"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("SQLite needs a path", func() {
			cfg.StoreDriver = config.DriverSQLite
			cfg.SQLitePath = ""
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("Unknown drivers are rejected", func() {
			cfg.StoreDriver = "mongo"
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, `unknown store_driver "mongo"`)
		})

		convey.Convey("Sizes must be positive", func() {
			cfg.WorkerCount = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("The GitHub rate must be positive", func() {
			cfg.GitHubRatePerSec = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
