package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/meritrack/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "MERITRACK_") {
			_ = os.Unsetenv(name)
		}
	}
}

func TestConfigLoader(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		_ = os.Setenv("MERITRACK_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("MERITRACK_ADDR", ":8080")
			_ = os.Setenv("MERITRACK_QUEUE_SIZE", "64")
			_ = os.Setenv("MERITRACK_WORKER_COUNT", "3")
			_ = os.Setenv("MERITRACK_GITHUB_RATE_PER_SEC", "2.5")
			_ = os.Setenv("MERITRACK_STORE_DRIVER", "sqlite")
			_ = os.Setenv("MERITRACK_SQLITE_PATH", "/tmp/m.db")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			convey.So(cfg.GitHubRatePerSec, convey.ShouldEqual, 2.5)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/m.db")
		})

		convey.Convey("When loading a YAML file with a role table", func() {
			path := writeFile(t, "meritrack.yaml", `
addr: ":9090"
worker_count: 8
resync_schedule: "0 3 * * *"
roles:
  Site Reliability Engineer: [Linux, Go, Prometheus]
`)
			_ = os.Setenv("MERITRACK_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.ResyncSchedule, convey.ShouldEqual, "0 3 * * *")
			convey.So(cfg.Roles["Site Reliability Engineer"], convey.ShouldResemble, []string{"Linux", "Go", "Prometheus"})

			convey.Convey("Then env vars override the file", func() {
				_ = os.Setenv("MERITRACK_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When a .env file is present", func() {
			_ = os.Setenv("MERITRACK_ENV_FILE", writeFile(t, ".env", "MERITRACK_REDIS_URL=redis://localhost:6379/0\n"))

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://localhost:6379/0")
		})

		convey.Convey("When the YAML file is invalid", func() {
			_ = os.Setenv("MERITRACK_CONFIG", writeFile(t, "bad.yaml", "invalid: yaml: content: ["))

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("MERITRACK_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When addr is set to blank", func() {
			_ = os.Setenv("MERITRACK_ADDR", " ")

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
