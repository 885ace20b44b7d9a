package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/recruitstat/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"RECRUIT_CONFIG",
	"RECRUIT_ADDR",
	"RECRUIT_MAX_HISTORY_RECORDS",
	"RECRUIT_RENDER_WORKERS",
	"RECRUIT_RENDER_TIMEOUT",
	"RECRUIT_AUTH__ENABLED",
	"RECRUIT_AUTH__PASSWORD",
	"RECRUIT_STORAGE__BACKEND",
	"RECRUIT_REPORT__CLASS_YEAR",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "0.0.0.0:8000")
				convey.So(cfg.MaxHistoryRecords, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RECRUIT_ADDR", ":9090")
			_ = os.Setenv("RECRUIT_MAX_HISTORY_RECORDS", "25")
			_ = os.Setenv("RECRUIT_RENDER_TIMEOUT", "90s")
			_ = os.Setenv("RECRUIT_AUTH__ENABLED", "true")
			_ = os.Setenv("RECRUIT_AUTH__PASSWORD", "s3cret")
			_ = os.Setenv("RECRUIT_REPORT__CLASS_YEAR", "2026")

			cfg, err := config.Load(ctx)

			convey.Convey("Then flat and nested keys should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MaxHistoryRecords, convey.ShouldEqual, 25)
				convey.So(cfg.RenderTimeout, convey.ShouldEqual, 90*time.Second)
				convey.So(cfg.Auth.Enabled, convey.ShouldBeTrue)
				convey.So(cfg.Auth.Password, convey.ShouldEqual, "s3cret")
				convey.So(cfg.Report.ClassYear, convey.ShouldEqual, 2026)
				convey.So(cfg.Auth.TokenTTL, convey.ShouldEqual, 12*time.Hour)
			})
		})

		convey.Convey("When loading config with YAML file and env together", func() {
			path := writeConfigFile(t, `
addr: ":7000"
render_workers: 3
report:
  organization: "校园招聘组"
storage:
  backend: local
`)
			_ = os.Setenv("RECRUIT_CONFIG", path)
			_ = os.Setenv("RECRUIT_RENDER_WORKERS", "5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.RenderWorkers, convey.ShouldEqual, 5)
				convey.So(cfg.Report.Organization, convey.ShouldEqual, "校园招聘组")
				convey.So(cfg.Report.ClassYear, convey.ShouldEqual, 2025)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("RECRUIT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)

			convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
		})

		convey.Convey("When the loaded values fail validation", func() {
			_ = os.Setenv("RECRUIT_STORAGE__BACKEND", "azure")
			_, err := config.Load(ctx)

			convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
		})
	})
}

func TestResolvePassword(t *testing.T) {
	convey.Convey("Given auth configuration", t, func() {
		convey.Convey("An inline password wins", func() {
			pw, err := config.AuthConfig{Password: "inline", PasswordFile: "/nonexistent"}.ResolvePassword()
			convey.So(err, convey.ShouldBeNil)
			convey.So(pw, convey.ShouldEqual, "inline")
		})

		convey.Convey("The first line of the password file is used", func() {
			path := filepath.Join(t.TempDir(), "password.txt")
			_ = os.WriteFile(path, []byte("  from-file \nignored\n"), 0o600)
			pw, err := config.AuthConfig{PasswordFile: path}.ResolvePassword()
			convey.So(err, convey.ShouldBeNil)
			convey.So(pw, convey.ShouldEqual, "from-file")
		})

		convey.Convey("An empty file is rejected", func() {
			path := filepath.Join(t.TempDir(), "password.txt")
			_ = os.WriteFile(path, []byte("\n"), 0o600)
			_, err := config.AuthConfig{PasswordFile: path}.ResolvePassword()
			convey.So(err, convey.ShouldWrap, config.ErrNoPassword)
			convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("A missing file is a load error", func() {
			_, err := config.AuthConfig{PasswordFile: filepath.Join(t.TempDir(), "nope")}.ResolvePassword()
			convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
		})
	})
}
