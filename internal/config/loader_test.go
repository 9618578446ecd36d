package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/decktube/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Clash.BaseURL, convey.ShouldEqual, "https://api.clashroyale.com/v1")
				convey.So(cfg.Ranking.MaxResults, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DECKTUBE_ADDR", ":8080")
			_ = os.Setenv("DECKTUBE_YOUTUBE__API_KEY", "yt-key")
			_ = os.Setenv("DECKTUBE_YOUTUBE__TRANSCRIPT_TIMEOUT", "2s")
			_ = os.Setenv("DECKTUBE_RANKING__MAX_RESULTS", "12")
			_ = os.Setenv("DECKTUBE_STORAGE__PATH", "/tmp/x.db")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.YouTube.APIKey, convey.ShouldEqual, "yt-key")
				convey.So(cfg.YouTube.TranscriptTimeout, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.Ranking.MaxResults, convey.ShouldEqual, 12)
				convey.So(cfg.Storage.Path, convey.ShouldEqual, "/tmp/x.db")
				convey.So(cfg.YouTube.TranscriptBatchSize, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			clearConfigEnvVars()
			path := filepath.Join(t.TempDir(), "decktube.yaml")
			body := []byte("addr: \":7070\"\nclash:\n  api_key: clash-key\nranking:\n  min_cards_matched: 4\n")
			convey.So(os.WriteFile(path, body, 0o600), convey.ShouldBeNil)
			_ = os.Setenv("DECKTUBE_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values win over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.Clash.APIKey, convey.ShouldEqual, "clash-key")
				convey.So(cfg.Ranking.MinCardsMatched, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the config file is missing", func() {
			clearConfigEnvVars()
			_ = os.Setenv("DECKTUBE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When env produces an invalid config", func() {
			_ = os.Setenv("DECKTUBE_RANKING__MAX_RESULTS", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"DECKTUBE_CONFIG",
		"DECKTUBE_ADDR",
		"DECKTUBE_YOUTUBE__API_KEY",
		"DECKTUBE_YOUTUBE__TRANSCRIPT_TIMEOUT",
		"DECKTUBE_RANKING__MAX_RESULTS",
		"DECKTUBE_STORAGE__PATH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}
