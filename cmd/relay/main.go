// Command relay runs the multiplayer room relay.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dsabo2007/UNO/internal/cache"
	"github.com/Dsabo2007/UNO/internal/config"
	"github.com/Dsabo2007/UNO/internal/database"
	"github.com/Dsabo2007/UNO/internal/database/migrations"
	"github.com/Dsabo2007/UNO/internal/relay"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration.")
	}
	logrus.SetLevel(cfg.LogLevel)
	if cfg.LogLevel < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubCfg := relay.Config{
		Capacity:       cfg.RoomCapacity,
		RatePerSec:     cfg.RatePerSec,
		RateBurst:      cfg.RateBurst,
		OriginPatterns: cfg.OriginPatterns(),
	}

	if cfg.RedisURL != "" {
		store, err := cache.DialRedis(ctx, cfg.RedisURL, cfg.SnapshotTTL)
		if err != nil {
			logrus.WithError(err).Fatal("Cannot connect to Redis.")
		}
		defer store.Close()
		hubCfg.Store = store
		logrus.Info("Room snapshots in Redis.")
	}

	var history History
	if cfg.DatabaseURL != "" {
		if err := migrations.Migrate(cfg.DatabaseURL); err != nil {
			logrus.WithError(err).Fatal("Migrations failed.")
		}
		rec, err := database.NewPostgresRecorder(ctx, cfg.DatabaseURL)
		if err != nil {
			logrus.WithError(err).Fatal("Cannot connect to Postgres.")
		}
		defer rec.Close()
		hubCfg.Recorder = rec
		history = rec
		logrus.Info("Recording game history in Postgres.")
	}

	hub := relay.NewHub(hubCfg)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           CreateServer(hub, cfg.FrontendURLs, history),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logrus.WithField("addr", cfg.Addr).Info("Relay listening.")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("Server failed.")
	}
	logrus.Info("Relay stopped.")
}
