// Command nearby-api serves permit search and nearest-permit ranking.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"nearby-api/internal/api"
	"nearby-api/internal/config"
	"nearby-api/internal/distancematrix"
	"nearby-api/internal/geoip"
	"nearby-api/internal/ingest"
	"nearby-api/internal/logger"
	"nearby-api/internal/metrics"
	"nearby-api/internal/middleware"
	"nearby-api/internal/migrate"
	"nearby-api/internal/proximity"
	"nearby-api/internal/stats"
	"nearby-api/internal/store"
	"nearby-api/internal/utils"
	"nearby-api/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("config_error", "err", err)
		os.Exit(1)
	}
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	l.Debug("config_api_base", "base", cfg.APIBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)

	rc := utils.OpenRedis(ctx, cfg.Redis)
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
	}

	var locator api.Locator
	if cfg.GeoIPPath != "" {
		gl, err := geoip.Open(cfg.GeoIPPath)
		if err != nil {
			l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
		} else {
			defer gl.Close()
			locator = gl
		}
	}

	if cfg.GoogleAPIKey == "" {
		l.Warn("google_api_key_missing")
	}
	dm := distancematrix.New(cfg.DistanceEndpoint, cfg.GoogleAPIKey, &http.Client{Timeout: cfg.DistanceTimeout})
	cache := proximity.NewCache(cfg.CacheTTL)
	svc := proximity.NewService(st, proximity.NewResolver(dm, l), cache, l)

	if cfg.PermitsSource != "" {
		loc, err := time.LoadLocation(cfg.IngestTZ)
		if err != nil {
			l.Warn("ingest_tz_invalid", "tz", cfg.IngestTZ, "err", err)
			loc = time.UTC
		}
		ingest.StartWeekly(ctx, st, cfg.PermitsSource, loc, cfg.IngestHour, func(rows int) {
			cache.Reset()
			l.Info("ranked_cache_reset", "rows", rows)
		})
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.Access(l))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if cfg.RateLimitEnabled {
		r.Use(middleware.RateLimit(cfg.RateLimitQPS, cfg.RateLimitBurst))
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := api.New(api.Deps{
		Nearby:  svc,
		Search:  st,
		Stats:   stats.New(rc),
		Locator: locator,
		DB:      st,
	})
	h.Register(r)
	if cfg.APIBase != "" {
		h.Register(r.Group(cfg.APIBase))
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		l.Info("server_start", "addr", cfg.Addr, "commit", version.Commit)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server_shutdown_error", "err", err)
	}
	l.Info("server_stopped")
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
