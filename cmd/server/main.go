package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"terroir/internal/api"
	"terroir/internal/auth"
	"terroir/internal/config"
	"terroir/internal/database"
	"terroir/internal/events"
	"terroir/internal/export"
	"terroir/internal/geocode"
	"terroir/internal/metrics"
	"terroir/internal/sheets"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TERROIR_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Auth.Secret == "" {
		logger.Fatal().Msg("set auth.secret in config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	geocoder := geocode.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		geocoder.UseRedisCache(rdb, cfg.GeocodeCacheTTL())
	}

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.AccessTTL(), cfg.RefreshTTL())
	bus := events.NewBus()

	server := api.New(
		db,
		tokens,
		geocoder,
		bus,
		nil,
		cfg.Server.MediaDir,
		cfg.Server.MaxUploadBytes,
		cfg.Server.RatePerSecond,
		cfg.Server.RateBurst,
		&logger,
	)

	// Category config is hot-reloaded; the initial load happens inside the
	// watcher before it returns.
	err = config.WatchCategories(ctx, cfg.CategoriesConfigPath, 30*time.Second, func(categories *config.CategoriesConfig) {
		server.SetCategories(categories)
		if err := db.SyncProductCategories(ctx, categories); err != nil {
			logger.Error().Err(err).Msg("failed to sync product categories")
			return
		}
		logger.Info().
			Int("activities", len(categories.Activities)).
			Int("products", len(categories.Products)).
			Msg("categories loaded")
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load categories config")
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup.Path,
			cfg.Backup.IntervalHours, cfg.Backup.RetentionDays, &logger)
		go backup.Start(ctx)
	}

	if cfg.Export.Enabled {
		var pusher export.SheetsPusher
		if cfg.Export.Sheets.Enabled {
			svc, err := sheets.NewService(ctx, cfg.Export.Sheets.CredentialsFile, cfg.Export.Sheets.SpreadsheetID)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to init sheets client")
			}
			pusher = svc
		}
		exporter := export.NewService(db, cfg.Export.Path, cfg.Export.IntervalHours, pusher, &logger)
		exporter.WatchBus(bus)
		go exporter.Start(ctx)
	}

	logger.Info().Msg("terroir API started")
	if err := server.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
