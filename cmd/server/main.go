package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"scorekeeper-backend/internal/config"
	"scorekeeper-backend/internal/handlers"
	"scorekeeper-backend/internal/reports"
	"scorekeeper-backend/internal/scorekeeper"
	"scorekeeper-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open store")
	}
	defer s.Close()

	clock := clockwork.NewRealClock()

	history := scorekeeper.NewHistory(s, cfg.Rules.HistoryLimit)
	engine := scorekeeper.New(history, scorekeeper.WithClock(clock))

	client := reports.NewClient(cfg.StatsAPIURL)
	if cfg.StatsAPICookie != "" {
		client.SetHeader("Cookie", cfg.StatsAPICookie)
	}
	reportService := reports.NewService(client,
		reports.NewCache(s, clock, cfg.Rules.ReportCacheTTL),
		reports.NewRoster(s, clock),
	)

	sched, err := startSweeper(reportService, cfg.Rules.SweepInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start report cache sweeper")
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown")
		}
	}()

	h := handlers.New(engine, history, reportService, cfg.Rules.DefaultTarget)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(handlers.RequestLogger(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Strs("cors_origins", cfg.CORSOrigins).
			Str("store", cfg.Store.Backend).
			Int("history_limit", cfg.Rules.HistoryLimit).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// startSweeper deletes expired cached reports on a fixed interval.
func startSweeper(svc *reports.Service, every time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := svc.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("report cache sweep failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
