package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ventify/internal/config"
	"ventify/internal/infra"
	"ventify/internal/repository"
	"ventify/internal/router"
	"ventify/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid BUSINESS_TIMEZONE")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs the price cache and the job queues. Without it the API
	// still sells; tickets are then only available as text.
	var (
		rdb        *redis.Client
		dispatcher *worker.Dispatcher
	)
	if rdb, err = infra.NewRedis(ctx, cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, price cache and async jobs disabled")
		rdb = nil
	} else {
		dispatcher = worker.NewDispatcher(rdb)

		// Worker handlers are wired here (composition root) so that the pool
		// has full access to all infrastructure dependencies.
		var sender worker.Sender
		if mailer := infra.NewMailer(cfg); mailer != nil {
			sender = mailer
		}
		ticketPDF := worker.NewTicketPDFWorker(
			repository.NewVentaRepository(db),
			repository.NewNegocioRepository(db),
			dispatcher,
			cfg.PDFStoragePath,
			loc,
		)
		email := worker.NewEmailWorker(sender)
		worker.NewPool(rdb, map[string]worker.JobHandler{
			worker.JobTicketPDF: ticketPDF.Process,
			worker.JobEmail:     email.Process,
		}).Start(ctx, cfg.WorkerPoolSize)
	}

	r := router.New(cfg, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Ventify backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
