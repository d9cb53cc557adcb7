package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ventarapida/internal/infra"
	"ventarapida/internal/outbox"
	"ventarapida/internal/repository"
	"ventarapida/internal/router"
	"ventarapida/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server, the worker pool and the outbox publisher",
	RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
}

func serve() error {
	cfg, err := cargarConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET es obligatorio")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Workers are wired here (composition root) so the pool has access to
	// all infrastructure dependencies.
	smtpCB := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "smtp"})
	alertas := worker.NewAlertaStockWorker(infra.NewMailer(cfg), smtpCB, cfg.Destinatarios())
	pool := worker.NewPool(rdb, map[string]worker.Handler{worker.JobAlertaStock: alertas})
	pool.Start(ctx, cfg.WorkerPoolSize)

	if cfg.RabbitMQURL != "" {
		conn, ch, err := infra.NewRabbitMQ(cfg.RabbitMQURL, cfg.OutboxExchange)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()

		pub := outbox.NewPublicador(repository.NewOutboxRepository(db), ch, outbox.Config{
			Exchange:    cfg.OutboxExchange,
			Intervalo:   time.Duration(cfg.OutboxIntervaloSeg) * time.Second,
			Lote:        cfg.OutboxLote,
			MaxIntentos: cfg.OutboxMaxIntentos,
		})
		go pub.Iniciar(ctx)
	} else {
		log.Warn().Msg("RABBITMQ_URL vacio: eventos de venta quedan en el outbox sin publicar")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.New(cfg, db, rdb),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("ventarapida listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and constraints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cargarConfig()
		if err != nil {
			return err
		}
		// NewDatabase migrates on connect.
		if _, err := infra.NewDatabase(cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info().Msg("migraciones aplicadas")
		return nil
	},
}
