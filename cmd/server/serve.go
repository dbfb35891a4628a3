package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-backend/internal/config"
	"rental-backend/internal/database"
	"rental-backend/internal/logger"
	"rental-backend/internal/scheduler"
	"rental-backend/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Log

	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}

	srv := server.New(cfg, db, log)

	if cfg.PaymentSyncSchedule != "" {
		c, err := scheduler.Start(cfg.PaymentSyncSchedule, cfg.Location(), cfg.PaymentSyncTimeout, srv.PaymentSync, log)
		if err != nil {
			return err
		}
		defer c.Stop()
		log.Infof("Payment sync scheduled: %s (%s)", cfg.PaymentSyncSchedule, cfg.Timezone)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on port %s", cfg.HTTPPort)
		errCh <- srv.App.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.App.ShutdownWithContext(shutdownCtx)
	}
}
