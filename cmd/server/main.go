package main

import (
	"os"

	"rental-backend/internal/config"
	"rental-backend/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init("rental-backend", cfg.LogLevel)

	rootCmd := &cobra.Command{
		Use:   "rental-backend",
		Short: "Rental property management backend",
		// serve when no subcommand is given
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		serveCommand(cfg),
		syncPaymentsCommand(cfg),
		createAdminCommand(cfg),
		setSubscriptionCommand(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
