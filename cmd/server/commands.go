package main

import (
	"context"
	"fmt"
	"time"

	"rental-backend/internal/billing"
	"rental-backend/internal/config"
	"rental-backend/internal/database"
	"rental-backend/internal/logger"
	"rental-backend/internal/server"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// open builds the services without starting the HTTP listener.
func open(cfg *config.Config) (*server.Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return server.New(cfg, db, logger.Log), nil
}

func syncPaymentsCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-payments",
		Short: "Generate due payments and mark overdue ones for every owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := open(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.PaymentSyncTimeout)
			defer cancel()

			totals, err := srv.PaymentSync.Run(ctx)
			logger.Log.WithFields(logrus.Fields{
				"owners":    totals.Owners,
				"generated": totals.Generated,
				"overdue":   totals.Overdue,
			}).Info("payment sync finished")
			return err
		},
	}
}

func createAdminCommand(cfg *config.Config) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := open(cfg)
			if err != nil {
				return err
			}
			user, err := srv.Auth.RegisterAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Admin created: %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Admin", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password, at least 8 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func setSubscriptionCommand(cfg *config.Config) *cobra.Command {
	var (
		email, tier, end, customerID string
		subscribed                   bool
	)

	cmd := &cobra.Command{
		Use:   "set-subscription",
		Short: "Record the subscription of a user after checkout",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := billing.SubscriptionUpdate{
				Email:              email,
				Subscribed:         subscribed,
				Tier:               tier,
				ExternalCustomerID: customerID,
			}
			if end != "" {
				t, err := time.Parse("2006-01-02", end)
				if err != nil {
					return fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", end)
				}
				in.End = &t
			}

			srv, err := open(cfg)
			if err != nil {
				return err
			}
			sub, err := srv.Billing.SetSubscription(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Subscription for %s: subscribed=%t tier=%q\n", sub.Email, sub.Subscribed, sub.SubscriptionTier)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	cmd.Flags().BoolVar(&subscribed, "subscribed", true, "whether the subscription is active")
	cmd.Flags().StringVar(&tier, "tier", "pro", "subscription tier")
	cmd.Flags().StringVar(&end, "end", "", "subscription end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&customerID, "customer-id", "", "customer id at the payment provider")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
