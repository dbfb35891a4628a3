// Package scheduler runs the payment sync for every landlord on a cron
// schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-backend/internal/payment"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Owners interface {
	OwnerIDs(ctx context.Context) ([]uuid.UUID, error)
}

type Syncer interface {
	Sync(ctx context.Context, owner uuid.UUID) (payment.SyncResult, error)
}

// PaymentSync generates and reconciles payments across all owners.
type PaymentSync struct {
	owners Owners
	syncer Syncer
	log    logrus.FieldLogger
}

func NewPaymentSync(owners Owners, syncer Syncer, log logrus.FieldLogger) *PaymentSync {
	return &PaymentSync{owners: owners, syncer: syncer, log: log}
}

// Totals sums the sync results of one run.
type Totals struct {
	Owners    int
	Generated int
	Overdue   int64
}

// Run syncs every owner. An owner that fails is logged and the run goes on;
// all failures are returned joined.
func (j *PaymentSync) Run(ctx context.Context) (Totals, error) {
	var totals Totals
	ids, err := j.owners.OwnerIDs(ctx)
	if err != nil {
		return totals, err
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := j.syncer.Sync(ctx, id)
		totals.Generated += res.Generated
		totals.Overdue += res.Overdue
		if err != nil {
			j.log.WithError(err).WithField("owner_id", id).Error("payment sync failed for owner")
			errs = append(errs, fmt.Errorf("owner %s: %w", id, err))
			continue
		}
		totals.Owners++
	}
	return totals, errors.Join(errs...)
}

// Start schedules the job on spec and starts the cron runner. Each run gets
// its own timeout.
func Start(spec string, loc *time.Location, timeout time.Duration, job *PaymentSync, log logrus.FieldLogger) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		log.Info("Starting payment sync cron job...")
		totals, err := job.Run(ctx)
		entry := log.WithFields(logrus.Fields{
			"owners":    totals.Owners,
			"generated": totals.Generated,
			"overdue":   totals.Overdue,
		})
		if err != nil {
			entry.WithError(err).Error("payment sync cron job finished with errors")
			return
		}
		entry.Info("payment sync cron job finished")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule payment sync %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
