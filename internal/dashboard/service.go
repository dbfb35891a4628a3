// Package dashboard aggregates a landlord's portfolio for the landing page.
package dashboard

import (
	"context"
	"sort"

	"rental-backend/internal/models"
	"rental-backend/internal/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const upcomingLimit = 4

type Store interface {
	ListProperties(ctx context.Context, owner uuid.UUID) ([]models.Property, error)
	ListTenants(ctx context.Context, owner uuid.UUID) ([]models.Tenant, error)
	ListPayments(ctx context.Context, owner uuid.UUID, tenantID *uuid.UUID) ([]models.Payment, error)
}

type Syncer interface {
	Sync(ctx context.Context, owner uuid.UUID) (payment.SyncResult, error)
}

type Service struct {
	store Store
	sync  Syncer
	log   logrus.FieldLogger
}

func NewService(s Store, sync Syncer, log logrus.FieldLogger) *Service {
	return &Service{store: s, sync: sync, log: log}
}

type Summary struct {
	Properties         int
	OccupiedProperties int
	Available          int
	Tenants            int
	MonthlyRent        float64
	Pending            int
	Overdue            int
	Paid               int
	Upcoming           []payment.View
}

// Summary syncs the owner's payments, then loads properties, tenants and
// payments in parallel.
func (s *Service) Summary(ctx context.Context, owner uuid.UUID) (*Summary, error) {
	if s.sync != nil {
		if _, err := s.sync.Sync(ctx, owner); err != nil {
			s.log.WithError(err).WithField("owner_id", owner).Warn("payment sync before dashboard failed")
		}
	}

	var (
		properties []models.Property
		tenants    []models.Tenant
		payments   []models.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		properties, err = s.store.ListProperties(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		tenants, err = s.store.ListTenants(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		payments, err = s.store.ListPayments(gctx, owner, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{
		Properties: len(properties),
		Tenants:    len(tenants),
	}
	for _, p := range properties {
		if p.Status == models.PropertyOccupied {
			sum.OccupiedProperties++
			sum.MonthlyRent += p.RentAmount
		}
	}
	sum.Available = sum.Properties - sum.OccupiedProperties

	open := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		switch p.Status {
		case models.PaymentPending:
			sum.Pending++
		case models.PaymentOverdue:
			sum.Overdue++
		case models.PaymentPaid:
			sum.Paid++
		}
		if p.Open() {
			open = append(open, p)
		}
	}

	sort.SliceStable(open, func(i, j int) bool { return open[i].DueDate.Before(open[j].DueDate) })
	if len(open) > upcomingLimit {
		open = open[:upcomingLimit]
	}
	sum.Upcoming = payment.JoinViews(open, tenants, properties)
	return sum, nil
}
