package payment

import (
	"context"
	"fmt"

	"rental-backend/internal/apperr"
	"rental-backend/internal/audit"
	"rental-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is the persistence behind the payments API.
type Store interface {
	Repository
	ListProperties(ctx context.Context, owner uuid.UUID) ([]models.Property, error)
}

// Service serves the payments API on top of the engine and records every
// mutation in the audit trail.
type Service struct {
	engine *Engine
	store  Store
	audit  *audit.Writer
	log    logrus.FieldLogger
}

func NewService(engine *Engine, s Store, w *audit.Writer, log logrus.FieldLogger) *Service {
	return &Service{engine: engine, store: s, audit: w, log: log}
}

func (s *Service) Engine() *Engine {
	return s.engine
}

// Sync runs generation and reconciliation for the owner.
func (s *Service) Sync(ctx context.Context, owner uuid.UUID) (SyncResult, error) {
	return s.engine.Sync(ctx, owner)
}

// syncBeforeRead refreshes stored statuses before a listing. A failure is
// logged and the listing proceeds with what is stored.
func (s *Service) syncBeforeRead(ctx context.Context, owner uuid.UUID) {
	if _, err := s.engine.Sync(ctx, owner); err != nil {
		s.log.WithError(err).WithField("owner_id", owner).Warn("payment sync before read failed")
	}
}

// List syncs and returns the owner's payments with names, newest due date
// first.
func (s *Service) List(ctx context.Context, owner uuid.UUID, f Filter) ([]View, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid payment status %q", f.Status)
	}
	s.syncBeforeRead(ctx, owner)

	views, err := s.views(ctx, owner, nil)
	if err != nil {
		return nil, err
	}
	return f.Apply(views), nil
}

// ForTenant lists a tenant's payment history without syncing.
func (s *Service) ForTenant(ctx context.Context, owner, tenantID uuid.UUID) ([]View, error) {
	return s.views(ctx, owner, &tenantID)
}

func (s *Service) views(ctx context.Context, owner uuid.UUID, tenantID *uuid.UUID) ([]View, error) {
	payments, err := s.store.ListPayments(ctx, owner, tenantID)
	if err != nil {
		return nil, err
	}
	tenants, err := s.store.ListTenants(ctx, owner)
	if err != nil {
		return nil, err
	}
	properties, err := s.store.ListProperties(ctx, owner)
	if err != nil {
		return nil, err
	}
	return JoinViews(payments, tenants, properties), nil
}

func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*View, error) {
	p, err := s.store.GetPayment(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	v := View{Payment: *p}
	if t, err := s.store.GetTenant(ctx, owner, p.TenantID); err == nil {
		v.TenantName = t.Name
	}
	if pr, err := s.store.GetProperty(ctx, owner, p.PropertyID); err == nil {
		v.PropertyName = pr.Name
	}
	return &v, nil
}

func (s *Service) SetStatus(ctx context.Context, actor audit.Actor, id uuid.UUID, change StatusChange) (*models.Payment, error) {
	before, err := s.store.GetPayment(ctx, actor.ID, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.engine.SetPaymentStatus(ctx, actor.ID, id, change)
	if err != nil {
		return nil, err
	}
	if updated.Version != before.Version {
		s.audit.Record(ctx, audit.LogOptions{
			OwnerID:     actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityPayment,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Payment %s: %s -> %s", updated.Description, before.Status, updated.Status),
			Before:      before,
			After:       updated,
		})
	}
	return updated, nil
}

func (s *Service) Correct(ctx context.Context, actor audit.Actor, id uuid.UUID, c Correction) (*models.Payment, error) {
	before, err := s.store.GetPayment(ctx, actor.ID, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.engine.CorrectPayment(ctx, actor.ID, id, c)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.LogOptions{
		OwnerID:     actor.ID,
		UserName:    actor.Name,
		EntityType:  audit.EntityPayment,
		EntityID:    id,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Payment corrected: %s", updated.Description),
		Before:      before,
		After:       updated,
	})
	return updated, nil
}
