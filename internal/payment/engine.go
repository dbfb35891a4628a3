// Package payment owns the rent payment lifecycle: generating one payment
// per tenant and due cycle, flagging overdue payments and applying manual
// status changes.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-backend/internal/apperr"
	"rental-backend/internal/audit"
	"rental-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Repository is the owner scoped persistence the engine needs.
type Repository interface {
	GetProperty(ctx context.Context, owner, id uuid.UUID) (*models.Property, error)
	ReleaseProperty(ctx context.Context, owner, propertyID, tenantID uuid.UUID) (bool, error)

	GetTenant(ctx context.Context, owner, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context, owner uuid.UUID) ([]models.Tenant, error)
	DeleteTenant(ctx context.Context, owner, id uuid.UUID) error

	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, owner, id uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, owner uuid.UUID, tenantID *uuid.UUID) ([]models.Payment, error)
	PaymentsDueBetween(ctx context.Context, owner, tenantID, propertyID uuid.UUID, from, to time.Time) ([]models.Payment, error)
	UpdatePayment(ctx context.Context, owner, id uuid.UUID, version int64, fields map[string]any) (*models.Payment, error)
	MarkOverdue(ctx context.Context, owner uuid.UUID, today time.Time) (int64, error)
	DeletePaymentsByTenant(ctx context.Context, owner, tenantID uuid.UUID) (int64, error)
	DeleteOpenPaymentsFrom(ctx context.Context, owner, tenantID, propertyID uuid.UUID, from time.Time) ([]models.Payment, error)
}

// systemUser names the engine in audit entries it writes on its own.
const systemUser = "system"

type Engine struct {
	repo  Repository
	audit *audit.Writer
	log   logrus.FieldLogger
	loc   *time.Location
	now   func() time.Time
}

func NewEngine(repo Repository, log logrus.FieldLogger, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{repo: repo, log: log, loc: loc, now: time.Now}
}

// WithClock replaces the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithAudit records generated, reconciled and removed payments on w.
func (e *Engine) WithAudit(w *audit.Writer) *Engine {
	e.audit = w
	return e
}

// Today is the current calendar date in the configured time zone.
func (e *Engine) Today() time.Time {
	return CivilDate(e.now(), e.loc)
}

// GenerateInitialPayment creates the pending payment for the tenant's next
// due date. If the tenant already has a payment for this property due in
// that month it is returned instead and created is false.
func (e *Engine) GenerateInitialPayment(ctx context.Context, tenant *models.Tenant, property *models.Property) (p *models.Payment, created bool, err error) {
	if err := ValidateDueDay(property.DueDay); err != nil {
		return nil, false, err
	}
	if !linked(tenant, property) {
		return nil, false, apperr.Inconsistent(nil, "tenant %s and property %s are not linked", tenant.ID, property.ID)
	}
	due, err := NextDueDate(e.Today(), property.DueDay)
	if err != nil {
		return nil, false, err
	}
	return e.ensurePayment(ctx, tenant, property, due)
}

func linked(t *models.Tenant, p *models.Property) bool {
	return t.OwnerID == p.OwnerID && t.PropertyID == p.ID && p.OccupiedBy(t.ID)
}

func (e *Engine) ensurePayment(ctx context.Context, tenant *models.Tenant, property *models.Property, due time.Time) (*models.Payment, bool, error) {
	from, to := MonthBounds(due)
	existing, err := e.repo.PaymentsDueBetween(ctx, tenant.OwnerID, tenant.ID, property.ID, from, to)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}

	p := &models.Payment{
		OwnerID:     tenant.OwnerID,
		TenantID:    tenant.ID,
		PropertyID:  property.ID,
		Amount:      property.RentAmount,
		DueDate:     due,
		Status:      models.PaymentPending,
		Description: Description(property.Name, due),
	}
	if err := e.repo.CreatePayment(ctx, p); err != nil {
		return nil, false, err
	}
	e.log.WithFields(logrus.Fields{
		"tenant_id":  tenant.ID,
		"payment_id": p.ID,
		"due_date":   due.Format(time.DateOnly),
	}).Info("payment generated")
	e.audit.Record(ctx, audit.LogOptions{
		OwnerID:     p.OwnerID,
		UserName:    systemUser,
		EntityType:  audit.EntityPayment,
		EntityID:    p.ID,
		Action:      models.AuditActionCreate,
		Description: "Payment generated: " + p.Description,
		After:       p,
	})
	return p, true, nil
}

// GenerateMonthlyPayments creates the next cycle's payment for every tenant
// whose lease covers today and who does not have one yet. Failures for one
// tenant do not stop the others; they are joined into the returned error.
func (e *Engine) GenerateMonthlyPayments(ctx context.Context, owner uuid.UUID) (int, error) {
	tenants, err := e.repo.ListTenants(ctx, owner)
	if err != nil {
		return 0, err
	}

	today := e.Today()
	created := 0
	var errs []error
	for i := range tenants {
		t := &tenants[i]
		if !t.LeaseCovers(today) {
			continue
		}
		entry := e.log.WithField("tenant_id", t.ID)

		property, err := e.repo.GetProperty(ctx, owner, t.PropertyID)
		if err != nil {
			entry.WithError(err).Error("load property for payment generation")
			errs = append(errs, err)
			continue
		}
		if !linked(t, property) {
			entry.WithField("property_id", property.ID).Warn("tenant and property are not linked, skipping")
			continue
		}
		due, err := NextDueDate(today, property.DueDay)
		if err != nil {
			entry.WithError(err).Warn("property has an invalid due day, skipping")
			errs = append(errs, err)
			continue
		}
		if due.After(t.EndDate) {
			continue
		}

		_, ok, err := e.ensurePayment(ctx, t, property, due)
		if err != nil {
			entry.WithError(err).Error("generate monthly payment")
			errs = append(errs, err)
			continue
		}
		if ok {
			created++
		}
	}
	return created, errors.Join(errs...)
}

// ReconcileOverduePayments marks every pending payment due before today as
// overdue and returns how many changed.
func (e *Engine) ReconcileOverduePayments(ctx context.Context, owner uuid.UUID) (int64, error) {
	today := e.Today()
	n, err := e.repo.MarkOverdue(ctx, owner, today)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.WithFields(logrus.Fields{"owner_id": owner, "count": n}).Info("payments marked overdue")
		// one entry per run, the conditional update does not return the rows
		e.audit.Record(ctx, audit.LogOptions{
			OwnerID:     owner,
			UserName:    systemUser,
			EntityType:  audit.EntityPayment,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%d pending payments due before %s marked overdue", n, today.Format(time.DateOnly)),
			After:       map[string]any{"status": models.PaymentOverdue, "count": n},
		})
	}
	return n, nil
}

// SyncResult summarizes one Sync run.
type SyncResult struct {
	Generated int   `json:"generated"`
	Overdue   int64 `json:"overdue"`
}

// Sync generates due payments and then reconciles overdue ones. A failed
// generation does not prevent reconciliation.
func (e *Engine) Sync(ctx context.Context, owner uuid.UUID) (SyncResult, error) {
	var res SyncResult
	generated, genErr := e.GenerateMonthlyPayments(ctx, owner)
	res.Generated = generated

	overdue, recErr := e.ReconcileOverduePayments(ctx, owner)
	res.Overdue = overdue

	return res, errors.Join(genErr, recErr)
}

// StatusChange is a requested manual transition.
type StatusChange struct {
	Status   models.PaymentStatus
	PaidDate *time.Time
	// Override must be set to move a payment out of paid.
	Override bool
	// Version, when positive, must match the stored payment.
	Version int64
}

// SetPaymentStatus applies a manual transition. Status and paid date are
// written in one update.
func (e *Engine) SetPaymentStatus(ctx context.Context, owner, id uuid.UUID, change StatusChange) (*models.Payment, error) {
	if !change.Status.Valid() {
		return nil, apperr.Validation("invalid payment status %q", change.Status)
	}
	current, err := e.repo.GetPayment(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.PaymentPaid && change.Status != models.PaymentPaid && !change.Override {
		return nil, apperr.Validation("payment is already paid, reopening it requires override")
	}
	if current.Status == change.Status && change.PaidDate == nil {
		return current, nil
	}

	fields := map[string]any{"status": change.Status}
	switch {
	case change.Status == models.PaymentPaid && change.PaidDate != nil:
		fields["paid_date"] = CivilDate(*change.PaidDate, time.UTC)
	case change.Status == models.PaymentPaid:
		fields["paid_date"] = e.Today()
	case change.PaidDate != nil:
		fields["paid_date"] = CivilDate(*change.PaidDate, time.UTC)
	default:
		fields["paid_date"] = nil
	}

	version := change.Version
	if version == 0 {
		version = current.Version
	}
	updated, err := e.repo.UpdatePayment(ctx, owner, id, version, fields)
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"payment_id": id,
		"from":       current.Status,
		"to":         updated.Status,
	}).Info("payment status changed")
	return updated, nil
}

// Correction adjusts an unpaid payment's amount or due date.
type Correction struct {
	Amount  *float64
	DueDate *time.Time
	Version int64
}

// CorrectPayment edits amount or due date before the payment is settled.
// Moving the due date re-derives status: a corrected date in the past is
// overdue, one today or later is pending.
func (e *Engine) CorrectPayment(ctx context.Context, owner, id uuid.UUID, c Correction) (*models.Payment, error) {
	if c.Amount == nil && c.DueDate == nil {
		return nil, apperr.Validation("nothing to correct")
	}
	if c.Amount != nil && *c.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	current, err := e.repo.GetPayment(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.PaymentPaid {
		return nil, apperr.Validation("paid payments cannot be corrected")
	}

	fields := map[string]any{}
	if c.Amount != nil {
		fields["amount"] = *c.Amount
	}
	if c.DueDate != nil {
		due := CivilDate(*c.DueDate, time.UTC)
		fields["due_date"] = due
		if due.Before(e.Today()) {
			fields["status"] = models.PaymentOverdue
		} else {
			fields["status"] = models.PaymentPending
		}
	}

	version := c.Version
	if version == 0 {
		version = current.Version
	}
	return e.repo.UpdatePayment(ctx, owner, id, version, fields)
}

// CascadeDeleteTenant removes the tenant's payments, then the tenant, then
// frees the property. Completed steps are not undone when a later one
// fails.
func (e *Engine) CascadeDeleteTenant(ctx context.Context, owner, tenantID uuid.UUID) error {
	tenant, err := e.repo.GetTenant(ctx, owner, tenantID)
	if err != nil {
		return err
	}
	entry := e.log.WithFields(logrus.Fields{"tenant_id": tenant.ID, "property_id": tenant.PropertyID})

	var snapshot []models.Payment
	if e.audit != nil {
		if snapshot, err = e.repo.ListPayments(ctx, owner, &tenant.ID); err != nil {
			entry.WithError(err).Warn("load tenant payments for audit")
		}
	}
	removed, err := e.repo.DeletePaymentsByTenant(ctx, owner, tenant.ID)
	if err != nil {
		entry.WithError(err).Error("delete tenant payments")
		return err
	}
	if removed > 0 {
		e.audit.Record(ctx, audit.LogOptions{
			OwnerID:     owner,
			UserName:    systemUser,
			EntityType:  audit.EntityPayment,
			EntityID:    tenant.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("%d payments removed with tenant %s", removed, tenant.Name),
			Before:      snapshot,
		})
	}
	if err := e.repo.DeleteTenant(ctx, owner, tenant.ID); err != nil {
		entry.WithError(err).WithField("payments_removed", removed).Error("delete tenant after removing payments")
		return err
	}

	released, err := e.repo.ReleaseProperty(ctx, owner, tenant.PropertyID, tenant.ID)
	if err != nil {
		entry.WithError(err).Error("tenant deleted but property occupancy was not cleared")
		return apperr.Inconsistent(err, "tenant deleted but property %s is still marked occupied", tenant.PropertyID)
	}
	if !released {
		property, err := e.repo.GetProperty(ctx, owner, tenant.PropertyID)
		switch {
		case apperr.Is(err, apperr.KindNotFound):
			entry.Error("tenant deleted but its property no longer exists")
			return apperr.Inconsistent(err, "tenant deleted but property %s could not be found", tenant.PropertyID)
		case err != nil:
			entry.WithError(err).Error("tenant deleted but property occupancy could not be verified")
			return apperr.Inconsistent(err, "tenant deleted but property %s could not be verified", tenant.PropertyID)
		case property.TenantID != nil:
			entry.WithField("occupant_id", *property.TenantID).Warn("property occupied by another tenant, left unchanged")
		}
	}

	entry.WithField("payments_removed", removed).Info("tenant deleted")
	return nil
}

// DropUpcomingPayments deletes the tenant's open payments on propertyID due
// today or later. Past due and paid payments stay as history. It is used
// when the tenant leaves that property.
func (e *Engine) DropUpcomingPayments(ctx context.Context, owner, tenantID, propertyID uuid.UUID) (int, error) {
	today := e.Today()
	removed, err := e.repo.DeleteOpenPaymentsFrom(ctx, owner, tenantID, propertyID, today)
	if err != nil {
		return 0, err
	}
	if len(removed) == 0 {
		return 0, nil
	}

	e.log.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"property_id": propertyID,
		"count":       len(removed),
	}).Info("upcoming payments removed")
	for i := range removed {
		p := &removed[i]
		e.audit.Record(ctx, audit.LogOptions{
			OwnerID:     owner,
			UserName:    systemUser,
			EntityType:  audit.EntityPayment,
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: "Payment removed after the tenant moved out: " + p.Description,
			Before:      p,
		})
	}
	return len(removed), nil
}
