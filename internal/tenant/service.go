// Package tenant manages tenants and keeps each tenant's property
// occupancy in step with it.
package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rental-backend/internal/apperr"
	"rental-backend/internal/audit"
	"rental-backend/internal/models"
	"rental-backend/internal/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Store interface {
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, owner, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context, owner uuid.UUID) ([]models.Tenant, error)
	UpdateTenant(ctx context.Context, owner, id uuid.UUID, fields map[string]any) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, owner, id uuid.UUID) error

	GetProperty(ctx context.Context, owner, id uuid.UUID) (*models.Property, error)
	ListProperties(ctx context.Context, owner uuid.UUID) ([]models.Property, error)
	OccupyProperty(ctx context.Context, owner, propertyID, tenantID uuid.UUID) error
	ReleaseProperty(ctx context.Context, owner, propertyID, tenantID uuid.UUID) (bool, error)

	ListPayments(ctx context.Context, owner uuid.UUID, tenantID *uuid.UUID) ([]models.Payment, error)
}

// Payments is the part of the payment engine tenant changes drive.
type Payments interface {
	GenerateInitialPayment(ctx context.Context, t *models.Tenant, p *models.Property) (*models.Payment, bool, error)
	CascadeDeleteTenant(ctx context.Context, owner, tenantID uuid.UUID) error
	DropUpcomingPayments(ctx context.Context, owner, tenantID, propertyID uuid.UUID) (int, error)
}

type Service struct {
	store    Store
	payments Payments
	audit    *audit.Writer
	log      logrus.FieldLogger
}

func NewService(s Store, payments Payments, w *audit.Writer, log logrus.FieldLogger) *Service {
	return &Service{store: s, payments: payments, audit: w, log: log}
}

type Input struct {
	Name       string
	Email      string
	Phone      string
	NationalID string
	StartDate  time.Time
	EndDate    time.Time
	PropertyID uuid.UUID
}

// Patch changes the non nil fields. A different PropertyID moves the
// tenant to that property.
type Patch struct {
	Name       *string
	Email      *string
	Phone      *string
	NationalID *string
	StartDate  *time.Time
	EndDate    *time.Time
	PropertyID *uuid.UUID
}

// Result is a tenant write plus the payment it generated. Warnings list
// follow-up steps that failed without undoing the write.
type Result struct {
	Tenant         *models.Tenant
	InitialPayment *models.Payment
	Warnings       []string
}

type View struct {
	models.Tenant
	PropertyName string
}

type Detail struct {
	View
	Payments []models.Payment
}

func validateLease(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("lease start and end dates are required")
	}
	if end.Before(start) {
		return apperr.Validation("lease end date must not be before its start date")
	}
	return nil
}

// requireContact rejects contact fields that are blank once trimmed.
func requireContact(fields ...[2]string) error {
	for _, f := range fields {
		if f[1] == "" {
			return apperr.Validation("%s cannot be empty", f[0])
		}
	}
	return nil
}

// availableProperty loads a property a tenant can move into.
func (s *Service) availableProperty(ctx context.Context, owner, id uuid.UUID) (*models.Property, error) {
	p, err := s.store.GetProperty(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.PropertyOccupied || p.TenantID != nil {
		return nil, apperr.Conflict("property %s is already occupied", p.Name)
	}
	if err := payment.ValidateDueDay(p.DueDay); err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts the tenant, occupies its property and generates the first
// payment. If occupying fails the tenant row is removed again.
func (s *Service) Create(ctx context.Context, actor audit.Actor, in Input) (*Result, error) {
	t := &models.Tenant{
		OwnerID:    actor.ID,
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(strings.ToLower(in.Email)),
		Phone:      strings.TrimSpace(in.Phone),
		NationalID: strings.TrimSpace(in.NationalID),
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
	}
	if err := requireContact(
		[2]string{"name", t.Name},
		[2]string{"email", t.Email},
		[2]string{"phone", t.Phone},
		[2]string{"national id", t.NationalID},
	); err != nil {
		return nil, err
	}
	if err := validateLease(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	property, err := s.availableProperty(ctx, actor.ID, in.PropertyID)
	if err != nil {
		return nil, err
	}
	t.PropertyID = property.ID

	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{"tenant_id": t.ID, "property_id": property.ID})
	if err := s.store.OccupyProperty(ctx, actor.ID, property.ID, t.ID); err != nil {
		if delErr := s.store.DeleteTenant(ctx, actor.ID, t.ID); delErr != nil {
			entry.WithError(delErr).Error("tenant created but property could not be occupied nor tenant removed")
			return nil, apperr.Inconsistent(delErr, "tenant %s was created without occupying property %s", t.ID, property.ID)
		}
		return nil, err
	}
	property.Status = models.PropertyOccupied
	property.TenantID = &t.ID

	res := &Result{Tenant: t}
	s.generateFirstPayment(ctx, res, property, entry)

	s.audit.Record(ctx, audit.LogOptions{
		OwnerID:     actor.ID,
		UserName:    actor.Name,
		EntityType:  audit.EntityTenant,
		EntityID:    t.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Tenant added: %s at %s", t.Name, property.Name),
		After:       t,
	})
	return res, nil
}

func (s *Service) generateFirstPayment(ctx context.Context, res *Result, property *models.Property, entry logrus.FieldLogger) {
	p, _, err := s.payments.GenerateInitialPayment(ctx, res.Tenant, property)
	if err != nil {
		entry.WithError(err).Error("initial payment not generated")
		res.Warnings = append(res.Warnings, "initial payment was not generated: "+apperr.Message(err))
		return
	}
	res.InitialPayment = p
}

// Update edits contact and lease fields. Moving to another property
// occupies the new one before releasing the old one. Open payments on the
// old property due from today on are removed; earlier ones stay there.
func (s *Service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, patch Patch) (*Result, error) {
	before, err := s.store.GetTenant(ctx, actor.ID, id)
	if err != nil {
		return nil, err
	}

	start, end := before.StartDate, before.EndDate
	if patch.StartDate != nil {
		start = *patch.StartDate
	}
	if patch.EndDate != nil {
		end = *patch.EndDate
	}
	if err := validateLease(start, end); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	var patched [][2]string
	for _, f := range []struct {
		col, label string
		v          *string
	}{
		{"name", "name", patch.Name},
		{"email", "email", patch.Email},
		{"phone", "phone", patch.Phone},
		{"national_id", "national id", patch.NationalID},
	} {
		if f.v == nil {
			continue
		}
		v := strings.TrimSpace(*f.v)
		if f.col == "email" {
			v = strings.ToLower(v)
		}
		fields[f.col] = v
		patched = append(patched, [2]string{f.label, v})
	}
	if err := requireContact(patched...); err != nil {
		return nil, err
	}
	if patch.StartDate != nil {
		fields["start_date"] = start
	}
	if patch.EndDate != nil {
		fields["end_date"] = end
	}

	moving := patch.PropertyID != nil && *patch.PropertyID != before.PropertyID
	if !moving {
		if len(fields) == 0 {
			return &Result{Tenant: before}, nil
		}
		updated, err := s.store.UpdateTenant(ctx, actor.ID, id, fields)
		if err != nil {
			return nil, err
		}
		s.recordUpdate(ctx, actor, before, updated, fmt.Sprintf("Tenant updated: %s", updated.Name))
		return &Result{Tenant: updated}, nil
	}

	res, err := s.reassign(ctx, actor, before, *patch.PropertyID, fields)
	if err != nil {
		return nil, err
	}
	s.recordUpdate(ctx, actor, before, res.Tenant, fmt.Sprintf("Tenant moved: %s", res.Tenant.Name))
	return res, nil
}

func (s *Service) reassign(ctx context.Context, actor audit.Actor, before *models.Tenant, propertyID uuid.UUID, fields map[string]any) (*Result, error) {
	target, err := s.availableProperty(ctx, actor.ID, propertyID)
	if err != nil {
		return nil, err
	}
	entry := s.log.WithFields(logrus.Fields{
		"tenant_id":     before.ID,
		"from_property": before.PropertyID,
		"to_property":   target.ID,
	})

	if err := s.store.OccupyProperty(ctx, actor.ID, target.ID, before.ID); err != nil {
		return nil, err
	}

	fields["property_id"] = target.ID
	updated, err := s.store.UpdateTenant(ctx, actor.ID, before.ID, fields)
	if err != nil {
		if _, relErr := s.store.ReleaseProperty(ctx, actor.ID, target.ID, before.ID); relErr != nil {
			entry.WithError(relErr).Error("tenant not moved but new property stays occupied")
			return nil, apperr.Inconsistent(relErr, "property %s is occupied by a tenant that did not move", target.ID)
		}
		return nil, err
	}
	target.Status = models.PropertyOccupied
	target.TenantID = &updated.ID

	res := &Result{Tenant: updated}
	released, err := s.store.ReleaseProperty(ctx, actor.ID, before.PropertyID, before.ID)
	switch {
	case err != nil:
		entry.WithError(err).Error("tenant moved but old property is still occupied")
		return nil, apperr.Inconsistent(err, "tenant moved but property %s is still marked occupied", before.PropertyID)
	case !released:
		entry.Warn("old property was not occupied by the tenant")
	}

	// open cycles on the old property are no longer owed there
	if _, err := s.payments.DropUpcomingPayments(ctx, actor.ID, before.ID, before.PropertyID); err != nil {
		entry.WithError(err).Error("upcoming payments on the old property not removed")
		res.Warnings = append(res.Warnings, "upcoming payments on the previous property were not removed: "+apperr.Message(err))
	}
	s.generateFirstPayment(ctx, res, target, entry)
	return res, nil
}

func (s *Service) recordUpdate(ctx context.Context, actor audit.Actor, before, after *models.Tenant, desc string) {
	s.audit.Record(ctx, audit.LogOptions{
		OwnerID:     actor.ID,
		UserName:    actor.Name,
		EntityType:  audit.EntityTenant,
		EntityID:    after.ID,
		Action:      models.AuditActionUpdate,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// Delete removes the tenant with its payments and frees the property.
func (s *Service) Delete(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	before, err := s.store.GetTenant(ctx, actor.ID, id)
	if err != nil {
		return err
	}
	err = s.payments.CascadeDeleteTenant(ctx, actor.ID, id)
	if err != nil && !apperr.Is(err, apperr.KindInconsistentState) {
		return err
	}

	// an inconsistent result still removed the tenant
	s.audit.Record(ctx, audit.LogOptions{
		OwnerID:     actor.ID,
		UserName:    actor.Name,
		EntityType:  audit.EntityTenant,
		EntityID:    id,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Tenant deleted: %s", before.Name),
		Before:      before,
	})
	return err
}

func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*Detail, error) {
	t, err := s.store.GetTenant(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{View: View{Tenant: *t}}
	if p, err := s.store.GetProperty(ctx, owner, t.PropertyID); err == nil {
		d.PropertyName = p.Name
	}
	d.Payments, err = s.store.ListPayments(ctx, owner, &t.ID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// List returns the owner's tenants. search matches name, email and
// property name case insensitively.
func (s *Service) List(ctx context.Context, owner uuid.UUID, search string) ([]View, error) {
	tenants, err := s.store.ListTenants(ctx, owner)
	if err != nil {
		return nil, err
	}
	properties, err := s.store.ListProperties(ctx, owner)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(properties))
	for _, p := range properties {
		names[p.ID] = p.Name
	}

	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]View, 0, len(tenants))
	for _, t := range tenants {
		v := View{Tenant: t, PropertyName: names[t.PropertyID]}
		if q != "" &&
			!strings.Contains(strings.ToLower(v.Name), q) &&
			!strings.Contains(strings.ToLower(v.Email), q) &&
			!strings.Contains(strings.ToLower(v.PropertyName), q) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
