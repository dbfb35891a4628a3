// Package property manages the rentable units of a landlord.
package property

import (
	"context"
	"fmt"
	"strings"

	"rental-backend/internal/apperr"
	"rental-backend/internal/audit"
	"rental-backend/internal/models"
	"rental-backend/internal/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Store interface {
	CreateProperty(ctx context.Context, p *models.Property) error
	CreatePropertyCapped(ctx context.Context, p *models.Property, limit int) error
	GetProperty(ctx context.Context, owner, id uuid.UUID) (*models.Property, error)
	ListProperties(ctx context.Context, owner uuid.UUID) ([]models.Property, error)
	UpdateProperty(ctx context.Context, owner, id uuid.UUID, version int64, fields map[string]any) (*models.Property, error)
	DeleteProperty(ctx context.Context, owner, id uuid.UUID) error
	GetTenant(ctx context.Context, owner, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context, owner uuid.UUID) ([]models.Tenant, error)
}

// LimitChecker reports how many properties a user may own, nil meaning no
// limit.
type LimitChecker interface {
	PropertyLimit(ctx context.Context, userID uuid.UUID, role models.UserRole) (*int, error)
}

type Service struct {
	store  Store
	limits LimitChecker
	audit  *audit.Writer
	log    logrus.FieldLogger
}

func NewService(s Store, limits LimitChecker, w *audit.Writer, log logrus.FieldLogger) *Service {
	return &Service{store: s, limits: limits, audit: w, log: log}
}

// Input holds the editable attributes of a property.
type Input struct {
	Name       string
	Address    string
	City       string
	State      string
	ZipCode    string
	Type       string
	Bedrooms   int
	Bathrooms  int
	Area       float64
	ImageURL   string
	RentAmount float64
	DueDay     int
}

// Patch changes the non nil attributes. Version, when positive, must match.
type Patch struct {
	Name       *string
	Address    *string
	City       *string
	State      *string
	ZipCode    *string
	Type       *string
	Bedrooms   *int
	Bathrooms  *int
	Area       *float64
	ImageURL   *string
	RentAmount *float64
	DueDay     *int
	Version    int64
}

// View is a property with the name of its current tenant.
type View struct {
	models.Property
	TenantName string
}

func (s *Service) Create(ctx context.Context, actor audit.Actor, in Input) (*models.Property, error) {
	if err := payment.ValidateDueDay(in.DueDay); err != nil {
		return nil, err
	}
	if in.RentAmount <= 0 {
		return nil, apperr.Validation("rent amount must be positive")
	}
	var limit *int
	if s.limits != nil {
		l, err := s.limits.PropertyLimit(ctx, actor.ID, actor.Role)
		if err != nil {
			return nil, err
		}
		limit = l
	}

	p := &models.Property{
		OwnerID:    actor.ID,
		Name:       strings.TrimSpace(in.Name),
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		ZipCode:    strings.TrimSpace(in.ZipCode),
		Type:       strings.TrimSpace(in.Type),
		Bedrooms:   in.Bedrooms,
		Bathrooms:  in.Bathrooms,
		Area:       in.Area,
		ImageURL:   strings.TrimSpace(in.ImageURL),
		RentAmount: in.RentAmount,
		DueDay:     in.DueDay,
		Status:     models.PropertyAvailable,
	}
	var err error
	if limit != nil {
		err = s.store.CreatePropertyCapped(ctx, p, *limit)
	} else {
		err = s.store.CreateProperty(ctx, p)
	}
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.LogOptions{
		OwnerID:     actor.ID,
		UserName:    actor.Name,
		EntityType:  audit.EntityProperty,
		EntityID:    p.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Property added: %s - %.2f", p.Name, p.RentAmount),
		After:       p,
	})
	return p, nil
}

func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*View, error) {
	p, err := s.store.GetProperty(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	v := &View{Property: *p}
	if p.TenantID != nil {
		if t, err := s.store.GetTenant(ctx, owner, *p.TenantID); err == nil {
			v.TenantName = t.Name
		}
	}
	return v, nil
}

// List returns the owner's properties, newest first. search matches name,
// address, city and tenant name case insensitively.
func (s *Service) List(ctx context.Context, owner uuid.UUID, search string) ([]View, error) {
	properties, err := s.store.ListProperties(ctx, owner)
	if err != nil {
		return nil, err
	}
	tenants, err := s.store.ListTenants(ctx, owner)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(tenants))
	for _, t := range tenants {
		names[t.ID] = t.Name
	}

	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]View, 0, len(properties))
	for _, p := range properties {
		v := View{Property: p}
		if p.TenantID != nil {
			v.TenantName = names[*p.TenantID]
		}
		if q != "" && !matches(q, v.Name, v.Address, v.City, v.TenantName) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Update applies the patch. Rent changes affect future payments only.
func (s *Service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, patch Patch) (*models.Property, error) {
	before, err := s.store.GetProperty(ctx, actor.ID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	setString := func(col string, v *string, required bool) error {
		if v == nil {
			return nil
		}
		val := strings.TrimSpace(*v)
		if required && val == "" {
			return apperr.Validation("%s cannot be empty", col)
		}
		fields[col] = val
		return nil
	}
	for _, f := range []struct {
		col      string
		v        *string
		required bool
	}{
		{"name", patch.Name, true},
		{"address", patch.Address, true},
		{"city", patch.City, true},
		{"state", patch.State, true},
		{"zip_code", patch.ZipCode, false},
		{"type", patch.Type, true},
		{"image_url", patch.ImageURL, false},
	} {
		if err := setString(f.col, f.v, f.required); err != nil {
			return nil, err
		}
	}
	if patch.Bedrooms != nil {
		if *patch.Bedrooms < 0 {
			return nil, apperr.Validation("bedrooms cannot be negative")
		}
		fields["bedrooms"] = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		if *patch.Bathrooms < 0 {
			return nil, apperr.Validation("bathrooms cannot be negative")
		}
		fields["bathrooms"] = *patch.Bathrooms
	}
	if patch.Area != nil {
		if *patch.Area < 0 {
			return nil, apperr.Validation("area cannot be negative")
		}
		fields["area"] = *patch.Area
	}
	if patch.RentAmount != nil {
		if *patch.RentAmount <= 0 {
			return nil, apperr.Validation("rent amount must be positive")
		}
		fields["rent_amount"] = *patch.RentAmount
	}
	if patch.DueDay != nil {
		if err := payment.ValidateDueDay(*patch.DueDay); err != nil {
			return nil, err
		}
		fields["due_day"] = *patch.DueDay
	}
	if len(fields) == 0 {
		return before, nil
	}

	version := patch.Version
	if version == 0 {
		version = before.Version
	}
	updated, err := s.store.UpdateProperty(ctx, actor.ID, id, version, fields)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.LogOptions{
		OwnerID:     actor.ID,
		UserName:    actor.Name,
		EntityType:  audit.EntityProperty,
		EntityID:    id,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Property updated: %s", updated.Name),
		Before:      before,
		After:       updated,
	})
	return updated, nil
}

// Delete removes a property that has no tenant.
func (s *Service) Delete(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	p, err := s.store.GetProperty(ctx, actor.ID, id)
	if err != nil {
		return err
	}
	if p.Status == models.PropertyOccupied || p.TenantID != nil {
		return apperr.Conflict("property %s has a tenant, remove the tenant first", p.Name)
	}
	if err := s.store.DeleteProperty(ctx, actor.ID, id); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.LogOptions{
		OwnerID:     actor.ID,
		UserName:    actor.Name,
		EntityType:  audit.EntityProperty,
		EntityID:    id,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Property deleted: %s", p.Name),
		Before:      p,
	})
	return nil
}
