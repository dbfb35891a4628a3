package store

import (
	"context"

	"rental-backend/internal/apperr"
	"rental-backend/internal/models"

	"github.com/google/uuid"
)

func (s *Store) CreateTenant(ctx context.Context, t *models.Tenant) error {
	return mapErr(s.db.WithContext(ctx).Create(t).Error, "tenant")
}

func (s *Store) GetTenant(ctx context.Context, owner, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).First(&t).Error; err != nil {
		return nil, mapErr(err, "tenant")
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context, owner uuid.UUID) ([]models.Tenant, error) {
	var out []models.Tenant
	if err := s.db.WithContext(ctx).Where("owner_id = ?", owner).
		Order("created_at desc").
		Find(&out).Error; err != nil {
		return nil, mapErr(err, "tenants")
	}
	return out, nil
}

// UpdateTenant writes the given columns and returns the stored row.
func (s *Store) UpdateTenant(ctx context.Context, owner, id uuid.UUID, fields map[string]any) (*models.Tenant, error) {
	res := s.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ? AND owner_id = ?", id, owner).
		Updates(fields)
	if res.Error != nil {
		return nil, mapErr(res.Error, "tenant")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("tenant not found")
	}
	return s.GetTenant(ctx, owner, id)
}

func (s *Store) DeleteTenant(ctx context.Context, owner, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).Delete(&models.Tenant{})
	if res.Error != nil {
		return mapErr(res.Error, "tenant")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("tenant not found")
	}
	return nil
}

// OwnerIDs lists every user that has at least one tenant.
func (s *Store) OwnerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Tenant{}).
		Distinct("owner_id").
		Pluck("owner_id", &ids).Error; err != nil {
		return nil, mapErr(err, "tenant owners")
	}
	return ids, nil
}
