package store

import (
	"context"

	"rental-backend/internal/apperr"
	"rental-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateProperty(ctx context.Context, p *models.Property) error {
	return mapErr(s.db.WithContext(ctx).Create(p).Error, "property")
}

// CreatePropertyCapped inserts p only while its owner has fewer than limit
// properties. The owner row is locked for the count so concurrent inserts
// for the same owner take turns.
func (s *Store) CreatePropertyCapped(ctx context.Context, p *models.Property, limit int) error {
	full := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", p.OwnerID).
			First(&owner).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Property{}).Where("owner_id = ?", p.OwnerID).Count(&n).Error; err != nil {
			return err
		}
		if n >= int64(limit) {
			full = true
			return nil
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return mapErr(err, "property")
	}
	if full {
		return apperr.LimitExceeded("the free plan allows up to %d properties, upgrade to add more", limit)
	}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, owner, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).First(&p).Error; err != nil {
		return nil, mapErr(err, "property")
	}
	return &p, nil
}

func (s *Store) ListProperties(ctx context.Context, owner uuid.UUID) ([]models.Property, error) {
	var out []models.Property
	if err := s.db.WithContext(ctx).Where("owner_id = ?", owner).
		Order("created_at desc").
		Find(&out).Error; err != nil {
		return nil, mapErr(err, "properties")
	}
	return out, nil
}

func (s *Store) CountProperties(ctx context.Context, owner uuid.UUID) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Property{}).Where("owner_id = ?", owner).Count(&n).Error; err != nil {
		return 0, mapErr(err, "properties")
	}
	return n, nil
}

// UpdateProperty writes fields and returns the stored row. version 0 skips
// the concurrency check.
func (s *Store) UpdateProperty(ctx context.Context, owner, id uuid.UUID, version int64, fields map[string]any) (*models.Property, error) {
	if err := s.versionedUpdate(ctx, &models.Property{}, owner, id, version, fields, "property"); err != nil {
		return nil, err
	}
	return s.GetProperty(ctx, owner, id)
}

func (s *Store) DeleteProperty(ctx context.Context, owner, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).Delete(&models.Property{})
	if res.Error != nil {
		return mapErr(res.Error, "property")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("property not found")
	}
	return nil
}

// OccupyProperty marks an available property as rented by tenantID. It
// only succeeds while no tenant references the property.
func (s *Store) OccupyProperty(ctx context.Context, owner, propertyID, tenantID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND owner_id = ? AND tenant_id IS NULL", propertyID, owner).
		Updates(map[string]any{
			"status":    models.PropertyOccupied,
			"tenant_id": tenantID,
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return mapErr(res.Error, "property")
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := s.GetProperty(ctx, owner, propertyID); err != nil {
		return err
	}
	return apperr.Conflict("property is already occupied")
}

// ReleaseProperty clears occupancy if the property still points at
// tenantID. It reports whether a row changed.
func (s *Store) ReleaseProperty(ctx context.Context, owner, propertyID, tenantID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND owner_id = ? AND tenant_id = ?", propertyID, owner, tenantID).
		Updates(map[string]any{
			"status":    models.PropertyAvailable,
			"tenant_id": nil,
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, mapErr(res.Error, "property")
	}
	return res.RowsAffected > 0, nil
}
