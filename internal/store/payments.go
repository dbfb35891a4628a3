package store

import (
	"context"
	"time"

	"rental-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return mapErr(s.db.WithContext(ctx).Create(p).Error, "payment")
}

func (s *Store) GetPayment(ctx context.Context, owner, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).First(&p).Error; err != nil {
		return nil, mapErr(err, "payment")
	}
	return &p, nil
}

// ListPayments returns the owner's payments, newest due date first. A nil
// tenantID lists every tenant.
func (s *Store) ListPayments(ctx context.Context, owner uuid.UUID, tenantID *uuid.UUID) ([]models.Payment, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", owner)
	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	var out []models.Payment
	if err := q.Order("due_date desc").Order("created_at desc").Find(&out).Error; err != nil {
		return nil, mapErr(err, "payments")
	}
	return out, nil
}

// PaymentsDueBetween returns the tenant's payments for one property with
// from <= due_date < to.
func (s *Store) PaymentsDueBetween(ctx context.Context, owner, tenantID, propertyID uuid.UUID, from, to time.Time) ([]models.Payment, error) {
	var out []models.Payment
	if err := s.db.WithContext(ctx).
		Where("owner_id = ? AND tenant_id = ? AND property_id = ?", owner, tenantID, propertyID).
		Where("due_date >= ? AND due_date < ?", from, to).
		Order("due_date asc").
		Find(&out).Error; err != nil {
		return nil, mapErr(err, "payments")
	}
	return out, nil
}

// UpdatePayment writes fields in a single statement guarded by version.
func (s *Store) UpdatePayment(ctx context.Context, owner, id uuid.UUID, version int64, fields map[string]any) (*models.Payment, error) {
	if err := s.versionedUpdate(ctx, &models.Payment{}, owner, id, version, fields, "payment"); err != nil {
		return nil, err
	}
	return s.GetPayment(ctx, owner, id)
}

// MarkOverdue flips every pending payment due before today to overdue.
// Rows that changed status concurrently are left alone.
func (s *Store) MarkOverdue(ctx context.Context, owner uuid.UUID, today time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("owner_id = ? AND status = ? AND due_date < ?", owner, models.PaymentPending, today).
		Updates(map[string]any{
			"status":  models.PaymentOverdue,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, mapErr(res.Error, "payments")
	}
	return res.RowsAffected, nil
}

func (s *Store) DeletePaymentsByTenant(ctx context.Context, owner, tenantID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("owner_id = ? AND tenant_id = ?", owner, tenantID).
		Delete(&models.Payment{})
	if res.Error != nil {
		return 0, mapErr(res.Error, "payments")
	}
	return res.RowsAffected, nil
}

// DeleteOpenPaymentsFrom removes the tenant's pending and overdue payments on
// propertyID due on or after from, and returns what was removed.
func (s *Store) DeleteOpenPaymentsFrom(ctx context.Context, owner, tenantID, propertyID uuid.UUID, from time.Time) ([]models.Payment, error) {
	open := []string{string(models.PaymentPending), string(models.PaymentOverdue)}
	var removed []models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("owner_id = ? AND tenant_id = ? AND property_id = ?", owner, tenantID, propertyID).
			Where("status IN ? AND due_date >= ?", open, from).
			Order("due_date asc").
			Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(removed))
		for i := range removed {
			ids[i] = removed[i].ID
		}
		return tx.Where("id IN ? AND status IN ?", ids, open).Delete(&models.Payment{}).Error
	})
	if err != nil {
		return nil, mapErr(err, "payments")
	}
	return removed, nil
}
