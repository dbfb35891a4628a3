package store

import (
	"context"

	"rental-backend/internal/models"

	"github.com/google/uuid"
)

func (s *Store) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return mapErr(s.db.WithContext(ctx).Create(entry).Error, "audit log")
}

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AuditFilter narrows an audit listing. Zero values match everything.
type AuditFilter struct {
	EntityType string
	EntityID   *uuid.UUID
	Limit      int
}

func (s *Store) ListAuditLogs(ctx context.Context, owner uuid.UUID, f AuditFilter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", owner)
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}
	var out []models.AuditLog
	if err := q.Order("created_at desc").Order("id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, mapErr(err, "audit logs")
	}
	return out, nil
}
