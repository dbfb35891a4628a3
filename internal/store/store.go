// Package store implements owner scoped persistence on top of gorm. Every
// read and write is filtered by the id of the user owning the records.
package store

import (
	"context"
	"errors"
	"maps"

	"rental-backend/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperr.Transient(err, "database handle unavailable")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperr.Transient(err, "database unreachable")
	}
	return nil
}

func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return apperr.Transient(err, "could not access %s", what)
}

// versionedUpdate applies fields to one owned row and bumps its version.
// A positive version must match the stored one.
func (s *Store) versionedUpdate(ctx context.Context, model any, owner, id uuid.UUID, version int64, fields map[string]any, what string) error {
	values := maps.Clone(fields)
	values["version"] = gorm.Expr("version + 1")

	q := s.db.WithContext(ctx).Model(model).Where("id = ? AND owner_id = ?", id, owner)
	if version > 0 {
		q = q.Where("version = ?", version)
	}
	res := q.Updates(values)
	if res.Error != nil {
		return mapErr(res.Error, what)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ? AND owner_id = ?", id, owner).Count(&count).Error; err != nil {
		return mapErr(err, what)
	}
	if count == 0 {
		return apperr.NotFound("%s not found", what)
	}
	return apperr.Conflict("%s was modified by another request, reload and try again", what)
}
