package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"rental-backend/internal/models"
	"rental-backend/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	EntityProperty = "property"
	EntityTenant   = "tenant"
	EntityPayment  = "payment"
)

type Store interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, owner uuid.UUID, f store.AuditFilter) ([]models.AuditLog, error)
}

type LogOptions struct {
	OwnerID     uuid.UUID
	UserName    string
	EntityType  string
	EntityID    uuid.UUID
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Writer struct {
	store Store
	log   logrus.FieldLogger
}

func NewWriter(s Store, log logrus.FieldLogger) *Writer {
	return &Writer{store: s, log: log}
}

func (w *Writer) WriteLog(ctx context.Context, opts LogOptions) error {
	entry := models.AuditLog{
		OwnerID:     opts.OwnerID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	if err := w.store.CreateAuditLog(ctx, &entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record writes the entry and only logs a failure. A nil writer does
// nothing.
func (w *Writer) Record(ctx context.Context, opts LogOptions) {
	if w == nil {
		return
	}
	if err := w.WriteLog(ctx, opts); err != nil {
		w.log.WithError(err).WithFields(logrus.Fields{
			"entity_type": opts.EntityType,
			"entity_id":   opts.EntityID,
		}).Warn("audit log not written")
	}
}

func (w *Writer) List(ctx context.Context, owner uuid.UUID, f store.AuditFilter) ([]models.AuditLog, error) {
	return w.store.ListAuditLogs(ctx, owner, f)
}

// snapshot encodes v as JSON, "null" when absent.
func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
