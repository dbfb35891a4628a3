package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue:
		return true
	}
	return false
}

// Payment is one billing cycle of rent. Amount is a snapshot of the
// property rent at generation time.
type Payment struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID     `gorm:"type:uuid;index;not null"`
	TenantID    uuid.UUID     `gorm:"type:uuid;index;not null"`
	PropertyID  uuid.UUID     `gorm:"type:uuid;index;not null"`
	Amount      float64       `gorm:"type:numeric(12,2);not null"`
	DueDate     time.Time     `gorm:"type:date;index;not null"`
	PaidDate    *time.Time    `gorm:"type:date"`
	Status      PaymentStatus `gorm:"size:20;not null;default:pending;index"`
	Description string        `gorm:"size:255;not null"`
	Version     int64         `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

// Open reports whether the payment still awaits settlement.
func (p *Payment) Open() bool {
	return p.Status == PaymentPending || p.Status == PaymentOverdue
}
