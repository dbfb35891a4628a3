package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	PropertyOccupied  PropertyStatus = "occupied"
)

// Property is a rentable unit. TenantID is a weak back-reference kept in
// step with Tenant.PropertyID by the tenant service.
type Property struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OwnerID    uuid.UUID      `gorm:"type:uuid;index;not null"`
	Name       string         `gorm:"size:200;not null"`
	Address    string         `gorm:"size:255;not null"`
	City       string         `gorm:"size:100;not null"`
	State      string         `gorm:"size:100;not null"`
	ZipCode    string         `gorm:"size:20"`
	Type       string         `gorm:"size:50;not null"`
	Bedrooms   int            `gorm:"not null;default:0"`
	Bathrooms  int            `gorm:"not null;default:0"`
	Area       float64        `gorm:"not null;default:0"`
	ImageURL   string         `gorm:"size:500"`
	RentAmount float64        `gorm:"type:numeric(12,2);not null"`
	DueDay     int            `gorm:"not null"`
	Status     PropertyStatus `gorm:"size:20;not null;default:available;index"`
	TenantID   *uuid.UUID     `gorm:"type:uuid;index"`
	Version    int64          `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *Property) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PropertyAvailable
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

// OccupiedBy reports whether the property currently points at tenantID.
func (p *Property) OccupiedBy(tenantID uuid.UUID) bool {
	return p.Status == PropertyOccupied && p.TenantID != nil && *p.TenantID == tenantID
}
