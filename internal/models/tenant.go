package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant rents exactly one property. StartDate and EndDate are calendar
// dates stored at UTC midnight; the lease window is inclusive.
type Tenant struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"size:200;not null"`
	Email      string    `gorm:"size:200;not null"`
	Phone      string    `gorm:"size:50;not null"`
	NationalID string    `gorm:"size:50;not null"`
	StartDate  time.Time `gorm:"type:date;not null"`
	EndDate    time.Time `gorm:"type:date;not null"`
	PropertyID uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t *Tenant) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// LeaseCovers reports whether day falls inside the inclusive lease window.
func (t *Tenant) LeaseCovers(day time.Time) bool {
	return !day.Before(t.StartDate) && !day.After(t.EndDate)
}
