package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscriber records a paid plan for a user. A missing row means free tier.
type Subscriber struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	Email              string     `gorm:"size:100;not null"`
	Subscribed         bool       `gorm:"not null;default:false"`
	SubscriptionTier   string     `gorm:"size:50"`
	SubscriptionEnd    *time.Time
	ExternalCustomerID string     `gorm:"size:100"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (s *Subscriber) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ActiveAt reports whether the subscription grants paid features at t.
func (s *Subscriber) ActiveAt(t time.Time) bool {
	if s == nil || !s.Subscribed {
		return false
	}
	return s.SubscriptionEnd == nil || s.SubscriptionEnd.After(t)
}
