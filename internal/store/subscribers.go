package store

import (
	"context"

	"rental-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

func (s *Store) GetSubscriber(ctx context.Context, userID uuid.UUID) (*models.Subscriber, error) {
	var sub models.Subscriber
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, mapErr(err, "subscriber")
	}
	return &sub, nil
}

// UpsertSubscriber inserts the record or overwrites the plan of the
// existing row with the same user id.
func (s *Store) UpsertSubscriber(ctx context.Context, sub *models.Subscriber) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "subscribed", "subscription_tier", "subscription_end",
			"external_customer_id", "updated_at",
		}),
	}).Create(sub).Error
	return mapErr(err, "subscriber")
}
