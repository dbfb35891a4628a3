// Package billing gates the free tier and records paid subscriptions. The
// checkout itself happens on an external payment page.
package billing

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"rental-backend/internal/apperr"
	"rental-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrCheckoutDisabled = errors.New("billing checkout is not configured")

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetSubscriber(ctx context.Context, userID uuid.UUID) (*models.Subscriber, error)
	UpsertSubscriber(ctx context.Context, sub *models.Subscriber) error
	CountProperties(ctx context.Context, owner uuid.UUID) (int64, error)
}

type Service struct {
	store       Store
	freeLimit   int
	checkoutURL string
	now         func() time.Time
	log         logrus.FieldLogger
}

func NewService(s Store, freeLimit int, checkoutURL string, log logrus.FieldLogger) *Service {
	return &Service{store: s, freeLimit: freeLimit, checkoutURL: checkoutURL, now: time.Now, log: log}
}

// Status describes the plan of one user.
type Status struct {
	Subscribed      bool
	Tier            string
	SubscriptionEnd *time.Time
	PropertyCount   int64
	// PropertyLimit is nil when the user may add any number of properties.
	PropertyLimit  *int
	CanAddProperty bool
}

// subscriber returns the user's record, nil on the free tier.
func (s *Service) subscriber(ctx context.Context, userID uuid.UUID) (*models.Subscriber, error) {
	sub, err := s.store.GetSubscriber(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	return sub, err
}

func (s *Service) Status(ctx context.Context, userID uuid.UUID, role models.UserRole) (*Status, error) {
	sub, err := s.subscriber(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountProperties(ctx, userID)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Subscribed:    sub.ActiveAt(s.now()),
		PropertyCount: count,
	}
	if sub != nil {
		st.Tier = sub.SubscriptionTier
		st.SubscriptionEnd = sub.SubscriptionEnd
	}
	if st.Subscribed || role == models.RoleAdmin {
		st.CanAddProperty = true
		return st, nil
	}
	limit := s.freeLimit
	st.PropertyLimit = &limit
	st.CanAddProperty = count < int64(limit)
	return st, nil
}

// PropertyLimit returns how many properties the user may own, nil when
// there is no limit.
func (s *Service) PropertyLimit(ctx context.Context, userID uuid.UUID, role models.UserRole) (*int, error) {
	if role == models.RoleAdmin {
		return nil, nil
	}
	sub, err := s.subscriber(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.ActiveAt(s.now()) {
		return nil, nil
	}
	limit := s.freeLimit
	return &limit, nil
}

// CheckoutURL returns the external payment page for the user with the
// reference id and email prefilled.
func (s *Service) CheckoutURL(userID uuid.UUID, email string) (string, error) {
	if strings.TrimSpace(s.checkoutURL) == "" {
		return "", ErrCheckoutDisabled
	}
	u, err := url.Parse(s.checkoutURL)
	if err != nil {
		return "", apperr.Inconsistent(err, "billing checkout url is invalid")
	}
	q := u.Query()
	q.Set("client_reference_id", userID.String())
	if email != "" {
		q.Set("prefilled_email", email)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SubscriptionUpdate records the outcome of a checkout.
type SubscriptionUpdate struct {
	Email              string
	Subscribed         bool
	Tier               string
	End                *time.Time
	ExternalCustomerID string
}

// SetSubscription stores the plan of the user with the given email.
func (s *Service) SetSubscription(ctx context.Context, in SubscriptionUpdate) (*models.Subscriber, error) {
	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscriber{
		UserID:             user.ID,
		Email:              user.Email,
		Subscribed:         in.Subscribed,
		SubscriptionTier:   strings.TrimSpace(in.Tier),
		SubscriptionEnd:    in.End,
		ExternalCustomerID: strings.TrimSpace(in.ExternalCustomerID),
	}
	if err := s.store.UpsertSubscriber(ctx, sub); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"subscribed": in.Subscribed,
		"tier":       sub.SubscriptionTier,
	}).Info("subscription updated")
	return s.store.GetSubscriber(ctx, user.ID)
}
