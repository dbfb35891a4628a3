package billing

import (
	"errors"

	"rental-backend/internal/auth"
	"rental-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

type StatusResponse struct {
	Subscribed      bool    `json:"subscribed"`
	Tier            string  `json:"tier"`
	SubscriptionEnd *string `json:"subscription_end"`
	PropertyCount   int64   `json:"property_count"`
	PropertyLimit   *int    `json:"property_limit"`
	CanAddProperty  bool    `json:"can_add_property"`
}

type UpgradeResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type SetSubscriptionRequest struct {
	Email              string  `json:"email" validate:"required,email"`
	Subscribed         bool    `json:"subscribed"`
	Tier               string  `json:"tier" validate:"max=50"`
	SubscriptionEnd    *string `json:"subscription_end" validate:"omitempty,datetime=2006-01-02"`
	ExternalCustomerID string  `json:"external_customer_id" validate:"max=100"`
}

type SubscriberResponse struct {
	UserID          string  `json:"user_id"`
	Email           string  `json:"email"`
	Subscribed      bool    `json:"subscribed"`
	Tier            string  `json:"tier"`
	SubscriptionEnd *string `json:"subscription_end"`
	UpdatedAt       string  `json:"updated_at"`
}

// GET /api/billing/status
func StatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		st, err := svc.Status(c.UserContext(), userID, auth.Role(c))
		if err != nil {
			return err
		}
		return c.JSON(StatusResponse{
			Subscribed:      st.Subscribed,
			Tier:            st.Tier,
			SubscriptionEnd: httpx.FormatDatePtr(st.SubscriptionEnd),
			PropertyCount:   st.PropertyCount,
			PropertyLimit:   st.PropertyLimit,
			CanAddProperty:  st.CanAddProperty,
		})
	}
}

// POST /api/billing/upgrade
func UpgradeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		checkout, err := svc.CheckoutURL(userID, auth.Email(c))
		if errors.Is(err, ErrCheckoutDisabled) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		if err != nil {
			return err
		}
		return c.JSON(UpgradeResponse{CheckoutURL: checkout})
	}
}

// PUT /api/admin/subscriptions
func SetSubscriptionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetSubscriptionRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		in := SubscriptionUpdate{
			Email:              body.Email,
			Subscribed:         body.Subscribed,
			Tier:               body.Tier,
			ExternalCustomerID: body.ExternalCustomerID,
		}
		if body.SubscriptionEnd != nil {
			end, err := httpx.ParseDate("subscription_end", *body.SubscriptionEnd)
			if err != nil {
				return err
			}
			in.End = &end
		}

		sub, err := svc.SetSubscription(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.JSON(SubscriberResponse{
			UserID:          sub.UserID.String(),
			Email:           sub.Email,
			Subscribed:      sub.Subscribed,
			Tier:            sub.SubscriptionTier,
			SubscriptionEnd: httpx.FormatDatePtr(sub.SubscriptionEnd),
			UpdatedAt:       httpx.FormatTime(sub.UpdatedAt),
		})
	}
}
