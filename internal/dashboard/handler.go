package dashboard

import (
	"rental-backend/internal/auth"
	"rental-backend/internal/payment"

	"github.com/gofiber/fiber/v2"
)

type SummaryResponse struct {
	Properties          int                       `json:"properties"`
	OccupiedProperties  int                       `json:"occupied_properties"`
	AvailableProperties int                       `json:"available_properties"`
	Tenants             int                       `json:"tenants"`
	MonthlyRent         float64                   `json:"monthly_rent"`
	PendingPayments     int                       `json:"pending_payments"`
	OverduePayments     int                       `json:"overdue_payments"`
	PaidPayments        int                       `json:"paid_payments"`
	Upcoming            []payment.PaymentResponse `json:"upcoming"`
}

// GET /api/dashboard
func SummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		sum, err := svc.Summary(c.UserContext(), ownerID)
		if err != nil {
			return err
		}

		resp := SummaryResponse{
			Properties:          sum.Properties,
			OccupiedProperties:  sum.OccupiedProperties,
			AvailableProperties: sum.Available,
			Tenants:             sum.Tenants,
			MonthlyRent:         sum.MonthlyRent,
			PendingPayments:     sum.Pending,
			OverduePayments:     sum.Overdue,
			PaidPayments:        sum.Paid,
			Upcoming:            make([]payment.PaymentResponse, 0, len(sum.Upcoming)),
		}
		for i := range sum.Upcoming {
			resp.Upcoming = append(resp.Upcoming, payment.ViewResponse(&sum.Upcoming[i]))
		}
		return c.JSON(resp)
	}
}
