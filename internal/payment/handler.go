package payment

import (
	"time"

	"rental-backend/internal/audit"
	"rental-backend/internal/auth"
	"rental-backend/internal/httpx"
	"rental-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type SetStatusRequest struct {
	Status   string  `json:"status" validate:"required,oneof=pending paid overdue"`
	PaidDate *string `json:"paid_date" validate:"omitempty,datetime=2006-01-02"`
	Override bool    `json:"override"`
	Version  int64   `json:"version" validate:"gte=0"`
}

type CorrectPaymentRequest struct {
	Amount  *float64 `json:"amount" validate:"omitempty,gt=0"`
	DueDate *string  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Version int64    `json:"version" validate:"gte=0"`
}

type PaymentResponse struct {
	ID           string               `json:"id"`
	TenantID     string               `json:"tenant_id"`
	PropertyID   string               `json:"property_id"`
	Amount       float64              `json:"amount"`
	DueDate      string               `json:"due_date"`
	PaidDate     *string              `json:"paid_date"`
	Status       models.PaymentStatus `json:"status"`
	Description  string               `json:"description"`
	Version      int64                `json:"version"`
	TenantName   string               `json:"tenant_name,omitempty"`
	PropertyName string               `json:"property_name,omitempty"`
	CreatedAt    string               `json:"created_at"`
	UpdatedAt    string               `json:"updated_at"`
}

func ToResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID.String(),
		TenantID:    p.TenantID.String(),
		PropertyID:  p.PropertyID.String(),
		Amount:      p.Amount,
		DueDate:     httpx.FormatDate(p.DueDate),
		PaidDate:    httpx.FormatDatePtr(p.PaidDate),
		Status:      p.Status,
		Description: p.Description,
		Version:     p.Version,
		CreatedAt:   httpx.FormatTime(p.CreatedAt),
		UpdatedAt:   httpx.FormatTime(p.UpdatedAt),
	}
}

func ViewResponse(v *View) PaymentResponse {
	resp := ToResponse(&v.Payment)
	resp.TenantName = v.TenantName
	resp.PropertyName = v.PropertyName
	return resp
}

// -------------------------
// Handlers
// -------------------------

// GET /api/payments?status=overdue&search=ana
func ListPaymentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		views, err := svc.List(c.UserContext(), ownerID, Filter{
			Status: models.PaymentStatus(c.Query("status")),
			Search: c.Query("search"),
		})
		if err != nil {
			return err
		}

		resp := make([]PaymentResponse, 0, len(views))
		for i := range views {
			resp = append(resp, ViewResponse(&views[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/payments/:id
func GetPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		v, err := svc.Get(c.UserContext(), ownerID, id)
		if err != nil {
			return err
		}
		return c.JSON(ViewResponse(v))
	}
}

// PUT /api/payments/:id/status
func SetPaymentStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := audit.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body SetStatusRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		change := StatusChange{
			Status:   models.PaymentStatus(body.Status),
			Override: body.Override,
			Version:  body.Version,
		}
		if body.PaidDate != nil {
			d, err := httpx.ParseDate("paid_date", *body.PaidDate)
			if err != nil {
				return err
			}
			change.PaidDate = &d
		}

		updated, err := svc.SetStatus(c.UserContext(), actor, id, change)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(updated))
	}
}

// PUT /api/payments/:id
func CorrectPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := audit.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body CorrectPaymentRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		correction := Correction{Amount: body.Amount, Version: body.Version}
		if body.DueDate != nil {
			d, err := httpx.ParseDate("due_date", *body.DueDate)
			if err != nil {
				return err
			}
			correction.DueDate = &d
		}

		updated, err := svc.Correct(c.UserContext(), actor, id, correction)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(updated))
	}
}

// POST /api/payments/sync
func SyncPaymentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		res, err := svc.Sync(c.UserContext(), ownerID)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/payments/export?status=paid
func ExportPaymentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		views, err := svc.List(c.UserContext(), ownerID, Filter{
			Status: models.PaymentStatus(c.Query("status")),
			Search: c.Query("search"),
		})
		if err != nil {
			return err
		}

		buf, err := ExportXLSX(views)
		if err != nil {
			return err
		}

		filename := "payments-" + svc.Engine().Today().Format(time.DateOnly) + ".xlsx"
		c.Attachment(filename)
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		return c.Send(buf.Bytes())
	}
}

// RegisterRoutes mounts the payments API on an authenticated router.
func RegisterRoutes(r fiber.Router, svc *Service) {
	g := r.Group("/payments")
	g.Get("/", ListPaymentsHandler(svc))
	g.Get("/export", ExportPaymentsHandler(svc))
	g.Post("/sync", SyncPaymentsHandler(svc))
	g.Get("/:id", GetPaymentHandler(svc))
	g.Put("/:id/status", SetPaymentStatusHandler(svc))
	g.Put("/:id", CorrectPaymentHandler(svc))
}
