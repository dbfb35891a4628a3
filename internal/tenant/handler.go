package tenant

import (
	"time"

	"rental-backend/internal/apperr"
	"rental-backend/internal/audit"
	"rental-backend/internal/auth"
	"rental-backend/internal/httpx"
	"rental-backend/internal/models"
	"rental-backend/internal/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateTenantRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email,max=200"`
	Phone      string `json:"phone" validate:"required,max=50"`
	NationalID string `json:"national_id" validate:"required,max=50"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	PropertyID string `json:"property_id" validate:"required,uuid"`
}

type UpdateTenantRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=200"`
	Email      *string `json:"email" validate:"omitempty,email,max=200"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	NationalID *string `json:"national_id" validate:"omitempty,max=50"`
	StartDate  *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate    *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	PropertyID *string `json:"property_id" validate:"omitempty,uuid"`
}

type TenantResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	NationalID   string `json:"national_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	PropertyID   string `json:"property_id"`
	PropertyName string `json:"property_name,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type TenantWriteResponse struct {
	Tenant         TenantResponse           `json:"tenant"`
	InitialPayment *payment.PaymentResponse `json:"initial_payment"`
	Warnings       []string                 `json:"warnings,omitempty"`
}

type TenantDetailResponse struct {
	TenantResponse
	Payments []payment.PaymentResponse `json:"payments"`
}

func toResponse(t *models.Tenant, propertyName string) TenantResponse {
	return TenantResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		Email:        t.Email,
		Phone:        t.Phone,
		NationalID:   t.NationalID,
		StartDate:    httpx.FormatDate(t.StartDate),
		EndDate:      httpx.FormatDate(t.EndDate),
		PropertyID:   t.PropertyID.String(),
		PropertyName: propertyName,
		CreatedAt:    httpx.FormatTime(t.CreatedAt),
		UpdatedAt:    httpx.FormatTime(t.UpdatedAt),
	}
}

func toWriteResponse(res *Result) TenantWriteResponse {
	resp := TenantWriteResponse{
		Tenant:   toResponse(res.Tenant, ""),
		Warnings: res.Warnings,
	}
	if res.InitialPayment != nil {
		p := payment.ToResponse(res.InitialPayment)
		resp.InitialPayment = &p
	}
	return resp
}

func parseOptionalDate(field string, v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	d, err := httpx.ParseDate(field, *v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// -------------------------
// Tenant CRUD
// -------------------------

// POST /api/tenants
func CreateTenantHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := audit.ActorFrom(c)
		if err != nil {
			return err
		}

		var body CreateTenantRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		start, err := httpx.ParseDate("start_date", body.StartDate)
		if err != nil {
			return err
		}
		end, err := httpx.ParseDate("end_date", body.EndDate)
		if err != nil {
			return err
		}

		propertyID, err := uuid.Parse(body.PropertyID)
		if err != nil {
			return apperr.Validation("invalid property_id")
		}

		res, err := svc.Create(c.UserContext(), actor, Input{
			Name:       body.Name,
			Email:      body.Email,
			Phone:      body.Phone,
			NationalID: body.NationalID,
			StartDate:  start,
			EndDate:    end,
			PropertyID: propertyID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toWriteResponse(res))
	}
}

// GET /api/tenants?search=ana
func ListTenantsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		views, err := svc.List(c.UserContext(), ownerID, c.Query("search"))
		if err != nil {
			return err
		}

		resp := make([]TenantResponse, 0, len(views))
		for i := range views {
			resp = append(resp, toResponse(&views[i].Tenant, views[i].PropertyName))
		}
		return c.JSON(resp)
	}
}

// GET /api/tenants/:id
func GetTenantHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		d, err := svc.Get(c.UserContext(), ownerID, id)
		if err != nil {
			return err
		}

		resp := TenantDetailResponse{
			TenantResponse: toResponse(&d.Tenant, d.PropertyName),
			Payments:       make([]payment.PaymentResponse, 0, len(d.Payments)),
		}
		for i := range d.Payments {
			resp.Payments = append(resp.Payments, payment.ToResponse(&d.Payments[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/tenants/:id
func UpdateTenantHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := audit.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body UpdateTenantRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		patch := Patch{
			Name:       body.Name,
			Email:      body.Email,
			Phone:      body.Phone,
			NationalID: body.NationalID,
		}
		if patch.StartDate, err = parseOptionalDate("start_date", body.StartDate); err != nil {
			return err
		}
		if patch.EndDate, err = parseOptionalDate("end_date", body.EndDate); err != nil {
			return err
		}
		if body.PropertyID != nil {
			pid, err := uuid.Parse(*body.PropertyID)
			if err != nil {
				return apperr.Validation("invalid property_id")
			}
			patch.PropertyID = &pid
		}

		res, err := svc.Update(c.UserContext(), actor, id, patch)
		if err != nil {
			return err
		}
		return c.JSON(toWriteResponse(res))
	}
}

// DELETE /api/tenants/:id
func DeleteTenantHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := audit.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		if err := svc.Delete(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func RegisterRoutes(r fiber.Router, svc *Service) {
	g := r.Group("/tenants")
	g.Post("/", CreateTenantHandler(svc))
	g.Get("/", ListTenantsHandler(svc))
	g.Get("/:id", GetTenantHandler(svc))
	g.Put("/:id", UpdateTenantHandler(svc))
	g.Delete("/:id", DeleteTenantHandler(svc))
}
