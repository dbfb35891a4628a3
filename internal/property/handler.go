package property

import (
	"rental-backend/internal/audit"
	"rental-backend/internal/auth"
	"rental-backend/internal/httpx"
	"rental-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreatePropertyRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Address    string  `json:"address" validate:"required,max=255"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	ZipCode    string  `json:"zip_code" validate:"max=20"`
	Type       string  `json:"type" validate:"required,max=50"`
	Bedrooms   int     `json:"bedrooms" validate:"gte=0"`
	Bathrooms  int     `json:"bathrooms" validate:"gte=0"`
	Area       float64 `json:"area" validate:"gte=0"`
	ImageURL   string  `json:"image_url" validate:"omitempty,url,max=500"`
	RentAmount float64 `json:"rent_amount" validate:"gt=0"`
	DueDay     int     `json:"due_day" validate:"min=1,max=31"`
}

type UpdatePropertyRequest struct {
	Name       *string  `json:"name" validate:"omitempty,max=200"`
	Address    *string  `json:"address" validate:"omitempty,max=255"`
	City       *string  `json:"city" validate:"omitempty,max=100"`
	State      *string  `json:"state" validate:"omitempty,max=100"`
	ZipCode    *string  `json:"zip_code" validate:"omitempty,max=20"`
	Type       *string  `json:"type" validate:"omitempty,max=50"`
	Bedrooms   *int     `json:"bedrooms"`
	Bathrooms  *int     `json:"bathrooms"`
	Area       *float64 `json:"area"`
	ImageURL   *string  `json:"image_url" validate:"omitempty,max=500"`
	RentAmount *float64 `json:"rent_amount"`
	DueDay     *int     `json:"due_day"`
	Version    int64    `json:"version" validate:"gte=0"`
}

type PropertyResponse struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Address    string                `json:"address"`
	City       string                `json:"city"`
	State      string                `json:"state"`
	ZipCode    string                `json:"zip_code"`
	Type       string                `json:"type"`
	Bedrooms   int                   `json:"bedrooms"`
	Bathrooms  int                   `json:"bathrooms"`
	Area       float64               `json:"area"`
	ImageURL   string                `json:"image_url"`
	RentAmount float64               `json:"rent_amount"`
	DueDay     int                   `json:"due_day"`
	Status     models.PropertyStatus `json:"status"`
	TenantID   *string               `json:"tenant_id"`
	TenantName string                `json:"tenant_name,omitempty"`
	Version    int64                 `json:"version"`
	CreatedAt  string                `json:"created_at"`
	UpdatedAt  string                `json:"updated_at"`
}

func toResponse(p *models.Property, tenantName string) PropertyResponse {
	var tenantID *string
	if p.TenantID != nil {
		s := p.TenantID.String()
		tenantID = &s
	}
	return PropertyResponse{
		ID:         p.ID.String(),
		Name:       p.Name,
		Address:    p.Address,
		City:       p.City,
		State:      p.State,
		ZipCode:    p.ZipCode,
		Type:       p.Type,
		Bedrooms:   p.Bedrooms,
		Bathrooms:  p.Bathrooms,
		Area:       p.Area,
		ImageURL:   p.ImageURL,
		RentAmount: p.RentAmount,
		DueDay:     p.DueDay,
		Status:     p.Status,
		TenantID:   tenantID,
		TenantName: tenantName,
		Version:    p.Version,
		CreatedAt:  httpx.FormatTime(p.CreatedAt),
		UpdatedAt:  httpx.FormatTime(p.UpdatedAt),
	}
}

// -------------------------
// Property CRUD
// -------------------------

// POST /api/properties
func CreatePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := audit.ActorFrom(c)
		if err != nil {
			return err
		}

		var body CreatePropertyRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		p, err := svc.Create(c.UserContext(), actor, Input{
			Name:       body.Name,
			Address:    body.Address,
			City:       body.City,
			State:      body.State,
			ZipCode:    body.ZipCode,
			Type:       body.Type,
			Bedrooms:   body.Bedrooms,
			Bathrooms:  body.Bathrooms,
			Area:       body.Area,
			ImageURL:   body.ImageURL,
			RentAmount: body.RentAmount,
			DueDay:     body.DueDay,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(p, ""))
	}
}

// GET /api/properties?search=centro
func ListPropertiesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		views, err := svc.List(c.UserContext(), ownerID, c.Query("search"))
		if err != nil {
			return err
		}

		resp := make([]PropertyResponse, 0, len(views))
		for i := range views {
			resp = append(resp, toResponse(&views[i].Property, views[i].TenantName))
		}
		return c.JSON(resp)
	}
}

// GET /api/properties/:id
func GetPropertyHandler(svc *Service) fiber.Handler {
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
		return c.JSON(toResponse(&v.Property, v.TenantName))
	}
}

// PUT /api/properties/:id
func UpdatePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := audit.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body UpdatePropertyRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		p, err := svc.Update(c.UserContext(), actor, id, Patch{
			Name:       body.Name,
			Address:    body.Address,
			City:       body.City,
			State:      body.State,
			ZipCode:    body.ZipCode,
			Type:       body.Type,
			Bedrooms:   body.Bedrooms,
			Bathrooms:  body.Bathrooms,
			Area:       body.Area,
			ImageURL:   body.ImageURL,
			RentAmount: body.RentAmount,
			DueDay:     body.DueDay,
			Version:    body.Version,
		})
		if err != nil {
			return err
		}
		return c.JSON(toResponse(p, ""))
	}
}

// DELETE /api/properties/:id
func DeletePropertyHandler(svc *Service) fiber.Handler {
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
	g := r.Group("/properties")
	g.Post("/", CreatePropertyHandler(svc))
	g.Get("/", ListPropertiesHandler(svc))
	g.Get("/:id", GetPropertyHandler(svc))
	g.Put("/:id", UpdatePropertyHandler(svc))
	g.Delete("/:id", DeletePropertyHandler(svc))
}
