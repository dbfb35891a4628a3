package audit

import (
	"strconv"

	"rental-backend/internal/apperr"
	"rental-backend/internal/auth"
	"rental-backend/internal/httpx"
	"rental-backend/internal/models"
	"rental-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /api/audit-logs?entity_type=payment&entity_id=...&limit=50
func ListAuditLogsHandler(w *Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		filter := store.AuditFilter{EntityType: c.Query("entity_type")}
		if raw := c.Query("entity_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return apperr.Validation("invalid entity_id")
			}
			filter.EntityID = &id
		}
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return apperr.Validation("limit must be a positive number")
			}
			filter.Limit = n
		}

		logs, err := w.List(c.UserContext(), ownerID, filter)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   httpx.FormatTime(l.CreatedAt),
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID.String(),
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
