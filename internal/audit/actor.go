package audit

import (
	"rental-backend/internal/auth"
	"rental-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Actor is the authenticated user a mutation is performed for. Its ID is
// also the owner id of the records touched.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role models.UserRole
}

// ActorFrom reads the actor placed in the request by auth.JWTMiddleware.
func ActorFrom(c *fiber.Ctx) (Actor, error) {
	id, err := auth.UserID(c)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: id, Name: auth.Email(c), Role: auth.Role(c)}, nil
}
