package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/claimdesk/claim-service/internal/domain"
	apperrors "github.com/claimdesk/claim-service/pkg/util/errorutil"
)

// RequireActor ensures the principal acts as one of the allowed actors.
func RequireActor(allowed ...domain.Actor) fiber.Handler {
	allowedSet := make(map[domain.Actor]struct{}, len(allowed))
	for _, actor := range allowed {
		allowedSet[actor] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Actor]; !exists {
			return apperrors.NewForbidden("actor not permitted")
		}
		return c.Next()
	}
}

// RequireAnyActor ensures the caller is authenticated.
func RequireAnyActor() fiber.Handler {
	return RequireActor()
}

// StaffActors lists the actors allowed on operator endpoints.
var StaffActors = []domain.Actor{domain.ActorAgent, domain.ActorSystem}
