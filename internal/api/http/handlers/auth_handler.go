package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/claimdesk/claim-service/internal/api/dto"
	"github.com/claimdesk/claim-service/internal/auth"
	apperrors "github.com/claimdesk/claim-service/pkg/util/errorutil"
)

// AuthHandler issues access tokens to API clients.
type AuthHandler struct {
	authenticator *auth.ClientAuthenticator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authenticator *auth.ClientAuthenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

// IssueToken POST /auth/token.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		return apperrors.NewValidationError("client_id and client_secret required", nil)
	}
	issued, err := h.authenticator.Authenticate(req.ClientID, req.ClientSecret)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt,
		Actor:       issued.Actor,
	}})
}
