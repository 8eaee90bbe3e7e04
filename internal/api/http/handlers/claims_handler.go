package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/claimdesk/claim-service/internal/api/dto"
	"github.com/claimdesk/claim-service/internal/auth"
	"github.com/claimdesk/claim-service/internal/domain"
	"github.com/claimdesk/claim-service/internal/service"
	apperrors "github.com/claimdesk/claim-service/pkg/util/errorutil"
)

// ClaimsHandler exposes claim case endpoints.
type ClaimsHandler struct {
	service *service.ClaimService
}

// NewClaimsHandler constructs handler.
func NewClaimsHandler(claimService *service.ClaimService) *ClaimsHandler {
	return &ClaimsHandler{service: claimService}
}

// OpenClaim POST /claims.
func (h *ClaimsHandler) OpenClaim(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.OpenClaimRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.PolicyNo == "" {
		return apperrors.NewValidationError("policy_no required", nil)
	}
	claim, err := h.service.OpenClaim(c.UserContext(), actor, req.Input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ClaimDetail(claim)})
}

// ListClaims GET /claims?policy_no=.
func (h *ClaimsHandler) ListClaims(c *fiber.Ctx) error {
	policyNo := c.Query("policy_no")
	if policyNo == "" {
		return apperrors.NewValidationError("policy_no query parameter required", nil)
	}
	claims, err := h.service.ListClaimsByPolicy(c.UserContext(), policyNo)
	if err != nil {
		return err
	}
	items := make([]dto.ClaimResponse, 0, len(claims))
	for _, claim := range claims {
		items = append(items, dto.ClaimSummary(claim))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetClaim GET /claims/:id.
func (h *ClaimsHandler) GetClaim(c *fiber.Ctx) error {
	claim, err := h.service.GetClaim(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ClaimDetail(claim)})
}

// Timeline GET /claims/:id/timeline.
func (h *ClaimsHandler) Timeline(c *fiber.Ctx) error {
	events, err := h.service.Timeline(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.Timeline(events)})
}

// ApplyAction POST /claims/:id/actions/:action.
func (h *ClaimsHandler) ApplyAction(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ClaimFieldsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	claim, err := h.service.Transition(c.UserContext(), c.Params("id"), dto.ParseAction(c.Params("action")), actor, req.Payload())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ClaimDetail(claim)})
}

// AmendClaim PATCH /claims/:id.
func (h *ClaimsHandler) AmendClaim(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ClaimFieldsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	claim, err := h.service.Amend(c.UserContext(), c.Params("id"), actor, req.Payload())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ClaimDetail(claim)})
}

func actorFrom(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor, nil
}

// parseBody decodes a JSON body; an empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}
