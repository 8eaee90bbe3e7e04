package dto

import (
	"strings"
	"time"

	"github.com/claimdesk/claim-service/internal/domain"
	"github.com/claimdesk/claim-service/internal/lifecycle"
)

// ClaimFieldsRequest carries optional descriptive fields. Omitted fields are
// left unchanged.
type ClaimFieldsRequest struct {
	InsuredEntityName   *string    `json:"insured_entity_name"`
	AccidentType        *string    `json:"accident_type"`
	AccidentDateTime    *time.Time `json:"accident_date_time"`
	AccidentLocation    *string    `json:"accident_location"`
	AccidentDescription *string    `json:"accident_description"`
	ReporterName        *string    `json:"reporter_name"`
	ReporterContact     *string    `json:"reporter_contact"`
	Attachments         []string   `json:"attachments"`
	Comment             *string    `json:"comment"`
}

// Payload converts the request to a lifecycle payload.
func (r ClaimFieldsRequest) Payload() domain.ClaimPayload {
	return domain.ClaimPayload{
		InsuredEntityName:   r.InsuredEntityName,
		AccidentType:        r.AccidentType,
		AccidentDateTime:    r.AccidentDateTime,
		AccidentLocation:    r.AccidentLocation,
		AccidentDescription: r.AccidentDescription,
		ReporterName:        r.ReporterName,
		ReporterContact:     r.ReporterContact,
		Attachments:         r.Attachments,
		Comment:             r.Comment,
	}
}

// OpenClaimRequest payload for POST /claims.
type OpenClaimRequest struct {
	PolicyNo       string  `json:"policy_no"`
	ConversationID *string `json:"conversation_id"`
	ClaimFieldsRequest
}

// Input converts the request to lifecycle input.
func (r OpenClaimRequest) Input() domain.OpenClaimInput {
	return domain.OpenClaimInput{
		PolicyNo:       r.PolicyNo,
		ConversationID: r.ConversationID,
		Details:        r.Payload(),
	}
}

// TimelineEventResponse is one timeline entry.
type TimelineEventResponse struct {
	Timestamp   time.Time    `json:"timestamp"`
	Action      string       `json:"action"`
	Description string       `json:"description"`
	Actor       domain.Actor `json:"actor"`
}

// ClaimResponse provides full claim info.
type ClaimResponse struct {
	ClaimID             string                  `json:"claim_id"`
	Version             int64                   `json:"version"`
	PolicyNo            string                  `json:"policy_no"`
	State               domain.ClaimState       `json:"state"`
	ConversationID      *string                 `json:"conversation_id,omitempty"`
	InsuredEntityName   *string                 `json:"insured_entity_name,omitempty"`
	AccidentType        *string                 `json:"accident_type,omitempty"`
	AccidentDateTime    *time.Time              `json:"accident_date_time,omitempty"`
	AccidentLocation    *string                 `json:"accident_location,omitempty"`
	AccidentDescription *string                 `json:"accident_description,omitempty"`
	ReporterName        *string                 `json:"reporter_name,omitempty"`
	ReporterContact     *string                 `json:"reporter_contact,omitempty"`
	Attachments         []string                `json:"attachments"`
	AllowedActions      []domain.ClaimAction    `json:"allowed_actions"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
	Timeline            []TimelineEventResponse `json:"timeline,omitempty"`
}

// ClaimSummary is the list representation without the timeline.
func ClaimSummary(c domain.ClaimCase) ClaimResponse {
	resp := ClaimResponse{
		ClaimID:             c.ClaimID,
		Version:             c.Version,
		PolicyNo:            c.PolicyNo,
		State:               c.State,
		ConversationID:      c.ConversationID,
		InsuredEntityName:   c.InsuredEntityName,
		AccidentType:        c.AccidentType,
		AccidentDateTime:    c.AccidentDateTime,
		AccidentLocation:    c.AccidentLocation,
		AccidentDescription: c.AccidentDescription,
		ReporterName:        c.ReporterName,
		ReporterContact:     c.ReporterContact,
		Attachments:         c.Attachments,
		AllowedActions:      lifecycle.AllowedActions(c.State),
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
	if resp.Attachments == nil {
		resp.Attachments = []string{}
	}
	if resp.AllowedActions == nil {
		resp.AllowedActions = []domain.ClaimAction{}
	}
	return resp
}

// ClaimDetail includes the timeline.
func ClaimDetail(c domain.ClaimCase) ClaimResponse {
	resp := ClaimSummary(c)
	resp.Timeline = Timeline(c.Timeline)
	return resp
}

// Timeline converts events in order.
func Timeline(events []domain.ClaimTimelineEvent) []TimelineEventResponse {
	items := make([]TimelineEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, TimelineEventResponse{
			Timestamp:   e.Timestamp,
			Action:      e.Action,
			Description: e.Description,
			Actor:       e.Actor,
		})
	}
	return items
}

// ParseAction normalizes an action path segment.
func ParseAction(raw string) domain.ClaimAction {
	return domain.ClaimAction(strings.ToLower(strings.TrimSpace(raw)))
}

// TokenRequest payload for POST /auth/token.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenResponse returns an issued access token.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Actor       domain.Actor `json:"actor"`
}
