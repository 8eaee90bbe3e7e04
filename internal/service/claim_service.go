package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claimdesk/claim-service/internal/domain"
	"github.com/claimdesk/claim-service/internal/events"
	"github.com/claimdesk/claim-service/internal/lifecycle"
	"github.com/claimdesk/claim-service/internal/observability"
	"github.com/claimdesk/claim-service/internal/repository"
)

const defaultMaxSaveAttempts = 3

// ClaimService coordinates claim workflows: load, apply a lifecycle
// operation, persist, publish.
type ClaimService struct {
	claims      repository.ClaimRepository
	lifecycle   *lifecycle.Lifecycle
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	maxAttempts int
}

// ClaimDependencies bundles collaborators for the claim service.
type ClaimDependencies struct {
	ClaimRepo       repository.ClaimRepository
	Lifecycle       *lifecycle.Lifecycle
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	MaxSaveAttempts int
}

// NewClaimService constructs the service.
func NewClaimService(deps ClaimDependencies) *ClaimService {
	s := &ClaimService{
		claims:      deps.ClaimRepo,
		lifecycle:   deps.Lifecycle,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		maxAttempts: deps.MaxSaveAttempts,
	}
	if s.lifecycle == nil {
		s.lifecycle = lifecycle.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxSaveAttempts
	}
	return s
}

// OpenClaim creates and stores a new case in DRAFT.
func (s *ClaimService) OpenClaim(ctx context.Context, actor domain.Actor, input domain.OpenClaimInput) (domain.ClaimCase, error) {
	claim, err := s.lifecycle.Open(input, actor)
	if err != nil {
		s.metrics.RecordTransition(domain.TimelineActionCreate, outcomeOf(err))
		return domain.ClaimCase{}, err
	}
	if err := s.claims.Create(ctx, claim); err != nil {
		s.metrics.RecordTransition(domain.TimelineActionCreate, outcomeOf(err))
		return domain.ClaimCase{}, err
	}
	s.metrics.RecordTransition(domain.TimelineActionCreate, "ok")
	s.logger.Info("claim opened",
		zap.String("claim_id", claim.ClaimID),
		zap.String("policy_no", claim.PolicyNo),
		zap.String("actor", string(actor)))
	s.publishEvent(ctx, claim, events.EventClaimOpened, actor, events.ClaimOpenedPayload{
		ConversationID: claim.ConversationID,
	})
	return claim, nil
}

// GetClaim loads a case by id.
func (s *ClaimService) GetClaim(ctx context.Context, claimID string) (domain.ClaimCase, error) {
	return s.claims.Load(ctx, claimID)
}

// ListClaimsByPolicy returns every case filed against a policy.
func (s *ClaimService) ListClaimsByPolicy(ctx context.Context, policyNo string) ([]domain.ClaimCase, error) {
	policyNo = lifecycle.NormalizePolicyNo(policyNo)
	if err := lifecycle.ValidatePolicyNo(policyNo); err != nil {
		return nil, err
	}
	return s.claims.ListByPolicy(ctx, policyNo)
}

// Timeline returns the case's events in append order.
func (s *ClaimService) Timeline(ctx context.Context, claimID string) ([]domain.ClaimTimelineEvent, error) {
	claim, err := s.claims.Load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return claim.Timeline, nil
}

// Transition applies action to the stored case. On a save conflict the case
// is reloaded and the action re-validated against the fresh state, up to the
// configured number of attempts.
func (s *ClaimService) Transition(ctx context.Context, claimID string, action domain.ClaimAction, actor domain.Actor, payload domain.ClaimPayload) (domain.ClaimCase, error) {
	before, after, err := s.mutate(ctx, claimID, string(action), func(current domain.ClaimCase) (domain.ClaimCase, error) {
		return s.lifecycle.Transition(current, action, actor, payload)
	})
	if err != nil {
		return domain.ClaimCase{}, err
	}
	s.logger.Info("claim transitioned",
		zap.String("claim_id", claimID),
		zap.String("action", string(action)),
		zap.String("from", string(before.State)),
		zap.String("to", string(after.State)),
		zap.String("actor", string(actor)))
	comment := ""
	if payload.Comment != nil {
		comment = strings.TrimSpace(*payload.Comment)
	}
	s.publishEvent(ctx, after, events.EventClaimTransitioned, actor, events.ClaimTransitionedPayload{
		Action:    action,
		FromState: before.State,
		ToState:   after.State,
		Comment:   comment,
	})
	return after, nil
}

// Amend updates descriptive fields of a non-terminal case.
func (s *ClaimService) Amend(ctx context.Context, claimID string, actor domain.Actor, payload domain.ClaimPayload) (domain.ClaimCase, error) {
	_, after, err := s.mutate(ctx, claimID, domain.TimelineActionUpdateDetails, func(current domain.ClaimCase) (domain.ClaimCase, error) {
		return s.lifecycle.Amend(current, actor, payload)
	})
	if err != nil {
		return domain.ClaimCase{}, err
	}
	last, _ := after.LastEvent()
	s.publishEvent(ctx, after, events.EventClaimAmended, actor, events.ClaimAmendedPayload{
		Description: last.Description,
	})
	return after, nil
}

func (s *ClaimService) mutate(ctx context.Context, claimID, op string, apply func(domain.ClaimCase) (domain.ClaimCase, error)) (domain.ClaimCase, domain.ClaimCase, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.ClaimCase{}, domain.ClaimCase{}, err
		}
		current, err := s.claims.Load(ctx, claimID)
		if err != nil {
			return domain.ClaimCase{}, domain.ClaimCase{}, err
		}
		next, err := apply(current)
		if err != nil {
			s.metrics.RecordTransition(op, outcomeOf(err))
			return domain.ClaimCase{}, domain.ClaimCase{}, err
		}
		err = s.claims.Save(ctx, next)
		if err == nil {
			s.metrics.RecordTransition(op, "ok")
			return current, next, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= s.maxAttempts {
			s.metrics.RecordTransition(op, outcomeOf(err))
			return domain.ClaimCase{}, domain.ClaimCase{}, err
		}
		s.logger.Warn("claim save conflict; reloading",
			zap.String("claim_id", claimID),
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
}

func (s *ClaimService) publishEvent(ctx context.Context, claim domain.ClaimCase, eventType events.EventType, actor domain.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ClaimID:   claim.ClaimID,
		PolicyNo:  claim.PolicyNo,
		Actor:     actor,
		Version:   claim.Version,
		Timestamp: claim.UpdatedAt,
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("claim_id", claim.ClaimID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrTerminalStateViolation):
		return "terminal_state"
	case errors.Is(err, domain.ErrPayloadValidationFailed):
		return "invalid_payload"
	case errors.Is(err, domain.ErrInvalidEventData):
		return "invalid_event"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
