package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/claimdesk/claim-service/internal/config"
	"github.com/claimdesk/claim-service/internal/domain"
	"github.com/claimdesk/claim-service/internal/events"
)

// NotificationService handles emitting notifications for claim events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventClaimOpened, n.handleClaimOpened)
	n.dispatcher.Subscribe(events.EventClaimTransitioned, n.handleClaimTransitioned)
	n.dispatcher.Subscribe(events.EventClaimAmended, n.handleClaimAmended)
}

func (n *NotificationService) handleClaimOpened(ctx context.Context, event events.Event) error {
	n.logger.Info("ClaimOpened", zap.String("claim_id", event.ClaimID), zap.String("policy_no", event.PolicyNo))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleClaimTransitioned(ctx context.Context, event events.Event) error {
	n.logger.Info("ClaimTransitioned", zap.String("claim_id", event.ClaimID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	// Claimants hear about decisions; intermediate review steps stay internal.
	if p, ok := event.Payload.(events.ClaimTransitionedPayload); ok && (p.ToState.Terminal() || p.ToState == domain.ClaimStateNeedsMoreInfo) {
		n.sendEmailNotificationStub(ctx, event)
	}
	return nil
}

func (n *NotificationService) handleClaimAmended(ctx context.Context, event events.Event) error {
	n.logger.Debug("ClaimAmended", zap.String("claim_id", event.ClaimID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("claim_id", event.ClaimID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("claim_id", event.ClaimID),
		zap.String("event_type", string(event.Type)))
}
