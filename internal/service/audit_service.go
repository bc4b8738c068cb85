package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/social-login/internal/events"
	"github.com/spec-kit/social-login/pkg/redact"
)

// AuditService writes authentication events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventLoggedOut, a.handleLoggedOut)
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if payload, ok := event.Payload.(events.LoginSucceededPayload); ok {
		fields = append(fields, zap.Time("expires_at", payload.ExpiresAt))
	}
	a.logger.Info("LoginSucceeded", fields...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if payload, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("reason", payload.Reason))
	}
	a.logger.Warn("LoginFailed", fields...)
	return nil
}

func (a *AuditService) handleLoggedOut(_ context.Context, event events.Event) error {
	a.logger.Info("LoggedOut", a.baseFields(event)...)
	return nil
}

func (a *AuditService) baseFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.Provider != "" {
		fields = append(fields, zap.String("provider", event.Provider))
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", redact.Email(event.Subject)))
	}
	return fields
}
