package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/social-login/internal/auth"
	"github.com/spec-kit/social-login/internal/config"
	"github.com/spec-kit/social-login/internal/domain"
	"github.com/spec-kit/social-login/internal/events"
	"github.com/spec-kit/social-login/internal/repository"
	"github.com/spec-kit/social-login/pkg/redact"
	apperrors "github.com/spec-kit/social-login/pkg/util"
)

// Login results reported to a LoginRecorder.
const (
	LoginResultSuccess = "success"
	LoginResultFailure = "failure"
)

// LoginRecorder counts login attempts.
type LoginRecorder interface {
	RecordLogin(provider, result string)
}

// LoginService turns a completed federated login into an access token cookie.
type LoginService struct {
	tokens      *auth.TokenService
	cookies     *auth.CookieTransport
	users       repository.UserRepository
	dispatcher  events.Dispatcher
	recorder    LoginRecorder
	logger      *zap.Logger
	frontendURL string
}

// LoginDependencies encapsulates collaborators for the login service.
// Users, Dispatcher and Recorder are optional.
type LoginDependencies struct {
	Tokens     *auth.TokenService
	Cookies    *auth.CookieTransport
	Users      repository.UserRepository
	Dispatcher events.Dispatcher
	Recorder   LoginRecorder
	Logger     *zap.Logger
}

// NewLoginService builds the service.
func NewLoginService(cfg config.Config, deps LoginDependencies) *LoginService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	frontendURL := cfg.App.FrontendURL
	if frontendURL == "" {
		frontendURL = config.DefaultFrontendURL
	}
	return &LoginService{
		tokens:      deps.Tokens,
		cookies:     deps.Cookies,
		users:       deps.Users,
		dispatcher:  deps.Dispatcher,
		recorder:    deps.Recorder,
		logger:      logger,
		frontendURL: frontendURL,
	}
}

// FrontendURL is where the browser is sent after login.
func (s *LoginService) FrontendURL() string {
	return s.frontendURL
}

// CompleteLogin issues an access token for the verified email of identity
// and returns the cookie carrying it. Nothing is issued when the provider
// did not supply a verified email.
func (s *LoginService) CompleteLogin(ctx context.Context, provider string, identity domain.ExternalIdentity) (auth.CookieDescriptor, error) {
	var (
		email string
		ok    bool
	)
	if identity != nil {
		email, ok = identity.VerifiedEmail()
	}
	if !ok {
		s.logger.Error("identity provider result lacks a verified email",
			zap.String("provider", provider))
		s.RecordFailure(ctx, provider, apperrors.CodeMissingIdentityAttribute)
		return auth.CookieDescriptor{}, apperrors.NewMissingIdentityAttribute("email")
	}

	token, expiresAt, err := s.tokens.Issue(email)
	if err != nil {
		s.RecordFailure(ctx, provider, apperrors.CodeInternal)
		return auth.CookieDescriptor{}, apperrors.NewInternalError(err)
	}
	descriptor := s.cookies.Build(token, s.tokens.LifetimeSeconds(), false)

	s.recordDirectory(ctx, domain.UserLogin{
		Email:       email,
		DisplayName: identity.DisplayName(),
		Provider:    provider,
		At:          s.tokens.Now().UTC(),
	})

	if s.recorder != nil {
		s.recorder.RecordLogin(provider, LoginResultSuccess)
	}
	s.publish(ctx, events.NewEvent(events.EventLoginSucceeded, email, provider,
		events.LoginSucceededPayload{ExpiresAt: expiresAt}))

	s.logger.Info("login completed",
		zap.String("provider", provider),
		zap.String("email", redact.Email(email)))
	return descriptor, nil
}

// Logout returns the clearing cookie. It always succeeds; no server-side
// state exists to invalidate.
func (s *LoginService) Logout(ctx context.Context) auth.CookieDescriptor {
	subject := ""
	if identity, ok := auth.IdentityFromUserContext(ctx); ok {
		subject = identity.Email
	}
	s.publish(ctx, events.NewEvent(events.EventLoggedOut, subject, "", nil))
	return s.cookies.Build("", 0, true)
}

// RecordFailure reports a login attempt that ended without a token.
func (s *LoginService) RecordFailure(ctx context.Context, provider, reason string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(provider, LoginResultFailure)
	}
	s.publish(ctx, events.NewEvent(events.EventLoginFailed, "", provider,
		events.LoginFailedPayload{Reason: reason}))
}

// recordDirectory updates the user directory. Tokens are stateless, so a
// directory outage is logged and does not fail the login.
func (s *LoginService) recordDirectory(ctx context.Context, login domain.UserLogin) {
	if s.users == nil {
		return
	}
	if _, err := s.users.RecordLogin(ctx, login); err != nil {
		s.logger.Warn("failed to record login in user directory",
			zap.String("email", redact.Email(login.Email)),
			zap.Error(err))
	}
}

func (s *LoginService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
