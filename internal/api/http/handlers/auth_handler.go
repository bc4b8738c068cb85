package handlers

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/social-login/internal/api/dto"
	"github.com/spec-kit/social-login/internal/auth"
	"github.com/spec-kit/social-login/internal/domain"
	"github.com/spec-kit/social-login/internal/federation"
	"github.com/spec-kit/social-login/internal/service"
	apperrors "github.com/spec-kit/social-login/pkg/util"
)

// StateCookieName binds an OAuth2 state value to the browser that started the flow.
const StateCookieName = "OAUTH2_STATE"

// AuthHandler exposes the federated login and logout endpoints.
type AuthHandler struct {
	provider     federation.Provider
	states       federation.StateStore
	login        *service.LoginService
	stateTTL     time.Duration
	secureCookie bool
	logger       *zap.Logger
}

// AuthHandlerConfig bundles AuthHandler dependencies.
type AuthHandlerConfig struct {
	Provider     federation.Provider
	States       federation.StateStore
	Login        *service.LoginService
	StateTTL     time.Duration
	SecureCookie bool
	Logger       *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AuthHandler{
		provider:     cfg.Provider,
		states:       cfg.States,
		login:        cfg.Login,
		stateTTL:     ttl,
		secureCookie: cfg.SecureCookie,
		logger:       logger,
	}
}

// ProviderName returns the configured provider name used in routes.
func (h *AuthHandler) ProviderName() string {
	return h.provider.Name()
}

// Authorize handles GET /oauth2/authorization/{provider}.
func (h *AuthHandler) Authorize(c *fiber.Ctx) error {
	state, err := federation.GenerateState()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	verifier := federation.GenerateVerifier()

	if err := h.states.Save(c.UserContext(), state, verifier, h.stateTTL); err != nil {
		return apperrors.NewInternalError(err)
	}

	auth.SetCookie(c, auth.BuildCookie(state, StateCookieName, int(h.stateTTL/time.Second), h.secureCookie, false))
	return c.Redirect(h.provider.AuthCodeURL(state, verifier), fiber.StatusFound)
}

// Callback handles GET /login/oauth2/code/{provider}.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	ctx := c.UserContext()
	provider := h.provider.Name()

	bound, _ := auth.ExtractToken(auth.RequestCookies(c), StateCookieName)
	auth.SetCookie(c, auth.BuildCookie("", StateCookieName, 0, h.secureCookie, true))

	if idpErr := c.Query("error"); idpErr != "" {
		h.login.RecordFailure(ctx, provider, "provider_error")
		h.logger.Warn("identity provider returned an error", zap.String("error", utils.CopyString(idpErr)))
		return apperrors.NewBadRequest("authorization was not granted")
	}

	state := c.Query("state")
	if state == "" || bound == "" || subtle.ConstantTimeCompare([]byte(state), []byte(bound)) != 1 {
		h.login.RecordFailure(ctx, provider, "state_mismatch")
		return apperrors.NewBadRequest("invalid oauth2 state")
	}

	verifier, ok, err := h.states.Consume(ctx, state)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !ok {
		h.login.RecordFailure(ctx, provider, "state_unknown")
		return apperrors.NewBadRequest("invalid oauth2 state")
	}

	code := c.Query("code")
	if code == "" {
		h.login.RecordFailure(ctx, provider, "missing_code")
		return apperrors.NewBadRequest("authorization code required")
	}

	info, err := h.provider.Exchange(ctx, code, verifier)
	if err != nil {
		h.login.RecordFailure(ctx, provider, apperrors.CodeIdentityProviderFailed)
		return apperrors.NewIdentityProviderError(err)
	}

	return h.CompleteLogin(c, info)
}

// CompleteLogin sets the access token cookie for identity and redirects to
// the frontend. The token only ever travels in the Set-Cookie header.
func (h *AuthHandler) CompleteLogin(c *fiber.Ctx, identity domain.ExternalIdentity) error {
	descriptor, err := h.login.CompleteLogin(c.UserContext(), h.provider.Name(), identity)
	if err != nil {
		return err
	}
	auth.SetCookie(c, descriptor)
	return c.Redirect(h.login.FrontendURL(), fiber.StatusFound)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	auth.SetCookie(c, h.login.Logout(c.UserContext()))
	return c.JSON(dto.LogoutResponse{
		Message: "Logged out successfully",
		Status:  "success",
	})
}
