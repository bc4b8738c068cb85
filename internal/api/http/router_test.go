package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/social-login/internal/api/http/handlers"
	"github.com/spec-kit/social-login/internal/auth"
	"github.com/spec-kit/social-login/internal/config"
	"github.com/spec-kit/social-login/internal/events"
	"github.com/spec-kit/social-login/internal/federation"
	"github.com/spec-kit/social-login/internal/observability"
	"github.com/spec-kit/social-login/internal/service"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testFrontend = "https://app.example.com"
)

type fakeProvider struct{}

func (fakeProvider) Name() string { return "test" }

func (fakeProvider) AuthCodeURL(state, verifier string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state) + "&verifier_set=" + boolString(verifier != "")
}

func (fakeProvider) Exchange(_ context.Context, code, _ string) (*federation.UserInfo, error) {
	switch code {
	case "good":
		var info federation.UserInfo
		if err := json.Unmarshal([]byte(`{"sub":"1","email":"a@example.com","email_verified":true,"name":"A"}`), &info); err != nil {
			return nil, err
		}
		return &info, nil
	case "unverified":
		return &federation.UserInfo{Subject: "2", Email: "b@example.com"}, nil
	default:
		return nil, errors.New("invalid_grant")
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenService
	states  federation.StateStore
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	key, err := auth.NewSigningKey(testSecret)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)
	cookies := auth.NewCookieTransport(auth.DefaultCookieName, true)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	cfg := config.Config{App: config.AppConfig{FrontendURL: testFrontend}}
	login := service.NewLoginService(cfg, service.LoginDependencies{
		Tokens:     tokens,
		Cookies:    cookies,
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     logger,
	})
	states := federation.NewMemoryStateStore(nil)

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     5 * time.Second,
		FrontendURL: testFrontend,
	})
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("social-login", "test", nil),
		Public: handlers.NewPublicHandler(),
		Auth: handlers.NewAuthHandler(handlers.AuthHandlerConfig{
			Provider:     fakeProvider{},
			States:       states,
			Login:        login,
			StateTTL:     time.Minute,
			SecureCookie: true,
			Logger:       logger,
		}),
		Users:   handlers.NewUserHandler(),
		Gate:    auth.NewGate(tokens, cookies, metrics),
		Metrics: metrics,
	})

	return &testServer{app: app, tokens: tokens, states: states, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, target string, cookies ...*nethttp.Cookie) (*nethttp.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func findCookie(resp *nethttp.Response, name string) *nethttp.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Error.Code
}

// login drives the authorization redirect and callback and returns the
// access token cookie.
func (s *testServer) login(t *testing.T, code string) (*nethttp.Response, []byte) {
	t.Helper()

	resp, _ := s.do(t, fiber.MethodGet, "/oauth2/authorization/test")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get(fiber.HeaderLocation))
	require.NoError(t, err)
	require.Equal(t, "idp.example.com", location.Host)
	require.Equal(t, "true", location.Query().Get("verifier_set"))
	state := location.Query().Get("state")
	require.Len(t, state, 64)

	stateCookie := findCookie(resp, handlers.StateCookieName)
	require.NotNil(t, stateCookie)
	require.Equal(t, state, stateCookie.Value)
	require.True(t, stateCookie.HttpOnly)

	return s.do(t, fiber.MethodGet, "/login/oauth2/code/test?code="+code+"&state="+state,
		&nethttp.Cookie{Name: handlers.StateCookieName, Value: state})
}

func TestLoginFlow_EndToEnd(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, body := s.login(t, "good")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, testFrontend, resp.Header.Get(fiber.HeaderLocation))

	access := findCookie(resp, auth.DefaultCookieName)
	require.NotNil(t, access)
	require.True(t, access.HttpOnly)
	require.True(t, access.Secure)
	require.Equal(t, nethttp.SameSiteLaxMode, access.SameSite)
	require.Equal(t, "/", access.Path)
	require.Equal(t, 900, access.MaxAge)
	require.NotContains(t, string(body), access.Value)
	require.NotContains(t, resp.Header.Get(fiber.HeaderLocation), access.Value)

	cleared := findCookie(resp, handlers.StateCookieName)
	require.NotNil(t, cleared)
	require.Equal(t, "", cleared.Value)

	subject, err := s.tokens.ExtractSubject(access.Value)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", subject)

	resp, body = s.do(t, fiber.MethodGet, "/api/me", access)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"email":"a@example.com"}`, string(body))
}

func TestLoginFlow_UnverifiedEmailIssuesNothing(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, body := s.login(t, "unverified")
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	require.Equal(t, "MISSING_IDENTITY_ATTRIBUTE", errorCode(t, body))
	require.Nil(t, findCookie(resp, auth.DefaultCookieName))
}

func TestLoginFlow_ExchangeFailure(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, body := s.login(t, "bogus")
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	require.Equal(t, "IDENTITY_PROVIDER_FAILED", errorCode(t, body))
	require.Nil(t, findCookie(resp, auth.DefaultCookieName))
}

func TestCallback_RejectsStateProblems(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	// no bound cookie
	resp, body := s.do(t, fiber.MethodGet, "/login/oauth2/code/test?code=good&state=abc")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "BAD_REQUEST", errorCode(t, body))

	// cookie does not match the query state
	resp, _ = s.do(t, fiber.MethodGet, "/login/oauth2/code/test?code=good&state=abc",
		&nethttp.Cookie{Name: handlers.StateCookieName, Value: "xyz"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// matching pair that was never issued
	resp, _ = s.do(t, fiber.MethodGet, "/login/oauth2/code/test?code=good&state=abc",
		&nethttp.Cookie{Name: handlers.StateCookieName, Value: "abc"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// provider reported an error
	resp, _ = s.do(t, fiber.MethodGet, "/login/oauth2/code/test?error=access_denied")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Nil(t, findCookie(resp, auth.DefaultCookieName))
}

func TestCallback_StateIsSingleUse(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	require.NoError(t, s.states.Save(context.Background(), "once", "verifier", time.Minute))
	stateCookie := &nethttp.Cookie{Name: handlers.StateCookieName, Value: "once"}

	resp, _ := s.do(t, fiber.MethodGet, "/login/oauth2/code/test?code=good&state=once", stateCookie)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp, _ = s.do(t, fiber.MethodGet, "/login/oauth2/code/test?code=good&state=once", stateCookie)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCallback_MissingCode(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	require.NoError(t, s.states.Save(context.Background(), "s1", "verifier", time.Minute))
	resp, _ := s.do(t, fiber.MethodGet, "/login/oauth2/code/test?state=s1",
		&nethttp.Cookie{Name: handlers.StateCookieName, Value: "s1"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMe_RequiresIdentity(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, body := s.do(t, fiber.MethodGet, "/api/me")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, "FORBIDDEN", errorCode(t, body))

	token, _, err := s.tokens.Issue("a@example.com")
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	parts[1] = parts[1] + "x"
	tampered := strings.Join(parts, ".")

	resp, _ = s.do(t, fiber.MethodGet, "/api/me", &nethttp.Cookie{Name: auth.DefaultCookieName, Value: tampered})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, fiber.MethodGet, "/api/me", &nethttp.Cookie{Name: auth.DefaultCookieName, Value: "garbage"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestLogout_ClearsCookie(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for _, cookies := range [][]*nethttp.Cookie{
		nil,
		{{Name: auth.DefaultCookieName, Value: "garbage"}},
	} {
		resp, body := s.do(t, fiber.MethodPost, "/logout", cookies...)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.JSONEq(t, `{"message":"Logged out successfully","status":"success"}`, string(body))

		var clearing string
		for _, header := range resp.Header.Values(fiber.HeaderSetCookie) {
			if strings.HasPrefix(header, auth.DefaultCookieName+"=") {
				clearing = header
			}
		}
		require.True(t, strings.HasPrefix(clearing, auth.DefaultCookieName+"=;"), clearing)
		require.Contains(t, clearing, "Max-Age=0")
		require.Contains(t, clearing, "Path=/")
		require.Contains(t, clearing, "HttpOnly")
	}
}

func TestPublicRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, body := s.do(t, fiber.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Public page", string(body))

	resp, body = s.do(t, fiber.MethodGet, "/api/public", &nethttp.Cookie{Name: auth.DefaultCookieName, Value: "garbage"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"message":"This is a public endpoint"}`, string(body))

}

func TestUnlistedRoutes_RequireIdentity(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, body := s.do(t, fiber.MethodGet, "/does-not-exist")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, "FORBIDDEN", errorCode(t, body))

	token, _, err := s.tokens.Issue("a@example.com")
	require.NoError(t, err)
	access := &nethttp.Cookie{Name: auth.DefaultCookieName, Value: token}

	resp, body = s.do(t, fiber.MethodGet, "/does-not-exist", access)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestSecure_ReturnsIdentityAttributes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, _ := s.do(t, fiber.MethodGet, "/secure")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	token, _, err := s.tokens.Issue("a@example.com")
	require.NoError(t, err)

	resp, body := s.do(t, fiber.MethodGet, "/secure", &nethttp.Cookie{Name: auth.DefaultCookieName, Value: token})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"email":"a@example.com"}`, string(body))
}

func TestOperationalRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, body := s.do(t, fiber.MethodGet, "/health/live")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"alive"`)

	resp, _ = s.do(t, fiber.MethodGet, "/health/ready")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, _ = s.do(t, fiber.MethodGet, "/api/me")
	_, _ = s.do(t, fiber.MethodPost, "/logout")
	_, _ = s.do(t, fiber.MethodGet, "/")
	_, _ = s.do(t, fiber.MethodDelete, "/api/me")
	_, _ = s.do(t, fiber.MethodPut, "/api/public")

	resp, body = s.do(t, fiber.MethodGet, "/metrics")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `http_requests_total{method="POST",route="/logout",status="200"} 1`)
	require.Contains(t, string(body), `http_requests_total{method="GET",route="/api/me",status="403"} 1`)

	resp, _ = s.do(t, fiber.MethodGet, "/metrics")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `auth_gate_outcomes_total{outcome="no_token"}`)
	require.Contains(t, string(body), "http_requests_total")
}

func TestCORS_AllowsFrontendWithCredentials(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest(fiber.MethodOptions, "/api/me", nil)
	req.Header.Set(fiber.HeaderOrigin, testFrontend)
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodGet)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, testFrontend, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	require.Equal(t, "true", resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
}
