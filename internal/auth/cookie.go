package auth

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultCookieName is used when no cookie name is configured.
	DefaultCookieName = "ACCESS_TOKEN"

	// SameSiteLax is the only SameSite policy emitted.
	SameSiteLax = "Lax"
)

// Cookie is a name/value pair presented by the client.
type Cookie struct {
	Name  string
	Value string
}

// CookieDescriptor describes a Set-Cookie header.
// MaxAge is zero exactly when the cookie is being cleared.
type CookieDescriptor struct {
	Name     string
	Value    string
	HTTPOnly bool
	Secure   bool
	SameSite string
	Path     string
	MaxAge   int
}

// String renders the descriptor as a Set-Cookie header value.
// A zero MaxAge is written as "Max-Age=0" so browsers drop the cookie.
func (d CookieDescriptor) String() string {
	c := &http.Cookie{
		Name:     d.Name,
		Value:    d.Value,
		Path:     d.Path,
		HttpOnly: d.HTTPOnly,
		Secure:   d.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   d.MaxAge,
	}
	if d.MaxAge <= 0 {
		c.MaxAge = -1
	}
	return c.String()
}

// Cleared reports whether the descriptor removes the cookie.
func (d CookieDescriptor) Cleared() bool {
	return d.MaxAge == 0
}

// ExtractToken returns the first non-blank value of the named cookie.
func ExtractToken(cookies []Cookie, name string) (string, bool) {
	for _, cookie := range cookies {
		if cookie.Name != name {
			continue
		}
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value, true
		}
	}
	return "", false
}

// BuildCookie describes a hardened cookie. When clear is set the value is
// dropped and MaxAge is zero; otherwise MaxAge is lifetimeSeconds, at least one.
func BuildCookie(value, name string, lifetimeSeconds int, secure, clear bool) CookieDescriptor {
	d := CookieDescriptor{
		Name:     name,
		Value:    value,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: SameSiteLax,
		Path:     "/",
		MaxAge:   lifetimeSeconds,
	}
	if clear {
		d.Value = ""
		d.MaxAge = 0
		return d
	}
	if d.MaxAge < 1 {
		d.MaxAge = 1
	}
	return d
}

// CookieTransport maps access tokens to and from the authentication cookie.
type CookieTransport struct {
	name   string
	secure bool
}

// NewCookieTransport builds a transport for the named cookie. secure controls
// the Secure attribute and must only be false for plain-HTTP development.
func NewCookieTransport(name string, secure bool) *CookieTransport {
	if strings.TrimSpace(name) == "" {
		name = DefaultCookieName
	}
	return &CookieTransport{name: name, secure: secure}
}

// Name returns the authentication cookie name.
func (t *CookieTransport) Name() string {
	return t.name
}

// Secure reports whether cookies carry the Secure attribute.
func (t *CookieTransport) Secure() bool {
	return t.secure
}

// Extract returns the access token presented in cookies, if any.
func (t *CookieTransport) Extract(cookies []Cookie) (string, bool) {
	return ExtractToken(cookies, t.name)
}

// Build describes the authentication cookie for token.
func (t *CookieTransport) Build(token string, lifetimeSeconds int, clear bool) CookieDescriptor {
	return BuildCookie(token, t.name, lifetimeSeconds, t.secure, clear)
}

// RequestCookies lists every cookie on the incoming request, in order.
func RequestCookies(c *fiber.Ctx) []Cookie {
	var cookies []Cookie
	c.Request().Header.VisitAllCookie(func(key, value []byte) {
		cookies = append(cookies, Cookie{Name: string(key), Value: string(value)})
	})
	return cookies
}

// SetCookie adds the descriptor to the response as a Set-Cookie header.
func SetCookie(c *fiber.Ctx, d CookieDescriptor) {
	c.Response().Header.Add(fiber.HeaderSetCookie, d.String())
}
