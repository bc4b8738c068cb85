package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "auth_identity"

type identityCtxKey struct{}

// Gate outcomes reported to an OutcomeRecorder.
const (
	OutcomeNoToken       = "no_token"
	OutcomeRejected      = "rejected"
	OutcomeAuthenticated = "authenticated"
)

// Identity is the verified caller attached to a request.
type Identity struct {
	Email string `json:"email"`
}

// OutcomeRecorder receives one outcome per request passing through the gate.
type OutcomeRecorder interface {
	RecordAuthOutcome(outcome string)
}

// Gate resolves the caller identity from the access token cookie.
// It never rejects a request; route guards decide what needs an identity.
type Gate struct {
	tokens   *TokenService
	cookies  *CookieTransport
	recorder OutcomeRecorder
}

// NewGate constructs the gate. recorder may be nil.
func NewGate(tokens *TokenService, cookies *CookieTransport, recorder OutcomeRecorder) *Gate {
	return &Gate{tokens: tokens, cookies: cookies, recorder: recorder}
}

// Handle is the fiber middleware.
func (g *Gate) Handle(c *fiber.Ctx) error {
	token, ok := g.cookies.Extract(RequestCookies(c))
	if !ok {
		g.record(OutcomeNoToken)
		return c.Next()
	}

	if !g.tokens.Validate(token) {
		clearIdentity(c)
		g.record(OutcomeRejected)
		return c.Next()
	}

	subject, err := g.tokens.ExtractSubject(token)
	if err != nil {
		clearIdentity(c)
		g.record(OutcomeRejected)
		return c.Next()
	}

	setIdentity(c, Identity{Email: subject})
	g.record(OutcomeAuthenticated)
	return c.Next()
}

func (g *Gate) record(outcome string) {
	if g.recorder != nil {
		g.recorder.RecordAuthOutcome(outcome)
	}
}

func setIdentity(c *fiber.Ctx, identity Identity) {
	c.Locals(identityKey, &identity)
	c.SetUserContext(ContextWithIdentity(c.UserContext(), identity))
}

func clearIdentity(c *fiber.Ctx) {
	c.Locals(identityKey, nil)
	c.SetUserContext(context.WithValue(c.UserContext(), identityCtxKey{}, (*Identity)(nil)))
}

// IdentityFromContext retrieves the identity attached by the gate.
func IdentityFromContext(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityKey).(*Identity)
	if !ok || identity == nil {
		return Identity{}, false
	}
	return *identity, true
}

// ContextWithIdentity stores identity for code that only sees a context.Context.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, &identity)
}

// IdentityFromUserContext is the context.Context counterpart of IdentityFromContext.
func IdentityFromUserContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(*Identity)
	if !ok || identity == nil {
		return Identity{}, false
	}
	return *identity, true
}
