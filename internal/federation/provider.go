// Package federation drives the OAuth2 authorization-code flow against the
// external identity provider and returns the verified user profile.
package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/spec-kit/social-login/internal/config"
)

// DefaultUserInfoURL is Google's OIDC userinfo endpoint.
const DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

const maxUserInfoBytes = 1 << 20

// Provider is an OAuth2 identity provider using the authorization-code flow.
type Provider interface {
	// Name identifies the provider in routes, logs and metrics.
	Name() string
	// AuthCodeURL builds the consent redirect. verifier is the PKCE secret
	// bound to state.
	AuthCodeURL(state, verifier string) string
	// Exchange redeems the code and loads the user's profile.
	Exchange(ctx context.Context, code, verifier string) (*UserInfo, error)
}

// OAuth2Provider implements Provider on top of golang.org/x/oauth2.
type OAuth2Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// ProviderOption customizes an OAuth2Provider.
type ProviderOption func(*OAuth2Provider)

// WithHTTPClient sets the client used for token and userinfo calls.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *OAuth2Provider) { p.httpClient = client }
}

// NewOAuth2Provider builds a provider from configuration. Blank endpoint URLs
// fall back to Google.
func NewOAuth2Provider(cfg config.OAuthConfig, opts ...ProviderOption) (*OAuth2Provider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("federation: client id is required")
	}

	endpoint := endpoints.Google
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}

	name := cfg.Provider
	if name == "" {
		name = "google"
	}

	p := &OAuth2Provider{
		name: name,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name implements Provider.
func (p *OAuth2Provider) Name() string {
	return p.name
}

// AuthCodeURL implements Provider.
func (p *OAuth2Provider) AuthCodeURL(state, verifier string) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	if verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// Exchange implements Provider.
func (p *OAuth2Provider) Exchange(ctx context.Context, code, verifier string) (*UserInfo, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	token, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("federation: exchange code: %w", err)
	}
	return p.fetchUserInfo(ctx, token)
}

func (p *OAuth2Provider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("federation: build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("federation: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("federation: userinfo returned status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("federation: decode userinfo: %w", err)
	}
	return &info, nil
}
