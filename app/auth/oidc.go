package auth

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/samber/lo"
	"golang.org/x/oauth2"
)

// Authenticator drives the authorization-code login flow.
type Authenticator interface {
	AuthCodeURL(ctx context.Context, state, nonce string) (string, error)
	Exchange(ctx context.Context, code, nonce string) (*Identity, error)
}

type OIDCConfig struct {
	ClientID     string
	ClientSecret string
	Issuer       string
	// Explicit endpoints skip discovery. Deployments where the browser and
	// the server reach the provider under different hosts need them.
	AuthURL     string
	TokenURL    string
	JWKSURL     string
	UserInfoURL string
	RedirectURL string
	Timeout     time.Duration
}

type OIDCAuthenticator struct {
	provider   *oidc.Provider
	verifier   *oidc.IDTokenVerifier
	oauth      oauth2.Config
	roles      *RoleDirectory
	httpClient *http.Client
}

type idClaims struct {
	Subject           string   `json:"sub"`
	Email             string   `json:"email"`
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferred_username"`
	Groups            []string `json:"groups"`
}

func NewOIDCAuthenticator(ctx context.Context, config OIDCConfig, roles *RoleDirectory) (*OIDCAuthenticator, error) {
	if config.ClientID == "" {
		return nil, errors.New("OIDC client id is required")
	}

	httpClient := &http.Client{Timeout: cmp.Or(config.Timeout, 15*time.Second)}
	ctx = oidc.ClientContext(ctx, httpClient)

	var provider *oidc.Provider
	if config.AuthURL != "" && config.TokenURL != "" && config.JWKSURL != "" {
		provider = (&oidc.ProviderConfig{
			IssuerURL:   config.Issuer,
			AuthURL:     config.AuthURL,
			TokenURL:    config.TokenURL,
			JWKSURL:     config.JWKSURL,
			UserInfoURL: config.UserInfoURL,
		}).NewProvider(ctx)
	} else {
		if config.Issuer == "" {
			return nil, errors.New("OIDC issuer or explicit endpoints are required")
		}
		discovered, err := oidc.NewProvider(ctx, config.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
		}
		provider = discovered
	}

	return &OIDCAuthenticator{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: config.ClientID}),
		oauth: oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		roles:      roles,
		httpClient: httpClient,
	}, nil
}

func (a *OIDCAuthenticator) AuthCodeURL(state, nonce string) string {
	return a.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
}

// Exchange redeems the authorization code and verifies the ID token,
// including its nonce.
func (a *OIDCAuthenticator) Exchange(ctx context.Context, code, nonce string) (*Identity, error) {
	ctx = oidc.ClientContext(ctx, a.httpClient)

	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("token response has no id_token")
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	if idToken.Nonce != nonce {
		return nil, errors.New("ID token nonce mismatch")
	}

	var claims idClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode ID token claims: %w", err)
	}

	if claims.Email == "" || (claims.Name == "" && claims.PreferredUsername == "") {
		a.mergeUserInfo(ctx, token, &claims)
	}

	identity := &Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    cmp.Or(claims.Name, claims.PreferredUsername),
	}
	identity.addRoles(lo.Filter(claims.Groups, func(group string, _ int) bool {
		return group == RoleAdmin || group == RoleModerator
	})...)
	if a.roles != nil {
		identity.addRoles(a.roles.RolesFor(identity.Email)...)
	}

	slog.Info("User logged in", "sub", identity.Subject, "email", identity.Email, "roles", identity.Roles)
	return identity, nil
}

// mergeUserInfo fills profile claims missing from the ID token. Failures are
// logged and leave the claims as they were.
func (a *OIDCAuthenticator) mergeUserInfo(ctx context.Context, token *oauth2.Token, claims *idClaims) {
	info, err := a.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		slog.Debug("UserInfo unavailable", "error", err)
		return
	}

	var extra idClaims
	if err := info.Claims(&extra); err != nil {
		slog.Warn("Failed to decode UserInfo claims", "error", err)
		return
	}

	claims.Email = cmp.Or(claims.Email, extra.Email)
	claims.Name = cmp.Or(claims.Name, extra.Name)
	claims.PreferredUsername = cmp.Or(claims.PreferredUsername, extra.PreferredUsername)
	if len(claims.Groups) == 0 {
		claims.Groups = extra.Groups
	}
}

// LazyAuthenticator sets up the provider on first use, so the service starts
// while the identity provider is unreachable. A failed setup is retried on the
// next call.
type LazyAuthenticator struct {
	config OIDCConfig
	roles  *RoleDirectory

	mu      sync.Mutex
	current *OIDCAuthenticator
}

func NewLazyAuthenticator(config OIDCConfig, roles *RoleDirectory) *LazyAuthenticator {
	return &LazyAuthenticator{config: config, roles: roles}
}

// Prepare sets up the provider now instead of on the first login.
func (l *LazyAuthenticator) Prepare(ctx context.Context) error {
	_, err := l.get(ctx)
	return err
}

func (l *LazyAuthenticator) AuthCodeURL(ctx context.Context, state, nonce string) (string, error) {
	authenticator, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return authenticator.AuthCodeURL(state, nonce), nil
}

func (l *LazyAuthenticator) Exchange(ctx context.Context, code, nonce string) (*Identity, error) {
	authenticator, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return authenticator.Exchange(ctx, code, nonce)
}

func (l *LazyAuthenticator) get(ctx context.Context) (*OIDCAuthenticator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		return l.current, nil
	}

	authenticator, err := NewOIDCAuthenticator(ctx, l.config, l.roles)
	if err != nil {
		return nil, fmt.Errorf("identity provider unavailable: %w", err)
	}
	l.current = authenticator
	return authenticator, nil
}
