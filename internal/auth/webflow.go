package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"

	"outlookdraftsync/internal/common/security"
)

// WebAuthenticator implements the authorization code redirect flow for the
// web server. The user is sent to the Microsoft sign-in page and comes back
// to the redirect URI with a code that is exchanged for tokens here.
type WebAuthenticator struct {
	client      confidential.Client
	clientID    string
	redirectURI string
	scopes      []string
	logger      *slog.Logger
}

// NewWebAuthenticator creates an authenticator backed by a confidential
// client (client ID + secret). Exchanged tokens land in the shared cache so
// later silent acquisitions and refreshes need no user interaction.
func NewWebAuthenticator(clientID, clientSecret, tenant, redirectURI string, store cache.ExportReplace, logger *slog.Logger) (*WebAuthenticator, error) {
	cred, err := confidential.NewCredFromSecret(clientSecret)
	if err != nil {
		return nil, fmt.Errorf("create client credential: %w", err)
	}

	opts := []confidential.Option{}
	if store != nil {
		opts = append(opts, confidential.WithCache(store))
	}

	client, err := confidential.New(Authority(tenant), clientID, cred, opts...)
	if err != nil {
		return nil, fmt.Errorf("create confidential client: %w", err)
	}

	return &WebAuthenticator{
		client:      client,
		clientID:    clientID,
		redirectURI: redirectURI,
		scopes:      DelegatedScopes(),
		logger:      logger,
	}, nil
}

// AuthCodeURL builds the Microsoft sign-in URL carrying the given CSRF state.
func (a *WebAuthenticator) AuthCodeURL(ctx context.Context, state string) (string, error) {
	raw, err := a.client.AuthCodeURL(ctx, a.clientID, a.redirectURI, a.scopes)
	if err != nil {
		return "", fmt.Errorf("build auth URL: %w", err)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse auth URL: %w", err)
	}
	query := parsed.Query()
	query.Set("state", state)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

// ExchangeCode redeems the authorization code returned to the redirect URI.
// The resulting account and refresh token are persisted via the cache.
func (a *WebAuthenticator) ExchangeCode(ctx context.Context, code string) (Token, error) {
	result, err := a.client.AcquireTokenByAuthCode(ctx, code, a.redirectURI, a.scopes)
	if err != nil {
		return Token{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	a.logger.Info("account connected",
		"account", security.MaskEmail(result.Account.PreferredUsername))
	return fromAuthResult(result.AccessToken, result.ExpiresOn, result.Account.PreferredUsername), nil
}

// Token acquires an access token silently from the cached account.
// Returns ErrNotConnected when no account has completed the sign-in flow.
func (a *WebAuthenticator) Token(ctx context.Context) (Token, error) {
	accounts, err := a.client.Accounts(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("list cached accounts: %w", err)
	}

	for _, account := range accounts {
		result, err := a.client.AcquireTokenSilent(ctx, a.scopes, confidential.WithSilentAccount(account))
		if err != nil {
			a.logger.Debug("silent token acquisition failed",
				"account", security.MaskEmail(account.PreferredUsername), "error", err)
			continue
		}
		return fromAuthResult(result.AccessToken, result.ExpiresOn, account.PreferredUsername), nil
	}

	return Token{}, ErrNotConnected
}

// Connected reports whether a usable signed-in account exists.
func (a *WebAuthenticator) Connected(ctx context.Context) bool {
	_, err := a.Token(ctx)
	return err == nil
}
