// Package auth handles OAuth sign-in against Microsoft Entra ID and the
// on-disk token cache shared by the CLI and the web server.
package auth

import (
	"context"
	"errors"
	"time"
)

const (
	// AuthorityBase is the Entra ID sign-in endpoint; the tenant is appended.
	AuthorityBase = "https://login.microsoftonline.com/"

	// ScopeMailReadWrite grants draft creation in the signed-in mailbox.
	ScopeMailReadWrite = "https://graph.microsoft.com/Mail.ReadWrite"

	// ScopeDefault is used with application permissions.
	ScopeDefault = "https://graph.microsoft.com/.default"
)

// DelegatedScopes are requested for user sign-in flows. The reserved scopes
// (openid, profile, offline_access) are added by the token library and must
// not be listed here.
func DelegatedScopes() []string {
	return []string{ScopeMailReadWrite}
}

// Authority builds the sign-in authority URL for a tenant ID or one of the
// well-known aliases (common, organizations, consumers).
func Authority(tenant string) string {
	return AuthorityBase + tenant
}

// Token is an acquired access token.
type Token struct {
	Value     string
	ExpiresOn time.Time
	Account   string
}

// TokenProvider yields access tokens for Graph calls. Implementations handle
// caching and refresh; callers treat every call as cheap.
type TokenProvider interface {
	Token(ctx context.Context) (Token, error)
}

// ErrNotConnected is returned when no signed-in account is available and an
// interactive sign-in is required.
var ErrNotConnected = errors.New("not connected: no signed-in account")

func fromAuthResult(accessToken string, expiresOn time.Time, account string) Token {
	return Token{Value: accessToken, ExpiresOn: expiresOn, Account: account}
}
