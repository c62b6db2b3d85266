package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds the Entra ID JWT claims shown in verbose diagnostics.
type TokenClaims struct {
	AppDisplayName    string   `json:"app_displayname"`    // Application display name from Entra ID
	PreferredUsername string   `json:"preferred_username"` // Signed-in account (delegated flows)
	Scopes            string   `json:"scp"`                // Granted delegated scopes
	Roles             []string `json:"roles"`              // Assigned application roles
	TenantID          string   `json:"tid"`                // Issuing tenant
	jwt.RegisteredClaims
}

// ParseTokenClaims extracts claims from an access token without verifying the
// signature. The token was already validated by the identity library; this is
// display-only.
func ParseTokenClaims(tokenString string) (*TokenClaims, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, &TokenClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, fmt.Errorf("failed to extract claims from token")
	}
	return claims, nil
}

// DescribeGrants summarizes what the token is allowed to do: the delegated
// scopes for user sign-ins, or the application roles for app-only tokens.
func (c *TokenClaims) DescribeGrants() string {
	if c.Scopes != "" {
		return "scopes: " + c.Scopes
	}
	if len(c.Roles) > 0 {
		return "roles: " + strings.Join(c.Roles, ", ")
	}
	return "(no scopes or roles)"
}
