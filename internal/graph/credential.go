// Package graph creates Outlook draft messages through the Microsoft Graph
// SDK. It never sends mail; the only write operation is draft creation.
package graph

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"outlookdraftsync/internal/auth"
)

// tokenProviderCredential adapts a delegated auth.TokenProvider to the
// azcore.TokenCredential interface consumed by the Graph SDK. The provider
// owns caching and refresh; this adapter just forwards.
type tokenProviderCredential struct {
	provider auth.TokenProvider
}

// NewTokenProviderCredential wraps a TokenProvider as an azcore credential.
func NewTokenProviderCredential(provider auth.TokenProvider) azcore.TokenCredential {
	return &tokenProviderCredential{provider: provider}
}

func (c *tokenProviderCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	token, err := c.provider.Token(ctx)
	if err != nil {
		return azcore.AccessToken{}, fmt.Errorf("acquire delegated token: %w", err)
	}
	return azcore.AccessToken{
		Token:     token.Value,
		ExpiresOn: token.ExpiresOn,
	}, nil
}

// ProbeToken acquires a token from a credential for diagnostic display.
func ProbeToken(ctx context.Context, cred azcore.TokenCredential) (string, error) {
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{auth.ScopeDefault},
	})
	if err != nil {
		return "", err
	}
	return token.Token, nil
}
