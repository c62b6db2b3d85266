package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"

	"outlookdraftsync/internal/common/security"
)

// DeviceCodeAuthenticator signs a user in with the device code flow.
// Cached accounts are tried silently first; only a cache miss prompts the
// user to visit the verification URL.
type DeviceCodeAuthenticator struct {
	client public.Client
	scopes []string
	prompt io.Writer
	logger *slog.Logger
}

// NewDeviceCodeAuthenticator creates an authenticator for the given app
// registration. The token cache keeps sign-ins across runs.
func NewDeviceCodeAuthenticator(clientID, tenant string, store cache.ExportReplace, logger *slog.Logger) (*DeviceCodeAuthenticator, error) {
	opts := []public.Option{
		public.WithAuthority(Authority(tenant)),
	}
	if store != nil {
		opts = append(opts, public.WithCache(store))
	}

	client, err := public.New(clientID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create public client: %w", err)
	}

	return &DeviceCodeAuthenticator{
		client: client,
		scopes: DelegatedScopes(),
		prompt: os.Stdout,
		logger: logger,
	}, nil
}

// SetPrompt redirects the device code instructions away from stdout.
func (a *DeviceCodeAuthenticator) SetPrompt(w io.Writer) {
	a.prompt = w
}

// Token acquires an access token, silently when a cached account exists,
// otherwise via an interactive device code sign-in.
func (a *DeviceCodeAuthenticator) Token(ctx context.Context) (Token, error) {
	accounts, err := a.client.Accounts(ctx)
	if err != nil {
		a.logger.Warn("listing cached accounts failed", "error", err)
	}

	for _, account := range accounts {
		result, err := a.client.AcquireTokenSilent(ctx, a.scopes, public.WithSilentAccount(account))
		if err != nil {
			a.logger.Debug("silent token acquisition failed",
				"account", security.MaskEmail(account.PreferredUsername), "error", err)
			continue
		}
		a.logger.Debug("token acquired silently",
			"account", security.MaskEmail(account.PreferredUsername))
		return fromAuthResult(result.AccessToken, result.ExpiresOn, account.PreferredUsername), nil
	}

	return a.signIn(ctx)
}

func (a *DeviceCodeAuthenticator) signIn(ctx context.Context) (Token, error) {
	code, err := a.client.AcquireTokenByDeviceCode(ctx, a.scopes)
	if err != nil {
		return Token{}, fmt.Errorf("start device code flow: %w", err)
	}

	// The message contains the verification URL and the code to enter
	fmt.Fprintln(a.prompt, code.Result.Message)

	result, err := code.AuthenticationResult(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("complete device code flow: %w", err)
	}

	a.logger.Info("signed in",
		"account", security.MaskEmail(result.Account.PreferredUsername))
	return fromAuthResult(result.AccessToken, result.ExpiresOn, result.Account.PreferredUsername), nil
}
