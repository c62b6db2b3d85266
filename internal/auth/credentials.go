package auth

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"software.sslmate.com/src/go-pkcs12"
)

// NewAppCredential builds an app-only credential for admin scenarios where
// drafts are created in a named mailbox without user sign-in.
// Exactly one of secret or pfxPath must be provided.
func NewAppCredential(tenantID, clientID, secret, pfxPath, pfxPass string, logger *slog.Logger) (azcore.TokenCredential, error) {
	if secret != "" {
		logger.Debug("authentication method: client secret")
		return azidentity.NewClientSecretCredential(tenantID, clientID, secret, nil)
	}

	if pfxPath != "" {
		logger.Debug("authentication method: PFX certificate", "path", pfxPath)
		pfxData, err := os.ReadFile(pfxPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read PFX file: %w", err)
		}
		return newCertCredential(tenantID, clientID, pfxData, pfxPass)
	}

	return nil, fmt.Errorf("no app credential provided (use -secret or -pfx)")
}

func newCertCredential(tenantID, clientID string, pfxData []byte, password string) (*azidentity.ClientCertificateCredential, error) {
	// go-pkcs12 handles SHA-256 and other modern PFX algorithms
	key, cert, caCerts, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PFX: %w", err)
	}

	privKey, ok := key.(crypto.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("decoded key is not a valid crypto.PrivateKey")
	}

	// Leaf certificate first, then the chain
	certs := []*x509.Certificate{cert}
	certs = append(certs, caCerts...)

	opts := &azidentity.ClientCertificateCredentialOptions{
		SendCertificateChain: true,
	}
	return azidentity.NewClientCertificateCredential(tenantID, clientID, certs, privKey, opts)
}
