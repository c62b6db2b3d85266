// Package security provides helpers for safely masking credentials and
// identifiers before they reach logs or terminal output.
package security

// MaskUsername masks an account name for safe logging.
// Shows first 2 and last 2 characters with **** in between.
// Short names (4 characters or less) are fully masked.
func MaskUsername(username string) string {
	if len(username) <= 4 {
		return "****"
	}
	return username[:2] + "****" + username[len(username)-2:]
}

// MaskAccessToken masks an OAuth access token for safe logging.
// Shows first 8 and last 4 characters with ... in between for long tokens.
// For shorter tokens, shows half on each side.
func MaskAccessToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 16 {
		return token[:len(token)/2] + "..." + token[len(token)/2:]
	}
	return token[:8] + "..." + token[len(token)-4:]
}

// MaskSecret masks a client secret or similar credential.
// Shows the first 4 characters followed by asterisks.
func MaskSecret(secret string) string {
	if len(secret) == 0 {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

// MaskGUID masks a client or tenant ID for safe logging.
// Shows the first 8 characters, enough to identify the resource without
// exposing the full value.
func MaskGUID(guid string) string {
	if len(guid) <= 8 {
		return guid + "****"
	}
	return guid[:8] + "****"
}

// MaskEmail masks an email address for safe logging.
// Example: "user@example.com" becomes "us****@ex****"
func MaskEmail(email string) string {
	if len(email) == 0 {
		return ""
	}

	atIndex := -1
	for i, c := range email {
		if c == '@' {
			atIndex = i
			break
		}
	}

	if atIndex == -1 {
		// No @ found, treat as plain account name
		return MaskUsername(email)
	}

	localPart := email[:atIndex]
	domain := email[atIndex+1:]

	maskedLocal := "****"
	if len(localPart) > 2 {
		maskedLocal = localPart[:2] + "****"
	}

	maskedDomain := "****"
	if len(domain) > 2 {
		maskedDomain = domain[:2] + "****"
	}

	return maskedLocal + "@" + maskedDomain
}
