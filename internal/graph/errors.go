package graph

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"outlookdraftsync/internal/common/retry"
)

// EnrichError adds context to Graph API errors, in particular throttling
// responses where Graph supplies a Retry-After header.
func EnrichError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var odataErr *odataerrors.ODataError
	if !errors.As(err, &odataErr) {
		return err
	}

	errorInfo := odataErr.GetErrorEscaped()
	if errorInfo == nil {
		return err
	}

	code := ""
	message := ""
	if errorInfo.GetCode() != nil {
		code = *errorInfo.GetCode()
	}
	if errorInfo.GetMessage() != nil {
		message = *errorInfo.GetMessage()
	}

	// Throttled (429)
	if code == "TooManyRequests" || code == "activityLimitReached" {
		retryAfter := ""
		if odataErr.GetResponseHeaders() != nil {
			if values := odataErr.GetResponseHeaders().Get("Retry-After"); len(values) > 0 {
				retryAfter = values[0]
			}
		}

		enriched := fmt.Sprintf("rate limit exceeded during %s", operation)
		if retryAfter != "" {
			enriched += fmt.Sprintf(" (retry after %s seconds)", retryAfter)
		}
		return fmt.Errorf("%s: %w", enriched, err)
	}

	if code == "ServiceUnavailable" || code == "GatewayTimeout" {
		return fmt.Errorf("service temporarily unavailable during %s (code: %s): %w", operation, code, err)
	}

	if code != "" {
		log.Printf("[DEBUG] Graph API error during %s (code: %s, message: %s)", operation, code, message)
	}

	return err
}

// IsRetryableError determines if a Graph API error is transient.
// Returns true for throttling (429) and service unavailability (503, 504)
// plus the generic network error patterns.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 429, 503, 504:
			return true
		}
	}

	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		if info := odataErr.GetErrorEscaped(); info != nil && info.GetCode() != nil {
			switch *info.GetCode() {
			case "TooManyRequests", "activityLimitReached", "ServiceUnavailable", "GatewayTimeout":
				return true
			}
		}
	}

	if strings.Contains(strings.ToLower(err.Error()), "rate limit") {
		return true
	}

	return retry.IsRetryableError(err)
}
