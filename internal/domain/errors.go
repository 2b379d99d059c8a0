package domain

import "fmt"

// FetchErrorKind classifies rate provider failures.
type FetchErrorKind string

const (
	FetchNetworkError    FetchErrorKind = "NETWORK_ERROR"
	FetchAPIError        FetchErrorKind = "API_ERROR"
	FetchTimeout         FetchErrorKind = "TIMEOUT"
	FetchInvalidResponse FetchErrorKind = "INVALID_RESPONSE"
	FetchRateLimit       FetchErrorKind = "RATE_LIMIT"
)

// FetchError is the tagged failure value returned by the rate provider
// client. It is a plain data carrier so it can be logged or serialized
// without losing the classification.
type FetchError struct {
	Kind    FetchErrorKind
	Message string
	Detail  string
	// Status is the HTTP status from the provider, when one was received.
	Status int
}

func (e *FetchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is transient. Malformed responses
// and 4xx-class provider errors are not retried.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case FetchNetworkError, FetchTimeout, FetchRateLimit:
		return true
	case FetchAPIError:
		return e.Status >= 500
	default:
		return false
	}
}

// FetchUserMessage maps a failure kind to user-facing text. Kept as a pure
// function so the error values themselves stay serializable.
func FetchUserMessage(kind FetchErrorKind) string {
	switch kind {
	case FetchNetworkError:
		return "Unable to reach the exchange rate service. Check your connection and try again."
	case FetchTimeout:
		return "The exchange rate service took too long to respond. Try again."
	case FetchRateLimit:
		return "Too many rate requests right now. Wait a moment and try again."
	case FetchInvalidResponse:
		return "The exchange rate service returned unusable data."
	case FetchAPIError:
		return "The exchange rate service reported an error."
	default:
		return "Exchange rates are currently unavailable."
	}
}

// ValidationErrorKind classifies amount/currency input rejections.
type ValidationErrorKind string

const (
	ValidationInvalidAmount   ValidationErrorKind = "INVALID_AMOUNT"
	ValidationNegativeAmount  ValidationErrorKind = "NEGATIVE_AMOUNT"
	ValidationAmountTooLarge  ValidationErrorKind = "AMOUNT_TOO_LARGE"
	ValidationInvalidCurrency ValidationErrorKind = "INVALID_CURRENCY"
)

// ValidationUserMessage maps a validation failure to user-facing text.
func ValidationUserMessage(kind ValidationErrorKind) string {
	switch kind {
	case ValidationInvalidAmount:
		return "Enter a valid amount."
	case ValidationNegativeAmount:
		return "Amount must not be negative."
	case ValidationAmountTooLarge:
		return "Amount is too large to convert."
	case ValidationInvalidCurrency:
		return "Unknown currency code."
	default:
		return "Invalid input."
	}
}
