package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tayo-ak/currency-exchange/internal/api/problem"
	"github.com/tayo-ak/currency-exchange/internal/domain"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// respondFetchError maps a rate fetch failure onto a problem response. The
// status reflects whether the failure is ours (bad upstream data), the
// provider's, or plain unreachability.
func respondFetchError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "unexpected error")
		return
	}

	var status int
	switch fe.Kind {
	case domain.FetchRateLimit:
		status = http.StatusTooManyRequests
	case domain.FetchNetworkError, domain.FetchTimeout:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusBadGateway
	}

	RespondError(w, r, status, "rates/"+problemSlug(fe.Kind), domain.FetchUserMessage(fe.Kind))
}

// timeLayout is the wire format for snapshot timestamps.
const timeLayout = "2006-01-02T15:04:05Z07:00"

// problemSlug turns an error kind like AMOUNT_TOO_LARGE into a problem
// type slug like amount-too-large.
func problemSlug[K ~string](kind K) string {
	return strings.ToLower(strings.ReplaceAll(string(kind), "_", "-"))
}

// parseCurrencyParam validates a 3-letter currency code from the request,
// responding with a problem on failure. Returns the canonical form.
func parseCurrencyParam(w http.ResponseWriter, r *http.Request, name, raw string) (string, bool) {
	if !domain.IsValidCode(raw) {
		RespondError(w, r, http.StatusBadRequest, "validation/invalid-currency",
			name+": "+domain.ValidationUserMessage(domain.ValidationInvalidCurrency))
		return "", false
	}
	return domain.NormalizeCode(raw), true
}
