package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/tayo-ak/currency-exchange/internal/domain"
	"github.com/tayo-ak/currency-exchange/internal/service"
)

// ConvertHandler runs the full conversion pipeline: amount validation,
// snapshot acquisition, cross-rate resolution, rounding and formatting.
type ConvertHandler struct {
	svc *service.RatesService
}

func NewConvertHandler(svc *service.RatesService) *ConvertHandler {
	return &ConvertHandler{svc: svc}
}

type convertRequest struct {
	// Amount is raw user text; it goes through the validator, not a
	// numeric JSON field, so separator handling matches what a user typed.
	Amount string `json:"amount"`
	From   string `json:"from"`
	To     string `json:"to"`
}

type convertResponse struct {
	ConvertedAmount   decimal.Decimal   `json:"converted_amount"`
	RateApplied       decimal.Decimal   `json:"rate_applied"`
	SnapshotTimestamp string            `json:"snapshot_timestamp"`
	Formatted         string            `json:"formatted"`
	Source            domain.RateSource `json:"source"`
	Degraded          bool              `json:"degraded,omitempty"`
}

// Convert converts an amount between two currencies using a snapshot based
// on the source currency.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	from, ok := parseCurrencyParam(w, r, "from", req.From)
	if !ok {
		return
	}
	to, ok := parseCurrencyParam(w, r, "to", req.To)
	if !ok {
		return
	}

	validation := service.ValidateAmount(req.Amount)
	if !validation.Valid {
		RespondError(w, r, http.StatusBadRequest, "validation/"+problemSlug(validation.Err), validation.Message)
		return
	}

	rates, err := h.svc.GetRates(r.Context(), from)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	result, err := service.PerformConversion(validation.Value, from, to, rates.Snapshot)
	if err != nil {
		RespondError(w, r, http.StatusUnprocessableEntity, "conversion/failed", err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, convertResponse{
		ConvertedAmount:   result.ConvertedAmount,
		RateApplied:       result.RateApplied,
		SnapshotTimestamp: result.SnapshotTimestamp.UTC().Format(timeLayout),
		Formatted:         result.Formatted,
		Source:            rates.Source,
		Degraded:          rates.Source == domain.SourceStale,
	})
}

type validateRequest struct {
	Amount string `json:"amount"`
}

type validateResponse struct {
	Valid   bool             `json:"valid"`
	Value   *decimal.Decimal `json:"value,omitempty"`
	Error   string           `json:"error,omitempty"`
	Message string           `json:"message,omitempty"`
}

// ValidateAmount exposes the validator for the input-typing path. The
// response is always 200: a rejected amount is a result, not an error.
func (h *ConvertHandler) ValidateAmount(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	result := service.ValidateAmount(req.Amount)
	resp := validateResponse{Valid: result.Valid}
	if result.Valid {
		value := result.Value
		resp.Value = &value
	} else {
		resp.Error = string(result.Err)
		resp.Message = result.Message
	}
	RespondJSON(w, http.StatusOK, resp)
}
