package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tayo-ak/currency-exchange/internal/domain"
	"github.com/tayo-ak/currency-exchange/internal/service"
)

// RatesHandler serves rate snapshots through the orchestrator's fallback
// ladder and forced refreshes past it.
type RatesHandler struct {
	svc *service.RatesService
}

func NewRatesHandler(svc *service.RatesService) *RatesHandler {
	return &RatesHandler{svc: svc}
}

type ratesResponse struct {
	Base      string                     `json:"base"`
	FetchedAt time.Time                  `json:"fetched_at"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	Source    domain.RateSource          `json:"source"`
	// Degraded flags a stale snapshot so clients can show an advisory.
	Degraded bool `json:"degraded,omitempty"`
}

func newRatesResponse(snapshot domain.RateSnapshot, source domain.RateSource) ratesResponse {
	return ratesResponse{
		Base:      snapshot.Base,
		FetchedAt: snapshot.FetchedAt,
		Rates:     snapshot.Rates,
		Source:    source,
		Degraded:  source == domain.SourceStale,
	}
}

// GetRates returns a snapshot for the base currency: fresh cache if one
// exists, else a fetch, else stale cache, else the fetch error.
func (h *RatesHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	base, ok := parseCurrencyParam(w, r, "base", chi.URLParam(r, "base"))
	if !ok {
		return
	}

	result, err := h.svc.GetRates(r.Context(), base)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newRatesResponse(result.Snapshot, result.Source))
}

// RefreshRates forces a fetch. Failures propagate directly: a manual
// refresh never silently substitutes cached data.
func (h *RatesHandler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	base, ok := parseCurrencyParam(w, r, "base", chi.URLParam(r, "base"))
	if !ok {
		return
	}

	snapshot, err := h.svc.RefreshRates(r.Context(), base)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newRatesResponse(snapshot, domain.SourceNetwork))
}

// ListCurrencies returns the static display metadata table.
func (h *RatesHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	type currencyResponse struct {
		Code      string `json:"code"`
		Name      string `json:"name"`
		Symbol    string `json:"symbol"`
		MinorUnit int    `json:"minor_unit"`
	}
	metas := domain.Currencies()
	out := make([]currencyResponse, 0, len(metas))
	for _, meta := range metas {
		out = append(out, currencyResponse{
			Code:      meta.Code,
			Name:      meta.Name,
			Symbol:    meta.Symbol,
			MinorUnit: meta.MinorUnit,
		})
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"currencies": out})
}
