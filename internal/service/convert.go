package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tayo-ak/currency-exchange/internal/domain"
	"github.com/tayo-ak/currency-exchange/internal/observability"
)

// ErrInvalidAmount is returned when a conversion is attempted with an
// amount outside the safe positive range. Callers that validate input with
// ValidateAmount first never see it.
var ErrInvalidAmount = errors.New("amount must be a safe positive number")

// PerformConversion turns an amount plus a rate snapshot into a rounded,
// formatted result. The from==to case still goes through rounding so a
// 2-decimal input converted to a 0-minor-unit currency formats correctly.
func PerformConversion(amount decimal.Decimal, from, to string, snapshot domain.RateSnapshot) (domain.ConversionResult, error) {
	if amount.Sign() <= 0 || !domain.IsSafeAmount(amount) {
		observability.IncrementConversion("invalid_amount")
		return domain.ConversionResult{}, ErrInvalidAmount
	}

	rate, err := CrossRate(from, to, snapshot.Rates, snapshot.Base)
	if err != nil {
		observability.IncrementConversion("missing_rate")
		return domain.ConversionResult{}, fmt.Errorf("resolve %s/%s rate: %w", from, to, err)
	}

	meta := domain.MetadataFor(to)
	converted := domain.ConvertAmount(amount, rate)
	rounded := domain.RoundToDecimals(converted, meta.MinorUnit)

	observability.IncrementConversion("success")
	return domain.ConversionResult{
		ConvertedAmount:   rounded,
		RateApplied:       rate,
		SnapshotTimestamp: snapshot.FetchedAt,
		Formatted:         domain.FormatAmount(rounded, meta),
	}, nil
}
