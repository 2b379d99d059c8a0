package domain

import (
	"github.com/shopspring/decimal"
)

// InternalPrecision is the number of decimal digits kept after the
// multiplication step, before any currency-specific rounding.
const InternalPrecision = 6

// maxSafeAmount bounds amounts to the range that survives a round trip
// through an exact double-precision integer (15 integer digits).
var maxSafeAmount = decimal.New(1, 15) // 10^15

// ConvertAmount multiplies an amount by an exchange rate at the fixed
// internal precision. Currency-specific rounding happens separately so
// chained operations do not compound rounding error.
func ConvertAmount(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(InternalPrecision)
}

// RoundToDecimals rounds with banker's rounding: ties go to the nearest
// even digit. Round-half-up would systematically inflate totals for
// zero-minor-unit currencies.
func RoundToDecimals(value decimal.Decimal, decimals int) decimal.Decimal {
	return value.RoundBank(int32(decimals))
}

// RoundToMinorUnit rounds a value to the display precision of a currency.
func RoundToMinorUnit(value decimal.Decimal, code string) decimal.Decimal {
	return RoundToDecimals(value, MetadataFor(code).MinorUnit)
}

// IsSafeAmount reports whether the value is inside the magnitude range the
// arithmetic engine guarantees exact results for.
func IsSafeAmount(value decimal.Decimal) bool {
	return value.Abs().LessThan(maxSafeAmount)
}

// FormatAmount renders a rounded amount with the currency's symbol and
// minor-unit digit count. StringFixed never falls back to scientific
// notation, so very small magnitudes stay readable.
func FormatAmount(value decimal.Decimal, meta CurrencyMetadata) string {
	return meta.Symbol + value.StringFixed(int32(meta.MinorUnit))
}
