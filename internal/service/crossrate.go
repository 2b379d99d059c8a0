package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tayo-ak/currency-exchange/internal/domain"
)

// CrossRate derives the from→to rate out of a base-relative rate table.
// The identity case is checked before any lookup so from==to==base never
// reports a missing rate. Fails on missing or non-positive table entries.
func CrossRate(from, to string, rates map[string]decimal.Decimal, base string) (decimal.Decimal, error) {
	from = domain.NormalizeCode(from)
	to = domain.NormalizeCode(to)
	base = domain.NormalizeCode(base)

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	if from == base {
		toRate, err := lookupRate(rates, to)
		if err != nil {
			return decimal.Zero, err
		}
		return toRate, nil
	}

	if to == base {
		fromRate, err := lookupRate(rates, from)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt(1).DivRound(fromRate, domain.InternalPrecision+2), nil
	}

	fromRate, err := lookupRate(rates, from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := lookupRate(rates, to)
	if err != nil {
		return decimal.Zero, err
	}
	return toRate.DivRound(fromRate, domain.InternalPrecision+2), nil
}

func lookupRate(rates map[string]decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, ok := rates[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s in snapshot", code)
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("rate for %s is not positive", code)
	}
	return rate, nil
}
