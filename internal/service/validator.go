package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tayo-ak/currency-exchange/internal/domain"
)

// maxIntegerDigits caps the integer part of an amount. Anything longer
// cannot be represented exactly and is rejected outright.
const maxIntegerDigits = 15

// ValidationResult is the structured outcome of amount validation. The
// validator never returns an error value: the input-typing path stays
// exception-free and the caller branches on Valid.
type ValidationResult struct {
	Valid   bool
	Value   decimal.Decimal
	Err     domain.ValidationErrorKind
	Message string
}

func invalidAmount(kind domain.ValidationErrorKind) ValidationResult {
	return ValidationResult{Valid: false, Err: kind, Message: domain.ValidationUserMessage(kind)}
}

// ValidateAmount parses raw user input into a safe decimal amount. Both "."
// and "," are accepted as decimal separators: with exactly one separator
// followed by 1-2 digits it is decimal, otherwise separators are grouping.
// Pure function, no side effects.
func ValidateAmount(raw string) ValidationResult {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return invalidAmount(domain.ValidationInvalidAmount)
	}
	if strings.HasPrefix(trimmed, "-") {
		return invalidAmount(domain.ValidationNegativeAmount)
	}

	normalized, ok := normalizeSeparators(trimmed)
	if !ok {
		return invalidAmount(domain.ValidationInvalidAmount)
	}

	intPart := normalized
	if dot := strings.IndexByte(normalized, '.'); dot >= 0 {
		intPart = normalized[:dot]
	}
	if len(intPart) > maxIntegerDigits {
		return invalidAmount(domain.ValidationAmountTooLarge)
	}

	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return invalidAmount(domain.ValidationInvalidAmount)
	}
	if value.IsNegative() {
		return invalidAmount(domain.ValidationNegativeAmount)
	}
	if !domain.IsSafeAmount(value) {
		return invalidAmount(domain.ValidationAmountTooLarge)
	}

	return ValidationResult{Valid: true, Value: value}
}

// normalizeSeparators rewrites raw into plain digits with at most one "."
// decimal point. Returns false if any character other than digits, ".",
// or "," appears.
func normalizeSeparators(raw string) (string, bool) {
	var sepPositions []int
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch == '.' || ch == ',':
			sepPositions = append(sepPositions, i)
		default:
			return "", false
		}
	}

	if len(sepPositions) == 0 {
		return raw, true
	}

	// Only the last separator can be a decimal point, and only when it has
	// 1-2 trailing digits; every other separator is grouping and dropped.
	last := sepPositions[len(sepPositions)-1]
	trailing := len(raw) - last - 1
	decimalSep := trailing >= 1 && trailing <= 2
	if trailing == 0 && len(sepPositions) == 1 {
		// A bare trailing separator ("100.") reads as a decimal point with
		// nothing after it; reject rather than guess.
		return "", false
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch == '.' || ch == ',' {
			if i == last && decimalSep {
				b.WriteByte('.')
			}
			continue
		}
		b.WriteByte(ch)
	}
	out := b.String()
	if out == "" || out == "." {
		return "", false
	}
	return out, true
}
