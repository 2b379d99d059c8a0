package domain

import (
	"sort"
	"strings"
)

// CurrencyMetadata describes how amounts of a currency are displayed.
// MinorUnit is the number of decimal places conventionally shown (0-3).
type CurrencyMetadata struct {
	Code      string
	Name      string
	Symbol    string
	MinorUnit int
}

// currencies is the static registry. Exactly one entry per code, keyed by
// the uppercase canonical form.
var currencies = map[string]CurrencyMetadata{
	"USD": {Code: "USD", Name: "US Dollar", Symbol: "$", MinorUnit: 2},
	"EUR": {Code: "EUR", Name: "Euro", Symbol: "€", MinorUnit: 2},
	"GBP": {Code: "GBP", Name: "British Pound", Symbol: "£", MinorUnit: 2},
	"JPY": {Code: "JPY", Name: "Japanese Yen", Symbol: "¥", MinorUnit: 0},
	"CHF": {Code: "CHF", Name: "Swiss Franc", Symbol: "CHF ", MinorUnit: 2},
	"CAD": {Code: "CAD", Name: "Canadian Dollar", Symbol: "CA$", MinorUnit: 2},
	"AUD": {Code: "AUD", Name: "Australian Dollar", Symbol: "A$", MinorUnit: 2},
	"NZD": {Code: "NZD", Name: "New Zealand Dollar", Symbol: "NZ$", MinorUnit: 2},
	"CNY": {Code: "CNY", Name: "Chinese Yuan", Symbol: "¥", MinorUnit: 2},
	"INR": {Code: "INR", Name: "Indian Rupee", Symbol: "₹", MinorUnit: 2},
	"KRW": {Code: "KRW", Name: "South Korean Won", Symbol: "₩", MinorUnit: 0},
	"SEK": {Code: "SEK", Name: "Swedish Krona", Symbol: "kr ", MinorUnit: 2},
	"NOK": {Code: "NOK", Name: "Norwegian Krone", Symbol: "kr ", MinorUnit: 2},
	"DKK": {Code: "DKK", Name: "Danish Krone", Symbol: "kr ", MinorUnit: 2},
	"NGN": {Code: "NGN", Name: "Nigerian Naira", Symbol: "₦", MinorUnit: 2},
	"ZAR": {Code: "ZAR", Name: "South African Rand", Symbol: "R ", MinorUnit: 2},
	"BRL": {Code: "BRL", Name: "Brazilian Real", Symbol: "R$", MinorUnit: 2},
	"MXN": {Code: "MXN", Name: "Mexican Peso", Symbol: "MX$", MinorUnit: 2},
	"SGD": {Code: "SGD", Name: "Singapore Dollar", Symbol: "S$", MinorUnit: 2},
	"HKD": {Code: "HKD", Name: "Hong Kong Dollar", Symbol: "HK$", MinorUnit: 2},
	"TND": {Code: "TND", Name: "Tunisian Dinar", Symbol: "DT ", MinorUnit: 3},
	"BHD": {Code: "BHD", Name: "Bahraini Dinar", Symbol: "BD ", MinorUnit: 3},
	"KWD": {Code: "KWD", Name: "Kuwaiti Dinar", Symbol: "KD ", MinorUnit: 3},
	"VND": {Code: "VND", Name: "Vietnamese Dong", Symbol: "₫", MinorUnit: 0},
}

// NormalizeCode returns the uppercase canonical form of a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether code is a 3-letter alphabetic currency code.
// It does not require the code to be present in the metadata registry:
// the provider may quote currencies the display table does not know about.
func IsValidCode(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// MetadataFor returns the display metadata for a currency code.
// Unknown codes fall back to a 2-decimal entry with the code as prefix,
// so formatting never fails on a currency the provider quotes but the
// registry does not list.
func MetadataFor(code string) CurrencyMetadata {
	if meta, ok := currencies[NormalizeCode(code)]; ok {
		return meta
	}
	return CurrencyMetadata{
		Code:      NormalizeCode(code),
		Name:      NormalizeCode(code),
		Symbol:    NormalizeCode(code) + " ",
		MinorUnit: 2,
	}
}

// KnownCurrency reports whether the registry has an entry for code.
func KnownCurrency(code string) bool {
	_, ok := currencies[NormalizeCode(code)]
	return ok
}

// Currencies returns a copy of the registry for listing endpoints.
func Currencies() []CurrencyMetadata {
	out := make([]CurrencyMetadata, 0, len(currencies))
	for _, meta := range currencies {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
