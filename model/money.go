package model

import (
	"github.com/shopspring/decimal"
)

// precisions maps a currency code to the number of minor units in one major
// unit. Amounts are stored and moved exclusively in minor units; decimals only
// appear at the API boundary and during rate application.
var precisions = map[string]int64{
	"CDF": 100,
	"USD": 100,
	"EUR": 100,
	"NGN": 100,
	"KES": 100,
	"GHS": 100,
	"ZAR": 100,
}

const defaultPrecision = 100

// Precision returns the minor-units-per-major-unit multiplier for a currency.
func Precision(currency string) int64 {
	if p, ok := precisions[currency]; ok {
		return p
	}
	return defaultPrecision
}

// ToMinorUnits converts a major-unit decimal amount to minor units, truncating
// anything below the currency's smallest unit.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Mul(decimal.NewFromInt(Precision(currency))).IntPart()
}

// FromMinorUnits converts a minor-unit amount back to a major-unit decimal.
func FromMinorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(Precision(currency)))
}

// FormatMinor renders a minor-unit amount for human-facing messages,
// e.g. FormatMinor(150050, "CDF") == "1500.50 CDF".
func FormatMinor(amount int64, currency string) string {
	return FromMinorUnits(amount, currency).StringFixed(2) + " " + currency
}

// ConvertMinor applies an exchange rate to a minor-unit amount, moving it from
// one currency's minor units to another's. The intermediate math runs in
// decimals so a CDF→USD→CDF round trip does not drift; the result is truncated
// to the target currency's smallest unit.
func ConvertMinor(amount int64, rate decimal.Decimal, from, to string) int64 {
	major := FromMinorUnits(amount, from)
	converted := major.Mul(rate)
	return ToMinorUnits(converted, to)
}
