package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money renders d as a JSON number with two fraction digits.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// Quantity renders d as a JSON number without trailing zeros.
func Quantity(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
