// Package pricing computes service order totals. It has no side effects.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/oficina/internal/entity"
)

// MoneyPlaces is the number of fractional digits kept for currency values.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Column bounds: quantities are numeric(12,3) and money is numeric(12,2).
// Both limits are exclusive.
var (
	MaxQuantity = decimal.New(1, 9)
	MaxAmount   = decimal.New(1, 10)
)

// Line is the priced part of a service or part line item.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Total returns quantity × unit price rounded half-up to cents.
func (l Line) Total() decimal.Decimal {
	return Round(l.Quantity.Mul(l.UnitPrice))
}

// Totals is the monetary breakdown of an order.
type Totals struct {
	ServicesTotal  decimal.Decimal
	PartsTotal     decimal.Decimal
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// Round rounds half away from zero, which is half-up for the non-negative
// values handled here.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Sum adds the rounded totals of every line.
func Sum(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}

// Compute builds the totals for the given lines and discount. The discount
// amount is clamped to [0, subtotal] so the total is never negative.
func Compute(services, parts []Line, discountType entity.DiscountType, discount decimal.Decimal) Totals {
	servicesTotal := Sum(services)
	partsTotal := Sum(parts)
	subtotal := servicesTotal.Add(partsTotal)

	amount := decimal.Zero
	if discount.IsPositive() {
		if discountType == entity.DiscountPercentage {
			amount = Round(subtotal.Mul(discount).Div(hundred))
		} else {
			amount = Round(discount)
		}
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}

	return Totals{
		ServicesTotal:  servicesTotal,
		PartsTotal:     partsTotal,
		Subtotal:       subtotal,
		DiscountAmount: amount,
		Total:          subtotal.Sub(amount),
	}
}

// Problems collects input validation failures.
type Problems []string

// Error joins every problem into a single human readable message.
func (p Problems) Error() string {
	return strings.Join(p, "; ")
}

// Validate checks line values and the discount, returning Problems or nil.
func Validate(services, parts []Line, discountType entity.DiscountType, discount decimal.Decimal) error {
	var problems Problems
	check := func(kind string, i int, l Line) {
		if !l.Quantity.IsPositive() {
			problems = append(problems, fmt.Sprintf("%s %d: quantidade deve ser maior que zero", kind, i+1))
		}
		if l.Quantity.GreaterThanOrEqual(MaxQuantity) {
			problems = append(problems, fmt.Sprintf("%s %d: quantidade deve ser menor que %s", kind, i+1, MaxQuantity))
		}
		if l.UnitPrice.IsNegative() {
			problems = append(problems, fmt.Sprintf("%s %d: preço unitário não pode ser negativo", kind, i+1))
		}
		if l.UnitPrice.GreaterThanOrEqual(MaxAmount) {
			problems = append(problems, fmt.Sprintf("%s %d: preço unitário deve ser menor que %s", kind, i+1, MaxAmount))
		}
	}
	for i, l := range services {
		check("serviço", i, l)
	}
	for i, l := range parts {
		check("peça", i, l)
	}
	if discount.IsNegative() {
		problems = append(problems, "desconto não pode ser negativo")
	}
	if discountType == entity.DiscountPercentage && discount.GreaterThan(hundred) {
		problems = append(problems, "desconto percentual deve estar entre 0 e 100")
	}
	if discount.GreaterThanOrEqual(MaxAmount) {
		problems = append(problems, fmt.Sprintf("desconto deve ser menor que %s", MaxAmount))
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// CheckTotals rejects totals that do not fit a money column. Every other value
// in Totals is bounded by the subtotal.
func CheckTotals(t Totals) error {
	if t.Subtotal.GreaterThanOrEqual(MaxAmount) {
		return Problems{fmt.Sprintf("subtotal da ordem deve ser menor que %s", MaxAmount)}
	}
	return nil
}

// AsProblems extracts Problems from err.
func AsProblems(err error) (Problems, bool) {
	var p Problems
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}
