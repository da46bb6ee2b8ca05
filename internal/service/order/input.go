package order

import (
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/oficina/internal/pricing"
	"github.com/Additional-Code/oficina/pkg/optional"
)

// LineInput is a submitted service or part line. RefID is the catalog id.
type LineInput struct {
	RefID     string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

func (l LineInput) line() pricing.Line {
	return pricing.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice}
}

// CreateInput opens a new order.
type CreateInput struct {
	ClientID       string
	VehicleID      *string
	Notes          *string
	VehicleKm      *int
	VehicleFuel    *string
	ReportedDefect *string
	VehicleNotes   *string
	DiscountType   string
	Discount       decimal.Decimal
	ServiceItems   []LineInput
	PartItems      []LineInput
}

// UpdateInput carries a partial update. Absent fields keep the persisted value;
// null clears it. Null item arrays clear the lines, null discount type resets
// to VALOR and a null discount to zero.
type UpdateInput struct {
	ExpectedVersion *int64

	ClientID       optional.Field[string]
	VehicleID      optional.Field[string]
	Notes          optional.Field[string]
	VehicleKm      optional.Field[int]
	VehicleFuel    optional.Field[string]
	ReportedDefect optional.Field[string]
	VehicleNotes   optional.Field[string]
	DiscountType   optional.Field[string]
	Discount       optional.Field[decimal.Decimal]
	ServiceItems   optional.Field[[]LineInput]
	PartItems      optional.Field[[]LineInput]
}

// recomputes reports whether the update touches anything priced.
func (in UpdateInput) recomputes() bool {
	return in.ServiceItems.Set || in.PartItems.Set || in.Discount.Set || in.DiscountType.Set
}

// ListFilter narrows order listings. Status accepts the same aliases as SetStatus.
type ListFilter struct {
	Status string
	Search string
	Year   int
	Limit  int
	Offset int
}

func lines(in []LineInput) []pricing.Line {
	out := make([]pricing.Line, 0, len(in))
	for _, l := range in {
		out = append(out, l.line())
	}
	return out
}
