package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus is the lifecycle state of a service order.
type OrderStatus string

const (
	StatusInProgress OrderStatus = "EM_ANDAMENTO"
	StatusCompleted  OrderStatus = "CONCLUIDO"
	StatusCancelled  OrderStatus = "CANCELADO"
)

// statusAliases maps legacy spellings of the completed state onto the canonical value.
var statusAliases = map[string]OrderStatus{
	"FINALIZADA":  StatusCompleted,
	"FINALIZACAO": StatusCompleted,
}

// ParseOrderStatus normalises user input into a known status.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch OrderStatus(s) {
	case StatusInProgress, StatusCompleted, StatusCancelled:
		return OrderStatus(s), true
	}
	if alias, ok := statusAliases[s]; ok {
		return alias, true
	}
	return "", false
}

// Editable reports whether orders in this status accept updates.
func (s OrderStatus) Editable() bool {
	return s == StatusInProgress
}

// Terminal reports whether the status can no longer change.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DiscountType selects how Order.Discount is interpreted.
type DiscountType string

const (
	DiscountAmount     DiscountType = "VALOR"
	DiscountPercentage DiscountType = "PORCENTAGEM"
)

// ParseDiscountType validates a discount type; empty input yields DiscountAmount.
func ParseDiscountType(raw string) (DiscountType, bool) {
	switch DiscountType(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", DiscountAmount:
		return DiscountAmount, true
	case DiscountPercentage:
		return DiscountPercentage, true
	}
	return "", false
}

// Order is the service order aggregate root (ordem de serviço).
type Order struct {
	bun.BaseModel `bun:"table:service_orders,alias:so"`

	ID     string      `bun:"id,pk"`
	Number int         `bun:"number,notnull"`
	Year   int         `bun:"year,notnull"`
	Status OrderStatus `bun:"status,notnull"`

	ClientID  string   `bun:"client_id,notnull"`
	Client    *Client  `bun:"rel:belongs-to,join:client_id=id"`
	VehicleID *string  `bun:"vehicle_id"`
	Vehicle   *Vehicle `bun:"rel:belongs-to,join:vehicle_id=id"`

	Notes          *string `bun:"notes"`
	VehicleKm      *int    `bun:"vehicle_km"`
	VehicleFuel    *string `bun:"vehicle_fuel"`
	ReportedDefect *string `bun:"reported_defect"`
	VehicleNotes   *string `bun:"vehicle_notes"`

	DiscountType   DiscountType    `bun:"discount_type,notnull"`
	Discount       decimal.Decimal `bun:"discount,type:numeric(12,2),notnull"`
	ServicesTotal  decimal.Decimal `bun:"services_total,type:numeric(12,2),notnull"`
	PartsTotal     decimal.Decimal `bun:"parts_total,type:numeric(12,2),notnull"`
	Subtotal       decimal.Decimal `bun:"subtotal,type:numeric(12,2),notnull"`
	DiscountAmount decimal.Decimal `bun:"discount_amount,type:numeric(12,2),notnull"`
	Total          decimal.Decimal `bun:"total,type:numeric(12,2),notnull"`

	CompletedAt *time.Time `bun:"completed_at"`
	Version     int64      `bun:"version,notnull"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`

	ServiceItems []*ServiceItem `bun:"rel:has-many,join:id=order_id"`
	PartItems    []*PartItem    `bun:"rel:has-many,join:id=order_id"`
}

// ServiceItem is a billable service line with a snapshotted unit price.
type ServiceItem struct {
	bun.BaseModel `bun:"table:order_service_items,alias:osi"`

	ID        string          `bun:"id,pk"`
	OrderID   string          `bun:"order_id,notnull"`
	ServiceID string          `bun:"service_id,notnull"`
	Service   *Service        `bun:"rel:belongs-to,join:service_id=id"`
	Quantity  decimal.Decimal `bun:"quantity,type:numeric(12,3),notnull"`
	UnitPrice decimal.Decimal `bun:"unit_price,type:numeric(12,2),notnull"`
	Total     decimal.Decimal `bun:"total,type:numeric(12,2),notnull"`
	Position  int             `bun:"position,notnull"`
}

// PartItem is a billable part line with the quantity and price actually used.
type PartItem struct {
	bun.BaseModel `bun:"table:order_part_items,alias:opi"`

	ID            string          `bun:"id,pk"`
	OrderID       string          `bun:"order_id,notnull"`
	PartID        string          `bun:"part_id,notnull"`
	Part          *Part           `bun:"rel:belongs-to,join:part_id=id"`
	QuantityUsed  decimal.Decimal `bun:"quantity_used,type:numeric(12,3),notnull"`
	UnitPriceUsed decimal.Decimal `bun:"unit_price_used,type:numeric(12,2),notnull"`
	Total         decimal.Decimal `bun:"total,type:numeric(12,2),notnull"`
	Position      int             `bun:"position,notnull"`
}

// OrderSequence holds the last order number issued for a year.
type OrderSequence struct {
	bun.BaseModel `bun:"table:order_sequences"`

	Year       int `bun:"year,pk"`
	LastNumber int `bun:"last_number,notnull"`
}
