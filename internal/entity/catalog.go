package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Client is a workshop customer.
type Client struct {
	bun.BaseModel `bun:"table:clients,alias:client"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Document  *string   `bun:"document"`
	Phone     *string   `bun:"phone"`
	Email     *string   `bun:"email"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Vehicle belongs to a client.
type Vehicle struct {
	bun.BaseModel `bun:"table:vehicles,alias:vehicle"`

	ID        string    `bun:"id,pk"`
	ClientID  string    `bun:"client_id,notnull"`
	Plate     string    `bun:"plate,notnull"`
	Brand     *string   `bun:"brand"`
	Model     *string   `bun:"model"`
	ModelYear *int      `bun:"model_year"`
	Color     *string   `bun:"color"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Part is a catalog part (peça). Code is unique.
type Part struct {
	bun.BaseModel `bun:"table:parts,alias:part"`

	ID        string          `bun:"id,pk"`
	Code      string          `bun:"code,notnull"`
	Name      string          `bun:"name,notnull"`
	Price     decimal.Decimal `bun:"price,type:numeric(12,2),notnull"`
	Stock     int             `bun:"stock,notnull"`
	CreatedAt time.Time       `bun:"created_at,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"`
}

// Service is a catalog labour service (serviço).
type Service struct {
	bun.BaseModel `bun:"table:services,alias:service"`

	ID          string          `bun:"id,pk"`
	Name        string          `bun:"name,notnull"`
	Description *string         `bun:"description"`
	Price       decimal.Decimal `bun:"price,type:numeric(12,2),notnull"`
	CreatedAt   time.Time       `bun:"created_at,notnull"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull"`
}
