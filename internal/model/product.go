package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType distinguishes the orderable product categories.
type ProductType string

const (
	ProductTypeFrame   ProductType = "frame"
	ProductTypeLens    ProductType = "lens"
	ProductTypeService ProductType = "service"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeFrame, ProductTypeLens, ProductTypeService:
		return true
	}
	return false
}

// Product is the catalogue view the cart engine consumes: current unit
// price, currency and whether the product may still be purchased.
type Product struct {
	ID        string          `json:"id" db:"id"`
	Type      ProductType     `json:"type" db:"type"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Currency  string          `json:"currency" db:"currency"`
	Active    bool            `json:"active" db:"active"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
