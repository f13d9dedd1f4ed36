package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StockItem is one catalog entry together with its on-hand quantity.
type StockItem struct {
	ID           string          `json:"id" bson:"id"`
	Name         string          `json:"name" bson:"name"`
	Variety      string          `json:"variety" bson:"variety"`
	Quantity     decimal.Decimal `json:"quantity" bson:"quantity"`
	Unit         string          `json:"unit" bson:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" bson:"price_per_unit"`
	ReorderLevel decimal.Decimal `json:"reorder_level" bson:"reorder_level"`
}

// DisplayName renders the "{name} ({variety})" label frozen into transactions.
func (i StockItem) DisplayName() string {
	if i.Variety == "" {
		return i.Name
	}
	return fmt.Sprintf("%s (%s)", i.Name, i.Variety)
}

// IsLowStock reports whether the item sits at or below its reorder level.
func (i StockItem) IsLowStock() bool {
	return i.Quantity.LessThanOrEqual(i.ReorderLevel)
}

// Value is the item's worth at its catalog price.
func (i StockItem) Value() decimal.Decimal {
	return i.Quantity.Mul(i.PricePerUnit)
}
