package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// DefaultCatalog returns the seed catalog used when no catalog sheet is configured.
func DefaultCatalog() []models.StockItem {
	item := func(id, name, variety string, qty, price, reorder int64) models.StockItem {
		return models.StockItem{
			ID:           id,
			Name:         name,
			Variety:      variety,
			Quantity:     decimal.NewFromInt(qty),
			Unit:         "kg",
			PricePerUnit: decimal.NewFromInt(price),
			ReorderLevel: decimal.NewFromInt(reorder),
		}
	}

	return []models.StockItem{
		item("1", "Basmati Rice", "Premium", 500, 120, 100),
		item("2", "Basmati Rice", "Super", 300, 95, 100),
		item("3", "Sona Masoori", "Regular", 450, 65, 150),
		item("4", "Ponni Rice", "Boiled", 80, 55, 100),
		item("5", "Kolam Rice", "Regular", 200, 60, 100),
		item("6", "Jasmine Rice", "Premium", 150, 110, 50),
	}
}
