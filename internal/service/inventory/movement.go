package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// movement is the signed effect a ledger entry has on one item.
type movement struct {
	ItemID string
	Delta  decimal.Decimal
}

func purchaseMovement(p models.Purchase) movement {
	return movement{ItemID: p.ItemID, Delta: p.Quantity}
}

func saleMovement(s models.Sale) movement {
	return movement{ItemID: s.ItemID, Delta: s.Quantity.Neg()}
}

// apply adds the movement's effect to the item.
func apply(item models.StockItem, m movement) models.StockItem {
	item.Quantity = item.Quantity.Add(m.Delta)
	return item
}

// revert removes the movement's effect from the item.
func revert(item models.StockItem, m movement) models.StockItem {
	item.Quantity = item.Quantity.Sub(m.Delta)
	return item
}
