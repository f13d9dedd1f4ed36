package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// TransactionsOnDate keeps the purchases and sales dated on the same calendar day as date.
func TransactionsOnDate(purchases []models.Purchase, sales []models.Sale, date time.Time, loc *time.Location) ([]models.Purchase, []models.Sale) {
	dayPurchases := make([]models.Purchase, 0)
	for _, p := range purchases {
		if SameDay(p.Date, date, loc) {
			dayPurchases = append(dayPurchases, p)
		}
	}

	daySales := make([]models.Sale, 0)
	for _, s := range sales {
		if SameDay(s.Date, date, loc) {
			daySales = append(daySales, s)
		}
	}

	return dayPurchases, daySales
}

// ComputeDailyTotals sums already-filtered transactions.
func ComputeDailyTotals(purchases []models.Purchase, sales []models.Sale) models.DailyTotals {
	totals := models.DailyTotals{
		PurchaseTotal: decimal.Zero,
		SaleTotal:     decimal.Zero,
		PurchaseQty:   decimal.Zero,
		SaleQty:       decimal.Zero,
	}

	for _, p := range purchases {
		totals.PurchaseTotal = totals.PurchaseTotal.Add(p.TotalAmount)
		totals.PurchaseQty = totals.PurchaseQty.Add(p.Quantity)
	}
	for _, s := range sales {
		totals.SaleTotal = totals.SaleTotal.Add(s.TotalAmount)
		totals.SaleQty = totals.SaleQty.Add(s.Quantity)
	}

	totals.NetProfit = totals.SaleTotal.Sub(totals.PurchaseTotal)
	totals.TransactionCount = len(purchases) + len(sales)
	return totals
}

// LowStockItems returns the items at or below their reorder level.
func LowStockItems(items []models.StockItem) []models.StockItem {
	low := make([]models.StockItem, 0)
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low
}

// StockValuation values the whole catalog at its reference prices.
func StockValuation(items []models.StockItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Value())
	}
	return total
}
