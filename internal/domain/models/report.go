package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyTotals aggregates the transactions of one calendar day.
type DailyTotals struct {
	PurchaseTotal    decimal.Decimal `bson:"purchase_total" json:"purchase_total"`
	SaleTotal        decimal.Decimal `bson:"sale_total" json:"sale_total"`
	PurchaseQty      decimal.Decimal `bson:"purchase_qty" json:"purchase_qty"`
	SaleQty          decimal.Decimal `bson:"sale_qty" json:"sale_qty"`
	NetProfit        decimal.Decimal `bson:"net_profit" json:"net_profit"`
	TransactionCount int             `bson:"transaction_count" json:"transaction_count"`
}

// DailyReport represents everything shown for one day; it is also the archived document.
type DailyReport struct {
	Date           time.Time       `bson:"date" json:"date"`
	Totals         DailyTotals     `bson:"totals" json:"totals"`
	Purchases      []Purchase      `bson:"purchases" json:"purchases"`
	Sales          []Sale          `bson:"sales" json:"sales"`
	LowStock       []StockItem     `bson:"low_stock" json:"low_stock"`
	StockValuation decimal.Decimal `bson:"stock_valuation" json:"stock_valuation"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
}
