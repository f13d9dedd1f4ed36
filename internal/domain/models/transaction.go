package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes the two ledger variants.
type TransactionKind string

const (
	KindPurchase TransactionKind = "purchase"
	KindSale     TransactionKind = "sale"
)

// WalkInCustomer labels sales recorded without a customer name.
const WalkInCustomer = "Walk-in Customer"

// Transaction is the shape shared by purchases and sales.
type Transaction struct {
	ID           string          `json:"id" bson:"id"`
	ItemID       string          `json:"item_id" bson:"item_id"`
	ItemName     string          `json:"item_name" bson:"item_name"`
	Quantity     decimal.Decimal `json:"quantity" bson:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" bson:"price_per_unit"`
	TotalAmount  decimal.Decimal `json:"total_amount" bson:"total_amount"`
	Date         time.Time       `json:"date" bson:"date"`
}

// EntryID returns the ledger id.
func (t Transaction) EntryID() string { return t.ID }

// EntryDate returns the creation timestamp.
func (t Transaction) EntryDate() time.Time { return t.Date }

// Stamp fixes the ledger identity of a transaction.
func (t *Transaction) Stamp(id string, date time.Time) {
	t.ID = id
	t.Date = date
}

// Purchase is stock bought from a supplier.
type Purchase struct {
	Transaction  `bson:",inline"`
	SupplierName string `json:"supplier_name" bson:"supplier_name"`
}

// Sale is stock sold to a customer.
type Sale struct {
	Transaction  `bson:",inline"`
	CustomerName string `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
}

// Customer returns the customer name or the walk-in label.
func (s Sale) Customer() string {
	if s.CustomerName == "" {
		return WalkInCustomer
	}
	return s.CustomerName
}

// PurchaseInput carries the caller supplied fields of a purchase.
type PurchaseInput struct {
	ItemID       string          `json:"item_id" validate:"required"`
	ItemName     string          `json:"item_name"`
	Quantity     decimal.Decimal `json:"quantity" validate:"gt=0"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" validate:"gte=0"`
	SupplierName string          `json:"supplier_name" validate:"required"`
}

// SaleInput carries the caller supplied fields of a sale.
type SaleInput struct {
	ItemID       string          `json:"item_id" validate:"required"`
	ItemName     string          `json:"item_name"`
	Quantity     decimal.Decimal `json:"quantity" validate:"gt=0"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" validate:"gte=0"`
	CustomerName string          `json:"customer_name"`
}
