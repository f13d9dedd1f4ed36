package inventory

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/ledger"
)

var (
	// ErrItemNotFound indicates the referenced catalog item does not exist.
	ErrItemNotFound = errors.New("stock item not found")
	// ErrTransactionNotFound indicates the update or delete target is absent.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidInput indicates the supplied transaction fields are unusable.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientStock is returned by EnsureSellable when a sale exceeds the available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Action names a ledger mutation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Observer is notified after every successful mutation. It is called under
// the reconciler's write lock and must not call back into the Service.
type Observer interface {
	TransactionChanged(kind models.TransactionKind, action Action)
	StockChanged(items []models.StockItem)
}

// Snapshot is a consistent copy of stock and ledger taken under one lock.
type Snapshot struct {
	Stock     []models.StockItem
	Purchases []models.Purchase
	Sales     []models.Sale
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used to date new transactions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDSource overrides the ledger id generator.
func WithIDSource(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithObserver registers a mutation observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// Service reconciles stock quantities with the purchase and sale ledger.
// It is the only writer of StockItem.Quantity and of the ledger.
type Service struct {
	mu       sync.RWMutex
	items    []models.StockItem
	index    map[string]int
	ledger   *ledger.Store
	validate *validator.Validate
	observer Observer
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewService builds a reconciler over the provided catalog. Catalog quantities
// are the base quantities the ledger is applied on top of.
func NewService(catalog []models.StockItem, logger *zap.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		items:    make([]models.StockItem, 0, len(catalog)),
		index:    make(map[string]int, len(catalog)),
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ledger = ledger.NewStore(s.newID)

	for _, item := range catalog {
		if strings.TrimSpace(item.ID) == "" {
			return nil, fmt.Errorf("catalog item %q has no id", item.DisplayName())
		}
		if _, dup := s.index[item.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog item id %s", item.ID)
		}
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}

	return s, nil
}

// RecordPurchase appends a purchase dated now and adds its quantity to the item.
func (s *Service) RecordPurchase(in models.PurchaseInput) (models.Purchase, error) {
	in = normalizePurchase(in)
	if err := s.check(in); err != nil {
		return models.Purchase{}, err
	}

	s.mu.Lock()
	item, ok := s.item(in.ItemID)
	if !ok {
		s.mu.Unlock()
		return models.Purchase{}, fmt.Errorf("record purchase: %w: %s", ErrItemNotFound, in.ItemID)
	}

	p := s.ledger.Purchases().Append(buildPurchase(in, item, s.now()))
	mv := purchaseMovement(p)
	s.shift(nil, &mv)
	s.notify(models.KindPurchase, ActionCreate)
	s.mu.Unlock()

	s.logger.Info("purchase recorded",
		zap.String("id", p.ID),
		zap.String("item_id", p.ItemID),
		zap.Stringer("quantity", p.Quantity),
		zap.String("supplier", p.SupplierName))
	return p, nil
}

// RecordSale appends a sale dated now and subtracts its quantity from the item.
// Over-selling is not rejected here: the resulting quantity may go negative.
func (s *Service) RecordSale(in models.SaleInput) (models.Sale, error) {
	in = normalizeSale(in)
	if err := s.check(in); err != nil {
		return models.Sale{}, err
	}

	s.mu.Lock()
	item, ok := s.item(in.ItemID)
	if !ok {
		s.mu.Unlock()
		return models.Sale{}, fmt.Errorf("record sale: %w: %s", ErrItemNotFound, in.ItemID)
	}

	sale := s.ledger.Sales().Append(buildSale(in, item, s.now()))
	mv := saleMovement(sale)
	s.shift(nil, &mv)
	if s.items[s.index[sale.ItemID]].Quantity.IsNegative() {
		s.logger.Warn("sale left stock negative", zap.String("item_id", sale.ItemID))
	}
	s.notify(models.KindSale, ActionCreate)
	s.mu.Unlock()

	s.logger.Info("sale recorded",
		zap.String("id", sale.ID),
		zap.String("item_id", sale.ItemID),
		zap.Stringer("quantity", sale.Quantity),
		zap.String("customer", sale.Customer()))
	return sale, nil
}

// UpdatePurchase replaces a purchase, reverting its old effect and applying the new one.
func (s *Service) UpdatePurchase(id string, in models.PurchaseInput) (models.Purchase, error) {
	in = normalizePurchase(in)
	if err := s.check(in); err != nil {
		return models.Purchase{}, err
	}

	s.mu.Lock()
	old, err := s.ledger.Purchases().Find(id)
	if err != nil {
		s.mu.Unlock()
		return models.Purchase{}, fmt.Errorf("update purchase %s: %w", id, ErrTransactionNotFound)
	}
	item, ok := s.item(in.ItemID)
	if !ok {
		s.mu.Unlock()
		return models.Purchase{}, fmt.Errorf("update purchase %s: %w: %s", id, ErrItemNotFound, in.ItemID)
	}

	updated, err := s.ledger.Purchases().Replace(id, buildPurchase(in, item, old.Date))
	if err != nil {
		s.mu.Unlock()
		return models.Purchase{}, fmt.Errorf("update purchase %s: %w", id, ErrTransactionNotFound)
	}
	oldMv, newMv := purchaseMovement(old), purchaseMovement(updated)
	s.shift(&oldMv, &newMv)
	s.notify(models.KindPurchase, ActionUpdate)
	s.mu.Unlock()

	s.logger.Info("purchase updated",
		zap.String("id", id),
		zap.String("old_item_id", old.ItemID),
		zap.String("item_id", updated.ItemID),
		zap.Stringer("old_quantity", old.Quantity),
		zap.Stringer("quantity", updated.Quantity))
	return updated, nil
}

// UpdateSale replaces a sale, giving back its old quantity and taking the new one.
func (s *Service) UpdateSale(id string, in models.SaleInput) (models.Sale, error) {
	in = normalizeSale(in)
	if err := s.check(in); err != nil {
		return models.Sale{}, err
	}

	s.mu.Lock()
	old, err := s.ledger.Sales().Find(id)
	if err != nil {
		s.mu.Unlock()
		return models.Sale{}, fmt.Errorf("update sale %s: %w", id, ErrTransactionNotFound)
	}
	item, ok := s.item(in.ItemID)
	if !ok {
		s.mu.Unlock()
		return models.Sale{}, fmt.Errorf("update sale %s: %w: %s", id, ErrItemNotFound, in.ItemID)
	}

	updated, err := s.ledger.Sales().Replace(id, buildSale(in, item, old.Date))
	if err != nil {
		s.mu.Unlock()
		return models.Sale{}, fmt.Errorf("update sale %s: %w", id, ErrTransactionNotFound)
	}
	oldMv, newMv := saleMovement(old), saleMovement(updated)
	s.shift(&oldMv, &newMv)
	s.notify(models.KindSale, ActionUpdate)
	s.mu.Unlock()

	s.logger.Info("sale updated",
		zap.String("id", id),
		zap.String("old_item_id", old.ItemID),
		zap.String("item_id", updated.ItemID),
		zap.Stringer("old_quantity", old.Quantity),
		zap.Stringer("quantity", updated.Quantity))
	return updated, nil
}

// DeletePurchase removes a purchase and takes its quantity back out of stock.
func (s *Service) DeletePurchase(id string) error {
	s.mu.Lock()
	removed, err := s.ledger.Purchases().Remove(id)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete purchase %s: %w", id, ErrTransactionNotFound)
	}
	mv := purchaseMovement(removed)
	s.shift(&mv, nil)
	s.notify(models.KindPurchase, ActionDelete)
	s.mu.Unlock()

	s.logger.Info("purchase deleted", zap.String("id", id), zap.String("item_id", removed.ItemID))
	return nil
}

// DeleteSale removes a sale and returns its quantity to stock.
func (s *Service) DeleteSale(id string) error {
	s.mu.Lock()
	removed, err := s.ledger.Sales().Remove(id)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete sale %s: %w", id, ErrTransactionNotFound)
	}
	mv := saleMovement(removed)
	s.shift(&mv, nil)
	s.notify(models.KindSale, ActionDelete)
	s.mu.Unlock()

	s.logger.Info("sale deleted", zap.String("id", id), zap.String("item_id", removed.ItemID))
	return nil
}

// ListStock returns the current catalog snapshot in catalog order.
func (s *Service) ListStock() []models.StockItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stockLocked()
}

// Item returns a single catalog entry.
func (s *Service) Item(id string) (models.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.item(id)
	if !ok {
		return models.StockItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, nil
}

// FindPurchase looks up a purchase by id.
func (s *Service) FindPurchase(id string) (models.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.ledger.Purchases().Find(id)
	if err != nil {
		return models.Purchase{}, fmt.Errorf("find purchase %s: %w", id, ErrTransactionNotFound)
	}
	return p, nil
}

// FindSale looks up a sale by id.
func (s *Service) FindSale(id string) (models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, err := s.ledger.Sales().Find(id)
	if err != nil {
		return models.Sale{}, fmt.Errorf("find sale %s: %w", id, ErrTransactionNotFound)
	}
	return sale, nil
}

// RecentPurchases returns up to n purchases, newest first. n <= 0 returns all.
func (s *Service) RecentPurchases(n int) []models.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Purchases().Recent(n)
}

// RecentSales returns up to n sales, newest first. n <= 0 returns all.
func (s *Service) RecentSales(n int) []models.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Sales().Recent(n)
}

// Snapshot copies stock and both ledgers under a single read lock.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Stock:     s.stockLocked(),
		Purchases: s.ledger.Purchases().All(),
		Sales:     s.ledger.Sales().All(),
	}
}

// Sellable returns how much of an item a caller may sell. When editingSaleID
// names an existing sale of the same item, its quantity is counted as available.
func (s *Service) Sellable(itemID, editingSaleID string) (decimal.Decimal, error) {
	itemID = strings.TrimSpace(itemID)
	editingSaleID = strings.TrimSpace(editingSaleID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.item(itemID)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	available := item.Quantity
	if editingSaleID != "" {
		if old, err := s.ledger.Sales().Find(editingSaleID); err == nil && old.ItemID == itemID {
			available = available.Add(old.Quantity)
		}
	}
	return available, nil
}

// EnsureSellable normalizes and validates in the way RecordSale does, then
// fails with ErrInsufficientStock when its quantity exceeds Sellable.
// Callers that enforce an over-sell policy use it before RecordSale or UpdateSale.
func (s *Service) EnsureSellable(editingSaleID string, in models.SaleInput) error {
	in = normalizeSale(in)
	if err := s.check(in); err != nil {
		return err
	}

	available, err := s.Sellable(in.ItemID, editingSaleID)
	if err != nil {
		return err
	}
	if in.Quantity.GreaterThan(available) {
		return fmt.Errorf("%w: %s available, %s requested", ErrInsufficientStock, available.String(), in.Quantity.String())
	}
	return nil
}

// shift reverts one movement and applies another. Either may be nil.
// Callers hold the write lock.
func (s *Service) shift(reverted, applied *movement) {
	if reverted != nil {
		s.adjust(*reverted, revert)
	}
	if applied != nil {
		s.adjust(*applied, apply)
	}
}

func (s *Service) adjust(m movement, fn func(models.StockItem, movement) models.StockItem) {
	idx, ok := s.index[m.ItemID]
	if !ok {
		s.logger.Warn("stock adjustment skipped for unknown item",
			zap.String("item_id", m.ItemID),
			zap.Stringer("delta", m.Delta))
		return
	}
	s.items[idx] = fn(s.items[idx], m)
}

func (s *Service) item(id string) (models.StockItem, bool) {
	idx, ok := s.index[id]
	if !ok {
		return models.StockItem{}, false
	}
	return s.items[idx], true
}

func (s *Service) stockLocked() []models.StockItem {
	out := make([]models.StockItem, len(s.items))
	copy(out, s.items)
	return out
}

// notify reports a mutation while the write lock is still held, so observers
// see mutations in the order they were applied. Callers hold the write lock.
func (s *Service) notify(kind models.TransactionKind, action Action) {
	if s.observer == nil {
		return
	}
	s.observer.TransactionChanged(kind, action)
	s.observer.StockChanged(s.stockLocked())
}

func normalizePurchase(in models.PurchaseInput) models.PurchaseInput {
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.ItemName = strings.TrimSpace(in.ItemName)
	in.SupplierName = strings.TrimSpace(in.SupplierName)
	return in
}

func normalizeSale(in models.SaleInput) models.SaleInput {
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.ItemName = strings.TrimSpace(in.ItemName)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	return in
}

func buildTransaction(itemID, itemName string, item models.StockItem, qty, price decimal.Decimal, date time.Time) models.Transaction {
	if itemName == "" {
		itemName = item.DisplayName()
	}
	return models.Transaction{
		ItemID:       itemID,
		ItemName:     itemName,
		Quantity:     qty,
		PricePerUnit: price,
		TotalAmount:  qty.Mul(price),
		Date:         date,
	}
}

func buildPurchase(in models.PurchaseInput, item models.StockItem, date time.Time) models.Purchase {
	return models.Purchase{
		Transaction:  buildTransaction(in.ItemID, in.ItemName, item, in.Quantity, in.PricePerUnit, date),
		SupplierName: in.SupplierName,
	}
}

func buildSale(in models.SaleInput, item models.StockItem, date time.Time) models.Sale {
	return models.Sale{
		Transaction:  buildTransaction(in.ItemID, in.ItemName, item, in.Quantity, in.PricePerUnit, date),
		CustomerName: in.CustomerName,
	}
}
