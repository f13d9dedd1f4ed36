package inventory

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	n := 0
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDSource(func() string {
			n++
			return fmt.Sprintf("tx-%d", n)
		}),
	}, opts...)

	svc, err := NewService(DefaultCatalog(), nil, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func quantityOf(t *testing.T, svc *Service, itemID string) decimal.Decimal {
	t.Helper()
	item, err := svc.Item(itemID)
	if err != nil {
		t.Fatalf("Item(%s): %v", itemID, err)
	}
	return item.Quantity
}

func expectQuantity(t *testing.T, svc *Service, itemID string, want int64) {
	t.Helper()
	if got := quantityOf(t, svc, itemID); !got.Equal(dec(want)) {
		t.Fatalf("item %s: want quantity %d, got %s", itemID, want, got)
	}
}

func buy(t *testing.T, svc *Service, itemID string, qty, price int64) models.Purchase {
	t.Helper()
	p, err := svc.RecordPurchase(models.PurchaseInput{
		ItemID:       itemID,
		Quantity:     dec(qty),
		PricePerUnit: dec(price),
		SupplierName: "Acme",
	})
	if err != nil {
		t.Fatalf("RecordPurchase: %v", err)
	}
	return p
}

func sell(t *testing.T, svc *Service, itemID string, qty, price int64) models.Sale {
	t.Helper()
	s, err := svc.RecordSale(models.SaleInput{
		ItemID:       itemID,
		Quantity:     dec(qty),
		PricePerUnit: dec(price),
		CustomerName: "Bob",
	})
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	return s
}

func TestRecordPurchaseIncreasesStock(t *testing.T) {
	svc := newTestService(t)

	p := buy(t, svc, "1", 100, 120)

	expectQuantity(t, svc, "1", 600)
	if p.ID == "" || !p.Date.Equal(fixedNow) {
		t.Fatalf("unexpected ledger identity: %+v", p.Transaction)
	}
	if !p.TotalAmount.Equal(dec(12000)) {
		t.Fatalf("want total 12000, got %s", p.TotalAmount)
	}
	if p.ItemName != "Basmati Rice (Premium)" {
		t.Fatalf("unexpected frozen item name %q", p.ItemName)
	}
}

func TestRecordSaleDecreasesStock(t *testing.T) {
	svc := newTestService(t)
	buy(t, svc, "1", 100, 120)

	s := sell(t, svc, "1", 50, 130)

	expectQuantity(t, svc, "1", 550)
	if !s.TotalAmount.Equal(dec(6500)) {
		t.Fatalf("want total 6500, got %s", s.TotalAmount)
	}
}

func TestUpdatePurchaseSameItemAppliesNetDelta(t *testing.T) {
	svc := newTestService(t)
	p := buy(t, svc, "1", 100, 120)

	updated, err := svc.UpdatePurchase(p.ID, models.PurchaseInput{
		ItemID:       "1",
		Quantity:     dec(150),
		PricePerUnit: dec(120),
		SupplierName: "Acme",
	})
	if err != nil {
		t.Fatalf("UpdatePurchase: %v", err)
	}

	expectQuantity(t, svc, "1", 650)
	if updated.ID != p.ID || !updated.Date.Equal(p.Date) {
		t.Fatalf("identity changed: %+v -> %+v", p.Transaction, updated.Transaction)
	}
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	svc := newTestService(t)
	buy(t, svc, "1", 100, 120)
	s := sell(t, svc, "1", 50, 130)
	expectQuantity(t, svc, "1", 550)

	if err := svc.DeleteSale(s.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}

	expectQuantity(t, svc, "1", 600)
}

func TestUpdateSaleMovesBetweenItems(t *testing.T) {
	svc := newTestService(t)
	buy(t, svc, "1", 150, 120)
	s := sell(t, svc, "1", 50, 130)
	expectQuantity(t, svc, "1", 600)
	expectQuantity(t, svc, "2", 300)

	if _, err := svc.UpdateSale(s.ID, models.SaleInput{
		ItemID:       "2",
		Quantity:     dec(50),
		PricePerUnit: dec(130),
	}); err != nil {
		t.Fatalf("UpdateSale: %v", err)
	}

	expectQuantity(t, svc, "1", 650)
	expectQuantity(t, svc, "2", 250)
}

func TestUpdatePurchaseCrossItemMove(t *testing.T) {
	svc := newTestService(t)
	p := buy(t, svc, "3", 40, 60)

	if _, err := svc.UpdatePurchase(p.ID, models.PurchaseInput{
		ItemID:       "5",
		Quantity:     dec(25),
		PricePerUnit: dec(60),
		SupplierName: "Acme",
	}); err != nil {
		t.Fatalf("UpdatePurchase: %v", err)
	}

	expectQuantity(t, svc, "3", 450)
	expectQuantity(t, svc, "5", 225)
	for _, untouched := range []struct {
		id  string
		qty int64
	}{{"1", 500}, {"2", 300}, {"4", 80}, {"6", 150}} {
		expectQuantity(t, svc, untouched.id, untouched.qty)
	}

	updated, err := svc.FindPurchase(p.ID)
	if err != nil {
		t.Fatalf("FindPurchase: %v", err)
	}
	if updated.ItemName != "Kolam Rice (Regular)" {
		t.Fatalf("expected item name of the new item, got %q", updated.ItemName)
	}
}

func TestRoundTripRestoresQuantity(t *testing.T) {
	svc := newTestService(t)
	before := quantityOf(t, svc, "4")

	p, err := svc.RecordPurchase(models.PurchaseInput{
		ItemID:       "4",
		Quantity:     decimal.RequireFromString("12.345"),
		PricePerUnit: decimal.RequireFromString("55.10"),
		SupplierName: "Acme",
	})
	if err != nil {
		t.Fatalf("RecordPurchase: %v", err)
	}
	if err := svc.DeletePurchase(p.ID); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}
	if got := quantityOf(t, svc, "4"); !got.Equal(before) {
		t.Fatalf("purchase round trip: want %s got %s", before, got)
	}

	s, err := svc.RecordSale(models.SaleInput{
		ItemID:       "4",
		Quantity:     decimal.RequireFromString("0.1"),
		PricePerUnit: decimal.RequireFromString("60"),
	})
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if err := svc.DeleteSale(s.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if got := quantityOf(t, svc, "4"); !got.Equal(before) {
		t.Fatalf("sale round trip: want %s got %s", before, got)
	}
}

func TestNoOpUpdateLeavesQuantity(t *testing.T) {
	svc := newTestService(t)
	p := buy(t, svc, "2", 30, 95)
	before := quantityOf(t, svc, "2")

	if _, err := svc.UpdatePurchase(p.ID, models.PurchaseInput{
		ItemID:       p.ItemID,
		ItemName:     p.ItemName,
		Quantity:     p.Quantity,
		PricePerUnit: p.PricePerUnit,
		SupplierName: p.SupplierName,
	}); err != nil {
		t.Fatalf("UpdatePurchase: %v", err)
	}

	if got := quantityOf(t, svc, "2"); !got.Equal(before) {
		t.Fatalf("no-op update changed quantity: %s -> %s", before, got)
	}
}

func TestSaleMayDriveStockNegative(t *testing.T) {
	svc := newTestService(t)

	sell(t, svc, "4", 100, 60)

	expectQuantity(t, svc, "4", -20)
}

func TestValidationRejectsBeforeMutation(t *testing.T) {
	svc := newTestService(t)
	p := buy(t, svc, "1", 100, 120)

	cases := []struct {
		name string
		in   models.PurchaseInput
	}{
		{"zero quantity", models.PurchaseInput{ItemID: "1", Quantity: dec(0), PricePerUnit: dec(1), SupplierName: "Acme"}},
		{"negative quantity", models.PurchaseInput{ItemID: "1", Quantity: dec(-5), PricePerUnit: dec(1), SupplierName: "Acme"}},
		{"negative price", models.PurchaseInput{ItemID: "1", Quantity: dec(5), PricePerUnit: dec(-1), SupplierName: "Acme"}},
		{"blank supplier", models.PurchaseInput{ItemID: "1", Quantity: dec(5), PricePerUnit: dec(1), SupplierName: "   "}},
		{"missing item", models.PurchaseInput{Quantity: dec(5), PricePerUnit: dec(1), SupplierName: "Acme"}},
		{"tiny negative price", models.PurchaseInput{ItemID: "1", Quantity: dec(5), PricePerUnit: decimal.RequireFromString("-1e-400"), SupplierName: "Acme"}},
		{"tiny negative quantity", models.PurchaseInput{ItemID: "1", Quantity: decimal.RequireFromString("-1e-400"), PricePerUnit: dec(1), SupplierName: "Acme"}},
	}

	for _, c := range cases {
		if _, err := svc.RecordPurchase(c.in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: RecordPurchase want ErrInvalidInput, got %v", c.name, err)
		}
		if _, err := svc.UpdatePurchase(p.ID, c.in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: UpdatePurchase want ErrInvalidInput, got %v", c.name, err)
		}
	}

	expectQuantity(t, svc, "1", 600)
	stored, err := svc.FindPurchase(p.ID)
	if err != nil {
		t.Fatalf("FindPurchase: %v", err)
	}
	if !stored.Quantity.Equal(dec(100)) {
		t.Fatalf("rejected update touched the ledger: %+v", stored)
	}

	if _, err := svc.RecordSale(models.SaleInput{ItemID: "1", Quantity: dec(1), PricePerUnit: dec(-3)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("RecordSale negative price: want ErrInvalidInput, got %v", err)
	}
}

func TestTinyPositiveAmountsAreValid(t *testing.T) {
	svc := newTestService(t)
	tiny := decimal.RequireFromString("1e-400")

	p, err := svc.RecordPurchase(models.PurchaseInput{ItemID: "1", Quantity: tiny, PricePerUnit: tiny, SupplierName: "Acme"})
	if err != nil {
		t.Fatalf("tiny positive quantity and price should be accepted: %v", err)
	}
	if !p.Quantity.Equal(tiny) || p.TotalAmount.Sign() <= 0 {
		t.Fatalf("amounts changed on the way in: %+v", p)
	}
	if got := quantityOf(t, svc, "1"); !got.Equal(dec(500).Add(tiny)) {
		t.Fatalf("want 500 plus the tiny quantity, got %s", got)
	}
}

func TestMissingReferences(t *testing.T) {
	svc := newTestService(t)
	p := buy(t, svc, "1", 10, 120)

	if _, err := svc.RecordPurchase(models.PurchaseInput{ItemID: "99", Quantity: dec(1), PricePerUnit: dec(1), SupplierName: "Acme"}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("RecordPurchase unknown item: want ErrItemNotFound, got %v", err)
	}
	if _, err := svc.RecordSale(models.SaleInput{ItemID: "99", Quantity: dec(1), PricePerUnit: dec(1)}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("RecordSale unknown item: want ErrItemNotFound, got %v", err)
	}
	if _, err := svc.UpdatePurchase(p.ID, models.PurchaseInput{ItemID: "99", Quantity: dec(1), PricePerUnit: dec(1), SupplierName: "Acme"}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("UpdatePurchase unknown item: want ErrItemNotFound, got %v", err)
	}
	expectQuantity(t, svc, "1", 510)

	if _, err := svc.UpdatePurchase("missing", models.PurchaseInput{ItemID: "1", Quantity: dec(1), PricePerUnit: dec(1), SupplierName: "Acme"}); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("UpdatePurchase: want ErrTransactionNotFound, got %v", err)
	}
	if _, err := svc.UpdateSale("missing", models.SaleInput{ItemID: "1", Quantity: dec(1), PricePerUnit: dec(1)}); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("UpdateSale: want ErrTransactionNotFound, got %v", err)
	}
	if err := svc.DeletePurchase("missing"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("DeletePurchase: want ErrTransactionNotFound, got %v", err)
	}
	if err := svc.DeleteSale("missing"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("DeleteSale: want ErrTransactionNotFound, got %v", err)
	}
}

func TestDanglingItemReferenceIsSoftFail(t *testing.T) {
	svc := newTestService(t)
	p := buy(t, svc, "2", 10, 95)
	s := sell(t, svc, "2", 5, 100)

	// Simulate the item disappearing from the catalog.
	delete(svc.index, "2")

	if _, err := svc.UpdateSale(s.ID, models.SaleInput{ItemID: "1", Quantity: dec(5), PricePerUnit: dec(100)}); err != nil {
		t.Fatalf("UpdateSale with dangling old item: %v", err)
	}
	expectQuantity(t, svc, "1", 495)

	if err := svc.DeletePurchase(p.ID); err != nil {
		t.Fatalf("DeletePurchase with dangling item: %v", err)
	}
	if _, err := svc.FindPurchase(p.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("ledger entry should be gone, got %v", err)
	}
}

func TestSellable(t *testing.T) {
	svc := newTestService(t)
	s := sell(t, svc, "6", 20, 110)

	got, err := svc.Sellable("6", "")
	if err != nil {
		t.Fatalf("Sellable: %v", err)
	}
	if !got.Equal(dec(130)) {
		t.Fatalf("want 130 sellable, got %s", got)
	}

	got, _ = svc.Sellable("6", s.ID)
	if !got.Equal(dec(150)) {
		t.Fatalf("editing same item should add back old quantity, got %s", got)
	}

	got, _ = svc.Sellable("5", s.ID)
	if !got.Equal(dec(200)) {
		t.Fatalf("editing onto another item should not add back, got %s", got)
	}

	if _, err := svc.Sellable("99", ""); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("want ErrItemNotFound, got %v", err)
	}
}

func TestEnsureSellable(t *testing.T) {
	svc := newTestService(t)
	s := sell(t, svc, "4", 60, 55)
	saleOf := func(itemID string, qty int64) models.SaleInput {
		return models.SaleInput{ItemID: itemID, Quantity: dec(qty), PricePerUnit: dec(55)}
	}

	if err := svc.EnsureSellable("", saleOf("4", 20)); err != nil {
		t.Fatalf("exact remaining quantity should be sellable: %v", err)
	}
	if err := svc.EnsureSellable("", saleOf("4", 21)); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	if err := svc.EnsureSellable(s.ID, saleOf("4", 80)); err != nil {
		t.Fatalf("editing a sale should count its own quantity: %v", err)
	}
	if err := svc.EnsureSellable("", saleOf("nope", 1)); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("want ErrItemNotFound, got %v", err)
	}
}

// EnsureSellable must judge the same normalized input RecordSale stores.
func TestEnsureSellableNormalizesLikeRecordSale(t *testing.T) {
	svc := newTestService(t)

	padded := models.SaleInput{ItemID: " 1 ", Quantity: dec(1), PricePerUnit: dec(120)}
	if err := svc.EnsureSellable("", padded); err != nil {
		t.Fatalf("padded item id should resolve: %v", err)
	}
	if _, err := svc.RecordSale(padded); err != nil {
		t.Fatalf("RecordSale padded id: %v", err)
	}

	if err := svc.EnsureSellable("", models.SaleInput{ItemID: "  ", Quantity: dec(1), PricePerUnit: dec(1)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank item id: want ErrInvalidInput, got %v", err)
	}
	if err := svc.EnsureSellable("", models.SaleInput{ItemID: "1", Quantity: dec(0), PricePerUnit: dec(1)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero quantity: want ErrInvalidInput, got %v", err)
	}
}

func TestNewServiceRejectsBadCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	catalog = append(catalog, catalog[0])
	if _, err := NewService(catalog, nil); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	if _, err := NewService([]models.StockItem{{Name: "Nameless"}}, nil); err == nil {
		t.Fatalf("expected missing id error")
	}
}

type recordingObserver struct {
	events []string
	stock  []models.StockItem
}

func (o *recordingObserver) TransactionChanged(kind models.TransactionKind, action Action) {
	o.events = append(o.events, string(kind)+":"+string(action))
}

func (o *recordingObserver) StockChanged(items []models.StockItem) {
	o.stock = items
}

func TestObserverSeesEveryMutation(t *testing.T) {
	obs := &recordingObserver{}
	svc := newTestService(t, WithObserver(obs))

	p := buy(t, svc, "1", 10, 120)
	s := sell(t, svc, "1", 5, 130)
	if _, err := svc.UpdateSale(s.ID, models.SaleInput{ItemID: "1", Quantity: dec(6), PricePerUnit: dec(130)}); err != nil {
		t.Fatalf("UpdateSale: %v", err)
	}
	if err := svc.DeletePurchase(p.ID); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}

	want := []string{"purchase:create", "sale:create", "sale:update", "purchase:delete"}
	if len(obs.events) != len(want) {
		t.Fatalf("want events %v, got %v", want, obs.events)
	}
	for i := range want {
		if obs.events[i] != want[i] {
			t.Fatalf("event %d: want %s got %s", i, want[i], obs.events[i])
		}
	}
	if len(obs.stock) != len(DefaultCatalog()) || !obs.stock[0].Quantity.Equal(dec(494)) {
		t.Fatalf("observer got stale stock: %+v", obs.stock)
	}
}

type lockedObserver struct {
	mu    sync.Mutex
	stock []models.StockItem
	calls int
}

func (o *lockedObserver) TransactionChanged(models.TransactionKind, Action) {}

func (o *lockedObserver) StockChanged(items []models.StockItem) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stock = items
	o.calls++
}

// After concurrent mutations settle, the last snapshot an observer saw must be
// the current stock.
func TestObserverLastSnapshotMatchesStock(t *testing.T) {
	obs := &lockedObserver{}
	svc := newTestService(t, WithObserver(obs))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = svc.RecordPurchase(models.PurchaseInput{ItemID: "3", Quantity: dec(int64(i + 1)), PricePerUnit: dec(65), SupplierName: "Acme"})
				return
			}
			_, _ = svc.RecordSale(models.SaleInput{ItemID: "3", Quantity: dec(int64(i)), PricePerUnit: dec(70)})
		}(i)
	}
	wg.Wait()

	current := svc.ListStock()
	if obs.calls != 40 {
		t.Fatalf("want 40 notifications, got %d", obs.calls)
	}
	for i := range current {
		if !obs.stock[i].Quantity.Equal(current[i].Quantity) {
			t.Fatalf("item %s: observer last saw %s, stock is %s", current[i].ID, obs.stock[i].Quantity, current[i].Quantity)
		}
	}
}

// The ledger invariant must hold after any sequence of operations.
func TestLedgerInvariantUnderRandomOperations(t *testing.T) {
	svc := newTestService(t)
	base := make(map[string]decimal.Decimal)
	for _, item := range DefaultCatalog() {
		base[item.ID] = item.Quantity
	}
	ids := []string{"1", "2", "3", "4", "5", "6"}
	rng := rand.New(rand.NewSource(7))

	for step := 0; step < 500; step++ {
		itemID := ids[rng.Intn(len(ids))]
		qty := decimal.New(int64(rng.Intn(5000)+1), -2)
		price := dec(int64(rng.Intn(200)))

		switch rng.Intn(6) {
		case 0:
			if _, err := svc.RecordPurchase(models.PurchaseInput{ItemID: itemID, Quantity: qty, PricePerUnit: price, SupplierName: "Acme"}); err != nil {
				t.Fatalf("step %d RecordPurchase: %v", step, err)
			}
		case 1:
			if _, err := svc.RecordSale(models.SaleInput{ItemID: itemID, Quantity: qty, PricePerUnit: price}); err != nil {
				t.Fatalf("step %d RecordSale: %v", step, err)
			}
		case 2:
			if recent := svc.RecentPurchases(0); len(recent) > 0 {
				target := recent[rng.Intn(len(recent))]
				if _, err := svc.UpdatePurchase(target.ID, models.PurchaseInput{ItemID: itemID, Quantity: qty, PricePerUnit: price, SupplierName: "Acme"}); err != nil {
					t.Fatalf("step %d UpdatePurchase: %v", step, err)
				}
			}
		case 3:
			if recent := svc.RecentSales(0); len(recent) > 0 {
				target := recent[rng.Intn(len(recent))]
				if _, err := svc.UpdateSale(target.ID, models.SaleInput{ItemID: itemID, Quantity: qty, PricePerUnit: price}); err != nil {
					t.Fatalf("step %d UpdateSale: %v", step, err)
				}
			}
		case 4:
			if recent := svc.RecentPurchases(0); len(recent) > 0 {
				if err := svc.DeletePurchase(recent[rng.Intn(len(recent))].ID); err != nil {
					t.Fatalf("step %d DeletePurchase: %v", step, err)
				}
			}
		case 5:
			if recent := svc.RecentSales(0); len(recent) > 0 {
				if err := svc.DeleteSale(recent[rng.Intn(len(recent))].ID); err != nil {
					t.Fatalf("step %d DeleteSale: %v", step, err)
				}
			}
		}

		snap := svc.Snapshot()
		expected := make(map[string]decimal.Decimal, len(base))
		for id, q := range base {
			expected[id] = q
		}
		for _, p := range snap.Purchases {
			expected[p.ItemID] = expected[p.ItemID].Add(p.Quantity)
		}
		for _, s := range snap.Sales {
			expected[s.ItemID] = expected[s.ItemID].Sub(s.Quantity)
		}
		for _, item := range snap.Stock {
			if !item.Quantity.Equal(expected[item.ID]) {
				t.Fatalf("step %d: item %s quantity %s, ledger says %s", step, item.ID, item.Quantity, expected[item.ID])
			}
		}
	}
}
