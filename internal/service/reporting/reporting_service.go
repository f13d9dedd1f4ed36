package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/service/inventory"
)

const dateLayout = "2006-01-02"

// SnapshotSource provides consistent copies of stock and ledger.
type SnapshotSource interface {
	Snapshot() inventory.Snapshot
}

// Service answers report queries against the current ledger.
type Service struct {
	source SnapshotSource
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. Calendar days are
// evaluated in loc.
func NewService(source SnapshotSource, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{source: source, loc: loc, logger: logger, now: time.Now}
}

// Location returns the shop calendar location.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current time in the shop location.
func (s *Service) Today() time.Time {
	return s.now().In(s.loc)
}

// TransactionsOnDate returns the purchases and sales of the given calendar day.
func (s *Service) TransactionsOnDate(date time.Time) ([]models.Purchase, []models.Sale) {
	snap := s.source.Snapshot()
	return TransactionsOnDate(snap.Purchases, snap.Sales, date, s.loc)
}

// DailyTotals aggregates the given calendar day.
func (s *Service) DailyTotals(date time.Time) models.DailyTotals {
	return ComputeDailyTotals(s.TransactionsOnDate(date))
}

// LowStockItems lists catalog items at or below their reorder level.
func (s *Service) LowStockItems() []models.StockItem {
	return LowStockItems(s.source.Snapshot().Stock)
}

// StockValuation values current stock at catalog prices.
func (s *Service) StockValuation() decimal.Decimal {
	return StockValuation(s.source.Snapshot().Stock)
}

// DailyReport builds the full report for one day from a single snapshot.
func (s *Service) DailyReport(date time.Time) models.DailyReport {
	snap := s.source.Snapshot()
	purchases, sales := TransactionsOnDate(snap.Purchases, snap.Sales, date, s.loc)
	day := date.In(s.loc)

	report := models.DailyReport{
		Date:           time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc),
		Totals:         ComputeDailyTotals(purchases, sales),
		Purchases:      purchases,
		Sales:          sales,
		LowStock:       LowStockItems(snap.Stock),
		StockValuation: StockValuation(snap.Stock),
		CreatedAt:      s.now().UTC(),
	}

	s.logger.Debug("daily report built",
		zap.String("date", report.Date.Format(dateLayout)),
		zap.Int("transactions", report.Totals.TransactionCount),
		zap.Int("low_stock", len(report.LowStock)))
	return report
}

// ParseDate reads a YYYY-MM-DD date in the shop location. An empty value means today.
func (s *Service) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.Today(), nil
	}
	date, err := time.ParseInLocation(dateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse report date %q: %w", value, err)
	}
	return date, nil
}

// FormatDailySummary renders a report as a chat message.
func FormatDailySummary(report models.DailyReport) string {
	var b strings.Builder
	t := report.Totals

	fmt.Fprintf(&b, "Daily summary %s\n", report.Date.Format(dateLayout))
	fmt.Fprintf(&b, "Purchases: %s (%s bought)\n", t.PurchaseTotal.StringFixed(2), t.PurchaseQty.StringFixed(2))
	fmt.Fprintf(&b, "Sales: %s (%s sold)\n", t.SaleTotal.StringFixed(2), t.SaleQty.StringFixed(2))

	label := "Profit"
	if t.NetProfit.IsNegative() {
		label = "Loss"
	}
	fmt.Fprintf(&b, "%s: %s across %d transactions\n", label, t.NetProfit.Abs().StringFixed(2), t.TransactionCount)
	fmt.Fprintf(&b, "Stock value: %s", report.StockValuation.StringFixed(2))

	if len(report.LowStock) > 0 {
		b.WriteString("\nLow stock:")
		for _, item := range report.LowStock {
			fmt.Fprintf(&b, "\n- %s: %s %s (reorder at %s)", item.DisplayName(), item.Quantity.String(), item.Unit, item.ReorderLevel.String())
		}
	}

	return b.String()
}

// FormatStock renders the catalog as a chat message.
func FormatStock(items []models.StockItem) string {
	if len(items) == 0 {
		return "No stock items."
	}

	var b strings.Builder
	b.WriteString("Current stock:")
	for _, item := range items {
		marker := ""
		if item.IsLowStock() {
			marker = " [LOW]"
		}
		fmt.Fprintf(&b, "\n%s. %s: %s %s%s", item.ID, item.DisplayName(), item.Quantity.String(), item.Unit, marker)
	}
	fmt.Fprintf(&b, "\nTotal value: %s", StockValuation(items).StringFixed(2))
	return b.String()
}
