package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

const (
	summarySheet   = "Summary"
	purchasesSheet = "Purchases"
	salesSheet     = "Sales"
	lowStockSheet  = "Low Stock"
	timeLayout     = "2006-01-02 15:04"
)

// WriteDailyWorkbook writes the report as an xlsx workbook with one sheet per section.
func WriteDailyWorkbook(w io.Writer, report models.DailyReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), summarySheet); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{purchasesSheet, salesSheet, lowStockSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	t := report.Totals
	summary := [][]interface{}{
		{"Date", report.Date.Format(dateLayout)},
		{"Purchase total", t.PurchaseTotal.InexactFloat64()},
		{"Purchase quantity", t.PurchaseQty.InexactFloat64()},
		{"Sale total", t.SaleTotal.InexactFloat64()},
		{"Sale quantity", t.SaleQty.InexactFloat64()},
		{"Net profit", t.NetProfit.InexactFloat64()},
		{"Transactions", t.TransactionCount},
		{"Stock valuation", report.StockValuation.InexactFloat64()},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	purchases := [][]interface{}{{"Time", "Item", "Supplier", "Quantity", "Price per unit", "Total"}}
	for _, p := range report.Purchases {
		purchases = append(purchases, []interface{}{
			p.Date.In(report.Date.Location()).Format(timeLayout),
			p.ItemName,
			p.SupplierName,
			p.Quantity.InexactFloat64(),
			p.PricePerUnit.InexactFloat64(),
			p.TotalAmount.InexactFloat64(),
		})
	}
	if err := writeRows(f, purchasesSheet, purchases); err != nil {
		return err
	}

	sales := [][]interface{}{{"Time", "Item", "Customer", "Quantity", "Price per unit", "Total"}}
	for _, s := range report.Sales {
		sales = append(sales, []interface{}{
			s.Date.In(report.Date.Location()).Format(timeLayout),
			s.ItemName,
			s.Customer(),
			s.Quantity.InexactFloat64(),
			s.PricePerUnit.InexactFloat64(),
			s.TotalAmount.InexactFloat64(),
		})
	}
	if err := writeRows(f, salesSheet, sales); err != nil {
		return err
	}

	low := [][]interface{}{{"Item", "Quantity", "Unit", "Reorder level"}}
	for _, item := range report.LowStock {
		low = append(low, []interface{}{
			item.DisplayName(),
			item.Quantity.InexactFloat64(),
			item.Unit,
			item.ReorderLevel.InexactFloat64(),
		})
	}
	if err := writeRows(f, lowStockSheet, low); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
