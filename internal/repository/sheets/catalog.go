package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// ErrEmptyCatalog is returned when the catalog range holds no item rows.
var ErrEmptyCatalog = errors.New("catalog sheet is empty")

// Catalog columns, in sheet order: id, name, variety, quantity, unit, price per unit, reorder level.
const catalogColumns = 7

// LoadCatalog reads the seed catalog from sheetRange. Blank rows are skipped.
func LoadCatalog(ctx context.Context, repo Repository, sheetRange string) ([]models.StockItem, error) {
	rows, err := repo.ReadRange(ctx, sheetRange)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	items := make([]models.StockItem, 0, len(rows))
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		item, err := parseCatalogRow(row)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", i+1, err)
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	return items, nil
}

func parseCatalogRow(row []interface{}) (models.StockItem, error) {
	cells := make([]string, catalogColumns)
	for i := 0; i < catalogColumns && i < len(row); i++ {
		cells[i] = strings.TrimSpace(fmt.Sprint(row[i]))
	}

	if cells[0] == "" {
		return models.StockItem{}, errors.New("missing item id")
	}
	if cells[1] == "" {
		return models.StockItem{}, errors.New("missing item name")
	}

	qty, err := parseAmount("quantity", cells[3])
	if err != nil {
		return models.StockItem{}, err
	}
	price, err := parseAmount("price per unit", cells[5])
	if err != nil {
		return models.StockItem{}, err
	}
	reorder, err := parseAmount("reorder level", cells[6])
	if err != nil {
		return models.StockItem{}, err
	}

	unit := cells[4]
	if unit == "" {
		unit = "kg"
	}

	return models.StockItem{
		ID:           cells[0],
		Name:         cells[1],
		Variety:      cells[2],
		Quantity:     qty,
		Unit:         unit,
		PricePerUnit: price,
		ReorderLevel: reorder,
	}, nil
}

// parseAmount accepts sheet-formatted numbers such as "1,250.50". Empty means zero.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

func blankRow(row []interface{}) bool {
	for _, cell := range row {
		if strings.TrimSpace(fmt.Sprint(cell)) != "" {
			return false
		}
	}
	return true
}
