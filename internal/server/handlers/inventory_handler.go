package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/service/inventory"
	"github.com/mamadbah2/stockbook/internal/service/reporting"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Inventory is the reconciler surface exposed over HTTP.
type Inventory interface {
	ListStock() []models.StockItem
	Item(id string) (models.StockItem, error)
	RecordPurchase(in models.PurchaseInput) (models.Purchase, error)
	UpdatePurchase(id string, in models.PurchaseInput) (models.Purchase, error)
	DeletePurchase(id string) error
	FindPurchase(id string) (models.Purchase, error)
	RecentPurchases(n int) []models.Purchase
	RecordSale(in models.SaleInput) (models.Sale, error)
	UpdateSale(id string, in models.SaleInput) (models.Sale, error)
	DeleteSale(id string) error
	FindSale(id string) (models.Sale, error)
	RecentSales(n int) []models.Sale
	EnsureSellable(editingSaleID string, in models.SaleInput) error
}

// Reports is the reporting surface exposed over HTTP.
type Reports interface {
	ParseDate(value string) (time.Time, error)
	DailyReport(date time.Time) models.DailyReport
	LowStockItems() []models.StockItem
}

// InventoryHandler serves stock, ledger and report endpoints.
type InventoryHandler struct {
	inventory     Inventory
	reports       Reports
	allowOversell bool
	logger        *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(inv Inventory, reports Reports, allowOversell bool, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{inventory: inv, reports: reports, allowOversell: allowOversell, logger: logger}
}

// ListStock returns every catalog item with its current quantity and the stock totals.
func (h *InventoryHandler) ListStock(c *gin.Context) {
	items := h.inventory.ListStock()
	c.JSON(http.StatusOK, gin.H{
		"items":           items,
		"valuation":       reporting.StockValuation(items),
		"low_stock_count": len(reporting.LowStockItems(items)),
	})
}

// GetItem returns one catalog item.
func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.inventory.Item(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// LowStock returns the items at or below their reorder level.
func (h *InventoryHandler) LowStock(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.reports.LowStockItems()})
}

// ListPurchases returns purchases newest first, optionally capped by ?limit.
func (h *InventoryHandler) ListPurchases(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": h.inventory.RecentPurchases(limit)})
}

// GetPurchase returns one purchase.
func (h *InventoryHandler) GetPurchase(c *gin.Context) {
	p, err := h.inventory.FindPurchase(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreatePurchase records a purchase.
func (h *InventoryHandler) CreatePurchase(c *gin.Context) {
	var in models.PurchaseInput
	if !h.bind(c, &in) {
		return
	}
	p, err := h.inventory.RecordPurchase(in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePurchase replaces a purchase.
func (h *InventoryHandler) UpdatePurchase(c *gin.Context) {
	var in models.PurchaseInput
	if !h.bind(c, &in) {
		return
	}
	p, err := h.inventory.UpdatePurchase(c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePurchase removes a purchase.
func (h *InventoryHandler) DeletePurchase(c *gin.Context) {
	if err := h.inventory.DeletePurchase(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSales returns sales newest first, optionally capped by ?limit.
func (h *InventoryHandler) ListSales(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": h.inventory.RecentSales(limit)})
}

// GetSale returns one sale.
func (h *InventoryHandler) GetSale(c *gin.Context) {
	s, err := h.inventory.FindSale(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// CreateSale records a sale, refusing over-sells unless they are allowed.
func (h *InventoryHandler) CreateSale(c *gin.Context) {
	var in models.SaleInput
	if !h.bind(c, &in) {
		return
	}
	if !h.allowOversell {
		if err := h.inventory.EnsureSellable("", in); err != nil {
			h.writeError(c, err)
			return
		}
	}
	s, err := h.inventory.RecordSale(in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// UpdateSale replaces a sale. The sale's own quantity counts as available.
func (h *InventoryHandler) UpdateSale(c *gin.Context) {
	var in models.SaleInput
	if !h.bind(c, &in) {
		return
	}
	id := c.Param("id")
	if !h.allowOversell {
		if err := h.inventory.EnsureSellable(id, in); err != nil {
			h.writeError(c, err)
			return
		}
	}
	s, err := h.inventory.UpdateSale(id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// DeleteSale removes a sale.
func (h *InventoryHandler) DeleteSale(c *gin.Context) {
	if err := h.inventory.DeleteSale(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DailyReport returns the report for ?date (YYYY-MM-DD, default today).
func (h *InventoryHandler) DailyReport(c *gin.Context) {
	date, err := h.reports.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.reports.DailyReport(date))
}

// ExportDailyReport streams the report for ?date as an xlsx workbook.
func (h *InventoryHandler) ExportDailyReport(c *gin.Context) {
	date, err := h.reports.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report := h.reports.DailyReport(date)

	var buf bytes.Buffer
	if err := reporting.WriteDailyWorkbook(&buf, report); err != nil {
		h.logger.Error("failed to render daily workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export report"})
		return
	}

	filename := fmt.Sprintf("daily-report-%s.xlsx", report.Date.Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *InventoryHandler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *InventoryHandler) limit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

func (h *InventoryHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, inventory.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, inventory.ErrItemNotFound), errors.Is(err, inventory.ErrTransactionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, inventory.ErrInsufficientStock):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
