package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/service/inventory"
	"github.com/mamadbah2/stockbook/internal/service/reporting"
)

const namespace = "stockbook"

// Recorder exports ledger activity and stock levels as Prometheus metrics.
type Recorder struct {
	transactions  *prometheus.CounterVec
	itemQuantity  *prometheus.GaugeVec
	lowStockItems prometheus.Gauge
	valuation     prometheus.Gauge
	reports       *prometheus.CounterVec
}

var _ inventory.Observer = (*Recorder)(nil)

// NewRecorder registers the shop collectors on reg. A nil reg uses the default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Ledger mutations by transaction kind and action.",
		}, []string{"kind", "action"}),
		itemQuantity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_quantity",
			Help:      "Current quantity on hand per catalog item.",
		}, []string{"item_id"}),
		lowStockItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "low_stock_items",
			Help:      "Number of items at or below their reorder level.",
		}),
		valuation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_valuation",
			Help:      "Value of current stock at catalog prices.",
		}),
		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_reports_total",
			Help:      "Scheduled daily reports by outcome.",
		}, []string{"outcome"}),
	}
}

// TransactionChanged counts one ledger mutation.
func (r *Recorder) TransactionChanged(kind models.TransactionKind, action inventory.Action) {
	r.transactions.WithLabelValues(string(kind), string(action)).Inc()
}

// StockChanged refreshes the stock gauges from a catalog snapshot.
func (r *Recorder) StockChanged(items []models.StockItem) {
	for _, item := range items {
		r.itemQuantity.WithLabelValues(item.ID).Set(item.Quantity.InexactFloat64())
	}
	r.lowStockItems.Set(float64(len(reporting.LowStockItems(items))))
	r.valuation.Set(reporting.StockValuation(items).InexactFloat64())
}

// ReportRun counts a scheduled report run. err == nil counts as success.
func (r *Recorder) ReportRun(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.reports.WithLabelValues(outcome).Inc()
}
