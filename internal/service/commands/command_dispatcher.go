package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/service/inventory"
	"github.com/mamadbah2/stockbook/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// HelpText lists the supported chat commands.
const HelpText = `Shop commands:
/stock - current stock
/low - items at or below reorder level
/summary [YYYY-MM-DD] - daily summary
/buy <item id> <qty> <price> <supplier> - record a purchase
/sell <item id> <qty> <price> [customer] - record a sale
/help - this message`

// Inventory is the subset of the reconciler the dispatcher drives.
type Inventory interface {
	ListStock() []models.StockItem
	RecordPurchase(in models.PurchaseInput) (models.Purchase, error)
	RecordSale(in models.SaleInput) (models.Sale, error)
	EnsureSellable(editingSaleID string, in models.SaleInput) error
}

// Reports is the subset of the reporting service the dispatcher reads.
type Reports interface {
	DailyReport(date time.Time) models.DailyReport
	ParseDate(value string) (time.Time, error)
}

// Dispatcher executes parsed chat commands and renders the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	inventory     Inventory
	reports       Reports
	allowOversell bool
	logger        *zap.Logger
}

// NewService constructs a command dispatcher. Sales beyond the available
// quantity are refused unless allowOversell is set.
func NewService(inv Inventory, reports Reports, allowOversell bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		inventory:     inv,
		reports:       reports,
		allowOversell: allowOversell,
		logger:        logger,
	}
}

// HandleCommand runs the command and returns the reply for the sender.
func (s *Service) HandleCommand(_ context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandStock:
		return reporting.FormatStock(s.inventory.ListStock()), nil
	case models.CommandLowStock:
		return formatLowStock(reporting.LowStockItems(s.inventory.ListStock())), nil
	case models.CommandSummary:
		value := ""
		if len(cmd.Args) > 0 {
			value = cmd.Args[0]
		}
		date, err := s.reports.ParseDate(value)
		if err != nil {
			return "", fmt.Errorf("%w: date must look like 2006-01-02", ErrInvalidArguments)
		}
		return reporting.FormatDailySummary(s.reports.DailyReport(date)), nil
	case models.CommandBuy:
		in, err := buildPurchaseInput(cmd)
		if err != nil {
			return "", err
		}
		p, err := s.inventory.RecordPurchase(in)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Purchase recorded: %s %s @ %s from %s (total %s). Ref %s.",
			p.Quantity.String(), p.ItemName, p.PricePerUnit.StringFixed(2), p.SupplierName, p.TotalAmount.StringFixed(2), p.ID), nil
	case models.CommandSell:
		in, err := buildSaleInput(cmd)
		if err != nil {
			return "", err
		}
		if !s.allowOversell {
			if err := s.inventory.EnsureSellable("", in); err != nil {
				return "", err
			}
		}
		sale, err := s.inventory.RecordSale(in)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Sale recorded: %s %s @ %s to %s (total %s). Ref %s.",
			sale.Quantity.String(), sale.ItemName, sale.PricePerUnit.StringFixed(2), sale.Customer(), sale.TotalAmount.StringFixed(2), sale.ID), nil
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// ErrorReply turns a dispatch error into a message fit for the chat user.
func ErrorReply(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedCommand):
		return "Unknown command.\n" + HelpText
	case errors.Is(err, ErrInvalidArguments), errors.Is(err, inventory.ErrInvalidInput):
		return "Could not read that command: " + err.Error() + "\nSend /help for the expected format."
	case errors.Is(err, inventory.ErrItemNotFound):
		return "Unknown item. Send /stock to see item ids."
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "Not enough stock: " + err.Error()
	default:
		return "Something went wrong, please try again."
	}
}

func buildPurchaseInput(cmd models.Command) (models.PurchaseInput, error) {
	if len(cmd.Args) < 4 {
		return models.PurchaseInput{}, fmt.Errorf("%w: /buy needs item id, quantity, price and supplier", ErrInvalidArguments)
	}
	qty, price, err := parseAmounts(cmd.Args[1], cmd.Args[2])
	if err != nil {
		return models.PurchaseInput{}, err
	}
	return models.PurchaseInput{
		ItemID:       cmd.Args[0],
		Quantity:     qty,
		PricePerUnit: price,
		SupplierName: strings.Join(cmd.Args[3:], " "),
	}, nil
}

func buildSaleInput(cmd models.Command) (models.SaleInput, error) {
	if len(cmd.Args) < 3 {
		return models.SaleInput{}, fmt.Errorf("%w: /sell needs item id, quantity and price", ErrInvalidArguments)
	}
	qty, price, err := parseAmounts(cmd.Args[1], cmd.Args[2])
	if err != nil {
		return models.SaleInput{}, err
	}
	in := models.SaleInput{ItemID: cmd.Args[0], Quantity: qty, PricePerUnit: price}
	if len(cmd.Args) > 3 {
		in.CustomerName = strings.Join(cmd.Args[3:], " ")
	}
	return in, nil
}

func parseAmounts(rawQty, rawPrice string) (decimal.Decimal, decimal.Decimal, error) {
	qty, err := decimal.NewFromString(rawQty)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: quantity %q is not a number", ErrInvalidArguments, rawQty)
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: price %q is not a number", ErrInvalidArguments, rawPrice)
	}
	return qty, price, nil
}

func formatLowStock(items []models.StockItem) string {
	if len(items) == 0 {
		return "All items are above their reorder level."
	}
	var b strings.Builder
	b.WriteString("Low stock:")
	for _, item := range items {
		fmt.Fprintf(&b, "\n%s. %s: %s %s (reorder at %s)", item.ID, item.DisplayName(), item.Quantity.String(), item.Unit, item.ReorderLevel.String())
	}
	return b.String()
}
