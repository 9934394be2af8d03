package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"restaurant-service/internal/apperr"
	"restaurant-service/internal/ident"
	"restaurant-service/internal/models"
	"restaurant-service/internal/util"
)

// TaxRate is the fixed tax rate applied to every bill. Totals are
// tax-inclusive; subtotal and tax are back-calculated from them.
const TaxRate = 0.18

// aggregateEpsilon is the tolerance when comparing client-supplied
// figures against the aggregator's own computation.
const aggregateEpsilon = 0.01

// Round2 rounds a currency amount to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SplitGross derives the tax-exclusive subtotal and the tax amount from
// a tax-inclusive gross total.
func SplitGross(total float64) (subtotal, tax float64) {
	subtotal = Round2(total / (1 + TaxRate))
	tax = Round2(total - subtotal)
	return subtotal, tax
}

// SettleBillRequest carries a settlement request. The items/subtotal/
// tax/total figures are advisory: the bill is always persisted with the
// aggregator's own computation, and a disagreeing claim is rejected.
type SettleBillRequest struct {
	TableID       string             `json:"tableId" binding:"required"`
	OrderID       string             `json:"orderId,omitempty"`
	Items         []models.OrderItem `json:"items,omitempty"`
	Subtotal      float64            `json:"subtotal,omitempty"`
	Tax           float64            `json:"tax,omitempty"`
	Total         float64            `json:"total,omitempty"`
	PaymentMethod string             `json:"paymentMethod" binding:"required"`
	Notes         string             `json:"notes,omitempty"`
}

// SettleBill closes out a table: it persists an immutable bill, marks
// the referenced order completed (or every open order of the table when
// no order is referenced), then recomputes the table's status as the
// final write.
func (c *Coordinator) SettleBill(ctx context.Context, req *SettleBillRequest) (*models.Bill, error) {
	ctx, span := util.StartSpan(ctx, "Coordinator.SettleBill")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SettlementLatency.Observe(time.Since(start).Seconds())
	}()

	tableID, err := ident.Normalize(req.TableID)
	if err != nil {
		util.BillsRejectedTotal.WithLabelValues("invalid_identifier").Inc()
		return nil, err
	}

	orderID, err := ident.NormalizeOptional(req.OrderID)
	if err != nil {
		util.BillsRejectedTotal.WithLabelValues("invalid_identifier").Inc()
		return nil, err
	}

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		util.BillsRejectedTotal.WithLabelValues("invalid_payment_method").Inc()
		return nil, apperr.New(apperr.CodeInvalidPaymentMethod, "invalid payment method: %s", req.PaymentMethod)
	}

	unlock := c.locks.lock(tableID)
	defer unlock()

	table, err := c.store.GetTable(ctx, tableID)
	if err != nil {
		util.BillsRejectedTotal.WithLabelValues("table_not_found").Inc()
		return nil, err
	}

	agg, err := c.AggregateTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	items := []models.OrderItem{}
	if orderID != nil {
		var settled *models.Order
		for i := range agg.AllOrders {
			if agg.AllOrders[i].ID == *orderID {
				settled = &agg.AllOrders[i]
				break
			}
		}
		if settled == nil {
			util.BillsRejectedTotal.WithLabelValues("order_not_found").Inc()
			return nil, apperr.NotFound("order", orderID.Hex())
		}
		items = append(items, settled.Items...)
	}

	if err := validateClientFigures(req, agg); err != nil {
		util.AggregateMismatchTotal.Inc()
		util.BillsRejectedTotal.WithLabelValues("inconsistent_aggregate").Inc()
		return nil, err
	}

	bill := &models.Bill{
		OrderID:       orderID,
		TableID:       tableID,
		Items:         items,
		Subtotal:      agg.Subtotal,
		Tax:           agg.Tax,
		Total:         agg.Total,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	if err := c.store.InsertBill(ctx, bill); err != nil {
		return nil, err
	}

	var completed int64
	if orderID != nil {
		if _, err := c.store.UpdateOrderStatus(ctx, *orderID, models.OrderStatusCompleted); err != nil {
			return nil, err
		}
		completed = 1
	} else {
		completed, err = c.store.CompleteOpenOrders(ctx, tableID)
		if err != nil {
			return nil, err
		}
	}

	// Derived state last: the status write only happens once every
	// other write of the settlement has succeeded.
	if _, err := c.refreshTableStatus(ctx, tableID, table.Status); err != nil {
		return nil, err
	}

	util.BillsSettledTotal.Inc()
	c.logger.Info("Bill settled",
		util.BillField(bill.ID.Hex()),
		util.TableField(tableID.Hex()),
		zap.Float64("total", bill.Total),
		zap.Int64("orders_completed", completed))

	event := &models.BillSettledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBillSettled,
			Timestamp: c.now(),
		},
		BillID:          bill.ID.Hex(),
		TableID:         tableID.Hex(),
		Total:           bill.Total,
		PaymentMethod:   bill.PaymentMethod,
		OrdersCompleted: completed,
	}
	if orderID != nil {
		event.OrderID = orderID.Hex()
	}
	if err := c.events.PublishBillSettled(ctx, event); err != nil {
		c.logger.Error("Failed to publish BillSettled event", zap.Error(err))
	}

	return bill, nil
}

// validateClientFigures rejects stale client totals. Zero figures are
// treated as no claim.
func validateClientFigures(req *SettleBillRequest, agg *models.TableAggregate) error {
	check := func(name string, claimed, computed float64) error {
		if claimed != 0 && math.Abs(claimed-computed) > aggregateEpsilon {
			return apperr.New(apperr.CodeInconsistentAggregate,
				"%s mismatch: client sent %.2f, aggregator computed %.2f", name, claimed, computed)
		}
		return nil
	}
	if err := check("total", req.Total, agg.Total); err != nil {
		return err
	}
	if err := check("subtotal", req.Subtotal, agg.Subtotal); err != nil {
		return err
	}
	return check("tax", req.Tax, agg.Tax)
}
