package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"restaurant-service/internal/apperr"
	"restaurant-service/internal/models"
)

func TestSplitGross(t *testing.T) {
	tests := []struct {
		total    float64
		subtotal float64
		tax      float64
	}{
		{0, 0, 0},
		{100.00, 84.75, 15.25},
		{118.00, 100.00, 18.00},
		{23.60, 20.00, 3.60},
		{59.00, 50.00, 9.00},
		{0.01, 0.01, 0.00},
	}

	for _, tt := range tests {
		subtotal, tax := SplitGross(tt.total)
		assert.InDelta(t, tt.subtotal, subtotal, 0.001, "subtotal of %.2f", tt.total)
		assert.InDelta(t, tt.tax, tax, 0.001, "tax of %.2f", tt.total)
		assert.InDelta(t, tt.total, subtotal+tax, 0.01, "parts of %.2f must rebuild the total", tt.total)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 84.75, Round2(84.745762711))
	assert.Equal(t, 10.0, Round2(9.999))
	assert.Equal(t, 0.0, Round2(0.001))
}

func TestSettleBillReferencedOrder(t *testing.T) {
	ms := newMemStore()
	c, publisher := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Steak", Quantity: 2, Price: 50.00}
	order := seedOrder(t, ms, table.ID, models.OrderStatusDelivered, item)

	bill, err := c.SettleBill(ctx, &SettleBillRequest{
		TableID:       table.ID.Hex(),
		OrderID:       order.ID.Hex(),
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.InDelta(t, 100.00, bill.Total, 0.001)
	assert.InDelta(t, 84.75, bill.Subtotal, 0.001)
	assert.InDelta(t, 15.25, bill.Tax, 0.001)
	require.NotNil(t, bill.OrderID)
	assert.Equal(t, order.ID, *bill.OrderID)
	require.Len(t, bill.Items, 1)
	assert.Equal(t, "Steak", bill.Items[0].Name)

	settled, err := ms.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, settled.Status)

	stored, err := ms.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, stored.Status)
	assert.Contains(t, publisher.events, models.EventTypeBillSettled)
}

func TestSettleBillWholeTableCompletesAllOpenOrders(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Soup", Quantity: 1, Price: 11.80}
	first := seedOrder(t, ms, table.ID, models.OrderStatusPending, item)
	second := seedOrder(t, ms, table.ID, models.OrderStatusReady, item)

	bill, err := c.SettleBill(ctx, &SettleBillRequest{
		TableID:       table.ID.Hex(),
		PaymentMethod: models.PaymentMethodCreditCard,
	})
	require.NoError(t, err)

	assert.Nil(t, bill.OrderID)
	assert.Empty(t, bill.Items)
	assert.InDelta(t, 23.60, bill.Total, 0.001)

	for _, id := range []primitive.ObjectID{first.ID, second.ID} {
		order, err := ms.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, order.Status)
	}

	stored, err := ms.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, stored.Status)
}

func TestSettleBillAcceptsMatchingClientFigures(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	table := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Steak", Quantity: 2, Price: 50.00}
	order := seedOrder(t, ms, table.ID, models.OrderStatusDelivered, item)

	bill, err := c.SettleBill(context.Background(), &SettleBillRequest{
		TableID:       table.ID.Hex(),
		OrderID:       order.ID.Hex(),
		Subtotal:      84.75,
		Tax:           15.25,
		Total:         100.00,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.00, bill.Total, 0.001)
}

func TestSettleBillRejectsStaleClientTotal(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Steak", Quantity: 2, Price: 50.00}
	order := seedOrder(t, ms, table.ID, models.OrderStatusDelivered, item)

	_, err := c.SettleBill(ctx, &SettleBillRequest{
		TableID:       table.ID.Hex(),
		OrderID:       order.ID.Hex(),
		Total:         50.00,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInconsistentAggregate, apperr.CodeOf(err))

	// Rejection must leave every record untouched.
	bills, err := ms.ListBills(ctx)
	require.NoError(t, err)
	assert.Empty(t, bills)
	untouched, err := ms.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, untouched.Status)
}

func TestSettleBillRejectsUnknownPaymentMethod(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	table := seedTable(t, ms, models.TableStatusOccupied)

	_, err := c.SettleBill(context.Background(), &SettleBillRequest{
		TableID:       table.ID.Hex(),
		PaymentMethod: "barter",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidPaymentMethod, apperr.CodeOf(err))
}

func TestSettleBillRejectsForeignOrder(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	table := seedTable(t, ms, models.TableStatusOccupied)
	other := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Soup", Quantity: 1, Price: 10.00}
	foreign := seedOrder(t, ms, other.ID, models.OrderStatusPending, item)

	_, err := c.SettleBill(context.Background(), &SettleBillRequest{
		TableID:       table.ID.Hex(),
		OrderID:       foreign.ID.Hex(),
		PaymentMethod: models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeEntityNotFound, apperr.CodeOf(err))
}

func TestSettleBillRejectsMalformedIdentifiers(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	_, err := c.SettleBill(context.Background(), &SettleBillRequest{
		TableID:       "not-a-hex-id",
		PaymentMethod: models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidIdentifier, apperr.CodeOf(err))
}

func TestSettleBillEmptyTable(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusAvailable)

	bill, err := c.SettleBill(ctx, &SettleBillRequest{
		TableID:       table.ID.Hex(),
		PaymentMethod: models.PaymentMethodDebitCard,
	})
	require.NoError(t, err)

	assert.Zero(t, bill.Total)
	assert.Zero(t, bill.Subtotal)
	assert.Zero(t, bill.Tax)
	assert.Empty(t, bill.Items)
}
