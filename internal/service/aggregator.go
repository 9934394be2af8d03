package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"
)

// AggregateTable partitions a table's non-cancelled orders into active
// and all, and derives tax-inclusive gross figures over the full set.
// A table with zero orders yields an empty aggregate, not an error.
func (c *Coordinator) AggregateTable(ctx context.Context, tableID primitive.ObjectID) (*models.TableAggregate, error) {
	ctx, span := util.StartSpan(ctx, "Coordinator.AggregateTable")
	defer span.End()

	orders, err := c.store.GetTableOrders(ctx, tableID)
	if err != nil {
		return nil, err
	}

	agg := &models.TableAggregate{
		ActiveOrders: []models.Order{},
		AllOrders:    orders,
	}

	var total float64
	for _, order := range orders {
		for _, item := range order.Items {
			total += item.Price * float64(item.Quantity)
		}
		if order.Status != models.OrderStatusCompleted {
			agg.ActiveOrders = append(agg.ActiveOrders, order)
		}
	}

	agg.Total = Round2(total)
	agg.Subtotal, agg.Tax = SplitGross(agg.Total)
	return agg, nil
}
