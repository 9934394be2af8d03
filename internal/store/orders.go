package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"restaurant-service/internal/apperr"
	"restaurant-service/internal/models"
)

var createdAtDesc = bson.D{{Key: "createdAt", Value: -1}}

// ListOpenOrders retrieves orders that are neither completed nor
// cancelled, newest first.
func (s *Store) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	filter := bson.M{"status": bson.M{"$nin": bson.A{models.OrderStatusCompleted, models.OrderStatusCancelled}}}
	cur, err := s.orders.Find(ctx, filter, options.Find().SetSort(createdAtDesc))
	if err != nil {
		return nil, storeErr(err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, storeErr(err)
	}
	return orders, nil
}

// GetOrder retrieves an order by id.
func (s *Store) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, findErr("order", id, err)
	}
	return &order, nil
}

// GetTableOrders retrieves all non-cancelled orders for a table,
// newest first. Completed orders are included.
func (s *Store) GetTableOrders(ctx context.Context, tableID primitive.ObjectID) ([]models.Order, error) {
	filter := bson.M{
		"tableId": tableID,
		"status":  bson.M{"$ne": models.OrderStatusCancelled},
	}
	cur, err := s.orders.Find(ctx, filter, options.Find().SetSort(createdAtDesc))
	if err != nil {
		return nil, storeErr(err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, storeErr(err)
	}
	return orders, nil
}

// InsertOrder creates a new order.
func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	_, err := s.orders.InsertOne(ctx, order)
	return storeErr(err)
}

// ReplaceOrder fully replaces an order document, keeping its identity.
func (s *Store) ReplaceOrder(ctx context.Context, order *models.Order) error {
	res, err := s.orders.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("order", order.ID.Hex())
	}
	return nil
}

// UpdateOrderStatus updates an order's status and returns the updated
// document.
func (s *Store) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		opts,
	).Decode(&order)
	if err != nil {
		return nil, findErr("order", id, err)
	}
	return &order, nil
}

// CompleteOpenOrders marks every non-cancelled, non-completed order of
// a table completed and reports how many were touched.
func (s *Store) CompleteOpenOrders(ctx context.Context, tableID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"tableId": tableID,
		"status":  bson.M{"$nin": bson.A{models.OrderStatusCompleted, models.OrderStatusCancelled}},
	}
	res, err := s.orders.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": models.OrderStatusCompleted}})
	if err != nil {
		return 0, storeErr(err)
	}
	return res.ModifiedCount, nil
}

// CountActiveOrders counts a table's orders that are neither completed
// nor cancelled.
func (s *Store) CountActiveOrders(ctx context.Context, tableID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"tableId": tableID,
		"status":  bson.M{"$in": models.ActiveOrderStatuses},
	}
	n, err := s.orders.CountDocuments(ctx, filter)
	return n, storeErr(err)
}

// CountOrdersByStatus counts orders whose status is in statuses.
func (s *Store) CountOrdersByStatus(ctx context.Context, statuses []string) (int64, error) {
	n, err := s.orders.CountDocuments(ctx, bson.M{"status": bson.M{"$in": statuses}})
	return n, storeErr(err)
}
