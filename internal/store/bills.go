package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"restaurant-service/internal/models"
)

// ListBills retrieves all bills, newest first.
func (s *Store) ListBills(ctx context.Context) ([]models.Bill, error) {
	cur, err := s.bills.Find(ctx, bson.M{}, options.Find().SetSort(createdAtDesc))
	if err != nil {
		return nil, storeErr(err)
	}
	bills := []models.Bill{}
	if err := cur.All(ctx, &bills); err != nil {
		return nil, storeErr(err)
	}
	return bills, nil
}

// GetBill retrieves a bill by id.
func (s *Store) GetBill(ctx context.Context, id primitive.ObjectID) (*models.Bill, error) {
	var bill models.Bill
	if err := s.bills.FindOne(ctx, bson.M{"_id": id}).Decode(&bill); err != nil {
		return nil, findErr("bill", id, err)
	}
	return &bill, nil
}

// InsertBill persists a settlement record. Bills are immutable once
// created.
func (s *Store) InsertBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID.IsZero() {
		bill.ID = primitive.NewObjectID()
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now()
	}
	_, err := s.bills.InsertOne(ctx, bill)
	return storeErr(err)
}
