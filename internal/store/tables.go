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

// ListTables retrieves all tables sorted by name.
func (s *Store) ListTables(ctx context.Context) ([]models.Table, error) {
	cur, err := s.tables.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, storeErr(err)
	}
	tables := []models.Table{}
	if err := cur.All(ctx, &tables); err != nil {
		return nil, storeErr(err)
	}
	return tables, nil
}

// ListTablesByStatus retrieves tables whose status is in statuses,
// sorted by name.
func (s *Store) ListTablesByStatus(ctx context.Context, statuses []string) ([]models.Table, error) {
	filter := bson.M{"status": bson.M{"$in": statuses}}
	cur, err := s.tables.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, storeErr(err)
	}
	tables := []models.Table{}
	if err := cur.All(ctx, &tables); err != nil {
		return nil, storeErr(err)
	}
	return tables, nil
}

// GetTable retrieves a table by id.
func (s *Store) GetTable(ctx context.Context, id primitive.ObjectID) (*models.Table, error) {
	var table models.Table
	if err := s.tables.FindOne(ctx, bson.M{"_id": id}).Decode(&table); err != nil {
		return nil, findErr("table", id, err)
	}
	return &table, nil
}

// InsertTable creates a new table.
func (s *Store) InsertTable(ctx context.Context, table *models.Table) error {
	if table.ID.IsZero() {
		table.ID = primitive.NewObjectID()
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now()
	}
	_, err := s.tables.InsertOne(ctx, table)
	return storeErr(err)
}

// UpdateTable replaces an existing table document.
func (s *Store) UpdateTable(ctx context.Context, table *models.Table) error {
	res, err := s.tables.ReplaceOne(ctx, bson.M{"_id": table.ID}, table)
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("table", table.ID.Hex())
	}
	return nil
}

// UpdateTableStatus writes the cached derived status of a table.
func (s *Store) UpdateTableStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.tables.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("table", id.Hex())
	}
	return nil
}

// DeleteTable removes a table by id.
func (s *Store) DeleteTable(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.tables.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("table", id.Hex())
	}
	return nil
}

// CountTablesByStatus counts tables whose status is in statuses.
func (s *Store) CountTablesByStatus(ctx context.Context, statuses []string) (int64, error) {
	n, err := s.tables.CountDocuments(ctx, bson.M{"status": bson.M{"$in": statuses}})
	return n, storeErr(err)
}
