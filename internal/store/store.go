package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"restaurant-service/internal/apperr"
)

// Store wraps the document store. It offers no multi-document
// transactions; callers order their writes so derived state goes last.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	tables       *mongo.Collection
	menuItems    *mongo.Collection
	reservations *mongo.Collection
	orders       *mongo.Collection
	bills        *mongo.Collection
}

// NewStore connects to MongoDB and binds the five collections.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	return &Store{
		client:       client,
		db:           db,
		tables:       db.Collection("tables"),
		menuItems:    db.Collection("menu_items"),
		reservations: db.Collection("reservations"),
		orders:       db.Collection("orders"),
		bills:        db.Collection("bills"),
	}, nil
}

// Close disconnects from the store.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// findErr maps a lookup failure onto the error taxonomy.
func findErr(entity string, id primitive.ObjectID, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(entity, id.Hex())
	}
	return apperr.StoreUnavailable(err)
}

// storeErr maps a non-lookup failure onto the error taxonomy.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return apperr.StoreUnavailable(err)
}
