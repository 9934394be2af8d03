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

// ListMenuItems retrieves all menu items sorted by category then name.
func (s *Store) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	sort := bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}
	cur, err := s.menuItems.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, storeErr(err)
	}
	items := []models.MenuItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// GetMenuItemsByIDs retrieves multiple menu items by id.
func (s *Store) GetMenuItemsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}
	cur, err := s.menuItems.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storeErr(err)
	}
	items := []models.MenuItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// InsertMenuItem creates a new menu item.
func (s *Store) InsertMenuItem(ctx context.Context, item *models.MenuItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	_, err := s.menuItems.InsertOne(ctx, item)
	return storeErr(err)
}

// UpdateMenuItem replaces an existing menu item document.
func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	res, err := s.menuItems.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("menu item", item.ID.Hex())
	}
	return nil
}

// DeleteMenuItem removes a menu item by id.
func (s *Store) DeleteMenuItem(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.menuItems.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("menu item", id.Hex())
	}
	return nil
}
