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

// ListReservations retrieves all reservations sorted by date then time.
func (s *Store) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	sort := bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}}
	cur, err := s.reservations.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, storeErr(err)
	}
	reservations := []models.Reservation{}
	if err := cur.All(ctx, &reservations); err != nil {
		return nil, storeErr(err)
	}
	return reservations, nil
}

// GetReservation retrieves a reservation by id.
func (s *Store) GetReservation(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := s.reservations.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation); err != nil {
		return nil, findErr("reservation", id, err)
	}
	return &reservation, nil
}

// InsertReservation creates a new reservation.
func (s *Store) InsertReservation(ctx context.Context, reservation *models.Reservation) error {
	if reservation.ID.IsZero() {
		reservation.ID = primitive.NewObjectID()
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = time.Now()
	}
	_, err := s.reservations.InsertOne(ctx, reservation)
	return storeErr(err)
}

// UpdateReservation replaces an existing reservation document.
func (s *Store) UpdateReservation(ctx context.Context, reservation *models.Reservation) error {
	res, err := s.reservations.ReplaceOne(ctx, bson.M{"_id": reservation.ID}, reservation)
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("reservation", reservation.ID.Hex())
	}
	return nil
}

// DeleteReservation removes a reservation by id.
func (s *Store) DeleteReservation(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.reservations.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("reservation", id.Hex())
	}
	return nil
}

// CountActiveReservations counts non-cancelled reservations for a table
// dated from or later.
func (s *Store) CountActiveReservations(ctx context.Context, tableID primitive.ObjectID, from time.Time) (int64, error) {
	filter := bson.M{
		"tableId": tableID,
		"status":  bson.M{"$ne": models.ReservationStatusCancelled},
		"date":    bson.M{"$gte": from},
	}
	n, err := s.reservations.CountDocuments(ctx, filter)
	return n, storeErr(err)
}
