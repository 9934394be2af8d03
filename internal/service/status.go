package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"
)

// DeriveTableStatus computes a table's status from the aggregate of its
// active orders and reservations: any active order wins, then any
// active reservation, then available. The stored status field is only a
// cache of this function's last result.
func DeriveTableStatus(activeOrders, activeReservations int64) string {
	if activeOrders > 0 {
		return models.TableStatusOccupied
	}
	if activeReservations > 0 {
		return models.TableStatusReserved
	}
	return models.TableStatusAvailable
}

// startOfToday is the lower bound for reservations still counted
// against a table.
func (c *Coordinator) startOfToday() time.Time {
	now := c.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// refreshTableStatus recomputes a table's status from the store and
// writes it back when it changed. Callers invoke it as the final step
// of any operation that could affect the aggregate, inside the
// per-table lock, so an earlier failure never leaves a stale write.
func (c *Coordinator) refreshTableStatus(ctx context.Context, tableID primitive.ObjectID, oldStatus string) (string, error) {
	activeOrders, err := c.store.CountActiveOrders(ctx, tableID)
	if err != nil {
		return "", err
	}

	activeReservations, err := c.store.CountActiveReservations(ctx, tableID, c.startOfToday())
	if err != nil {
		return "", err
	}

	status := DeriveTableStatus(activeOrders, activeReservations)
	if status == oldStatus {
		return status, nil
	}

	if err := c.store.UpdateTableStatus(ctx, tableID, status); err != nil {
		return "", err
	}

	util.TableStatusTransitionsTotal.WithLabelValues(status).Inc()
	c.logger.Info("Table status changed",
		util.TableField(tableID.Hex()),
		zap.String("old_status", oldStatus),
		zap.String("new_status", status))

	event := &models.TableStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTableStatusChanged,
			Timestamp: c.now(),
		},
		TableID:   tableID.Hex(),
		OldStatus: oldStatus,
		NewStatus: status,
	}
	if err := c.events.PublishTableStatusChanged(ctx, event); err != nil {
		c.logger.Error("Failed to publish TableStatusChanged event", zap.Error(err))
	}

	return status, nil
}
