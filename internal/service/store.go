package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"restaurant-service/internal/models"
)

// Store is the document-store surface the coordinator depends on. It
// offers no multi-document transactions, so every multi-write operation
// orders its derived-state write last.
type Store interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	ListTablesByStatus(ctx context.Context, statuses []string) ([]models.Table, error)
	GetTable(ctx context.Context, id primitive.ObjectID) (*models.Table, error)
	InsertTable(ctx context.Context, table *models.Table) error
	UpdateTable(ctx context.Context, table *models.Table) error
	UpdateTableStatus(ctx context.Context, id primitive.ObjectID, status string) error
	DeleteTable(ctx context.Context, id primitive.ObjectID) error
	CountTablesByStatus(ctx context.Context, statuses []string) (int64, error)

	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	GetMenuItemsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error)
	InsertMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id primitive.ObjectID) error

	ListReservations(ctx context.Context) ([]models.Reservation, error)
	GetReservation(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error)
	InsertReservation(ctx context.Context, reservation *models.Reservation) error
	UpdateReservation(ctx context.Context, reservation *models.Reservation) error
	DeleteReservation(ctx context.Context, id primitive.ObjectID) error
	CountActiveReservations(ctx context.Context, tableID primitive.ObjectID, from time.Time) (int64, error)

	ListOpenOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetTableOrders(ctx context.Context, tableID primitive.ObjectID) ([]models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	ReplaceOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error)
	CompleteOpenOrders(ctx context.Context, tableID primitive.ObjectID) (int64, error)
	CountActiveOrders(ctx context.Context, tableID primitive.ObjectID) (int64, error)
	CountOrdersByStatus(ctx context.Context, statuses []string) (int64, error)

	ListBills(ctx context.Context) ([]models.Bill, error)
	GetBill(ctx context.Context, id primitive.ObjectID) (*models.Bill, error)
	InsertBill(ctx context.Context, bill *models.Bill) error
}

// EventPublisher publishes domain events after store writes commit.
// Publish failures are logged, never propagated.
type EventPublisher interface {
	PublishTableStatusChanged(ctx context.Context, event *models.TableStatusChangedEvent) error
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishReservationCreated(ctx context.Context, event *models.ReservationCreatedEvent) error
	PublishReservationDeleted(ctx context.Context, event *models.ReservationDeletedEvent) error
	PublishBillSettled(ctx context.Context, event *models.BillSettledEvent) error
}

// Cache holds read-side caches for the dashboard and the menu listing.
type Cache interface {
	GetDashboard(ctx context.Context) (*models.DashboardInfo, error)
	SetDashboard(ctx context.Context, info *models.DashboardInfo, ttl time.Duration) error
	InvalidateDashboard(ctx context.Context) error
	GetMenu(ctx context.Context) ([]models.MenuItem, error)
	SetMenu(ctx context.Context, items []models.MenuItem, ttl time.Duration) error
	InvalidateMenu(ctx context.Context) error
}
