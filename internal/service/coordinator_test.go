package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"restaurant-service/internal/apperr"
	"restaurant-service/internal/models"
)

func seedMenuItem(t *testing.T, ms *memStore, name string, price float64) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		Name:     name,
		Category: models.CategoryMainCourses,
		Price:    price,
		Stock:    100,
		Active:   true,
	}
	require.NoError(t, ms.InsertMenuItem(context.Background(), item))
	return item
}

func TestSaveOrderSnapshotsMenuItems(t *testing.T) {
	ms := newMemStore()
	c, publisher := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusAvailable)
	steak := seedMenuItem(t, ms, "Steak", 50.00)

	order, err := c.SaveOrder(ctx, &SaveOrderRequest{
		TableID: table.ID.Hex(),
		Items:   []OrderItemRequest{{MenuItemID: steak.ID.Hex(), Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 100.00, order.Total, 0.001)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Steak", order.Items[0].Name)
	assert.InDelta(t, 50.00, order.Items[0].Price, 0.001)

	stored, err := ms.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, stored.Status)
	assert.Contains(t, publisher.events, models.EventTypeOrderCreated)
}

func TestSaveOrderIgnoresClientPriceOnCreate(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	table := seedTable(t, ms, models.TableStatusAvailable)
	steak := seedMenuItem(t, ms, "Steak", 50.00)

	order, err := c.SaveOrder(context.Background(), &SaveOrderRequest{
		TableID: table.ID.Hex(),
		Items: []OrderItemRequest{{
			MenuItemID: steak.ID.Hex(),
			Name:       "Free Steak",
			Quantity:   1,
			Price:      0.01,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Steak", order.Items[0].Name)
	assert.InDelta(t, 50.00, order.Items[0].Price, 0.001)
}

func TestMenuEditDoesNotReachFrozenOrder(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusAvailable)
	steak := seedMenuItem(t, ms, "Steak", 50.00)

	order, err := c.SaveOrder(ctx, &SaveOrderRequest{
		TableID: table.ID.Hex(),
		Items:   []OrderItemRequest{{MenuItemID: steak.ID.Hex(), Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = c.SaveMenuItem(ctx, &SaveMenuItemRequest{
		ID:       steak.ID.Hex(),
		Name:     "Steak Deluxe",
		Category: models.CategoryMainCourses,
		Price:    75.00,
		Stock:    100,
	})
	require.NoError(t, err)

	frozen, err := ms.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Steak", frozen.Items[0].Name)
	assert.InDelta(t, 50.00, frozen.Items[0].Price, 0.001)
	assert.InDelta(t, 100.00, frozen.Total, 0.001)
}

func TestSaveOrderRejectsUnknownTable(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	steak := seedMenuItem(t, ms, "Steak", 50.00)

	_, err := c.SaveOrder(context.Background(), &SaveOrderRequest{
		TableID: primitive.NewObjectID().Hex(),
		Items:   []OrderItemRequest{{MenuItemID: steak.ID.Hex(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidReference, apperr.CodeOf(err))
}

func TestSaveOrderRejectsUnknownMenuItem(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	table := seedTable(t, ms, models.TableStatusAvailable)

	_, err := c.SaveOrder(context.Background(), &SaveOrderRequest{
		TableID: table.ID.Hex(),
		Items:   []OrderItemRequest{{MenuItemID: primitive.NewObjectID().Hex(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidReference, apperr.CodeOf(err))
}

func TestUpdateOrderStatusRecomputesTableStatus(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Soup", Quantity: 1, Price: 10.00}
	order := seedOrder(t, ms, table.ID, models.OrderStatusDelivered, item)

	// A reservation later today must pull the freed table to reserved,
	// not available.
	require.NoError(t, ms.InsertReservation(ctx, &models.Reservation{
		CustomerName: "Dana",
		TableID:      table.ID,
		Date:         c.now().Add(4 * time.Hour),
		Time:         "21:00",
		GuestCount:   2,
		Status:       models.ReservationStatusConfirmed,
	}))

	updated, err := c.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, updated.Status)

	stored, err := ms.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusReserved, stored.Status)
}

func TestUpdateOrderStatusMidLifecycleKeepsTable(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Soup", Quantity: 1, Price: 10.00}
	order := seedOrder(t, ms, table.ID, models.OrderStatusPending, item)

	_, err := c.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPreparing)
	require.NoError(t, err)

	stored, err := ms.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, stored.Status)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	_, err := c.UpdateOrderStatus(context.Background(), primitive.NewObjectID(), "teleported")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidStatus, apperr.CodeOf(err))
}

func TestSaveReservationMarksTableReserved(t *testing.T) {
	ms := newMemStore()
	c, publisher := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusAvailable)

	reservation, err := c.SaveReservation(ctx, &SaveReservationRequest{
		CustomerName: "Alice",
		TableID:      table.ID.Hex(),
		Date:         c.now().Add(48 * time.Hour),
		Time:         "19:00",
		GuestCount:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, reservation.Status)

	stored, err := ms.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusReserved, stored.Status)
	assert.Contains(t, publisher.events, models.EventTypeReservationCreated)
}

func TestSaveReservationRejectsUnknownTable(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	_, err := c.SaveReservation(context.Background(), &SaveReservationRequest{
		CustomerName: "Alice",
		TableID:      primitive.NewObjectID().Hex(),
		Date:         time.Now().Add(48 * time.Hour),
		Time:         "19:00",
		GuestCount:   2,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidReference, apperr.CodeOf(err))
}

func TestSaveReservationRejectsUnknownStatus(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	table := seedTable(t, ms, models.TableStatusAvailable)

	_, err := c.SaveReservation(context.Background(), &SaveReservationRequest{
		CustomerName: "Alice",
		TableID:      table.ID.Hex(),
		Date:         time.Now().Add(48 * time.Hour),
		Time:         "19:00",
		GuestCount:   2,
		Status:       "tentative",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidStatus, apperr.CodeOf(err))
}

func TestDeleteLastReservationFreesTable(t *testing.T) {
	ms := newMemStore()
	c, publisher := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusAvailable)
	reservation, err := c.SaveReservation(ctx, &SaveReservationRequest{
		CustomerName: "Alice",
		TableID:      table.ID.Hex(),
		Date:         c.now().Add(48 * time.Hour),
		Time:         "19:00",
		GuestCount:   2,
	})
	require.NoError(t, err)

	require.NoError(t, c.DeleteReservation(ctx, reservation.ID))

	stored, err := ms.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, stored.Status)
	assert.Contains(t, publisher.events, models.EventTypeReservationDeleted)
}

func TestDeleteReservationKeepsOccupiedTable(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Soup", Quantity: 1, Price: 10.00}
	seedOrder(t, ms, table.ID, models.OrderStatusPending, item)

	reservation := &models.Reservation{
		CustomerName: "Bob",
		TableID:      table.ID,
		Date:         c.now().Add(24 * time.Hour),
		Time:         "20:00",
		GuestCount:   4,
		Status:       models.ReservationStatusConfirmed,
	}
	require.NoError(t, ms.InsertReservation(ctx, reservation))

	require.NoError(t, c.DeleteReservation(ctx, reservation.ID))

	stored, err := ms.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, stored.Status)
}

func TestDeleteReservationUnknownID(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	err := c.DeleteReservation(context.Background(), primitive.NewObjectID())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeEntityNotFound, apperr.CodeOf(err))
}

func TestReplaceOrderKeepsIdentityAndSnapshots(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusAvailable)
	steak := seedMenuItem(t, ms, "Steak", 50.00)

	order, err := c.SaveOrder(ctx, &SaveOrderRequest{
		TableID: table.ID.Hex(),
		Items:   []OrderItemRequest{{MenuItemID: steak.ID.Hex(), Quantity: 1}},
	})
	require.NoError(t, err)

	edited, err := c.SaveOrder(ctx, &SaveOrderRequest{
		ID:      order.ID.Hex(),
		TableID: table.ID.Hex(),
		Items: []OrderItemRequest{{
			MenuItemID: steak.ID.Hex(),
			Name:       order.Items[0].Name,
			Quantity:   3,
			Price:      order.Items[0].Price,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, order.ID, edited.ID)
	assert.Equal(t, order.CreatedAt, edited.CreatedAt)
	assert.InDelta(t, 150.00, edited.Total, 0.001)
	assert.InDelta(t, 50.00, edited.Items[0].Price, 0.001)
}

func TestSaveTableNewStartsAvailable(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	table, err := c.SaveTable(context.Background(), &SaveTableRequest{Name: "Patio 3", Capacity: 6})
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
	assert.False(t, table.ID.IsZero())
}

func TestSaveTableUpdateKeepsStatus(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusOccupied)

	updated, err := c.SaveTable(ctx, &SaveTableRequest{
		ID:       table.ID.Hex(),
		Name:     "Renamed",
		Capacity: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, models.TableStatusOccupied, updated.Status)
}

func TestSaveMenuItemRejectsUnknownCategory(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	_, err := c.SaveMenuItem(context.Background(), &SaveMenuItemRequest{
		Name:     "Mystery",
		Category: "cryptids",
		Price:    9.99,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidStatus, apperr.CodeOf(err))
}

func TestGetDashboardInfoCounts(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	seedTable(t, ms, models.TableStatusOccupied)
	seedTable(t, ms, models.TableStatusReserved)
	seedTable(t, ms, models.TableStatusAvailable)

	occupied := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Soup", Quantity: 1, Price: 10.00}
	seedOrder(t, ms, occupied.ID, models.OrderStatusPending, item)
	seedOrder(t, ms, occupied.ID, models.OrderStatusPreparing, item)
	seedOrder(t, ms, occupied.ID, models.OrderStatusDelivered, item)

	info, err := c.GetDashboardInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.ActiveTables)
	assert.Equal(t, int64(2), info.PendingOrders)
}

func TestListOrdersExpandsTables(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	table := seedTable(t, ms, models.TableStatusOccupied)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Soup", Quantity: 1, Price: 10.00}
	seedOrder(t, ms, table.ID, models.OrderStatusPending, item)
	seedOrder(t, ms, table.ID, models.OrderStatusCompleted, item)

	orders, err := c.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].Table)
	assert.Equal(t, table.ID, orders[0].Table.ID)
}

func TestListOccupiedTablesCarriesAggregates(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)

	table := seedTable(t, ms, models.TableStatusOccupied)
	seedTable(t, ms, models.TableStatusAvailable)
	item := models.OrderItem{MenuItemID: primitive.NewObjectID(), Name: "Steak", Quantity: 2, Price: 50.00}
	seedOrder(t, ms, table.ID, models.OrderStatusPending, item)

	occupied, err := c.ListOccupiedTables(context.Background())
	require.NoError(t, err)
	require.Len(t, occupied, 1)
	assert.InDelta(t, 100.00, occupied[0].Total, 0.001)
	assert.InDelta(t, 84.75, occupied[0].Subtotal, 0.001)
	assert.Len(t, occupied[0].Orders, 1)
}

func TestSaveOrderMoveRefreshesBothTables(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	tableA := seedTable(t, ms, models.TableStatusAvailable)
	tableB := seedTable(t, ms, models.TableStatusAvailable)
	steak := seedMenuItem(t, ms, "Steak", 50.00)

	order, err := c.SaveOrder(ctx, &SaveOrderRequest{
		TableID: tableA.ID.Hex(),
		Items:   []OrderItemRequest{{MenuItemID: steak.ID.Hex(), Quantity: 2}},
	})
	require.NoError(t, err)

	storedA, err := ms.GetTable(ctx, tableA.ID)
	require.NoError(t, err)
	require.Equal(t, models.TableStatusOccupied, storedA.Status)

	_, err = c.SaveOrder(ctx, &SaveOrderRequest{
		ID:      order.ID.Hex(),
		TableID: tableB.ID.Hex(),
		Items: []OrderItemRequest{{
			MenuItemID: steak.ID.Hex(),
			Name:       order.Items[0].Name,
			Quantity:   2,
			Price:      order.Items[0].Price,
		}},
	})
	require.NoError(t, err)

	// The table the order left must not stay occupied with nothing on
	// it; the one it landed on picks the order up.
	storedA, err = ms.GetTable(ctx, tableA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, storedA.Status)

	storedB, err := ms.GetTable(ctx, tableB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, storedB.Status)
}

func TestSaveReservationMoveRefreshesBothTables(t *testing.T) {
	ms := newMemStore()
	c, _ := newTestCoordinator(ms)
	ctx := context.Background()

	tableA := seedTable(t, ms, models.TableStatusAvailable)
	tableB := seedTable(t, ms, models.TableStatusAvailable)

	reservation, err := c.SaveReservation(ctx, &SaveReservationRequest{
		CustomerName: "Alice",
		TableID:      tableA.ID.Hex(),
		Date:         c.now().Add(48 * time.Hour),
		Time:         "19:00",
		GuestCount:   2,
	})
	require.NoError(t, err)

	storedA, err := ms.GetTable(ctx, tableA.ID)
	require.NoError(t, err)
	require.Equal(t, models.TableStatusReserved, storedA.Status)

	_, err = c.SaveReservation(ctx, &SaveReservationRequest{
		ID:           reservation.ID.Hex(),
		CustomerName: "Alice",
		TableID:      tableB.ID.Hex(),
		Date:         reservation.Date,
		Time:         reservation.Time,
		GuestCount:   2,
	})
	require.NoError(t, err)

	storedA, err = ms.GetTable(ctx, tableA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, storedA.Status)

	storedB, err := ms.GetTable(ctx, tableB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusReserved, storedB.Status)
}

// staleReservationStore serves one stale read of a reservation, as if a
// concurrent edit moved it to another table right after the read.
type staleReservationStore struct {
	*memStore
	stale  models.Reservation
	served bool
}

func (s *staleReservationStore) GetReservation(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	if !s.served && id == s.stale.ID {
		s.served = true
		r := s.stale
		return &r, nil
	}
	return s.memStore.GetReservation(ctx, id)
}

func TestDeleteReservationRelocksAfterConcurrentMove(t *testing.T) {
	ms := newMemStore()
	ctx := context.Background()

	tableA := seedTable(t, ms, models.TableStatusAvailable)
	tableB := seedTable(t, ms, models.TableStatusReserved)

	reservation := &models.Reservation{
		CustomerName: "Alice",
		TableID:      tableB.ID,
		Date:         time.Now().Add(48 * time.Hour),
		Time:         "19:00",
		GuestCount:   2,
		Status:       models.ReservationStatusConfirmed,
	}
	require.NoError(t, ms.InsertReservation(ctx, reservation))

	stale := *reservation
	stale.TableID = tableA.ID
	store := &staleReservationStore{memStore: ms, stale: stale}
	c := NewCoordinator(store, fakeCache{}, &fakePublisher{}, time.Minute, time.Minute)

	require.NoError(t, c.DeleteReservation(ctx, reservation.ID))

	// The delete must have settled on the reservation's real table.
	_, err := ms.GetReservation(ctx, reservation.ID)
	require.Error(t, err)

	storedB, err := ms.GetTable(ctx, tableB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, storedB.Status)

	storedA, err := ms.GetTable(ctx, tableA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, storedA.Status)
}
