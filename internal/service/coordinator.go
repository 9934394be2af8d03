package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"restaurant-service/internal/apperr"
	"restaurant-service/internal/ident"
	"restaurant-service/internal/models"
	"restaurant-service/internal/util"
)

// Coordinator orchestrates every cross-entity operation. Each operation
// runs inside a per-table critical section, orders its store writes so
// the derived table status goes last, and aborts the remaining steps on
// the first failure.
type Coordinator struct {
	store        Store
	cache        Cache
	events       EventPublisher
	locks        *tableLocks
	logger       *zap.Logger
	dashboardTTL time.Duration
	menuTTL      time.Duration
	now          func() time.Time
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(store Store, cache Cache, events EventPublisher, dashboardTTL, menuTTL time.Duration) *Coordinator {
	return &Coordinator{
		store:        store,
		cache:        cache,
		events:       events,
		locks:        newTableLocks(),
		logger:       util.GetLogger(),
		dashboardTTL: dashboardTTL,
		menuTTL:      menuTTL,
		now:          time.Now,
	}
}

// SaveReservationRequest carries a reservation create/update request.
type SaveReservationRequest struct {
	ID            string    `json:"_id,omitempty"`
	CustomerName  string    `json:"customerName" binding:"required"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	TableID       string    `json:"tableId" binding:"required"`
	Date          time.Time `json:"date" binding:"required"`
	Time          string    `json:"time" binding:"required"`
	GuestCount    int       `json:"guestCount" binding:"required,min=1"`
	Status        string    `json:"status,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// SaveReservation creates a reservation (no id) or updates an existing
// one, then recomputes the table's status.
func (c *Coordinator) SaveReservation(ctx context.Context, req *SaveReservationRequest) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "Coordinator.SaveReservation")
	defer span.End()

	tableID, err := ident.Normalize(req.TableID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ReservationStatusConfirmed
	}
	switch status {
	case models.ReservationStatusPending, models.ReservationStatusConfirmed, models.ReservationStatusCancelled:
	default:
		return nil, apperr.New(apperr.CodeInvalidStatus, "invalid reservation status: %s", status)
	}

	if req.ID != "" {
		return c.updateReservation(ctx, req, tableID, status)
	}

	unlock := c.locks.lock(tableID)
	defer unlock()

	table, err := c.store.GetTable(ctx, tableID)
	if err != nil {
		if apperr.Is(err, apperr.CodeEntityNotFound) {
			return nil, apperr.New(apperr.CodeInvalidReference, "reservation references unknown table: %s", tableID.Hex())
		}
		return nil, err
	}

	reservation := newReservation(req, tableID, status)
	if err := c.store.InsertReservation(ctx, reservation); err != nil {
		return nil, err
	}
	util.ReservationsCreatedTotal.Inc()

	event := &models.ReservationCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReservationCreated,
			Timestamp: c.now(),
		},
		ReservationID: reservation.ID.Hex(),
		TableID:       tableID.Hex(),
		Date:          reservation.Date,
		GuestCount:    reservation.GuestCount,
	}
	if err := c.events.PublishReservationCreated(ctx, event); err != nil {
		c.logger.Error("Failed to publish ReservationCreated event", zap.Error(err))
	}

	if _, err := c.refreshTableStatus(ctx, tableID, table.Status); err != nil {
		return nil, err
	}

	c.logger.Info("Reservation saved",
		util.ReservationField(reservation.ID.Hex()),
		util.TableField(tableID.Hex()))
	return reservation, nil
}

func newReservation(req *SaveReservationRequest, tableID primitive.ObjectID, status string) *models.Reservation {
	return &models.Reservation{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		TableID:       tableID,
		Date:          req.Date,
		Time:          req.Time,
		GuestCount:    req.GuestCount,
		Status:        status,
		Notes:         req.Notes,
	}
}

// updateReservation applies a full-document reservation edit. When the
// edit moves the reservation to another table, both table locks are
// held and both statuses recomputed so the previous table cannot stay
// reserved with nothing against it.
func (c *Coordinator) updateReservation(ctx context.Context, req *SaveReservationRequest, tableID primitive.ObjectID, status string) (*models.Reservation, error) {
	id, err := ident.Normalize(req.ID)
	if err != nil {
		return nil, err
	}

	existing, unlock, err := c.lockReservationTables(ctx, id, tableID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	table, err := c.store.GetTable(ctx, tableID)
	if err != nil {
		if apperr.Is(err, apperr.CodeEntityNotFound) {
			return nil, apperr.New(apperr.CodeInvalidReference, "reservation references unknown table: %s", tableID.Hex())
		}
		return nil, err
	}

	reservation := newReservation(req, tableID, status)
	reservation.ID = existing.ID
	reservation.CreatedAt = existing.CreatedAt
	if err := c.store.UpdateReservation(ctx, reservation); err != nil {
		return nil, err
	}

	if existing.TableID != tableID {
		if err := c.refreshFormerTable(ctx, existing.TableID); err != nil {
			return nil, err
		}
	}
	if _, err := c.refreshTableStatus(ctx, tableID, table.Status); err != nil {
		return nil, err
	}

	c.logger.Info("Reservation saved",
		util.ReservationField(reservation.ID.Hex()),
		util.TableField(tableID.Hex()))
	return reservation, nil
}

// lockReservationTables mirrors lockOrderTables for reservation edits:
// lock the reservation's current table plus the requested one, re-read
// under the lock, retry if a concurrent edit moved it.
func (c *Coordinator) lockReservationTables(ctx context.Context, id, tableID primitive.ObjectID) (*models.Reservation, func(), error) {
	for {
		reservation, err := c.store.GetReservation(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		unlock := c.locks.lockPair(reservation.TableID, tableID)

		current, err := c.store.GetReservation(ctx, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if current.TableID == reservation.TableID {
			return current, unlock, nil
		}
		unlock()
	}
}

// DeleteReservation removes a reservation and recomputes the table's
// status from what remains: an active order keeps it occupied, another
// reservation keeps it reserved, otherwise it becomes available.
func (c *Coordinator) DeleteReservation(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := util.StartSpan(ctx, "Coordinator.DeleteReservation")
	defer span.End()

	reservation, unlock, err := c.lockReservationTable(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	table, err := c.store.GetTable(ctx, reservation.TableID)
	if err != nil {
		return err
	}

	if err := c.store.DeleteReservation(ctx, id); err != nil {
		return err
	}

	if _, err := c.refreshTableStatus(ctx, reservation.TableID, table.Status); err != nil {
		return err
	}

	util.ReservationsDeletedTotal.Inc()

	event := &models.ReservationDeletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReservationDeleted,
			Timestamp: c.now(),
		},
		ReservationID: id.Hex(),
		TableID:       reservation.TableID.Hex(),
	}
	if err := c.events.PublishReservationDeleted(ctx, event); err != nil {
		c.logger.Error("Failed to publish ReservationDeleted event", zap.Error(err))
	}

	return nil
}

// lockReservationTable locks the table a reservation belongs to. The
// reservation is re-read under the lock so a concurrent edit that just
// moved it cannot leave this operation holding the wrong table.
func (c *Coordinator) lockReservationTable(ctx context.Context, id primitive.ObjectID) (*models.Reservation, func(), error) {
	for {
		reservation, err := c.store.GetReservation(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		unlock := c.locks.lock(reservation.TableID)

		current, err := c.store.GetReservation(ctx, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if current.TableID == reservation.TableID {
			return current, unlock, nil
		}
		unlock()
	}
}

// ListReservations retrieves all reservations with their table
// references expanded.
func (c *Coordinator) ListReservations(ctx context.Context) ([]models.ReservationWithTable, error) {
	reservations, err := c.store.ListReservations(ctx)
	if err != nil {
		return nil, err
	}

	expanded := make([]models.ReservationWithTable, 0, len(reservations))
	tables := map[primitive.ObjectID]*models.Table{}
	for _, reservation := range reservations {
		expanded = append(expanded, models.ReservationWithTable{
			Reservation: reservation,
			Table:       c.lookupTable(ctx, tables, reservation.TableID),
		})
	}
	return expanded, nil
}

// GetReservationDetails retrieves one reservation with its table
// expanded.
func (c *Coordinator) GetReservationDetails(ctx context.Context, id primitive.ObjectID) (*models.ReservationWithTable, error) {
	reservation, err := c.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	details := &models.ReservationWithTable{Reservation: *reservation}
	if table, err := c.store.GetTable(ctx, reservation.TableID); err == nil {
		details.Table = table
	}
	return details, nil
}

// OrderItemRequest is one requested line of an order. Name and price
// are ignored on creation: the snapshot is taken from the menu item at
// that moment. On edits the client round-trips its frozen snapshots.
type OrderItemRequest struct {
	MenuItemID string  `json:"menuItemId" binding:"required"`
	Name       string  `json:"name,omitempty"`
	Quantity   int     `json:"quantity" binding:"required,min=1"`
	Price      float64 `json:"price,omitempty"`
}

// SaveOrderRequest carries an order create/edit request.
type SaveOrderRequest struct {
	ID      string             `json:"_id,omitempty"`
	TableID string             `json:"tableId" binding:"required"`
	Items   []OrderItemRequest `json:"items" binding:"required,min=1"`
	Status  string             `json:"status,omitempty"`
	Notes   string             `json:"notes,omitempty"`
}

// SaveOrder creates a new order with frozen item snapshots, or fully
// replaces an existing one keeping its identity, then recomputes the
// table's status.
func (c *Coordinator) SaveOrder(ctx context.Context, req *SaveOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Coordinator.SaveOrder")
	defer span.End()

	tableID, err := ident.Normalize(req.TableID)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_identifier").Inc()
		return nil, err
	}

	itemIDs := make([]primitive.ObjectID, len(req.Items))
	for i, item := range req.Items {
		id, err := ident.Normalize(item.MenuItemID)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("invalid_identifier").Inc()
			return nil, err
		}
		itemIDs[i] = id
	}

	if req.ID != "" {
		return c.replaceOrder(ctx, req, tableID, itemIDs)
	}

	unlock := c.locks.lock(tableID)
	defer unlock()

	table, err := c.store.GetTable(ctx, tableID)
	if err != nil {
		if apperr.Is(err, apperr.CodeEntityNotFound) {
			util.OrdersFailedTotal.WithLabelValues("invalid_reference").Inc()
			return nil, apperr.New(apperr.CodeInvalidReference, "order references unknown table: %s", tableID.Hex())
		}
		return nil, err
	}

	menuByID, err := c.resolveMenuItems(ctx, itemIDs)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_reference").Inc()
		return nil, err
	}

	order := &models.Order{
		TableID: tableID,
		Items:   make([]models.OrderItem, len(req.Items)),
		Status:  models.OrderStatusPending,
		Notes:   req.Notes,
	}

	// Snapshot name and price from the menu as it stands now; later
	// menu edits must not reach back into this order.
	var total float64
	for i, item := range req.Items {
		menuItem := menuByID[itemIDs[i]]
		order.Items[i] = models.OrderItem{
			MenuItemID: itemIDs[i],
			Name:       menuItem.Name,
			Quantity:   item.Quantity,
			Price:      menuItem.Price,
		}
		total += menuItem.Price * float64(item.Quantity)
	}
	order.Total = Round2(total)

	if err := c.store.InsertOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}

	if _, err := c.refreshTableStatus(ctx, tableID, table.Status); err != nil {
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	c.logger.Info("Order created",
		util.OrderField(order.ID.Hex()),
		util.TableField(tableID.Hex()),
		zap.Float64("total", order.Total))

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: c.now(),
		},
		OrderID: order.ID.Hex(),
		TableID: tableID.Hex(),
		Total:   order.Total,
		Items:   order.Items,
	}
	if err := c.events.PublishOrderCreated(ctx, event); err != nil {
		c.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return order, nil
}

// replaceOrder applies an explicit full-document edit that keeps the
// order's identity. Client snapshots are kept as sent; only the total
// is recomputed from them. An edit that moves the order to another
// table holds both table locks and recomputes both statuses, so the
// previous table cannot stay occupied with nothing on it.
func (c *Coordinator) replaceOrder(ctx context.Context, req *SaveOrderRequest, tableID primitive.ObjectID, itemIDs []primitive.ObjectID) (*models.Order, error) {
	id, err := ident.Normalize(req.ID)
	if err != nil {
		return nil, err
	}

	existing, unlock, err := c.lockOrderTables(ctx, id, tableID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	table, err := c.store.GetTable(ctx, tableID)
	if err != nil {
		if apperr.Is(err, apperr.CodeEntityNotFound) {
			util.OrdersFailedTotal.WithLabelValues("invalid_reference").Inc()
			return nil, apperr.New(apperr.CodeInvalidReference, "order references unknown table: %s", tableID.Hex())
		}
		return nil, err
	}

	if _, err := c.resolveMenuItems(ctx, itemIDs); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_reference").Inc()
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = existing.Status
	}
	if !models.ValidOrderStatus(status) {
		return nil, apperr.New(apperr.CodeInvalidStatus, "invalid order status: %s", status)
	}

	order := &models.Order{
		ID:        existing.ID,
		TableID:   tableID,
		Items:     make([]models.OrderItem, len(req.Items)),
		Status:    status,
		Notes:     req.Notes,
		CreatedAt: existing.CreatedAt,
	}

	var total float64
	for i, item := range req.Items {
		order.Items[i] = models.OrderItem{
			MenuItemID: itemIDs[i],
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
		}
		total += item.Price * float64(item.Quantity)
	}
	order.Total = Round2(total)

	if err := c.store.ReplaceOrder(ctx, order); err != nil {
		return nil, err
	}

	if existing.TableID != tableID {
		if err := c.refreshFormerTable(ctx, existing.TableID); err != nil {
			return nil, err
		}
	}
	if _, err := c.refreshTableStatus(ctx, tableID, table.Status); err != nil {
		return nil, err
	}

	c.logger.Info("Order replaced", util.OrderField(order.ID.Hex()))
	return order, nil
}

// lockOrderTables acquires the locks for an order edit: the order's
// current table plus the requested one. The order is re-read under the
// lock; when a concurrent edit moved it in between, the locks are
// released and the acquisition retried against the fresh location.
func (c *Coordinator) lockOrderTables(ctx context.Context, id, tableID primitive.ObjectID) (*models.Order, func(), error) {
	for {
		order, err := c.store.GetOrder(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		unlock := c.locks.lockPair(order.TableID, tableID)

		current, err := c.store.GetOrder(ctx, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if current.TableID == order.TableID {
			return current, unlock, nil
		}
		unlock()
	}
}

// lockOrderTable locks the table an order belongs to, re-reading the
// order under the lock and retrying when a concurrent edit moved it.
func (c *Coordinator) lockOrderTable(ctx context.Context, id primitive.ObjectID) (*models.Order, func(), error) {
	for {
		order, err := c.store.GetOrder(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		unlock := c.locks.lock(order.TableID)

		current, err := c.store.GetOrder(ctx, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if current.TableID == order.TableID {
			return current, unlock, nil
		}
		unlock()
	}
}

// refreshFormerTable recomputes the status of a table an entity just
// moved away from. A dangling reference is skipped, not an error.
func (c *Coordinator) refreshFormerTable(ctx context.Context, tableID primitive.ObjectID) error {
	table, err := c.store.GetTable(ctx, tableID)
	if err != nil {
		if apperr.Is(err, apperr.CodeEntityNotFound) {
			return nil
		}
		return err
	}
	_, err = c.refreshTableStatus(ctx, tableID, table.Status)
	return err
}

// UpdateOrderStatus moves an order through its lifecycle. A transition
// into completed or cancelled recomputes the table's status from the
// remaining aggregate rather than assuming the table frees up.
func (c *Coordinator) UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Coordinator.UpdateOrderStatus")
	defer span.End()

	if !models.ValidOrderStatus(status) {
		return nil, apperr.New(apperr.CodeInvalidStatus, "invalid order status: %s", status)
	}

	existing, unlock, err := c.lockOrderTable(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	table, err := c.store.GetTable(ctx, existing.TableID)
	if err != nil {
		return nil, err
	}

	order, err := c.store.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	if status == models.OrderStatusCompleted || status == models.OrderStatusCancelled {
		if _, err := c.refreshTableStatus(ctx, order.TableID, table.Status); err != nil {
			return nil, err
		}
	}

	if status == models.OrderStatusCompleted {
		util.OrdersCompletedTotal.Inc()
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: c.now(),
		},
		OrderID: order.ID.Hex(),
		TableID: order.TableID.Hex(),
		Status:  status,
	}
	if err := c.events.PublishOrderStatusChanged(ctx, event); err != nil {
		c.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return order, nil
}

// ListOrders retrieves open orders with their table references
// expanded.
func (c *Coordinator) ListOrders(ctx context.Context) ([]models.OrderWithTable, error) {
	orders, err := c.store.ListOpenOrders(ctx)
	if err != nil {
		return nil, err
	}

	expanded := make([]models.OrderWithTable, 0, len(orders))
	tables := map[primitive.ObjectID]*models.Table{}
	for _, order := range orders {
		expanded = append(expanded, models.OrderWithTable{
			Order: order,
			Table: c.lookupTable(ctx, tables, order.TableID),
		})
	}
	return expanded, nil
}

// GetTableOrders retrieves all non-cancelled orders of a table.
func (c *Coordinator) GetTableOrders(ctx context.Context, tableID primitive.ObjectID) ([]models.Order, error) {
	return c.store.GetTableOrders(ctx, tableID)
}

// resolveMenuItems fetches the referenced menu items and fails with
// INVALID_REFERENCE when any are missing.
func (c *Coordinator) resolveMenuItems(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.MenuItem, error) {
	items, err := c.store.GetMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperr.New(apperr.CodeInvalidReference, "order references unknown menu item: %s", id.Hex())
		}
	}
	return byID, nil
}

// lookupTable resolves a table reference through a per-call cache.
// Dangling references expand to nil rather than failing the listing.
func (c *Coordinator) lookupTable(ctx context.Context, cache map[primitive.ObjectID]*models.Table, id primitive.ObjectID) *models.Table {
	if table, ok := cache[id]; ok {
		return table
	}
	table, err := c.store.GetTable(ctx, id)
	if err != nil {
		table = nil
	}
	cache[id] = table
	return table
}
