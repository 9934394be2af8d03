package service

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"restaurant-service/internal/apperr"
	"restaurant-service/internal/models"
)

// memStore is an in-memory Store used by service tests in place of the
// document store.
type memStore struct {
	mu           sync.Mutex
	tables       map[primitive.ObjectID]models.Table
	menuItems    map[primitive.ObjectID]models.MenuItem
	reservations map[primitive.ObjectID]models.Reservation
	orders       map[primitive.ObjectID]models.Order
	bills        map[primitive.ObjectID]models.Bill
}

func newMemStore() *memStore {
	return &memStore{
		tables:       map[primitive.ObjectID]models.Table{},
		menuItems:    map[primitive.ObjectID]models.MenuItem{},
		reservations: map[primitive.ObjectID]models.Reservation{},
		orders:       map[primitive.ObjectID]models.Order{},
		bills:        map[primitive.ObjectID]models.Bill{},
	}
}

func contains(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (m *memStore) ListTables(ctx context.Context) ([]models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := []models.Table{}
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	return tables, nil
}

func (m *memStore) ListTablesByStatus(ctx context.Context, statuses []string) ([]models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := []models.Table{}
	for _, t := range m.tables {
		if contains(statuses, t.Status) {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

func (m *memStore) GetTable(ctx context.Context, id primitive.ObjectID) (*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, apperr.NotFound("table", id.Hex())
	}
	return &t, nil
}

func (m *memStore) InsertTable(ctx context.Context, table *models.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if table.ID.IsZero() {
		table.ID = primitive.NewObjectID()
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now()
	}
	m.tables[table.ID] = *table
	return nil
}

func (m *memStore) UpdateTable(ctx context.Context, table *models.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table.ID]; !ok {
		return apperr.NotFound("table", table.ID.Hex())
	}
	m.tables[table.ID] = *table
	return nil
}

func (m *memStore) UpdateTableStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return apperr.NotFound("table", id.Hex())
	}
	t.Status = status
	m.tables[id] = t
	return nil
}

func (m *memStore) DeleteTable(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[id]; !ok {
		return apperr.NotFound("table", id.Hex())
	}
	delete(m.tables, id)
	return nil
}

func (m *memStore) CountTablesByStatus(ctx context.Context, statuses []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.tables {
		if contains(statuses, t.Status) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []models.MenuItem{}
	for _, item := range m.menuItems {
		items = append(items, item)
	}
	return items, nil
}

func (m *memStore) GetMenuItemsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []models.MenuItem{}
	for _, id := range ids {
		if item, ok := m.menuItems[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *memStore) InsertMenuItem(ctx context.Context, item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	m.menuItems[item.ID] = *item
	return nil
}

func (m *memStore) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menuItems[item.ID]; !ok {
		return apperr.NotFound("menu item", item.ID.Hex())
	}
	m.menuItems[item.ID] = *item
	return nil
}

func (m *memStore) DeleteMenuItem(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menuItems[id]; !ok {
		return apperr.NotFound("menu item", id.Hex())
	}
	delete(m.menuItems, id)
	return nil
}

func (m *memStore) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reservations := []models.Reservation{}
	for _, r := range m.reservations {
		reservations = append(reservations, r)
	}
	return reservations, nil
}

func (m *memStore) GetReservation(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, apperr.NotFound("reservation", id.Hex())
	}
	return &r, nil
}

func (m *memStore) InsertReservation(ctx context.Context, reservation *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reservation.ID.IsZero() {
		reservation.ID = primitive.NewObjectID()
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = time.Now()
	}
	m.reservations[reservation.ID] = *reservation
	return nil
}

func (m *memStore) UpdateReservation(ctx context.Context, reservation *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[reservation.ID]; !ok {
		return apperr.NotFound("reservation", reservation.ID.Hex())
	}
	m.reservations[reservation.ID] = *reservation
	return nil
}

func (m *memStore) DeleteReservation(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return apperr.NotFound("reservation", id.Hex())
	}
	delete(m.reservations, id)
	return nil
}

func (m *memStore) CountActiveReservations(ctx context.Context, tableID primitive.ObjectID, from time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reservations {
		if r.TableID == tableID && r.Status != models.ReservationStatusCancelled && !r.Date.Before(from) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []models.Order{}
	for _, o := range m.orders {
		if o.Status != models.OrderStatusCompleted && o.Status != models.OrderStatusCancelled {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (m *memStore) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id.Hex())
	}
	return &o, nil
}

func (m *memStore) GetTableOrders(ctx context.Context, tableID primitive.ObjectID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []models.Order{}
	for _, o := range m.orders {
		if o.TableID == tableID && o.Status != models.OrderStatusCancelled {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (m *memStore) InsertOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *memStore) ReplaceOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return apperr.NotFound("order", order.ID.Hex())
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id.Hex())
	}
	o.Status = status
	m.orders[id] = o
	return &o, nil
}

func (m *memStore) CompleteOpenOrders(ctx context.Context, tableID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, o := range m.orders {
		if o.TableID == tableID && o.Status != models.OrderStatusCompleted && o.Status != models.OrderStatusCancelled {
			o.Status = models.OrderStatusCompleted
			m.orders[id] = o
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountActiveOrders(ctx context.Context, tableID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if o.TableID == tableID && contains(models.ActiveOrderStatuses, o.Status) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountOrdersByStatus(ctx context.Context, statuses []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if contains(statuses, o.Status) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListBills(ctx context.Context) ([]models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bills := []models.Bill{}
	for _, b := range m.bills {
		bills = append(bills, b)
	}
	return bills, nil
}

func (m *memStore) GetBill(ctx context.Context, id primitive.ObjectID) (*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, apperr.NotFound("bill", id.Hex())
	}
	return &b, nil
}

func (m *memStore) InsertBill(ctx context.Context, bill *models.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bill.ID.IsZero() {
		bill.ID = primitive.NewObjectID()
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now()
	}
	m.bills[bill.ID] = *bill
	return nil
}

// fakePublisher records published events without a broker.
type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) record(eventType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *fakePublisher) PublishTableStatusChanged(ctx context.Context, e *models.TableStatusChangedEvent) error {
	return p.record(e.EventType)
}

func (p *fakePublisher) PublishOrderCreated(ctx context.Context, e *models.OrderCreatedEvent) error {
	return p.record(e.EventType)
}

func (p *fakePublisher) PublishOrderStatusChanged(ctx context.Context, e *models.OrderStatusChangedEvent) error {
	return p.record(e.EventType)
}

func (p *fakePublisher) PublishReservationCreated(ctx context.Context, e *models.ReservationCreatedEvent) error {
	return p.record(e.EventType)
}

func (p *fakePublisher) PublishReservationDeleted(ctx context.Context, e *models.ReservationDeletedEvent) error {
	return p.record(e.EventType)
}

func (p *fakePublisher) PublishBillSettled(ctx context.Context, e *models.BillSettledEvent) error {
	return p.record(e.EventType)
}

// fakeCache is a pass-through Cache that never holds anything.
type fakeCache struct{}

func (fakeCache) GetDashboard(ctx context.Context) (*models.DashboardInfo, error) { return nil, nil }
func (fakeCache) SetDashboard(ctx context.Context, info *models.DashboardInfo, ttl time.Duration) error {
	return nil
}
func (fakeCache) InvalidateDashboard(ctx context.Context) error { return nil }
func (fakeCache) GetMenu(ctx context.Context) ([]models.MenuItem, error) { return nil, nil }
func (fakeCache) SetMenu(ctx context.Context, items []models.MenuItem, ttl time.Duration) error {
	return nil
}
func (fakeCache) InvalidateMenu(ctx context.Context) error { return nil }

func newTestCoordinator(ms *memStore) (*Coordinator, *fakePublisher) {
	publisher := &fakePublisher{}
	return NewCoordinator(ms, fakeCache{}, publisher, time.Minute, time.Minute), publisher
}
