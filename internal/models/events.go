package models

import "time"

// Event types
const (
	EventTypeTableStatusChanged = "TABLE_STATUS_CHANGED"
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeReservationCreated = "RESERVATION_CREATED"
	EventTypeReservationDeleted = "RESERVATION_DELETED"
	EventTypeBillSettled        = "BILL_SETTLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// TableStatusChangedEvent published after the coordinator recomputes a
// table's status.
type TableStatusChangedEvent struct {
	BaseEvent
	TableID   string `json:"table_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderCreatedEvent published when an order is created
type OrderCreatedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	TableID string      `json:"table_id"`
	Total   float64     `json:"total"`
	Items   []OrderItem `json:"items"`
}

// OrderStatusChangedEvent published on order status transitions
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	TableID string `json:"table_id"`
	Status  string `json:"status"`
}

// ReservationCreatedEvent published when a reservation is created
type ReservationCreatedEvent struct {
	BaseEvent
	ReservationID string    `json:"reservation_id"`
	TableID       string    `json:"table_id"`
	Date          time.Time `json:"date"`
	GuestCount    int       `json:"guest_count"`
}

// ReservationDeletedEvent published when a reservation is deleted
type ReservationDeletedEvent struct {
	BaseEvent
	ReservationID string `json:"reservation_id"`
	TableID       string `json:"table_id"`
}

// BillSettledEvent published when a bill is settled
type BillSettledEvent struct {
	BaseEvent
	BillID          string  `json:"bill_id"`
	TableID         string  `json:"table_id"`
	OrderID         string  `json:"order_id,omitempty"`
	Total           float64 `json:"total"`
	PaymentMethod   string  `json:"payment_method"`
	OrdersCompleted int64   `json:"orders_completed"`
}
