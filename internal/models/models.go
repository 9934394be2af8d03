package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Table statuses. The stored status is a cache of the derived value:
// occupied wins over reserved, reserved over available.
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusReserved  = "reserved"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Reservation statuses
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

// Payment methods
const (
	PaymentMethodCash       = "cash"
	PaymentMethodCreditCard = "credit-card"
	PaymentMethodDebitCard  = "debit-card"
)

// Menu categories
const (
	CategoryAppetizers  = "appetizers"
	CategoryMainCourses = "main-courses"
	CategoryDesserts    = "desserts"
	CategoryDrinks      = "drinks"
)

// Table represents a physical seating unit. Status is mutated only by
// the coordinator.
type Table struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Capacity  int                `bson:"capacity" json:"capacity"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// MenuItem is the source of truth for current price and availability.
// Historical orders never reference it live.
type MenuItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Category    string             `bson:"category" json:"category"`
	Price       float64            `bson:"price" json:"price"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Reservation is a future intent to occupy a table.
type Reservation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	CustomerName  string             `bson:"customerName" json:"customerName"`
	CustomerPhone string             `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	TableID       primitive.ObjectID `bson:"tableId" json:"tableId"`
	Date          time.Time          `bson:"date" json:"date"`
	Time          string             `bson:"time" json:"time"`
	GuestCount    int                `bson:"guestCount" json:"guestCount"`
	Status        string             `bson:"status" json:"status"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// OrderItem is a line of an order. Name and price are snapshots frozen
// at order-creation time; later menu edits must not change them.
type OrderItem struct {
	MenuItemID primitive.ObjectID `bson:"menuItemId" json:"menuItemId"`
	Name       string             `bson:"name" json:"name"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Price      float64            `bson:"price" json:"price"`
}

// Order is a set of line items placed against a table.
type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	TableID   primitive.ObjectID `bson:"tableId" json:"tableId"`
	Items     []OrderItem        `bson:"items" json:"items"`
	Status    string             `bson:"status" json:"status"`
	Total     float64            `bson:"total" json:"total"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Bill is an immutable settlement record. OrderID may be nil for a
// table settled without a tracked order.
type Bill struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"_id,omitempty"`
	OrderID       *primitive.ObjectID `bson:"orderId,omitempty" json:"orderId,omitempty"`
	TableID       primitive.ObjectID  `bson:"tableId" json:"tableId"`
	Items         []OrderItem         `bson:"items" json:"items"`
	Subtotal      float64             `bson:"subtotal" json:"subtotal"`
	Tax           float64             `bson:"tax" json:"tax"`
	Total         float64             `bson:"total" json:"total"`
	PaymentMethod string              `bson:"paymentMethod" json:"paymentMethod"`
	Notes         string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// TableAggregate is the aggregator output for one table: the partition
// of its non-cancelled orders plus tax-inclusive gross figures.
type TableAggregate struct {
	ActiveOrders []Order `json:"activeOrders"`
	AllOrders    []Order `json:"allOrders"`
	Total        float64 `json:"total"`
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
}

// OccupiedTable augments a table with its order aggregate for the
// occupied-tables listing.
type OccupiedTable struct {
	Table
	Orders    []Order `json:"orders"`
	AllOrders []Order `json:"allOrders"`
	Total     float64 `json:"total"`
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
}

// OrderWithTable expands an order's table reference.
type OrderWithTable struct {
	Order
	Table *Table `json:"table,omitempty"`
}

// ReservationWithTable expands a reservation's table reference.
type ReservationWithTable struct {
	Reservation
	Table *Table `json:"table,omitempty"`
}

// BillDetails expands a bill's table and order references.
type BillDetails struct {
	Bill
	Table *Table `json:"table,omitempty"`
	Order *Order `json:"order,omitempty"`
}

// DashboardInfo holds the counts shown on the dashboard.
type DashboardInfo struct {
	ActiveTables  int64 `json:"activeTables"`
	PendingOrders int64 `json:"pendingOrders"`
}

// ActiveOrderStatuses are the order states that keep a table occupied.
var ActiveOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether s is a known payment method.
func ValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard:
		return true
	}
	return false
}
