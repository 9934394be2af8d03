package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"restaurant-service/internal/apperr"
	"restaurant-service/internal/ident"
	"restaurant-service/internal/models"
	"restaurant-service/internal/util"
)

// SaveTableRequest carries a table create/update request. Status is
// never taken from the client: a new table starts available and an
// updated one keeps its stored status.
type SaveTableRequest struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}

// SaveMenuItemRequest carries a menu item create/update request.
type SaveMenuItemRequest struct {
	ID          string  `json:"_id,omitempty"`
	Name        string  `json:"name" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Price       float64 `json:"price" binding:"min=0"`
	Description string  `json:"description,omitempty"`
	Stock       int     `json:"stock" binding:"min=0"`
	Active      *bool   `json:"active,omitempty"`
}

// ListTables retrieves all tables.
func (c *Coordinator) ListTables(ctx context.Context) ([]models.Table, error) {
	return c.store.ListTables(ctx)
}

// ListOccupiedTables retrieves occupied tables, each augmented with its
// order aggregate.
func (c *Coordinator) ListOccupiedTables(ctx context.Context) ([]models.OccupiedTable, error) {
	ctx, span := util.StartSpan(ctx, "Coordinator.ListOccupiedTables")
	defer span.End()

	tables, err := c.store.ListTablesByStatus(ctx, []string{models.TableStatusOccupied})
	if err != nil {
		return nil, err
	}

	occupied := make([]models.OccupiedTable, 0, len(tables))
	for _, table := range tables {
		agg, err := c.AggregateTable(ctx, table.ID)
		if err != nil {
			return nil, err
		}
		occupied = append(occupied, models.OccupiedTable{
			Table:     table,
			Orders:    agg.ActiveOrders,
			AllOrders: agg.AllOrders,
			Total:     agg.Total,
			Subtotal:  agg.Subtotal,
			Tax:       agg.Tax,
		})
	}
	return occupied, nil
}

// SaveTable creates or updates a table row. The status field stays
// under coordinator control.
func (c *Coordinator) SaveTable(ctx context.Context, req *SaveTableRequest) (*models.Table, error) {
	if req.ID != "" {
		id, err := ident.Normalize(req.ID)
		if err != nil {
			return nil, err
		}
		existing, err := c.store.GetTable(ctx, id)
		if err != nil {
			return nil, err
		}
		existing.Name = req.Name
		existing.Capacity = req.Capacity
		if err := c.store.UpdateTable(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	table := &models.Table{
		Name:     req.Name,
		Capacity: req.Capacity,
		Status:   models.TableStatusAvailable,
	}
	if err := c.store.InsertTable(ctx, table); err != nil {
		return nil, err
	}

	c.logger.Info("Table created", util.TableField(table.ID.Hex()), zap.String("name", table.Name))
	return table, nil
}

// DeleteTable removes a table row.
func (c *Coordinator) DeleteTable(ctx context.Context, id primitive.ObjectID) error {
	if err := c.store.DeleteTable(ctx, id); err != nil {
		return err
	}
	c.invalidateDashboard(ctx)
	return nil
}

// ListMenu retrieves the menu, served from the cache when warm.
func (c *Coordinator) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	if cached, err := c.cache.GetMenu(ctx); err != nil {
		c.logger.Warn("Menu cache read failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	items, err := c.store.ListMenuItems(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetMenu(ctx, items, c.menuTTL); err != nil {
		c.logger.Warn("Menu cache write failed", zap.Error(err))
	}
	return items, nil
}

// SaveMenuItem creates or updates a menu item. Existing orders keep
// their frozen snapshots regardless.
func (c *Coordinator) SaveMenuItem(ctx context.Context, req *SaveMenuItemRequest) (*models.MenuItem, error) {
	switch req.Category {
	case models.CategoryAppetizers, models.CategoryMainCourses, models.CategoryDesserts, models.CategoryDrinks:
	default:
		return nil, apperr.New(apperr.CodeInvalidStatus, "invalid menu category: %s", req.Category)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	item := &models.MenuItem{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		Stock:       req.Stock,
		Active:      active,
	}

	if req.ID != "" {
		id, err := ident.Normalize(req.ID)
		if err != nil {
			return nil, err
		}
		existing, err := c.store.GetMenuItemsByIDs(ctx, []primitive.ObjectID{id})
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			return nil, apperr.NotFound("menu item", id.Hex())
		}
		item.ID = id
		item.CreatedAt = existing[0].CreatedAt
		if err := c.store.UpdateMenuItem(ctx, item); err != nil {
			return nil, err
		}
	} else {
		if err := c.store.InsertMenuItem(ctx, item); err != nil {
			return nil, err
		}
	}

	if err := c.cache.InvalidateMenu(ctx); err != nil {
		c.logger.Warn("Menu cache invalidation failed", zap.Error(err))
	}
	return item, nil
}

// DeleteMenuItem removes a menu item.
func (c *Coordinator) DeleteMenuItem(ctx context.Context, id primitive.ObjectID) error {
	if err := c.store.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	if err := c.cache.InvalidateMenu(ctx); err != nil {
		c.logger.Warn("Menu cache invalidation failed", zap.Error(err))
	}
	return nil
}

// ListBills retrieves all bills.
func (c *Coordinator) ListBills(ctx context.Context) ([]models.BillDetails, error) {
	bills, err := c.store.ListBills(ctx)
	if err != nil {
		return nil, err
	}

	expanded := make([]models.BillDetails, 0, len(bills))
	tables := map[primitive.ObjectID]*models.Table{}
	for _, bill := range bills {
		expanded = append(expanded, models.BillDetails{
			Bill:  bill,
			Table: c.lookupTable(ctx, tables, bill.TableID),
		})
	}
	return expanded, nil
}

// GetBillDetails retrieves one bill with its table and order expanded.
func (c *Coordinator) GetBillDetails(ctx context.Context, id primitive.ObjectID) (*models.BillDetails, error) {
	bill, err := c.store.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &models.BillDetails{Bill: *bill}
	if table, err := c.store.GetTable(ctx, bill.TableID); err == nil {
		details.Table = table
	}
	if bill.OrderID != nil {
		if order, err := c.store.GetOrder(ctx, *bill.OrderID); err == nil {
			details.Order = order
		}
	}
	return details, nil
}

// GetDashboardInfo returns the dashboard counters, served from the
// cache when warm.
func (c *Coordinator) GetDashboardInfo(ctx context.Context) (*models.DashboardInfo, error) {
	if cached, err := c.cache.GetDashboard(ctx); err != nil {
		c.logger.Warn("Dashboard cache read failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	activeTables, err := c.store.CountTablesByStatus(ctx, []string{models.TableStatusOccupied, models.TableStatusReserved})
	if err != nil {
		return nil, err
	}

	pendingOrders, err := c.store.CountOrdersByStatus(ctx, []string{models.OrderStatusPending, models.OrderStatusPreparing})
	if err != nil {
		return nil, err
	}

	info := &models.DashboardInfo{
		ActiveTables:  activeTables,
		PendingOrders: pendingOrders,
	}

	if err := c.cache.SetDashboard(ctx, info, c.dashboardTTL); err != nil {
		c.logger.Warn("Dashboard cache write failed", zap.Error(err))
	}
	return info, nil
}

// InvalidateDashboard drops the cached dashboard counters. The event
// worker calls this whenever a domain event lands.
func (c *Coordinator) InvalidateDashboard(ctx context.Context) error {
	return c.cache.InvalidateDashboard(ctx)
}

func (c *Coordinator) invalidateDashboard(ctx context.Context) {
	if err := c.cache.InvalidateDashboard(ctx); err != nil {
		c.logger.Warn("Dashboard cache invalidation failed", zap.Error(err))
	}
}
