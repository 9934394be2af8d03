package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"restaurant-service/internal/apperr"
	"restaurant-service/internal/ident"
	"restaurant-service/internal/service"
	"restaurant-service/internal/util"
)

// Handler contains HTTP handlers
type Handler struct {
	coordinator *service.Coordinator
	ready       func(c *gin.Context) error
}

// NewHandler creates a new HTTP handler. The ready func checks store
// connectivity for the readiness endpoint and may be nil.
func NewHandler(coordinator *service.Coordinator, ready func(c *gin.Context) error) *Handler {
	return &Handler{
		coordinator: coordinator,
		ready:       ready,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/tables", h.getTables)
		v1.GET("/tables/occupied", h.getOccupiedTables)
		v1.POST("/tables", h.saveTable)
		v1.DELETE("/tables/:id", h.deleteTable)
		v1.GET("/tables/:id/orders", h.getTableOrders)

		v1.GET("/menu", h.getMenu)
		v1.POST("/menu", h.saveMenuItem)
		v1.DELETE("/menu/:id", h.deleteMenuItem)

		v1.GET("/reservations", h.getReservations)
		v1.GET("/reservations/:id", h.getReservationDetails)
		v1.POST("/reservations", h.saveReservation)
		v1.DELETE("/reservations/:id", h.deleteReservation)

		v1.GET("/orders", h.getOrders)
		v1.POST("/orders", h.saveOrder)
		v1.PUT("/orders/:id/status", h.updateOrderStatus)

		v1.GET("/bills", h.getBills)
		v1.GET("/bills/:id", h.getBillDetails)
		v1.POST("/bills", h.saveBill)

		v1.GET("/dashboard", h.getDashboardInfo)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck verifies the store connection is live.
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// pathID normalizes the :id path parameter before anything touches the
// store; a malformed id is rejected here.
func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := ident.Normalize(c.Param("id"))
	if err != nil {
		replyError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// replyError maps the error taxonomy onto a reply payload and status.
func replyError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case apperr.CodeInvalidIdentifier, apperr.CodeInvalidReference,
		apperr.CodeInvalidPaymentMethod, apperr.CodeInvalidStatus:
		status = http.StatusBadRequest
	case apperr.CodeEntityNotFound:
		status = http.StatusNotFound
	case apperr.CodeInconsistentAggregate:
		status = http.StatusConflict
	case apperr.CodeStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   code,
		"message": apperr.MessageOf(err),
	})
}

func (h *Handler) getTables(c *gin.Context) {
	tables, err := h.coordinator.ListTables(c.Request.Context())
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

func (h *Handler) getOccupiedTables(c *gin.Context) {
	tables, err := h.coordinator.ListOccupiedTables(c.Request.Context())
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

func (h *Handler) saveTable(c *gin.Context) {
	var req service.SaveTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	table, err := h.coordinator.SaveTable(c.Request.Context(), &req)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "table": table})
}

func (h *Handler) deleteTable(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.coordinator.DeleteTable(c.Request.Context(), id); err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getTableOrders(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	orders, err := h.coordinator.GetTableOrders(c.Request.Context(), id)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getMenu(c *gin.Context) {
	items, err := h.coordinator.ListMenu(c.Request.Context())
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) saveMenuItem(c *gin.Context) {
	var req service.SaveMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	item, err := h.coordinator.SaveMenuItem(c.Request.Context(), &req)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "menuItem": item})
}

func (h *Handler) deleteMenuItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.coordinator.DeleteMenuItem(c.Request.Context(), id); err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getReservations(c *gin.Context) {
	reservations, err := h.coordinator.ListReservations(c.Request.Context())
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

func (h *Handler) getReservationDetails(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	details, err := h.coordinator.GetReservationDetails(c.Request.Context(), id)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) saveReservation(c *gin.Context) {
	var req service.SaveReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	reservation, err := h.coordinator.SaveReservation(c.Request.Context(), &req)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"reservation": reservation,
		"message":     "Reservation saved",
	})
}

func (h *Handler) deleteReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.coordinator.DeleteReservation(c.Request.Context(), id); err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getOrders(c *gin.Context) {
	orders, err := h.coordinator.ListOrders(c.Request.Context())
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) saveOrder(c *gin.Context) {
	var req service.SaveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	order, err := h.coordinator.SaveOrder(c.Request.Context(), &req)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"order":   order,
		"message": "Order saved",
	})
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	order, err := h.coordinator.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (h *Handler) getBills(c *gin.Context) {
	bills, err := h.coordinator.ListBills(c.Request.Context())
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func (h *Handler) getBillDetails(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	details, err := h.coordinator.GetBillDetails(c.Request.Context(), id)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) saveBill(c *gin.Context) {
	var req service.SettleBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	bill, err := h.coordinator.SettleBill(c.Request.Context(), &req)
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"bill":    bill,
		"message": "Bill settled",
	})
}

func (h *Handler) getDashboardInfo(c *gin.Context) {
	info, err := h.coordinator.GetDashboardInfo(c.Request.Context())
	if err != nil {
		replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
