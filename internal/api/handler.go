package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"happy-store/internal/controller"
	"happy-store/internal/models"
	"happy-store/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	ctrl *controller.Controller
}

// NewHandler creates a new HTTP handler
func NewHandler(ctrl *controller.Controller) *Handler {
	return &Handler{ctrl: ctrl}
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
		v1.GET("/state", h.getState)
		v1.GET("/events", h.streamEvents)

		v1.GET("/orders", h.listOrders)
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.PUT("/orders/:id", h.updateOrder)
		v1.DELETE("/orders/:id", h.deleteOrder)
		v1.PATCH("/orders/:id/status", h.changeOrderStatus)

		v1.GET("/transactions", h.listTransactions)
		v1.POST("/transactions", h.createTransaction)
		v1.PUT("/transactions/:id", h.updateTransaction)
		v1.DELETE("/transactions/:id", h.deleteTransaction)

		v1.GET("/factory-orders", h.listFactoryOrders)
		v1.POST("/factory-orders", h.createFactoryOrder)
		v1.PUT("/factory-orders/:id", h.updateFactoryOrder)
		v1.DELETE("/factory-orders/:id", h.deleteFactoryOrder)
		v1.PATCH("/factory-orders/:id/status", h.changeFactoryOrderStatus)

		v1.PUT("/config", h.updateConfig)

		v1.POST("/sync", h.forceSync)
		v1.GET("/backup/export", h.exportBackup)
		v1.POST("/backup/import", h.importBackup)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getState returns the full aggregate plus the connection status
func (h *Handler) getState(c *gin.Context) {
	status, detail := h.ctrl.Status()
	agg := h.ctrl.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"data":       agg,
		"syncStatus": status,
		"syncError":  detail,
	})
}

// streamEvents pushes change notifications over SSE so the presentation layer
// can refresh without polling.
func (h *Handler) streamEvents(c *gin.Context) {
	ch, cancel := h.ctrl.Subscribe()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case change, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", change)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) listOrders(c *gin.Context) {
	agg := h.ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"orders": agg.Orders,
		"items":  agg.Items,
	})
}

func (h *Handler) createOrder(c *gin.Context) {
	var req controller.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.ctrl.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	order, items, err := h.ctrl.GetOrder(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

func (h *Handler) updateOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	var req controller.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.ctrl.UpdateOrder(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	if err := h.ctrl.DeleteOrder(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to delete order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) changeOrderStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.ctrl.ChangeOrderStatus(c.Request.Context(), id, req.Status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to change status",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

func (h *Handler) listTransactions(c *gin.Context) {
	agg := h.ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{"transactions": agg.Transactions})
}

func (h *Handler) createTransaction(c *gin.Context) {
	var req controller.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	tx, err := h.ctrl.CreateTransaction(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create transaction",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) updateTransaction(c *gin.Context) {
	var req controller.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	tx, err := h.ctrl.UpdateTransaction(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update transaction",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *Handler) deleteTransaction(c *gin.Context) {
	if err := h.ctrl.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to delete transaction",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *Handler) listFactoryOrders(c *gin.Context) {
	agg := h.ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{"factoryOrders": agg.FactoryOrders})
}

func (h *Handler) createFactoryOrder(c *gin.Context) {
	var req controller.FactoryOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	fo, err := h.ctrl.CreateFactoryOrder(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create factory order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, fo)
}

func (h *Handler) updateFactoryOrder(c *gin.Context) {
	var req controller.FactoryOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	fo, err := h.ctrl.UpdateFactoryOrder(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update factory order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, fo)
}

func (h *Handler) deleteFactoryOrder(c *gin.Context) {
	if err := h.ctrl.DeleteFactoryOrder(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to delete factory order",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *Handler) changeFactoryOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=waiting received"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.ctrl.SetFactoryOrderStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to change status",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

func (h *Handler) updateConfig(c *gin.Context) {
	var cfg models.AppConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	h.ctrl.UpdateConfig(c.Request.Context(), cfg)
	c.JSON(http.StatusOK, cfg)
}

// forceSync bypasses the debounce and pushes immediately, reporting the
// resulting status so the UI can give direct feedback.
func (h *Handler) forceSync(c *gin.Context) {
	err := h.ctrl.ForceSync(c.Request.Context())
	status, detail := h.ctrl.Status()

	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"syncStatus": status,
			"syncError":  detail,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"syncStatus": status})
}

func (h *Handler) exportBackup(c *gin.Context) {
	filename, data, err := h.ctrl.ExportBackup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to export backup",
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", data)
}

// importBackup applies an uploaded backup file. The destructive replace must
// be acknowledged explicitly via the confirm query parameter.
func (h *Handler) importBackup(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Import replaces all current data; repeat with confirm=true",
		})
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to read backup file",
			"details": err.Error(),
		})
		return
	}

	if err := h.ctrl.Import(c.Request.Context(), data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to import backup",
			"details": err.Error(),
		})
		return
	}

	status, detail := h.ctrl.Status()
	c.JSON(http.StatusOK, gin.H{
		"imported":   true,
		"syncStatus": status,
		"syncError":  detail,
	})
}

func orderID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return id, true
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
