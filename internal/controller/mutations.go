package controller

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"happy-store/internal/models"
	"happy-store/internal/util"

	"go.uber.org/zap"
)

// OrderRequest carries the submitted order form
type OrderRequest struct {
	CustomerName string        `json:"customerName" binding:"required"`
	Phone        string        `json:"phone" binding:"required"`
	Address      string        `json:"address"`
	Source       string        `json:"source"`
	Status       string        `json:"status"`
	Notes        string        `json:"notes"`
	Items        []ItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ItemRequest is one line item on the order form
type ItemRequest struct {
	Type     string  `json:"type"`
	Color    string  `json:"color"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Price    float64 `json:"price" binding:"min=0"`
}

// TransactionRequest carries a submitted treasury entry
type TransactionRequest struct {
	Type        string  `json:"type" binding:"required,oneof=income expense"`
	Amount      float64 `json:"amount" binding:"min=0"`
	Description string  `json:"description" binding:"required"`
	Date        string  `json:"date"`
}

// FactoryOrderRequest carries a submitted factory order
type FactoryOrderRequest struct {
	OrderReference string                  `json:"orderReference" binding:"required"`
	Items          []models.FactorySubItem `json:"items" binding:"required,min=1"`
}

func validateOrderRequest(req *OrderRequest) error {
	if req.CustomerName == "" {
		return fmt.Errorf("customer name is required")
	}
	if req.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i+1)
		}
		if item.Price < 0 {
			return fmt.Errorf("item %d: price must not be negative", i+1)
		}
	}
	return nil
}

// CreateOrder creates a new order with a fresh monotonic id and its line items
func (c *Controller) CreateOrder(ctx context.Context, req *OrderRequest) (*models.Order, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	id := c.nextOrderIDLocked()

	order := models.Order{
		ID:           id,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
		Source:       req.Source,
		Status:       req.Status,
		CreatedAt:    c.now().Format(time.RFC3339),
		Notes:        req.Notes,
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for idx, it := range req.Items {
		items = append(items, models.OrderItem{
			ID:       fmt.Sprintf("item-%d-%d", id, idx),
			OrderID:  strconv.Itoa(id),
			Type:     it.Type,
			Color:    it.Color,
			Size:     it.Size,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	// New orders go to the front of the list.
	c.orders = append([]models.Order{order}, c.orders...)
	c.items = append(c.items, items...)
	c.markDirtyLocked()
	c.mu.Unlock()

	util.OrdersCreatedTotal.Inc()
	util.MutationsTotal.WithLabelValues(ChangeOrders).Inc()
	c.notify(Change{Kind: ChangeOrders})
	c.publishOrderEvent(ctx, models.EventTypeOrderCreated, id, order.Status, len(items))
	c.logger.Info("Order created", zap.Int("order_id", id), zap.Int("items", len(items)))

	return &order, nil
}

// UpdateOrder edits an order in place. All existing line items for the order
// are discarded and regenerated from the submitted form; per-item identity is
// deliberately not preserved across edits.
func (c *Controller) UpdateOrder(ctx context.Context, id int, req *OrderRequest) (*models.Order, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	idx := c.findOrderLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("order not found: %d", id)
	}

	order := &c.orders[idx]
	order.CustomerName = req.CustomerName
	order.Phone = req.Phone
	order.Address = req.Address
	order.Source = req.Source
	order.Status = req.Status
	order.Notes = req.Notes

	orderID := strconv.Itoa(id)
	kept := c.items[:0:0]
	for _, item := range c.items {
		if item.OrderID != orderID {
			kept = append(kept, item)
		}
	}
	stamp := c.now().UnixMilli()
	for i, it := range req.Items {
		kept = append(kept, models.OrderItem{
			ID:       fmt.Sprintf("item-%d-%d-%d", id, stamp, i),
			OrderID:  orderID,
			Type:     it.Type,
			Color:    it.Color,
			Size:     it.Size,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	c.items = kept

	updated := *order
	c.markDirtyLocked()
	c.mu.Unlock()

	util.OrdersUpdatedTotal.Inc()
	util.MutationsTotal.WithLabelValues(ChangeOrders).Inc()
	c.notify(Change{Kind: ChangeOrders})
	c.publishOrderEvent(ctx, models.EventTypeOrderUpdated, id, updated.Status, len(req.Items))
	c.logger.Info("Order updated", zap.Int("order_id", id))

	return &updated, nil
}

// DeleteOrder removes an order and cascades to all of its line items
func (c *Controller) DeleteOrder(ctx context.Context, id int) error {
	c.mu.Lock()
	idx := c.findOrderLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("order not found: %d", id)
	}

	c.orders = append(c.orders[:idx], c.orders[idx+1:]...)

	orderID := strconv.Itoa(id)
	kept := c.items[:0:0]
	for _, item := range c.items {
		if item.OrderID != orderID {
			kept = append(kept, item)
		}
	}
	c.items = kept

	c.markDirtyLocked()
	c.mu.Unlock()

	util.OrdersDeletedTotal.Inc()
	util.MutationsTotal.WithLabelValues(ChangeOrders).Inc()
	c.notify(Change{Kind: ChangeOrders})
	c.publishOrderEvent(ctx, models.EventTypeOrderDeleted, id, "", 0)
	c.logger.Info("Order deleted", zap.Int("order_id", id))

	return nil
}

// ChangeOrderStatus updates just the status field of an order
func (c *Controller) ChangeOrderStatus(ctx context.Context, id int, status string) error {
	c.mu.Lock()
	idx := c.findOrderLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("order not found: %d", id)
	}
	c.orders[idx].Status = status
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeOrders).Inc()
	c.notify(Change{Kind: ChangeOrders})
	c.publishOrderEvent(ctx, models.EventTypeOrderStatusChanged, id, status, 0)

	return nil
}

// GetOrder returns an order and its line items
func (c *Controller) GetOrder(id int) (*models.Order, []models.OrderItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.findOrderLocked(id)
	if idx < 0 {
		return nil, nil, fmt.Errorf("order not found: %d", id)
	}
	order := c.orders[idx]

	orderID := strconv.Itoa(id)
	var items []models.OrderItem
	for _, item := range c.items {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	return &order, items, nil
}

// CreateTransaction records a new treasury entry
func (c *Controller) CreateTransaction(ctx context.Context, req *TransactionRequest) (*models.Transaction, error) {
	if err := validateTransactionRequest(req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	tx := models.Transaction{
		ID:          fmt.Sprintf("tr-%d", c.now().UnixMilli()),
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	}
	if tx.Date == "" {
		tx.Date = c.now().Format("2006-01-02")
	}
	c.transactions = append(c.transactions, tx)
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeTransactions).Inc()
	c.notify(Change{Kind: ChangeTransactions})
	c.publishTransactionEvent(ctx, models.EventTypeTransactionSaved, &tx)

	return &tx, nil
}

// UpdateTransaction edits an existing treasury entry in place
func (c *Controller) UpdateTransaction(ctx context.Context, id string, req *TransactionRequest) (*models.Transaction, error) {
	if err := validateTransactionRequest(req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	var updated *models.Transaction
	for i := range c.transactions {
		if c.transactions[i].ID == id {
			c.transactions[i].Type = req.Type
			c.transactions[i].Amount = req.Amount
			c.transactions[i].Description = req.Description
			if req.Date != "" {
				c.transactions[i].Date = req.Date
			}
			tx := c.transactions[i]
			updated = &tx
			break
		}
	}
	if updated == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("transaction not found: %s", id)
	}
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeTransactions).Inc()
	c.notify(Change{Kind: ChangeTransactions})
	c.publishTransactionEvent(ctx, models.EventTypeTransactionSaved, updated)

	return updated, nil
}

// DeleteTransaction removes a treasury entry
func (c *Controller) DeleteTransaction(ctx context.Context, id string) error {
	c.mu.Lock()
	found := false
	kept := c.transactions[:0:0]
	for _, tx := range c.transactions {
		if tx.ID == id {
			found = true
			continue
		}
		kept = append(kept, tx)
	}
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("transaction not found: %s", id)
	}
	c.transactions = kept
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeTransactions).Inc()
	c.notify(Change{Kind: ChangeTransactions})
	c.publishTransactionEvent(ctx, models.EventTypeTransactionDeleted, &models.Transaction{ID: id})

	return nil
}

func validateTransactionRequest(req *TransactionRequest) error {
	if req.Type != models.TransactionIncome && req.Type != models.TransactionExpense {
		return fmt.Errorf("transaction type must be income or expense")
	}
	if req.Amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	if req.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

// CreateFactoryOrder records a new production sub-order in waiting state
func (c *Controller) CreateFactoryOrder(ctx context.Context, req *FactoryOrderRequest) (*models.FactoryOrder, error) {
	if err := validateFactoryOrderRequest(req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	fo := models.FactoryOrder{
		ID:             fmt.Sprintf("fac-%d", c.now().UnixMilli()),
		OrderReference: req.OrderReference,
		Status:         models.FactoryStatusWaiting,
		CreatedAt:      c.now().Format(time.RFC3339),
		Items:          req.Items,
	}
	c.factoryOrders = append(c.factoryOrders, fo)
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeFactoryOrders).Inc()
	c.notify(Change{Kind: ChangeFactoryOrders})
	c.publishFactoryOrderEvent(ctx, models.EventTypeFactoryOrderSaved, fo.ID, fo.Status)

	return &fo, nil
}

// UpdateFactoryOrder replaces the reference label and embedded items
func (c *Controller) UpdateFactoryOrder(ctx context.Context, id string, req *FactoryOrderRequest) (*models.FactoryOrder, error) {
	if err := validateFactoryOrderRequest(req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	var updated *models.FactoryOrder
	for i := range c.factoryOrders {
		if c.factoryOrders[i].ID == id {
			c.factoryOrders[i].OrderReference = req.OrderReference
			c.factoryOrders[i].Items = req.Items
			fo := c.factoryOrders[i]
			updated = &fo
			break
		}
	}
	if updated == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("factory order not found: %s", id)
	}
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeFactoryOrders).Inc()
	c.notify(Change{Kind: ChangeFactoryOrders})
	c.publishFactoryOrderEvent(ctx, models.EventTypeFactoryOrderSaved, id, updated.Status)

	return updated, nil
}

// DeleteFactoryOrder removes a production sub-order
func (c *Controller) DeleteFactoryOrder(ctx context.Context, id string) error {
	c.mu.Lock()
	found := false
	kept := c.factoryOrders[:0:0]
	for _, fo := range c.factoryOrders {
		if fo.ID == id {
			found = true
			continue
		}
		kept = append(kept, fo)
	}
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("factory order not found: %s", id)
	}
	c.factoryOrders = kept
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeFactoryOrders).Inc()
	c.notify(Change{Kind: ChangeFactoryOrders})
	c.publishFactoryOrderEvent(ctx, models.EventTypeFactoryOrderDeleted, id, "")

	return nil
}

// SetFactoryOrderStatus toggles a factory order between waiting and received
func (c *Controller) SetFactoryOrderStatus(ctx context.Context, id, status string) error {
	if status != models.FactoryStatusWaiting && status != models.FactoryStatusReceived {
		return fmt.Errorf("factory order status must be waiting or received")
	}

	c.mu.Lock()
	found := false
	for i := range c.factoryOrders {
		if c.factoryOrders[i].ID == id {
			c.factoryOrders[i].Status = status
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("factory order not found: %s", id)
	}
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeFactoryOrders).Inc()
	c.notify(Change{Kind: ChangeFactoryOrders})
	c.publishFactoryOrderEvent(ctx, models.EventTypeFactoryOrderSaved, id, status)

	return nil
}

func validateFactoryOrderRequest(req *FactoryOrderRequest) error {
	if req.OrderReference == "" {
		return fmt.Errorf("order reference is required")
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i+1)
		}
	}
	return nil
}

// UpdateConfig replaces the taxonomy lists. Existing records referencing a
// removed entry are left as-is.
func (c *Controller) UpdateConfig(ctx context.Context, cfg models.AppConfig) {
	c.mu.Lock()
	c.config = normalizeConfig(cfg)
	c.markDirtyLocked()
	c.mu.Unlock()

	util.MutationsTotal.WithLabelValues(ChangeConfig).Inc()
	c.notify(Change{Kind: ChangeConfig})
	base := c.newBaseEvent(models.EventTypeConfigUpdated)
	if err := c.events.PublishBase(ctx, "config", &base); err != nil {
		c.logger.Error("Failed to publish config event", zap.Error(err))
	}
}

func normalizeConfig(cfg models.AppConfig) models.AppConfig {
	if cfg.Statuses == nil {
		cfg.Statuses = []string{}
	}
	if cfg.Sources == nil {
		cfg.Sources = []string{}
	}
	if cfg.ProductTypes == nil {
		cfg.ProductTypes = []string{}
	}
	if cfg.ProductSizes == nil {
		cfg.ProductSizes = []string{}
	}
	return cfg
}

// nextOrderIDLocked assigns order ids monotonically: max(existing)+1, or the
// fixed seed when no orders exist.
func (c *Controller) nextOrderIDLocked() int {
	if len(c.orders) == 0 {
		return models.FirstOrderID
	}
	max := c.orders[0].ID
	for _, o := range c.orders[1:] {
		if o.ID > max {
			max = o.ID
		}
	}
	return max + 1
}

func (c *Controller) findOrderLocked(id int) int {
	for i := range c.orders {
		if c.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) publishOrderEvent(ctx context.Context, eventType string, orderID int, status string, itemCount int) {
	event := &models.OrderEvent{
		BaseEvent: c.newBaseEvent(eventType),
		OrderID:   orderID,
		Status:    status,
		ItemCount: itemCount,
	}
	if err := c.events.PublishOrderEvent(ctx, event); err != nil {
		c.logger.Error("Failed to publish order event", zap.Error(err))
	}
}

func (c *Controller) publishTransactionEvent(ctx context.Context, eventType string, tx *models.Transaction) {
	event := &models.TransactionEvent{
		BaseEvent:     c.newBaseEvent(eventType),
		TransactionID: tx.ID,
		Kind:          tx.Type,
		Amount:        tx.Amount,
	}
	if err := c.events.PublishTransactionEvent(ctx, event); err != nil {
		c.logger.Error("Failed to publish transaction event", zap.Error(err))
	}
}

func (c *Controller) publishFactoryOrderEvent(ctx context.Context, eventType, id, status string) {
	event := &models.FactoryOrderEvent{
		BaseEvent:      c.newBaseEvent(eventType),
		FactoryOrderID: id,
		Status:         status,
	}
	if err := c.events.PublishFactoryOrderEvent(ctx, event); err != nil {
		c.logger.Error("Failed to publish factory order event", zap.Error(err))
	}
}
