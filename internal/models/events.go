package models

import "time"

// Event types
const (
	EventTypeOrderCreated        = "ORDER_CREATED"
	EventTypeOrderUpdated        = "ORDER_UPDATED"
	EventTypeOrderDeleted        = "ORDER_DELETED"
	EventTypeOrderStatusChanged  = "ORDER_STATUS_CHANGED"
	EventTypeTransactionSaved    = "TRANSACTION_SAVED"
	EventTypeTransactionDeleted  = "TRANSACTION_DELETED"
	EventTypeFactoryOrderSaved   = "FACTORY_ORDER_SAVED"
	EventTypeFactoryOrderDeleted = "FACTORY_ORDER_DELETED"
	EventTypeConfigUpdated       = "CONFIG_UPDATED"
	EventTypeDataImported        = "DATA_IMPORTED"
	EventTypeSyncStateChanged    = "SYNC_STATE_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent published when an order is created, updated or deleted
type OrderEvent struct {
	BaseEvent
	OrderID   int    `json:"order_id"`
	Status    string `json:"status,omitempty"`
	ItemCount int    `json:"item_count,omitempty"`
}

// TransactionEvent published when a treasury transaction changes
type TransactionEvent struct {
	BaseEvent
	TransactionID string  `json:"transaction_id"`
	Kind          string  `json:"kind,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
}

// FactoryOrderEvent published when a factory order changes
type FactoryOrderEvent struct {
	BaseEvent
	FactoryOrderID string `json:"factory_order_id"`
	Status         string `json:"status,omitempty"`
}

// SyncStateEvent published when the connection status transitions
type SyncStateEvent struct {
	BaseEvent
	From  string `json:"from"`
	To    string `json:"to"`
	Error string `json:"error,omitempty"`
}

// ImportEvent published after a backup file is applied
type ImportEvent struct {
	BaseEvent
	Orders       int `json:"orders"`
	Items        int `json:"items"`
	Transactions int `json:"transactions"`
}
