package models

import "time"

// Order represents a customer order
type Order struct {
	ID           int    `json:"id"`
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	Notes        string `json:"notes"`
}

// OrderItem represents a single line item belonging to an order. Items carry a
// stringified reference to their parent order and are regenerated wholesale
// whenever the order is edited, so their ids are not stable across edits.
type OrderItem struct {
	ID       string  `json:"id"`
	OrderID  string  `json:"orderId"`
	Type     string  `json:"type"`
	Color    string  `json:"color"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// FactorySubItem is a production line embedded in a factory order. It has no
// identity of its own.
type FactorySubItem struct {
	Type     string `json:"type"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

// FactoryOrder represents a production sub-order sent to the factory
type FactoryOrder struct {
	ID             string           `json:"id"`
	OrderReference string           `json:"orderReference"`
	Status         string           `json:"status"`
	CreatedAt      string           `json:"createdAt"`
	Items          []FactorySubItem `json:"items"`
}

// Transaction represents a cash movement in the treasury
type Transaction struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// AppConfig holds the four user-editable taxonomies. The lists constrain form
// selection only; stored records are never migrated when an entry is removed.
type AppConfig struct {
	Statuses     []string `json:"statuses"`
	Sources      []string `json:"sources"`
	ProductTypes []string `json:"productTypes"`
	ProductSizes []string `json:"productSizes"`
}

// Aggregate is the whole-document shape exchanged with the remote blob store.
// Every field is optional on read: a nil field means "leave the current
// collection unchanged", a present-but-empty field means "replace with empty".
type Aggregate struct {
	Orders        []Order        `json:"orders"`
	Items         []OrderItem    `json:"items"`
	Config        *AppConfig     `json:"config"`
	Transactions  []Transaction  `json:"transactions"`
	FactoryOrders []FactoryOrder `json:"factoryOrders"`
}

// Backup is the self-describing export/import file format: the aggregate plus a
// format version tag and generation timestamp.
type Backup struct {
	Version       string         `json:"version"`
	Timestamp     string         `json:"timestamp"`
	Orders        []Order        `json:"orders"`
	Items         []OrderItem    `json:"items"`
	Config        *AppConfig     `json:"config"`
	Transactions  []Transaction  `json:"transactions"`
	FactoryOrders []FactoryOrder `json:"factoryOrders"`
}

// BackupVersion tags exported snapshots
const BackupVersion = "1.2.0"

// Transaction types
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Factory order statuses
const (
	FactoryStatusWaiting  = "waiting"
	FactoryStatusReceived = "received"
)

// FirstOrderID is assigned to the first order ever created
const FirstOrderID = 1001

// DefaultConfig returns the built-in taxonomy used until the operator edits it
func DefaultConfig() AppConfig {
	return AppConfig{
		Statuses:     []string{"Pending", "Ready", "Shipped", "Delivered", "Cancelled", "Returned"},
		Sources:      []string{"Store", "Facebook", "Instagram", "Friends", "WhatsApp"},
		ProductTypes: []string{"Hoodie", "T-Shirt", "Pants", "Shorts", "Sweatshirt"},
		ProductSizes: []string{"S", "M", "L", "XL", "XXL"},
	}
}

// SeedOrders returns the sample orders adopted when local storage is empty
func SeedOrders() []Order {
	now := time.Now()
	return []Order{
		{
			ID:           1001,
			CustomerName: "Ahmed Mohamed",
			Phone:        "01012345678",
			Address:      "Cairo, Nasr City, El-Tayaran St.",
			Source:       "Facebook",
			Status:       "Delivered",
			CreatedAt:    now.Add(-48 * time.Hour).Format(time.RFC3339),
			Notes:        "Call before arrival",
		},
		{
			ID:           1002,
			CustomerName: "Sara Ali",
			Phone:        "01198765432",
			Address:      "Alexandria, Smouha",
			Source:       "Instagram",
			Status:       "Pending",
			CreatedAt:    now.Format(time.RFC3339),
			Notes:        "",
		},
		{
			ID:           1003,
			CustomerName: "Mahmoud Hassan",
			Phone:        "01234567890",
			Address:      "Giza, Dokki",
			Source:       "Store",
			Status:       "Ready",
			CreatedAt:    now.Add(-5 * time.Hour).Format(time.RFC3339),
			Notes:        "Gift wrapping",
		},
		{
			ID:           1004,
			CustomerName: "Karim Yehia",
			Phone:        "01000000000",
			Address:      "Mansoura, El-Mashaya St.",
			Source:       "WhatsApp",
			Status:       "Cancelled",
			CreatedAt:    now.Add(-120 * time.Hour).Format(time.RFC3339),
			Notes:        "Customer cancelled the order",
		},
	}
}

// SeedOrderItems returns the line items matching SeedOrders
func SeedOrderItems() []OrderItem {
	return []OrderItem{
		{ID: "item-1", OrderID: "1001", Type: "Hoodie", Color: "Black", Size: "L", Quantity: 1, Price: 450},
		{ID: "item-2", OrderID: "1001", Type: "Pants", Color: "Beige", Size: "32", Quantity: 1, Price: 250},
		{ID: "item-3", OrderID: "1002", Type: "T-Shirt", Color: "White", Size: "M", Quantity: 2, Price: 150},
		{ID: "item-4", OrderID: "1003", Type: "Sweatshirt", Color: "Navy", Size: "XL", Quantity: 1, Price: 350},
		{ID: "item-5", OrderID: "1004", Type: "Hoodie", Color: "Grey", Size: "XXL", Quantity: 1, Price: 500},
	}
}

// SeedTransactions returns the initial treasury ledger (empty)
func SeedTransactions() []Transaction {
	return []Transaction{}
}
