package models

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateAbsentVersusEmptyFields(t *testing.T) {
	// Absent fields decode to nil, present-but-empty to an empty slice; the
	// sync overlay relies on that distinction.
	var partial Aggregate
	require.NoError(t, json.Unmarshal([]byte(`{"orders": [], "items": [{"id": "item-1", "orderId": "1001"}]}`), &partial))

	assert.NotNil(t, partial.Orders)
	assert.Empty(t, partial.Orders)
	assert.Len(t, partial.Items, 1)
	assert.Nil(t, partial.Transactions)
	assert.Nil(t, partial.FactoryOrders)
	assert.Nil(t, partial.Config)
}

func TestOrderWireFormat(t *testing.T) {
	order := Order{
		ID:           1001,
		CustomerName: "Ahmed Mohamed",
		Phone:        "01012345678",
		Status:       "Pending",
		CreatedAt:    "2026-09-01T10:00:00Z",
	}

	data, err := json.Marshal(order)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"customerName":"Ahmed Mohamed"`)
	assert.Contains(t, string(data), `"createdAt":"2026-09-01T10:00:00Z"`)
	assert.Contains(t, string(data), `"id":1001`)
}

func TestSeedDataConsistency(t *testing.T) {
	orders := SeedOrders()
	items := SeedOrderItems()

	ids := map[string]bool{}
	for _, o := range orders {
		ids[strconv.Itoa(o.ID)] = true
	}
	for _, item := range items {
		assert.True(t, ids[item.OrderID], "seed item %s references order %s", item.ID, item.OrderID)
	}

	assert.Empty(t, SeedTransactions())
}
