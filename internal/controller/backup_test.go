package controller

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"happy-store/internal/models"
	"happy-store/internal/syncclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportBackupShape(t *testing.T) {
	c := newTestController(newFakeLocal(), &fakeRemote{}, time.Hour)
	c.LoadLocal()

	filename, data, err := c.ExportBackup()
	require.NoError(t, err)
	assert.Regexp(t, `^happy-store-backup-\d{4}-\d{2}-\d{2}\.json$`, filename)

	var backup models.Backup
	require.NoError(t, json.Unmarshal(data, &backup))
	assert.Equal(t, models.BackupVersion, backup.Version)
	assert.NotEmpty(t, backup.Timestamp)
	assert.Len(t, backup.Orders, 4)
	assert.Len(t, backup.Items, 5)
	assert.NotNil(t, backup.Config)
	assert.NotNil(t, backup.Transactions)
	assert.NotNil(t, backup.FactoryOrders)

	// Pretty-printed for human inspection.
	assert.Contains(t, string(data), "\n  \"version\"")
}

func TestExportImportRoundTrip(t *testing.T) {
	remote := &fakeRemote{fetchRes: syncclient.FetchResult{Status: syncclient.StatusConnected}}
	c := newTestController(newFakeLocal(), remote, time.Hour)
	c.LoadLocal()
	ctx := context.Background()

	_, err := c.CreateTransaction(ctx, &TransactionRequest{
		Type: models.TransactionIncome, Amount: 450, Description: "Hoodie sale", Date: "2026-08-30",
	})
	require.NoError(t, err)
	_, err = c.CreateFactoryOrder(ctx, &FactoryOrderRequest{
		OrderReference: "Order #1003",
		Items:          []models.FactorySubItem{{Type: "Pants", Size: "32", Color: "Beige", Quantity: 5}},
	})
	require.NoError(t, err)

	before := c.Snapshot()
	_, data, err := c.ExportBackup()
	require.NoError(t, err)

	// Import into a fresh controller with nothing but defaults.
	restored := newTestController(newFakeLocal(), remote, time.Hour)
	restored.LoadLocal()
	require.NoError(t, restored.Import(ctx, data))

	after := restored.Snapshot()
	assert.Equal(t, before.Orders, after.Orders, "ids, timestamps and ordering survive the round trip")
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.Config, after.Config)
	assert.Equal(t, before.Transactions, after.Transactions)
	assert.Equal(t, before.FactoryOrders, after.FactoryOrders)
}

func TestImportRejectsMalformedFile(t *testing.T) {
	c := newTestController(newFakeLocal(), &fakeRemote{}, time.Hour)
	c.LoadLocal()
	before := c.Snapshot()

	assert.Error(t, c.Import(context.Background(), []byte("not json at all")))
	assert.Error(t, c.Import(context.Background(), []byte(`{"transactions": []}`)), "orders and items are required")

	assert.Equal(t, before, c.Snapshot(), "a rejected import must not partially apply")
}

func TestImportReplacesPresentFieldsOnly(t *testing.T) {
	remote := &fakeRemote{fetchRes: syncclient.FetchResult{Status: syncclient.StatusConnected}}
	c := newTestController(newFakeLocal(), remote, time.Hour)
	c.LoadLocal()
	ctx := context.Background()

	_, err := c.CreateTransaction(ctx, &TransactionRequest{
		Type: models.TransactionIncome, Amount: 100, Description: "sale",
	})
	require.NoError(t, err)

	payload := []byte(`{
		"orders": [{"id": 5001, "customerName": "Nora", "phone": "0100", "address": "", "source": "Store", "status": "Pending", "createdAt": "2026-01-01T00:00:00Z", "notes": ""}],
		"items": []
	}`)
	require.NoError(t, c.Import(ctx, payload))

	agg := c.Snapshot()
	require.Len(t, agg.Orders, 1)
	assert.Equal(t, 5001, agg.Orders[0].ID)
	assert.Empty(t, agg.Items, "a present-but-empty collection replaces with empty")
	assert.Len(t, agg.Transactions, 1, "absent collections are left unchanged")
}

func TestImportPushesUnlessLocalOnly(t *testing.T) {
	payload := []byte(`{"orders": [], "items": []}`)

	remote := &fakeRemote{fetchRes: syncclient.FetchResult{Status: syncclient.StatusConnected}}
	c := newTestController(newFakeLocal(), remote, time.Hour)
	c.LoadLocal()
	c.SyncFromRemote(context.Background())

	require.NoError(t, c.Import(context.Background(), payload))
	assert.Equal(t, 1, remote.pushCount())

	localOnly := &fakeRemote{fetchRes: syncclient.FetchResult{Status: syncclient.StatusLocalOnly}}
	c2 := newTestController(newFakeLocal(), localOnly, time.Hour)
	c2.LoadLocal()
	c2.SyncFromRemote(context.Background())

	require.NoError(t, c2.Import(context.Background(), payload))
	assert.Zero(t, localOnly.pushCount())
}

func TestImportToleratesPushFailure(t *testing.T) {
	remote := &fakeRemote{
		fetchRes: syncclient.FetchResult{Status: syncclient.StatusConnected},
		pushErr:  assert.AnError,
	}
	c := newTestController(newFakeLocal(), remote, time.Hour)
	c.LoadLocal()
	c.SyncFromRemote(context.Background())

	err := c.Import(context.Background(), []byte(`{"orders": [], "items": []}`))
	require.NoError(t, err, "a failed push must not fail the import")

	status, detail := c.Status()
	assert.Equal(t, syncclient.StatusError, status)
	assert.NotEmpty(t, detail)
	assert.Empty(t, c.Snapshot().Orders, "the imported data is still applied")
}
