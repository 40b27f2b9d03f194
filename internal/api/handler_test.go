package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"happy-store/internal/controller"
	"happy-store/internal/models"
	"happy-store/internal/syncclient"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLocal struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memLocal) Load(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	return raw, ok
}

func (m *memLocal) Save(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
}

type stubRemote struct{}

func (stubRemote) FetchAggregate(ctx context.Context) syncclient.FetchResult {
	return syncclient.FetchResult{Status: syncclient.StatusLocalOnly}
}

func (stubRemote) PushAggregate(ctx context.Context, agg *models.Aggregate) error {
	return syncclient.ErrNoBackend
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := controller.New(&memLocal{data: map[string][]byte{}}, stubRemote{}, nil, time.Hour)
	ctrl.LoadLocal()
	ctrl.SyncFromRemote(context.Background())

	router := gin.New()
	NewHandler(ctrl).SetupRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetState(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       models.Aggregate `json:"data"`
		SyncStatus string           `json:"syncStatus"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "local-only", resp.SyncStatus)
	assert.Len(t, resp.Data.Orders, 4)
}

func TestCreateOrderEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/orders", `{
		"customerName": "Nora Adel",
		"phone": "01055556666",
		"address": "Tanta",
		"source": "Instagram",
		"status": "Pending",
		"items": [{"type": "Hoodie", "color": "Black", "size": "M", "quantity": 2, "price": 450}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, 1005, order.ID)
	assert.Equal(t, "Nora Adel", order.CustomerName)
}

func TestCreateOrderRejectsMissingItems(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/orders", `{
		"customerName": "Nora Adel",
		"phone": "01055556666",
		"items": []
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderStatusEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPatch, "/api/v1/orders/1002/status", `{"status": "Shipped"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/orders/1002", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Shipped"`)
}

func TestDeleteOrderEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/orders/1002", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/orders/1002", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/backup/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "happy-store-backup-")

	var backup models.Backup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &backup))
	assert.Equal(t, models.BackupVersion, backup.Version)
}

func TestImportRequiresConfirmation(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/backup/import", `{"orders": [], "items": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/backup/import?confirm=true", `{"orders": [], "items": []}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/state", "")
	var resp struct {
		Data models.Aggregate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Orders)
}

func TestImportRejectsUnrecognizedFile(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/backup/import?confirm=true", `{"foo": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForceSyncEndpointLocalOnly(t *testing.T) {
	router := newTestRouter(t)

	// The stub backend answers "not found", so a forced push downgrades
	// cleanly to local-only instead of reporting success.
	w := doJSON(t, router, http.MethodPost, "/api/v1/sync", "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "local-only")
}

func TestTransactionEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", `{
		"type": "income", "amount": 450, "description": "Hoodie sale", "date": "2026-09-01"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var tx models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))

	w = doJSON(t, router, http.MethodDelete, "/api/v1/transactions/"+tx.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/ready", "").Code)
}
