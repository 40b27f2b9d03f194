package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"happy-store/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchConnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Aggregate{
			Orders: []models.Order{{ID: 1001, CustomerName: "Ahmed"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "development")
	res := c.FetchAggregate(context.Background())

	assert.Equal(t, StatusConnected, res.Status)
	require.NotNil(t, res.Data)
	require.Len(t, res.Data.Orders, 1)
	assert.Equal(t, 1001, res.Data.Orders[0].ID)
	assert.Nil(t, res.Data.Items)
}

func TestFetchConnectedEmptyBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	c := New(srv.URL, "development")
	res := c.FetchAggregate(context.Background())

	assert.Equal(t, StatusConnected, res.Status)
	assert.Nil(t, res.Data)
	assert.NoError(t, res.Err)
}

func TestFetchNotFoundInDevelopmentIsLocalOnly(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := New(srv.URL, "development")
	res := c.FetchAggregate(context.Background())

	assert.Equal(t, StatusLocalOnly, res.Status)
	assert.Nil(t, res.Data)
	assert.NoError(t, res.Err)
}

func TestFetchHTMLInDevelopmentIsLocalOnly(t *testing.T) {
	// A dev server answers unknown routes with the SPA index page.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<!doctype html><html></html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, "development")
	res := c.FetchAggregate(context.Background())

	assert.Equal(t, StatusLocalOnly, res.Status)
}

func TestFetchNotFoundInProductionIsError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := New(srv.URL, "production")
	res := c.FetchAggregate(context.Background())

	assert.Equal(t, StatusError, res.Status)
	assert.Error(t, res.Err)
}

func TestFetchServerErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database connection failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "development")
	res := c.FetchAggregate(context.Background())

	assert.Equal(t, StatusError, res.Status)
	assert.Error(t, res.Err)
}

func TestFetchTransportErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	c := New(srv.URL, "development")
	res := c.FetchAggregate(context.Background())

	assert.Equal(t, StatusError, res.Status)
	assert.Error(t, res.Err)
}

func TestFetchMalformedPayloadIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, "development")
	res := c.FetchAggregate(context.Background())

	assert.Equal(t, StatusError, res.Status)
}

func TestPushSendsWholeAggregate(t *testing.T) {
	var received models.Aggregate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	cfg := models.DefaultConfig()
	agg := &models.Aggregate{
		Orders:        []models.Order{{ID: 1001}},
		Items:         []models.OrderItem{{ID: "item-1", OrderID: "1001"}},
		Config:        &cfg,
		Transactions:  []models.Transaction{},
		FactoryOrders: []models.FactoryOrder{},
	}

	c := New(srv.URL, "development")
	require.NoError(t, c.PushAggregate(context.Background(), agg))

	assert.Len(t, received.Orders, 1)
	assert.Len(t, received.Items, 1)
	require.NotNil(t, received.Config)
	assert.Equal(t, cfg.Statuses, received.Config.Statuses)
	assert.NotNil(t, received.Transactions)
}

func TestPushNotFoundIsErrNoBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := New(srv.URL, "development")
	err := c.PushAggregate(context.Background(), &models.Aggregate{})

	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestPushRejectionIsGenericError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "development")
	err := c.PushAggregate(context.Background(), &models.Aggregate{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoBackend)
}
