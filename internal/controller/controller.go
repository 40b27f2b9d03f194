package controller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"happy-store/internal/broker"
	"happy-store/internal/localstore"
	"happy-store/internal/models"
	"happy-store/internal/syncclient"
	"happy-store/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SnapshotStore is the local best-effort cache of per-collection snapshots
type SnapshotStore interface {
	Load(key string) ([]byte, bool)
	Save(key string, value interface{})
}

// RemoteStore is the whole-aggregate remote blob store
type RemoteStore interface {
	FetchAggregate(ctx context.Context) syncclient.FetchResult
	PushAggregate(ctx context.Context, agg *models.Aggregate) error
}

// Change notifies subscribers that part of the aggregate (or the connection
// status) changed.
type Change struct {
	Kind string `json:"kind"`
}

// Change kinds
const (
	ChangeOrders        = "orders"
	ChangeTransactions  = "transactions"
	ChangeFactoryOrders = "factoryOrders"
	ChangeConfig        = "config"
	ChangeImport        = "import"
	ChangeSync          = "sync"
)

// Controller owns the in-memory aggregate and reconciles it between the local
// snapshot store and the remote blob store: local-first startup load, remote
// overlay, immediate local persistence on every mutation, and a single-slot
// debounced remote push (a new mutation cancels the pending push and arms a
// fresh one, so only the latest aggregate is ever sent).
type Controller struct {
	mu            sync.Mutex
	orders        []models.Order
	items         []models.OrderItem
	config        models.AppConfig
	transactions  []models.Transaction
	factoryOrders []models.FactoryOrder

	status    syncclient.Status
	lastError string

	local  SnapshotStore
	remote RemoteStore
	events *broker.EventPublisher
	logger *zap.Logger

	debounce time.Duration
	timer    *time.Timer

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int

	now func() time.Time
}

// New creates a controller. events may be nil when event publishing is
// disabled.
func New(local SnapshotStore, remote RemoteStore, events *broker.EventPublisher, debounce time.Duration) *Controller {
	return &Controller{
		status:   syncclient.StatusLoading,
		local:    local,
		remote:   remote,
		events:   events,
		logger:   util.GetLogger(),
		debounce: debounce,
		subs:     make(map[int]chan Change),
		now:      time.Now,
	}
}

// Start performs the startup sequence: adopt the locally stored state first so
// callers see data immediately, then overlay whatever the remote holds in the
// background.
func (c *Controller) Start(ctx context.Context) {
	c.LoadLocal()
	go c.SyncFromRemote(ctx)
}

// LoadLocal synchronously reads all five snapshot keys, adopting each stored
// collection when present and the built-in seed data otherwise.
func (c *Controller) LoadLocal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orders = loadOrSeed(c.local, localstore.KeyOrders, models.SeedOrders())
	c.items = loadOrSeed(c.local, localstore.KeyItems, models.SeedOrderItems())
	c.transactions = loadOrSeed(c.local, localstore.KeyTransactions, models.SeedTransactions())
	c.factoryOrders = loadOrSeed(c.local, localstore.KeyFactoryOrders, []models.FactoryOrder{})

	cfg := models.DefaultConfig()
	if raw, ok := c.local.Load(localstore.KeyConfig); ok {
		var stored models.AppConfig
		if err := json.Unmarshal(raw, &stored); err == nil {
			cfg = stored
		} else {
			c.logger.Warn("Malformed stored config, using defaults", zap.Error(err))
		}
	}
	c.config = cfg

	c.logger.Info("Local state loaded",
		zap.Int("orders", len(c.orders)),
		zap.Int("items", len(c.items)),
		zap.Int("transactions", len(c.transactions)),
		zap.Int("factory_orders", len(c.factoryOrders)))
}

func loadOrSeed[T any](store SnapshotStore, key string, seed []T) []T {
	raw, ok := store.Load(key)
	if !ok {
		return seed
	}
	var stored []T
	if err := json.Unmarshal(raw, &stored); err != nil {
		util.GetLogger().Warn("Malformed local snapshot, using seed data",
			zap.String("key", key), zap.Error(err))
		return seed
	}
	if stored == nil {
		stored = []T{}
	}
	return stored
}

// SyncFromRemote fetches the remote aggregate and, when connected, overlays
// every field present in the payload onto the current state (absent fields are
// left untouched), then re-persists the merged state locally.
func (c *Controller) SyncFromRemote(ctx context.Context) {
	ctx, span := util.StartSpan(ctx, "Controller.SyncFromRemote")
	defer span.End()

	res := c.remote.FetchAggregate(ctx)

	switch res.Status {
	case syncclient.StatusConnected:
		if res.Data != nil {
			c.mu.Lock()
			c.overlayLocked(res.Data)
			c.persistLocalLocked()
			c.mu.Unlock()
			c.notify(Change{Kind: ChangeImport})
		}
		c.setStatus(syncclient.StatusConnected, "")
	case syncclient.StatusLocalOnly:
		c.setStatus(syncclient.StatusLocalOnly, "")
	default:
		msg := "cloud fetch failed"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		c.setStatus(syncclient.StatusError, msg)
	}
}

// overlayLocked replaces only the fields present in the payload
func (c *Controller) overlayLocked(agg *models.Aggregate) {
	if agg.Orders != nil {
		c.orders = agg.Orders
	}
	if agg.Items != nil {
		c.items = agg.Items
	}
	if agg.Config != nil {
		c.config = *agg.Config
	}
	if agg.Transactions != nil {
		c.transactions = agg.Transactions
	}
	if agg.FactoryOrders != nil {
		c.factoryOrders = agg.FactoryOrders
	}
}

// Snapshot returns a copy of the full current aggregate
func (c *Controller) Snapshot() models.Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() models.Aggregate {
	cfg := c.config
	return models.Aggregate{
		Orders:        append([]models.Order{}, c.orders...),
		Items:         append([]models.OrderItem{}, c.items...),
		Config:        &cfg,
		Transactions:  append([]models.Transaction{}, c.transactions...),
		FactoryOrders: append([]models.FactoryOrder{}, c.factoryOrders...),
	}
}

// Status returns the current connection status and the last recorded error
// detail (empty unless status is error).
func (c *Controller) Status() (syncclient.Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.lastError
}

func (c *Controller) setStatus(status syncclient.Status, detail string) {
	c.mu.Lock()
	prev := c.status
	c.status = status
	c.lastError = detail
	c.mu.Unlock()

	if prev == status {
		return
	}

	c.logger.Info("Connection status changed",
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
		zap.String("detail", detail))

	c.notify(Change{Kind: ChangeSync})

	event := &models.SyncStateEvent{
		BaseEvent: c.newBaseEvent(models.EventTypeSyncStateChanged),
		From:      string(prev),
		To:        string(status),
		Error:     detail,
	}
	if err := c.events.PublishSyncStateEvent(context.Background(), event); err != nil {
		c.logger.Error("Failed to publish sync state event", zap.Error(err))
	}
}

// persistLocalLocked writes all five collections through to the local
// snapshot store. The local write is never skipped and never fails the caller.
func (c *Controller) persistLocalLocked() {
	c.local.Save(localstore.KeyOrders, c.orders)
	c.local.Save(localstore.KeyItems, c.items)
	c.local.Save(localstore.KeyConfig, c.config)
	c.local.Save(localstore.KeyTransactions, c.transactions)
	c.local.Save(localstore.KeyFactoryOrders, c.factoryOrders)
}

// markDirtyLocked persists locally and (re)arms the debounced remote push.
// Must be called with c.mu held.
func (c *Controller) markDirtyLocked() {
	c.persistLocalLocked()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.flush(context.Background())
	})
}

// flush attempts the debounced remote push, unless the controller is still
// loading or known to be local-only.
func (c *Controller) flush(ctx context.Context) {
	c.mu.Lock()
	if c.status == syncclient.StatusLocalOnly || c.status == syncclient.StatusLoading {
		c.mu.Unlock()
		return
	}
	agg := c.snapshotLocked()
	c.mu.Unlock()

	c.push(ctx, &agg)
}

// ForceSync bypasses the debounce and pushes the current aggregate
// immediately. It attempts the push even in local-only mode so the user can
// recover once a backend appears.
func (c *Controller) ForceSync(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "Controller.ForceSync")
	defer span.End()

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	agg := c.snapshotLocked()
	c.mu.Unlock()

	return c.push(ctx, &agg)
}

// push sends the aggregate and folds the outcome back into the connection
// status: success reconnects, a missing backend downgrades to local-only, and
// anything else records an error without blocking local usage.
func (c *Controller) push(ctx context.Context, agg *models.Aggregate) error {
	util.SyncPushesTotal.Inc()
	start := time.Now()

	err := c.remote.PushAggregate(ctx, agg)
	util.SyncPushLatency.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.setStatus(syncclient.StatusConnected, "")
	case errors.Is(err, syncclient.ErrNoBackend):
		util.SyncPushFailures.WithLabelValues("no_backend").Inc()
		c.setStatus(syncclient.StatusLocalOnly, "")
	default:
		util.SyncPushFailures.WithLabelValues("error").Inc()
		c.logger.Warn("Cloud save failed", zap.Error(err))
		c.setStatus(syncclient.StatusError, err.Error())
	}

	return err
}

// Subscribe registers a change listener. The returned cancel func must be
// called to release the subscription. Notifications are dropped rather than
// blocking a slow consumer.
func (c *Controller) Subscribe() (<-chan Change, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Change, 16)
	c.subs[id] = ch

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (c *Controller) notify(change Change) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

func (c *Controller) newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: c.now(),
	}
}
