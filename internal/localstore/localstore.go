package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"happy-store/internal/util"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Snapshot keys, one per collection. Each key holds that collection's JSON
// independently; only the remote and export paths combine them.
const (
	KeyOrders        = "happy_store_orders"
	KeyItems         = "happy_store_items"
	KeyConfig        = "happy_store_config"
	KeyTransactions  = "happy_store_transactions"
	KeyFactoryOrders = "happy_store_factory_orders"
)

var bucketName = []byte("snapshots")

// Store is a best-effort durable cache of JSON snapshots on the local disk.
// Writes fully replace the prior value; there is no versioning and no
// migration. Failures degrade to logging, callers must not depend on a write
// having succeeded.
type Store struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// Open opens (or creates) the snapshot database under dataDir
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	path := filepath.Join(dataDir, "happystore.db")
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot bucket: %w", err)
	}

	return &Store{db: db, logger: util.GetLogger()}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the exact bytes last written under key, or ok=false when the
// key was never written or the store is unavailable. Malformed content is
// returned as-is; parse errors are the caller's responsibility.
func (s *Store) Load(key string) ([]byte, bool) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketName).Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Local snapshot read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if value == nil {
		return nil, false
	}
	return value, true
}

// Save serializes value to JSON and writes it under key, replacing any prior
// value. Failures are swallowed and logged; local storage is a best-effort
// cache, never the source of a hard failure.
func (s *Store) Save(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		util.LocalSaveFailures.Inc()
		s.logger.Warn("Local snapshot marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), data)
	})
	if err != nil {
		util.LocalSaveFailures.Inc()
		s.logger.Warn("Local snapshot write failed", zap.String("key", key), zap.Error(err))
		return
	}

	util.LocalSavesTotal.Inc()
}
