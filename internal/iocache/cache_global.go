package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// activityTable is the name of the table for activity caching.
const activityTable = "fragmeter_activity_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

var _ contract.CacheManager = Manager // Compile-time check

// GetDBFilePath returns the path to the SQLite DB file for cache storage.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for score history.
func GetHistoryDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// InitStores initializes the global manager with separate cache and history stores.
// A NoneBackend leaves the corresponding store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var (
			activityStore contract.CacheStore
			historyStore  contract.HistoryStore
		)

		if cacheBackend != "" && cacheBackend != schema.NoneBackend {
			store, err := NewCacheStore(activityTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize activity caching: %w", err)
				return
			}
			activityStore = store
		}

		if historyBackend != "" && historyBackend != schema.NoneBackend {
			store, err := NewHistoryStore(historyBackend, historyConnStr)
			if err != nil {
				if activityStore != nil {
					_ = activityStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
			historyStore = store
		}

		Manager.Lock()
		Manager.activity = activityStore
		Manager.history = historyStore
		Manager.Unlock()
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.activity != nil {
			_ = Manager.activity.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearCache clears the activity cache for the specified backend.
// For SQLite, it deletes the database file.
// For MySQL and PostgreSQL, it drops the table.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearStore(backend, dbFilePath, connStr, activityTable)
}

// ClearHistory clears the score history for the specified backend, migrations included.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearStore(backend, dbFilePath, connStr, dailyScoresTable, runsTable, migrationsTable)
}

func clearStore(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		for _, table := range tables {
			if err := clearSQLTable(backend, connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	driver, err := driverName(backend)
	if err != nil {
		return err
	}
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
