package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// StoreConfig selects and configures a DocumentStore backend.
type StoreConfig struct {
	Driver   string
	MongoURI string
	Database string
	// DSN is the GORM data source for the postgres and sqlite drivers.
	DSN     string
	Timeout time.Duration
}

// Open connects the configured backend.
func Open(ctx context.Context, cfg StoreConfig) (DocumentStore, error) {
	switch cfg.Driver {
	case DriverMongo:
		return NewMongoDocumentStore(ctx, MongoConfig{URI: cfg.MongoURI, Database: cfg.Database, Timeout: cfg.Timeout})
	case DriverPostgres:
		return openGORM(postgres.Open(cfg.DSN))
	case DriverSQLite:
		return openGORM(sqlite.Open(cfg.DSN))
	case DriverMemory:
		return NewMemoryDocumentStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openGORM(dialector gorm.Dialector) (DocumentStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGORMDocumentStore(db)
}
