package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Vazimax/BuyMin/config"
	"github.com/Vazimax/BuyMin/logger"
	"github.com/Vazimax/BuyMin/models"
)

// DB is the process-wide connection, set by InitDB.
var DB *gorm.DB

// closers holds cleanup that closing the *sql.DB does not cover, keyed by
// that *sql.DB. The pgx pool behind stdlib.OpenDBFromPool is one of them.
var closers sync.Map

func onClose(sqlDB *sql.DB, fn func()) {
	closers.Store(sqlDB, fn)
}

// InitDB opens the configured database, runs migrations and stores the
// handle in DB.
func InitDB(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(ctx, cfg, logger.L())
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	DB = db
	return db, nil
}

// Open connects to Postgres (through a pgx pool) or SQLite.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	log = logger.Or(log)
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	switch cfg.Driver {
	case "sqlite":
		log.Info("Opening sqlite database", "path", cfg.SQLitePath)
		db, err := gorm.Open(sqlite.Open(sqliteDSN(cfg.SQLitePath)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil

	case "postgres":
		log.Info("Connecting to database", "host", cfg.Host, "dbname", cfg.DBName)
		pc, err := pgxpool.ParseConfig(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("parse postgres config: %w", err)
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			pc.MinConns = cfg.MinConns
		}
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "buymin"

		dialCtx := ctx
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(dialCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		sqlDB := stdlib.OpenDBFromPool(pool)
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
		if err != nil {
			sqlDB.Close()
			pool.Close()
			return nil, fmt.Errorf("open gorm: %w", err)
		}
		onClose(sqlDB, pool.Close)
		log.Info("Database connection established")
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	logger.Info("Running migrations...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := backfillNameKeys(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("Migrations completed")
	return nil
}

// backfillNameKeys fills the search key of products stored before the
// column existed.
func backfillNameKeys(db *gorm.DB) error {
	var stale []models.Product
	if err := db.Where("name_key = ''").Find(&stale).Error; err != nil {
		return err
	}
	for _, p := range stale {
		if err := db.Model(&models.Product{}).Where("id = ?", p.ID).
			UpdateColumn("name_key", models.FoldName(p.Name)).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the connection and, for Postgres, the pgx pool behind it.
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("Failed to retrieve sql.DB", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Error closing the database connection", "error", err)
	}
	if fn, ok := closers.LoadAndDelete(sqlDB); ok {
		fn.(func())()
	}
}

// sqliteDSN turns on foreign keys and a busy timeout so the cascade rules
// and concurrent writers behave like Postgres.
func sqliteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
