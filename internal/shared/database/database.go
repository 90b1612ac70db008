package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cinebook/internal/shared/config"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// DB bundles the Postgres and Redis handles the rest of the app runs on.
// Postgres is the system of record (bookings, orders, sold seats); Redis
// carries the seat locks and the read caches.
type DB struct {
	PostgreSQL *gorm.DB
	Redis      *redis.Client
}

// InitDB connects to both stores and runs migrations. An unreachable
// store fails startup rather than limping along without locks or
// without a ledger.
func InitDB(cfg *config.Config) (*DB, error) {
	pg, err := connectPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err := Migrate(pg); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rdb, err := connectRedis(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	return &DB{PostgreSQL: pg, Redis: rdb}, nil
}

// connectPostgres opens the gorm handle and verifies it with a ping,
// retrying a few times so the API survives a database that is still
// coming up (compose, k8s).
func connectPostgres(cfg *config.Config) (*gorm.DB, error) {
	logMode := logger.Silent
	if cfg.IsDevelopment() {
		logMode = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger:                                   logger.Default.LogMode(logMode),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN), gormConfig)
		if err == nil {
			if err = tunePool(db, cfg); err == nil {
				log.Printf("postgres connected (attempt %d)", attempt)
				return db, nil
			}
		}
		lastErr = err
		if attempt < connectAttempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", connectAttempts, lastErr)
}

func tunePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func connectRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,

		PoolSize:     10,
		MinIdleConns: 5,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("redis connected")
	return rdb, nil
}

// Close releases both connections; errors are joined so a failed
// Postgres close does not hide a failed Redis close.
func (db *DB) Close() error {
	var errs []error

	if db.PostgreSQL != nil {
		if sqlDB, err := db.PostgreSQL.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if db.Redis != nil {
		errs = append(errs, db.Redis.Close())
	}

	return errors.Join(errs...)
}

// HealthCheck pings both stores; used by the readiness endpoint.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.PostgreSQL != nil {
		sqlDB, err := db.PostgreSQL.DB()
		if err != nil {
			return fmt.Errorf("postgres health check: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres ping: %w", err)
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}

	return nil
}

func (db *DB) GetRedisClient() *redis.Client {
	return db.Redis
}

func (db *DB) GetPostgreSQL() *gorm.DB {
	return db.PostgreSQL
}
