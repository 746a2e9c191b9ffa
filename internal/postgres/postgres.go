package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/config"
	"github.com/SergeyBogomolovv/orders-crud-service/pkg/utils"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func DSN(cfg config.Postgres) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

// New подключается к базе, повторяя попытки пока база не поднимется.
func New(ctx context.Context, cfg config.Postgres) (*sqlx.DB, error) {
	var db *sqlx.DB
	connect := func() error {
		var err error
		db, err = sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
		return err
	}

	retryCfg := utils.RetryConfig{
		MaxAttempts:  cfg.ConnectAttempts,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
	if err := utils.Retry(ctx, retryCfg, connect); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}
