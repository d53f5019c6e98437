package database

import (
	"context"
	"fmt"
	"time"

	"task-manager/configs"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ConnectDB opens the Postgres pool and verifies it with a ping.
func ConnectDB(ctx context.Context, cfg configs.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
