package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"funda-listing-notifier/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Open picks the store backend: postgres when DB_HOST + DB_NAME are set,
// the sqlite file at SQLITE_PATH otherwise. Returns the driver name so
// callers (goose) can pick the matching dialect.
func Open(cfg config.Config) (*sqlx.DB, string, error) {
	if strings.TrimSpace(cfg.DBHost) != "" && strings.TrimSpace(cfg.DBName) != "" {
		db, err := sqlx.Open(DriverPostgres, postgresDSN(cfg))
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		return db, DriverPostgres, nil
	}

	db, err := sqlx.Open(DriverSQLite, cfg.SQLitePath)
	if err != nil {
		return nil, "", fmt.Errorf("open sqlite %q: %w", cfg.SQLitePath, err)
	}
	// The file store is accessed by one process at a time; a single
	// connection avoids modernc's writer lock contention entirely.
	db.SetMaxOpenConns(1)
	return db, DriverSQLite, nil
}

func NewSQLXDB(lc fx.Lifecycle, cfg config.Config, log *zap.SugaredLogger) (*sqlx.DB, error) {
	db, driver, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := db.PingContext(pingCtx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping %s: %w", driver, err)
			}
			log.Infow("store connected", "driver", driver)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				log.Warnw("store close failed", "err", err)
			}
			return nil
		},
	})

	return db, nil
}

func postgresDSN(cfg config.Config) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort),
		Path:   cfg.DBName,
	}
	if strings.TrimSpace(cfg.DBUser) != "" {
		if cfg.DBPassword == "" {
			u.User = url.User(cfg.DBUser)
		} else {
			u.User = url.UserPassword(cfg.DBUser, cfg.DBPassword)
		}
	}
	return u.String()
}
