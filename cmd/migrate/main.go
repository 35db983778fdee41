package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"funda-listing-notifier/config"
	"funda-listing-notifier/db"
	"funda-listing-notifier/db/migrations"
	appfx "funda-listing-notifier/internal/app/fx"
)

type MigrateCmd string

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		fx.Supply(MigrateCmd(cmd)),
		fx.Invoke(registerMigrateHook),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type migrateHookParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    config.Config
	Logger *zap.SugaredLogger

	Cmd MigrateCmd
}

func registerMigrateHook(p migrateHookParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			conn, driver, err := db.Open(p.Cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = conn.Close()
			}()

			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			defer pingCancel()
			if err := conn.PingContext(pingCtx); err != nil {
				return fmt.Errorf("ping %s: %w", driver, err)
			}

			dialect := goose.DialectSQLite3
			if driver == db.DriverPostgres {
				dialect = goose.DialectPostgres
			}

			provider, err := goose.NewProvider(dialect, conn.DB, migrations.FS)
			if err != nil {
				return fmt.Errorf("goose provider: %w", err)
			}

			p.Logger.Infow("goose_run_start", "cmd", string(p.Cmd), "driver", driver)
			switch string(p.Cmd) {
			case "up":
				_, err = provider.Up(ctx)
			case "down":
				_, err = provider.Down(ctx)
			case "status":
				var statuses []*goose.MigrationStatus
				statuses, err = provider.Status(ctx)
				for _, st := range statuses {
					p.Logger.Infow("migration_status",
						"version", st.Source.Version,
						"path", st.Source.Path,
						"state", string(st.State),
					)
				}
			default:
				return fmt.Errorf("unknown migrate command %q (want up, down or status)", p.Cmd)
			}
			if err != nil {
				return fmt.Errorf("goose run %q: %w", p.Cmd, err)
			}
			p.Logger.Infow("goose_run_done", "cmd", string(p.Cmd))
			return nil
		},
	})
}
