package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	dbfx "funda-listing-notifier/db/fx"
	appfx "funda-listing-notifier/internal/app/fx"
	healthfx "funda-listing-notifier/internal/app/health/fx"
	listingsfx "funda-listing-notifier/internal/app/listings/fx"
	"funda-listing-notifier/internal/logs"
	routerfx "funda-listing-notifier/internal/router/fx"
	serverfx "funda-listing-notifier/internal/server/fx"
	"funda-listing-notifier/internal/store"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		fx.Invoke(logs.RegisterLifecycle),
		dbfx.Module,
		fx.Provide(store.NewListingStore),
		routerfx.CoreRouterOptions,
		serverfx.Module,
		healthfx.Module,
		listingsfx.Module,
	)

	app.Run()
}
