package fx

import (
	"go.uber.org/fx"

	"funda-listing-notifier/internal/app/health"
	"funda-listing-notifier/internal/router"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(health.NewHandler)),
)
