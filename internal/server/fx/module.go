package fx

import (
	"go.uber.org/fx"

	"funda-listing-notifier/internal/server"
)

var Module = fx.Options(
	fx.Provide(server.NewHTTPServer),
	fx.Invoke(RegisterHTTPServerLifecycle),
)
