package fx

import (
	"funda-listing-notifier/db"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"sqlx-db",
	fx.Provide(db.NewSQLXDB),
)
