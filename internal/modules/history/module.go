package history

import (
	"go.uber.org/fx"

	"lending_sim/internal/modules/config"
	"lending_sim/internal/modules/history/service"
	"lending_sim/pkg/db"
)

func Module() fx.Option {
	return fx.Module("history",
		fx.Provide(
			func(tx *db.PgTxManager, cfg *config.Config) *service.Store {
				return service.New(tx, cfg.HistoryLimit)
			},
		),
	)
}
