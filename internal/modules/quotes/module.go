package quotes

import (
	"go.uber.org/fx"

	"lending_sim/internal/modules/quotes/service"
)

func Module() fx.Option {
	return fx.Module("quotes",
		fx.Provide(
			service.NewClient,
		),
	)
}
