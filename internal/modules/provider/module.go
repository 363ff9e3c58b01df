package provider

import (
	"context"

	"go.uber.org/fx"

	"lending_sim/internal/modules/config"
	"lending_sim/internal/modules/provider/service"
)

// Module поднимает клиент провайдера и ws-фид цен.
func Module() fx.Option {
	return fx.Module("provider",
		fx.Provide(
			service.NewClient,
			func() chan service.PriceUpdate {
				// общий буфер фида цен
				return make(chan service.PriceUpdate, 256)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			c *service.Client,
			out chan service.PriceUpdate,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go c.StreamPrices(ctx, cfg.Markets, out)
					return nil
				},
			})
		}),
	)
}
