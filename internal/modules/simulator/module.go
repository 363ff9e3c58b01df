package simulator

import (
	"context"

	"go.uber.org/fx"

	"lending_sim/internal/modules/config"
	provider "lending_sim/internal/modules/provider/service"
	"lending_sim/internal/modules/simulator/service"
	"lending_sim/internal/notify"
	"lending_sim/pkg/logger"
)

// Module поднимает менеджер сессий, фоновый воркер рефреша и нотифайер.
func Module() fx.Option {
	return fx.Module("simulator",
		fx.Provide(
			service.NewManager,
			func(cfg *config.Config, m *service.Manager) notify.Notifier {
				if cfg.Telegram.Token == "" {
					return notify.NewStdout()
				}
				tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, m)
				if err != nil {
					logger.Error("telegram init: %v, falling back to stdout", err)
					return notify.NewStdout()
				}
				return tg
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			m *service.Manager,
			n notify.Notifier,
			updates chan provider.PriceUpdate,
			ctx context.Context,
		) {
			m.SetNotifier(n)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if tg, ok := n.(*notify.Telegram); ok {
						if err := tg.Start(ctx); err != nil {
							return err
						}
					}
					go func() {
						m.PreloadRecent(ctx)
						m.Run(ctx, updates)
					}()
					return nil
				},
			})
		}),
	)
}
