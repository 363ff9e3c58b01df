package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"lending_sim/internal/modules/config"
	"lending_sim/internal/modules/health"
	"lending_sim/internal/modules/history"
	"lending_sim/internal/modules/postgres"
	"lending_sim/internal/modules/provider"
	"lending_sim/internal/modules/quotes"
	"lending_sim/internal/modules/simulator"
	"lending_sim/pkg/logger"
	"lending_sim/pkg/tracing"
)

func main() {
	logger.SetServiceName("lending_sim")
	flush, err := logger.Init()
	if err != nil {
		log.Fatal(err)
	}
	defer flush()

	tracing.SetServiceName("lending_sim")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Tracing.Host,
				Port: cfg.Tracing.Port,
			})
			if err != nil {
				logger.Error("tracing init: %v", err)
				return nil
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
		postgres.Module(),
		provider.Module(),
		quotes.Module(),
		history.Module(),
		simulator.Module(),
		health.Module(),
	)
	app.Run()
}
