// Package server assembles the process: configuration, dependencies,
// services and the purge worker, run under one fx application.
package server

import (
	"context"

	"go.uber.org/fx"

	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/purge"
	"github.com/girmesh03/taskhub/internal/server/biz"
	"github.com/girmesh03/taskhub/internal/server/dependencies"
	"github.com/girmesh03/taskhub/internal/storage"
)

// Run starts the application and blocks until shutdown. Callers supply
// conf.Load and any transport of their own through opts.
func Run(opts ...fx.Option) {
	app := fx.New(
		append([]fx.Option{
			fx.NopLogger,
			fx.Provide(purge.NewWorker),
			dependencies.Module,
			biz.Module,
			fx.Invoke(func(logger *log.Logger) {
				log.SetDefault(logger)
			}),
			fx.Invoke(func(lc fx.Lifecycle, store *storage.Store) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return store.Migrate(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return store.Close()
					},
				})
			}),
			fx.Invoke(func(lc fx.Lifecycle, worker *purge.Worker) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return worker.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return worker.Stop(ctx)
					},
				})
			}),
		}, opts...)...,
	)
	app.Run()
}
