// Package dependencies wires the shared process components: logger,
// entity graph, authorization matrix and the store.
package dependencies

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/girmesh03/taskhub/conf"
	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/purge"
	"github.com/girmesh03/taskhub/internal/storage"
)

var Module = fx.Module("dependencies",
	fx.Provide(
		func(c conf.Config) log.Config { return c.Log },
		func(c conf.Config) storage.Config { return c.DB },
		func(c conf.Config) purge.Config { return c.Purge },
		func(c conf.Config) storage.RetryConfig { return c.Retry },
	),
	fx.Provide(log.New),
	fx.Provide(func() metric.Meter { return otel.Meter("taskhub") }),
	fx.Provide(entities.NewGraph),
	fx.Provide(authz.NewMatrix),
	fx.Provide(authz.NewResolver),
	fx.Provide(storage.Open),
	fx.Provide(func(drv *entsql.Driver, graph *entities.Graph) *storage.Store {
		return storage.New(drv, graph)
	}),
)
