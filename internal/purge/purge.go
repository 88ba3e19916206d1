// Package purge physically removes soft-deleted records whose retention
// period has elapsed. The sweep runs on a CRON schedule under the system
// actor; records with a zero ttl are kept forever.
package purge

import (
	"context"
	"fmt"

	"github.com/zhenzou/executors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/pkg/xtime"
	"github.com/girmesh03/taskhub/internal/storage"
	"github.com/girmesh03/taskhub/internal/tracing"
)

// defaultBatchSize bounds how many candidate rows one sweep iteration
// loads and deletes. Overridable for tests.
var defaultBatchSize = 500

type Config struct {
	CRON      string `json:"cron" yaml:"cron" conf:"cron" validate:"required"`
	BatchSize int    `json:"batch_size" yaml:"batch_size" conf:"batch_size"`
}

// Worker schedules and runs the purge sweep.
type Worker struct {
	Store      *storage.Store
	Executor   executors.ScheduledExecutor
	Config     Config
	CancelFunc context.CancelFunc

	purged metric.Int64Counter
}

type Params struct {
	fx.In

	Config Config
	Store  *storage.Store
	Meter  metric.Meter
}

func NewWorker(params Params) (*Worker, error) {
	purged, err := params.Meter.Int64Counter("taskhub.purge.records",
		metric.WithDescription("Soft-deleted records physically removed by the purge sweep."))
	if err != nil {
		return nil, fmt.Errorf("purge: failed to create counter: %w", err)
	}

	return &Worker{
		Store:    params.Store,
		Executor: executors.NewPoolScheduleExecutor(executors.WithMaxConcurrent(1)),
		Config:   params.Config,
		purged:   purged,
	}, nil
}

func (w *Worker) Start(ctx context.Context) error {
	cancelFunc, err := w.Executor.ScheduleFuncAtCronRate(
		w.runSweepWithSystemContext,
		executors.CRONRule{Expr: w.Config.CRON},
	)
	if err != nil {
		return err
	}

	w.CancelFunc = cancelFunc

	log.Info(ctx, "purge worker started", log.String("cron", w.Config.CRON))

	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.CancelFunc != nil {
		w.CancelFunc()
	}

	return w.Executor.Shutdown(ctx)
}

func (w *Worker) runSweepWithSystemContext(ctx context.Context) {
	ctx = authz.NewSystemContext(ctx)
	ctx = tracing.WithTraceID(ctx, tracing.GenerateTraceID())
	ctx = tracing.WithOperationName(ctx, "purge.sweep")

	if err := w.Sweep(ctx); err != nil {
		log.Error(ctx, "purge sweep failed", log.Cause(err))
	}
}

// Sweep walks every resource type and removes deleted records whose ttl
// has elapsed. Partial progress survives an error; the next run resumes.
func (w *Worker) Sweep(ctx context.Context) error {
	log.Info(ctx, "starting purge sweep")

	total := 0

	for _, t := range w.Store.Graph().Types() {
		n, err := w.sweepType(ctx, t)
		if err != nil {
			return fmt.Errorf("purge: failed to sweep %s: %w", t, err)
		}

		total += n
	}

	log.Info(ctx, "purge sweep completed", log.Int("purged", total))

	return nil
}

func (w *Worker) sweepType(ctx context.Context, t entities.ResourceType) (int, error) {
	sess := w.Store.Reader()
	batchSize := w.batchSize()
	now := xtime.Now()

	var (
		total  int
		cursor string
	)

	for {
		// Rows with a zero ttl are never purge candidates, so they are
		// filtered in SQL; the exact deadline check happens here.
		candidates, err := sess.List(ctx, t, storage.ModeDeletedOnly,
			[]storage.Predicate{storage.FieldGT("ttl_seconds", 0)},
			storage.WithLimit(batchSize),
			storage.WithCursor(cursor),
		)
		if err != nil {
			return total, err
		}

		if len(candidates) == 0 {
			return total, nil
		}

		cursor = candidates[len(candidates)-1].GetBase().Meta.ID

		var due []string

		for _, rec := range candidates {
			at, ok := rec.GetBase().Lifecycle.PurgeEligibleAt()
			if ok && !at.After(now) {
				due = append(due, rec.GetBase().Meta.ID)
			}
		}

		n, err := sess.DeleteByIDs(ctx, t, due)
		if err != nil {
			return total, err
		}

		total += n
		if n > 0 {
			w.purged.Add(ctx, int64(n), metric.WithAttributes(attribute.String("type", t.String())))
			log.Debug(ctx, "purged batch", log.String("type", t.String()), log.Int("count", n))
		}

		if len(candidates) < batchSize {
			return total, nil
		}
	}
}

func (w *Worker) batchSize() int {
	if w.Config.BatchSize > 0 {
		return w.Config.BatchSize
	}

	return defaultBatchSize
}
