// Package biz implements the tenant-facing services: authorization at the
// edge, lifecycle and cascade semantics inside, one transaction per
// mutating operation.
package biz

import (
	"context"
	"fmt"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
	"github.com/girmesh03/taskhub/internal/tracing"
)

// AbstractService carries the shared plumbing of every service: the store,
// the authorization resolver and the cascade engine.
type AbstractService struct {
	store    *storage.Store
	resolver *authz.Resolver
	engine   *cascade.Engine
	retry    storage.RetryConfig
}

func newAbstractService(store *storage.Store, resolver *authz.Resolver, retry storage.RetryConfig) *AbstractService {
	return &AbstractService{
		store:    store,
		resolver: resolver,
		engine:   cascade.New(store.Graph()),
		retry:    retry,
	}
}

// session returns the transaction-bound session stashed in ctx, or an
// auto-commit reader.
func (a *AbstractService) session(ctx context.Context) *storage.Session {
	if sess, ok := storage.SessionFromContext(ctx); ok {
		return sess
	}

	return a.store.Reader()
}

// RunInTransaction runs fn inside one transaction-bound session. A session
// already present in ctx is reused, so nested service calls share the
// outer transaction.
func (a *AbstractService) RunInTransaction(ctx context.Context, fn func(context.Context) error) (err error) {
	if _, ok := storage.SessionFromContext(ctx); ok {
		return fn(ctx)
	}

	sess, err := a.store.Tx(ctx)
	if err != nil {
		return err
	}

	committed := false

	defer func() {
		if r := recover(); r != nil {
			_ = sess.Rollback()

			panic(r)
		}

		if !committed {
			_ = sess.Rollback()
		}
	}()

	if err := fn(storage.NewSessionContext(ctx, sess)); err != nil {
		return err
	}

	if err := sess.Commit(); err != nil {
		return err
	}

	committed = true

	return nil
}

// auditRef is the value stamped into deleted_by and restored_by.
func auditRef(actor authz.Actor) string {
	if actor.System {
		return "system"
	}

	return actor.ID
}

// actor resolves the calling actor from ctx.
func (a *AbstractService) actor(ctx context.Context) (authz.Actor, error) {
	actor, ok := authz.GetActor(ctx)
	if !ok {
		return authz.Actor{}, fmt.Errorf("%w: no actor in context", authz.ErrDenied)
	}

	return actor, nil
}

// authorizeCreate checks the create operation against a candidate record.
// A denial is reported as such; there is no existing record to hide.
func (a *AbstractService) authorizeCreate(ctx context.Context, rec entities.Record) (authz.Actor, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return actor, err
	}

	dec := a.resolver.Authorize(ctx, actor, rec.Type(), authz.OpCreate, rec)
	if !dec.Allow {
		return actor, fmt.Errorf("%w: %s", authz.ErrDenied, dec.Reason)
	}

	return actor, nil
}

// getAuthorized loads a record by id under the given read mode and checks
// the operation against it. A denial surfaces as not found so an actor
// cannot probe for records outside their scope.
func (a *AbstractService) getAuthorized(ctx context.Context, t entities.ResourceType, id string, op authz.Operation, mode storage.ReadMode) (entities.Record, authz.Actor, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, actor, err
	}

	rec, err := a.session(ctx).Get(ctx, t, id, mode)
	if err != nil {
		return nil, actor, err
	}

	dec := a.resolver.Authorize(ctx, actor, t, op, rec)
	if !dec.Allow {
		return nil, actor, storage.ErrNotFound
	}

	return rec, actor, nil
}

// list returns records of one type visible to the actor under the mode,
// scoped by the matrix-derived filter plus any extra predicates.
func (a *AbstractService) list(ctx context.Context, t entities.ResourceType, mode storage.ReadMode, extra []storage.Predicate, opts ...storage.ListOption) ([]entities.Record, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := a.resolver.BuildListFilter(ctx, actor, t, authz.OpRead)
	if err != nil {
		return nil, err
	}

	preds := append([]storage.Predicate{filter}, extra...)

	return a.session(ctx).List(ctx, t, mode, preds, opts...)
}

// create authorizes and inserts a new record in one transaction.
func (a *AbstractService) create(ctx context.Context, rec entities.Record) error {
	if _, err := a.authorizeCreate(ctx, rec); err != nil {
		return err
	}

	return a.RunInTransaction(ctx, func(ctx context.Context) error {
		return a.session(ctx).Insert(ctx, rec)
	})
}

// update authorizes against the stored record, applies mutate to it and
// persists the result in one transaction.
func (a *AbstractService) update(ctx context.Context, t entities.ResourceType, id string, mutate func(entities.Record) error) (entities.Record, error) {
	var out entities.Record

	err := a.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, _, err := a.getAuthorized(ctx, t, id, authz.OpUpdate, storage.ModeActive)
		if err != nil {
			return err
		}

		if err := mutate(rec); err != nil {
			return err
		}

		if err := a.session(ctx).Update(ctx, rec); err != nil {
			return err
		}

		out = rec

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// deleteCascade authorizes the delete against the stored record and runs
// the cascade, retrying the whole transaction on transient conflicts.
func (a *AbstractService) deleteCascade(ctx context.Context, t entities.ResourceType, id string, opts cascade.Options) (*cascade.Result, error) {
	ctx = tracing.WithOperationName(ctx, fmt.Sprintf("%s.delete", t))

	return storage.WithRetry(ctx, a.retry, func(ctx context.Context) (*cascade.Result, error) {
		var res *cascade.Result

		err := a.RunInTransaction(ctx, func(ctx context.Context) error {
			rec, actor, err := a.getAuthorized(ctx, t, id, authz.OpDelete, storage.ModeWithDeleted)
			if err != nil {
				return err
			}

			res, err = a.engine.Delete(ctx, a.session(ctx), rec, auditRef(actor), opts)

			return err
		})
		if err != nil {
			return nil, err
		}

		return res, nil
	})
}

// restoreCascade authorizes the restore with delete permission, symmetric
// to the operation it undoes.
func (a *AbstractService) restoreCascade(ctx context.Context, t entities.ResourceType, id string, opts cascade.RestoreOptions) (*cascade.Result, error) {
	ctx = tracing.WithOperationName(ctx, fmt.Sprintf("%s.restore", t))

	return storage.WithRetry(ctx, a.retry, func(ctx context.Context) (*cascade.Result, error) {
		var res *cascade.Result

		err := a.RunInTransaction(ctx, func(ctx context.Context) error {
			rec, actor, err := a.getAuthorized(ctx, t, id, authz.OpDelete, storage.ModeDeletedOnly)
			if err != nil {
				return err
			}

			res, err = a.engine.Restore(ctx, a.session(ctx), rec, auditRef(actor), opts)

			return err
		})
		if err != nil {
			return nil, err
		}

		return res, nil
	})
}
