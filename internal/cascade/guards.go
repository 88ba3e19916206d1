package cascade

import (
	"context"
	"fmt"

	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
)

// checkDeleteGuards enforces the structural invariants that only apply to
// the root of a cascade. Records reached through edges are exempt: deleting
// a tenant legitimately removes its last department.
func (e *Engine) checkDeleteGuards(ctx context.Context, sess *storage.Session, root entities.Record) error {
	switch rec := root.(type) {
	case *entities.Tenant:
		if rec.IsPlatform {
			return fmt.Errorf("%w: %s", ErrPlatformTenantProtected, rec.Base.Meta.ID)
		}
	case *entities.Department:
		n, err := sess.Count(ctx, entities.TypeDepartment, storage.ModeActive,
			storage.TenantEQ(rec.Base.Meta.TenantID))
		if err != nil {
			return err
		}

		if n <= 1 {
			return fmt.Errorf("%w: %s", ErrLastDepartment, rec.Base.Meta.ID)
		}
	case *entities.User:
		return e.checkUserDeleteGuards(ctx, sess, rec)
	}

	return nil
}

func (e *Engine) checkUserDeleteGuards(ctx context.Context, sess *storage.Session, u *entities.User) error {
	if u.Role == entities.RoleAdministrator || u.Role == entities.RolePlatformAdministrator {
		n, err := sess.Count(ctx, entities.TypeUser, storage.ModeActive,
			storage.TenantEQ(u.Base.Meta.TenantID),
			storage.FieldEQ(entities.ColRole, string(u.Role)))
		if err != nil {
			return err
		}

		if n <= 1 {
			return fmt.Errorf("%w: %s", ErrLastAdministrator, u.Base.Meta.ID)
		}
	}

	heads, err := sess.Exists(ctx, entities.TypeDepartment, storage.ModeActive,
		storage.TenantEQ(u.Base.Meta.TenantID),
		storage.FieldEQ(entities.ColHeadActorID, u.Base.Meta.ID))
	if err != nil {
		return err
	}

	if heads {
		return fmt.Errorf("%w: %s", ErrActingDepartmentHead, u.Base.Meta.ID)
	}

	return nil
}

// checkRestoreGuards enforces the invariants of bringing a record back.
func (e *Engine) checkRestoreGuards(ctx context.Context, sess *storage.Session, root entities.Record) error {
	if rec, ok := root.(*entities.Tenant); ok && rec.IsPlatform {
		exists, err := sess.Exists(ctx, entities.TypeTenant, storage.ModeActive,
			storage.FieldEQ(entities.ColIsPlatform, "true"))
		if err != nil {
			return err
		}

		if exists {
			return fmt.Errorf("%w: cannot restore %s", ErrPlatformTenantExists, rec.Base.Meta.ID)
		}
	}

	return nil
}
