package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/storage"
)

type SystemServiceParams struct {
	fx.In

	Store    *storage.Store
	Resolver *authz.Resolver
	Retry    storage.RetryConfig
}

// SystemService owns platform bootstrap and other operations reserved for
// the system actor.
type SystemService struct {
	*AbstractService
}

func NewSystemService(params SystemServiceParams) *SystemService {
	return &SystemService{
		AbstractService: newAbstractService(params.Store, params.Resolver, params.Retry),
	}
}

// BootstrapInput seeds the platform tenant and its first administrator.
type BootstrapInput struct {
	TenantName string
	TenantSlug string
	AdminEmail string
	AdminName  string
}

// BootstrapResult reports what Bootstrap created.
type BootstrapResult struct {
	Tenant *entities.Tenant
	Admin  *entities.User
}

// Bootstrap creates the platform tenant, its operations department and the
// first platform administrator. It runs once under the system actor; a
// second call fails while an active platform tenant exists.
func (s *SystemService) Bootstrap(ctx context.Context, input BootstrapInput) (*BootstrapResult, error) {
	if err := authz.RequireSystemActor(ctx); err != nil {
		return nil, err
	}

	if input.TenantName == "" || input.AdminEmail == "" {
		return nil, fmt.Errorf("%w: tenant name and admin email are required", ErrInvalidInput)
	}

	var result *BootstrapResult

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		sess := s.session(ctx)

		exists, err := sess.Exists(ctx, entities.TypeTenant, storage.ModeActive,
			storage.FieldEQ(entities.ColIsPlatform, "true"))
		if err != nil {
			return err
		}

		if exists {
			return ErrAlreadyBootstrapped
		}

		tenant := &entities.Tenant{Name: input.TenantName, Slug: input.TenantSlug, IsPlatform: true}
		if err := sess.Insert(ctx, tenant); err != nil {
			return err
		}

		dept := &entities.Department{Name: "operations"}
		dept.Base.Meta.TenantID = tenant.Base.Meta.ID

		if err := sess.Insert(ctx, dept); err != nil {
			return err
		}

		admin := &entities.User{
			Email:       input.AdminEmail,
			DisplayName: input.AdminName,
			Role:        entities.RolePlatformAdministrator,
		}
		admin.Base.Meta.TenantID = tenant.Base.Meta.ID
		admin.Base.Meta.DepartmentID = dept.Base.Meta.ID

		if err := sess.Insert(ctx, admin); err != nil {
			return err
		}

		result = &BootstrapResult{Tenant: tenant, Admin: admin}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "platform bootstrapped",
		log.String("tenant_id", result.Tenant.Base.Meta.ID),
		log.String("admin_id", result.Admin.Base.Meta.ID),
	)

	return result, nil
}

// PlatformTenant returns the active platform tenant.
func (s *SystemService) PlatformTenant(ctx context.Context) (*entities.Tenant, error) {
	recs, err := s.session(ctx).List(ctx, entities.TypeTenant, storage.ModeActive,
		[]storage.Predicate{storage.FieldEQ(entities.ColIsPlatform, "true")},
		storage.WithLimit(1))
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		return nil, storage.ErrNotFound
	}

	return recs[0].(*entities.Tenant), nil
}
