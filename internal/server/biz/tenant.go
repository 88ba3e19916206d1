package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
)

type TenantServiceParams struct {
	fx.In

	Store    *storage.Store
	Resolver *authz.Resolver
	Retry    storage.RetryConfig
}

// TenantService manages tenants. Only platform administrators reach the
// mutating operations; the matrix enforces it.
type TenantService struct {
	*AbstractService
}

func NewTenantService(params TenantServiceParams) *TenantService {
	return &TenantService{
		AbstractService: newAbstractService(params.Store, params.Resolver, params.Retry),
	}
}

// CreateTenantInput describes a new tenant and its initial resources.
// Every tenant starts with one department and one administrator so the
// structural guards hold from the first moment.
type CreateTenantInput struct {
	Name           string
	Slug           string
	DepartmentName string
	AdminEmail     string
	AdminName      string
}

// CreateTenantResult reports the created resources.
type CreateTenantResult struct {
	Tenant     *entities.Tenant
	Department *entities.Department
	Admin      *entities.User
}

func (s *TenantService) CreateTenant(ctx context.Context, input CreateTenantInput) (*CreateTenantResult, error) {
	if input.Name == "" || input.AdminEmail == "" {
		return nil, fmt.Errorf("%w: tenant name and admin email are required", ErrInvalidInput)
	}

	if input.DepartmentName == "" {
		input.DepartmentName = "general"
	}

	tenant := &entities.Tenant{Name: input.Name, Slug: input.Slug}

	if _, err := s.authorizeCreate(ctx, tenant); err != nil {
		return nil, err
	}

	var result *CreateTenantResult

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		sess := s.session(ctx)

		if err := sess.Insert(ctx, tenant); err != nil {
			return err
		}

		dept := &entities.Department{Name: input.DepartmentName}
		dept.Base.Meta.TenantID = tenant.Base.Meta.ID

		if err := sess.Insert(ctx, dept); err != nil {
			return err
		}

		admin := &entities.User{
			Email:       input.AdminEmail,
			DisplayName: input.AdminName,
			Role:        entities.RoleAdministrator,
		}
		admin.Base.Meta.TenantID = tenant.Base.Meta.ID
		admin.Base.Meta.DepartmentID = dept.Base.Meta.ID

		if err := sess.Insert(ctx, admin); err != nil {
			return err
		}

		result = &CreateTenantResult{Tenant: tenant, Department: dept, Admin: admin}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *TenantService) GetTenant(ctx context.Context, id string, mode storage.ReadMode) (*entities.Tenant, error) {
	rec, _, err := s.getAuthorized(ctx, entities.TypeTenant, id, authz.OpRead, mode)
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Tenant), nil
}

func (s *TenantService) ListTenants(ctx context.Context, mode storage.ReadMode, opts ...storage.ListOption) ([]*entities.Tenant, error) {
	recs, err := s.list(ctx, entities.TypeTenant, mode, nil, opts...)
	if err != nil {
		return nil, err
	}

	tenants := make([]*entities.Tenant, len(recs))
	for i, rec := range recs {
		tenants[i] = rec.(*entities.Tenant)
	}

	return tenants, nil
}

// UpdateTenantInput mutates the editable tenant fields; nil leaves a field
// unchanged.
type UpdateTenantInput struct {
	Name *string
	Slug *string
}

func (s *TenantService) UpdateTenant(ctx context.Context, id string, input UpdateTenantInput) (*entities.Tenant, error) {
	rec, err := s.update(ctx, entities.TypeTenant, id, func(rec entities.Record) error {
		tenant := rec.(*entities.Tenant)
		if input.Name != nil {
			tenant.Name = *input.Name
		}

		if input.Slug != nil {
			tenant.Slug = *input.Slug
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Tenant), nil
}

// DeleteTenant soft-deletes the tenant and everything it contains.
func (s *TenantService) DeleteTenant(ctx context.Context, id string) (*cascade.Result, error) {
	return s.deleteCascade(ctx, entities.TypeTenant, id, cascade.Options{})
}

// RestoreTenant brings back a deleted tenant and, when cascade is set, the
// records deleted with it.
func (s *TenantService) RestoreTenant(ctx context.Context, id string, cascadeChildren bool) (*cascade.Result, error) {
	return s.restoreCascade(ctx, entities.TypeTenant, id, cascade.RestoreOptions{CascadeChildren: cascadeChildren})
}
