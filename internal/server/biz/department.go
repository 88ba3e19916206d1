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

type DepartmentServiceParams struct {
	fx.In

	Store    *storage.Store
	Resolver *authz.Resolver
	Retry    storage.RetryConfig
}

type DepartmentService struct {
	*AbstractService
}

func NewDepartmentService(params DepartmentServiceParams) *DepartmentService {
	return &DepartmentService{
		AbstractService: newAbstractService(params.Store, params.Resolver, params.Retry),
	}
}

type CreateDepartmentInput struct {
	TenantID    string
	Name        string
	Description string
}

func (s *DepartmentService) CreateDepartment(ctx context.Context, input CreateDepartmentInput) (*entities.Department, error) {
	if input.TenantID == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: tenant id and name are required", ErrInvalidInput)
	}

	dept := &entities.Department{Name: input.Name, Description: input.Description}
	dept.Base.Meta.TenantID = input.TenantID

	if err := s.create(ctx, dept); err != nil {
		return nil, err
	}

	return dept, nil
}

func (s *DepartmentService) GetDepartment(ctx context.Context, id string, mode storage.ReadMode) (*entities.Department, error) {
	rec, _, err := s.getAuthorized(ctx, entities.TypeDepartment, id, authz.OpRead, mode)
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Department), nil
}

func (s *DepartmentService) ListDepartments(ctx context.Context, mode storage.ReadMode, opts ...storage.ListOption) ([]*entities.Department, error) {
	recs, err := s.list(ctx, entities.TypeDepartment, mode, nil, opts...)
	if err != nil {
		return nil, err
	}

	depts := make([]*entities.Department, len(recs))
	for i, rec := range recs {
		depts[i] = rec.(*entities.Department)
	}

	return depts, nil
}

type UpdateDepartmentInput struct {
	Name        *string
	Description *string
}

func (s *DepartmentService) UpdateDepartment(ctx context.Context, id string, input UpdateDepartmentInput) (*entities.Department, error) {
	rec, err := s.update(ctx, entities.TypeDepartment, id, func(rec entities.Record) error {
		dept := rec.(*entities.Department)
		if input.Name != nil {
			dept.Name = *input.Name
		}

		if input.Description != nil {
			dept.Description = *input.Description
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Department), nil
}

// SetHead hands department leadership to an active user of the same
// tenant.
func (s *DepartmentService) SetHead(ctx context.Context, id, userID string) (*entities.Department, error) {
	var dept *entities.Department

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, _, err := s.getAuthorized(ctx, entities.TypeDepartment, id, authz.OpUpdate, storage.ModeActive)
		if err != nil {
			return err
		}

		d := rec.(*entities.Department)

		head, err := s.session(ctx).Get(ctx, entities.TypeUser, userID, storage.ModeActive)
		if err != nil {
			return err
		}

		if head.GetBase().Meta.TenantID != d.Base.Meta.TenantID {
			return fmt.Errorf("%w: head must belong to the same tenant", ErrInvalidInput)
		}

		d.HeadActorID = userID

		if err := s.session(ctx).Update(ctx, d); err != nil {
			return err
		}

		dept = d

		return nil
	})
	if err != nil {
		return nil, err
	}

	return dept, nil
}

// DeleteDepartment soft-deletes the department and its tasks. A tenant's
// last active department cannot be deleted.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id string) (*cascade.Result, error) {
	return s.deleteCascade(ctx, entities.TypeDepartment, id, cascade.Options{})
}

func (s *DepartmentService) RestoreDepartment(ctx context.Context, id string, cascadeChildren bool) (*cascade.Result, error) {
	return s.restoreCascade(ctx, entities.TypeDepartment, id, cascade.RestoreOptions{CascadeChildren: cascadeChildren})
}
