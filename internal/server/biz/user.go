package biz

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/fx"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
)

type UserServiceParams struct {
	fx.In

	Store    *storage.Store
	Resolver *authz.Resolver
	Retry    storage.RetryConfig
}

type UserService struct {
	*AbstractService
}

func NewUserService(params UserServiceParams) *UserService {
	return &UserService{
		AbstractService: newAbstractService(params.Store, params.Resolver, params.Retry),
	}
}

type CreateUserInput struct {
	TenantID     string
	DepartmentID string
	Email        string
	DisplayName  string
	Role         entities.Role
}

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*entities.User, error) {
	if input.TenantID == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: tenant id and email are required", ErrInvalidInput)
	}

	if !slices.Contains(entities.AllRoles, input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}

	user := &entities.User{
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Role:        input.Role,
	}
	user.Base.Meta.TenantID = input.TenantID
	user.Base.Meta.DepartmentID = input.DepartmentID

	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string, mode storage.ReadMode) (*entities.User, error) {
	rec, _, err := s.getAuthorized(ctx, entities.TypeUser, id, authz.OpRead, mode)
	if err != nil {
		return nil, err
	}

	return rec.(*entities.User), nil
}

func (s *UserService) ListUsers(ctx context.Context, mode storage.ReadMode, opts ...storage.ListOption) ([]*entities.User, error) {
	recs, err := s.list(ctx, entities.TypeUser, mode, nil, opts...)
	if err != nil {
		return nil, err
	}

	users := make([]*entities.User, len(recs))
	for i, rec := range recs {
		users[i] = rec.(*entities.User)
	}

	return users, nil
}

type UpdateUserInput struct {
	DisplayName  *string
	DepartmentID *string
	Role         *entities.Role
}

func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*entities.User, error) {
	if input.Role != nil && !slices.Contains(entities.AllRoles, *input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *input.Role)
	}

	rec, err := s.update(ctx, entities.TypeUser, id, func(rec entities.Record) error {
		user := rec.(*entities.User)
		if input.DisplayName != nil {
			user.DisplayName = *input.DisplayName
		}

		if input.DepartmentID != nil {
			user.Base.Meta.DepartmentID = *input.DepartmentID
		}

		if input.Role != nil {
			user.Role = *input.Role
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec.(*entities.User), nil
}

// DeleteUser soft-deletes the user and their notifications. The last
// administrator of a tenant and an acting department head are refused.
func (s *UserService) DeleteUser(ctx context.Context, id string) (*cascade.Result, error) {
	return s.deleteCascade(ctx, entities.TypeUser, id, cascade.Options{})
}

func (s *UserService) RestoreUser(ctx context.Context, id string, cascadeChildren bool) (*cascade.Result, error) {
	return s.restoreCascade(ctx, entities.TypeUser, id, cascade.RestoreOptions{CascadeChildren: cascadeChildren})
}
