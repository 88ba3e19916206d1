package biz

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
)

type MaterialServiceParams struct {
	fx.In

	Store    *storage.Store
	Resolver *authz.Resolver
	Retry    storage.RetryConfig
}

type MaterialService struct {
	*AbstractService
}

func NewMaterialService(params MaterialServiceParams) *MaterialService {
	return &MaterialService{
		AbstractService: newAbstractService(params.Store, params.Resolver, params.Retry),
	}
}

type CreateMaterialInput struct {
	TenantID string
	Name     string
	SKU      string
	Unit     string
	UnitCost decimal.Decimal
	StockQty int
}

func (s *MaterialService) CreateMaterial(ctx context.Context, input CreateMaterialInput) (*entities.Material, error) {
	if input.TenantID == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: tenant id and name are required", ErrInvalidInput)
	}

	if input.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost cannot be negative", ErrInvalidInput)
	}

	material := &entities.Material{
		Name:     input.Name,
		SKU:      input.SKU,
		Unit:     input.Unit,
		UnitCost: input.UnitCost,
		StockQty: input.StockQty,
	}
	material.Base.Meta.TenantID = input.TenantID

	if err := s.create(ctx, material); err != nil {
		return nil, err
	}

	return material, nil
}

func (s *MaterialService) GetMaterial(ctx context.Context, id string, mode storage.ReadMode) (*entities.Material, error) {
	rec, _, err := s.getAuthorized(ctx, entities.TypeMaterial, id, authz.OpRead, mode)
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Material), nil
}

func (s *MaterialService) ListMaterials(ctx context.Context, mode storage.ReadMode, opts ...storage.ListOption) ([]*entities.Material, error) {
	recs, err := s.list(ctx, entities.TypeMaterial, mode, nil, opts...)
	if err != nil {
		return nil, err
	}

	materials := make([]*entities.Material, len(recs))
	for i, rec := range recs {
		materials[i] = rec.(*entities.Material)
	}

	return materials, nil
}

type UpdateMaterialInput struct {
	Name     *string
	Unit     *string
	UnitCost *decimal.Decimal
	StockQty *int
}

func (s *MaterialService) UpdateMaterial(ctx context.Context, id string, input UpdateMaterialInput) (*entities.Material, error) {
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost cannot be negative", ErrInvalidInput)
	}

	rec, err := s.update(ctx, entities.TypeMaterial, id, func(rec entities.Record) error {
		material := rec.(*entities.Material)
		if input.Name != nil {
			material.Name = *input.Name
		}

		if input.Unit != nil {
			material.Unit = *input.Unit
		}

		if input.UnitCost != nil {
			material.UnitCost = *input.UnitCost
		}

		if input.StockQty != nil {
			material.StockQty = *input.StockQty
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Material), nil
}

// DeleteMaterial soft-deletes the material. Active routine tasks consuming
// it are rewritten to replacementID first; without a replacement the
// delete is refused while such tasks exist.
func (s *MaterialService) DeleteMaterial(ctx context.Context, id, replacementID string) (*cascade.Result, error) {
	opts := cascade.Options{}
	if replacementID != "" {
		opts.Reassignments = map[entities.ResourceType]string{
			entities.TypeRoutineTask: replacementID,
		}
	}

	return s.deleteCascade(ctx, entities.TypeMaterial, id, opts)
}

func (s *MaterialService) RestoreMaterial(ctx context.Context, id string) (*cascade.Result, error) {
	return s.restoreCascade(ctx, entities.TypeMaterial, id, cascade.RestoreOptions{})
}
