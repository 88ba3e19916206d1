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

type VendorServiceParams struct {
	fx.In

	Store    *storage.Store
	Resolver *authz.Resolver
	Retry    storage.RetryConfig
}

type VendorService struct {
	*AbstractService
}

func NewVendorService(params VendorServiceParams) *VendorService {
	return &VendorService{
		AbstractService: newAbstractService(params.Store, params.Resolver, params.Retry),
	}
}

type CreateVendorInput struct {
	TenantID     string
	Name         string
	ContactEmail string
	Phone        string
}

func (s *VendorService) CreateVendor(ctx context.Context, input CreateVendorInput) (*entities.Vendor, error) {
	if input.TenantID == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: tenant id and name are required", ErrInvalidInput)
	}

	vendor := &entities.Vendor{Name: input.Name, ContactEmail: input.ContactEmail, Phone: input.Phone}
	vendor.Base.Meta.TenantID = input.TenantID

	if err := s.create(ctx, vendor); err != nil {
		return nil, err
	}

	return vendor, nil
}

func (s *VendorService) GetVendor(ctx context.Context, id string, mode storage.ReadMode) (*entities.Vendor, error) {
	rec, _, err := s.getAuthorized(ctx, entities.TypeVendor, id, authz.OpRead, mode)
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Vendor), nil
}

func (s *VendorService) ListVendors(ctx context.Context, mode storage.ReadMode, opts ...storage.ListOption) ([]*entities.Vendor, error) {
	recs, err := s.list(ctx, entities.TypeVendor, mode, nil, opts...)
	if err != nil {
		return nil, err
	}

	vendors := make([]*entities.Vendor, len(recs))
	for i, rec := range recs {
		vendors[i] = rec.(*entities.Vendor)
	}

	return vendors, nil
}

type UpdateVendorInput struct {
	Name         *string
	ContactEmail *string
	Phone        *string
}

func (s *VendorService) UpdateVendor(ctx context.Context, id string, input UpdateVendorInput) (*entities.Vendor, error) {
	rec, err := s.update(ctx, entities.TypeVendor, id, func(rec entities.Record) error {
		vendor := rec.(*entities.Vendor)
		if input.Name != nil {
			vendor.Name = *input.Name
		}

		if input.ContactEmail != nil {
			vendor.ContactEmail = *input.ContactEmail
		}

		if input.Phone != nil {
			vendor.Phone = *input.Phone
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Vendor), nil
}

// DeleteVendor soft-deletes the vendor. Active project tasks referencing
// it block the deletion and are named in the error.
func (s *VendorService) DeleteVendor(ctx context.Context, id string) (*cascade.Result, error) {
	return s.deleteCascade(ctx, entities.TypeVendor, id, cascade.Options{})
}

func (s *VendorService) RestoreVendor(ctx context.Context, id string) (*cascade.Result, error) {
	return s.restoreCascade(ctx, entities.TypeVendor, id, cascade.RestoreOptions{})
}
