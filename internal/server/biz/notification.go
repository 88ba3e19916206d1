package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/pkg/xtime"
	"github.com/girmesh03/taskhub/internal/storage"
)

type NotificationServiceParams struct {
	fx.In

	Store    *storage.Store
	Resolver *authz.Resolver
	Retry    storage.RetryConfig
}

// NotificationService delivers in-app notifications. Creation is reserved
// for the system actor; users read and manage their own.
type NotificationService struct {
	*AbstractService
}

func NewNotificationService(params NotificationServiceParams) *NotificationService {
	return &NotificationService{
		AbstractService: newAbstractService(params.Store, params.Resolver, params.Retry),
	}
}

// Notify creates a notification for one user. Only the system actor may
// call it; user-facing flows go through domain events, not direct writes.
func (s *NotificationService) Notify(ctx context.Context, tenantID, userID, kind, message string) (*entities.Notification, error) {
	if err := authz.RequireSystemActor(ctx); err != nil {
		return nil, err
	}

	if tenantID == "" || userID == "" {
		return nil, fmt.Errorf("%w: tenant id and user id are required", ErrInvalidInput)
	}

	n := &entities.Notification{Kind: kind, Message: message}
	n.Base.Meta.TenantID = tenantID
	n.Base.Meta.OwnerID = userID

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.session(ctx).Insert(ctx, n)
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (s *NotificationService) ListNotifications(ctx context.Context, mode storage.ReadMode, opts ...storage.ListOption) ([]*entities.Notification, error) {
	recs, err := s.list(ctx, entities.TypeNotification, mode, nil, opts...)
	if err != nil {
		return nil, err
	}

	notifications := make([]*entities.Notification, len(recs))
	for i, rec := range recs {
		notifications[i] = rec.(*entities.Notification)
	}

	return notifications, nil
}

// MarkRead stamps the notification as read by its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id string) (*entities.Notification, error) {
	rec, err := s.update(ctx, entities.TypeNotification, id, func(rec entities.Record) error {
		n := rec.(*entities.Notification)
		if n.ReadAt == nil {
			now := xtime.Now()
			n.ReadAt = &now
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec.(*entities.Notification), nil
}

// DeleteNotification soft-deletes one notification.
func (s *NotificationService) DeleteNotification(ctx context.Context, id string) error {
	_, err := s.deleteCascade(ctx, entities.TypeNotification, id, cascade.Options{})

	return err
}
