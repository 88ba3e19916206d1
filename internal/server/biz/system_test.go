package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage/storagetest"
)

func TestBootstrap(t *testing.T) {
	svc := newTestServices(t, storagetest.NewStore(t))
	ctx := authz.NewSystemContext(context.Background())

	res, err := svc.System.Bootstrap(ctx, BootstrapInput{
		TenantName: "platform",
		AdminEmail: "root@example.com",
		AdminName:  "Root",
	})
	require.NoError(t, err)
	assert.True(t, res.Tenant.IsPlatform)
	assert.Equal(t, entities.RolePlatformAdministrator, res.Admin.Role)
	assert.Equal(t, res.Tenant.Base.Meta.ID, res.Admin.Base.Meta.TenantID)

	got, err := svc.System.PlatformTenant(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Tenant.Base.Meta.ID, got.Base.Meta.ID)
}

func TestBootstrapTwiceConflicts(t *testing.T) {
	svc := newTestServices(t, storagetest.NewStore(t))
	ctx := authz.NewSystemContext(context.Background())

	_, err := svc.System.Bootstrap(ctx, BootstrapInput{TenantName: "platform", AdminEmail: "root@example.com"})
	require.NoError(t, err)

	_, err = svc.System.Bootstrap(ctx, BootstrapInput{TenantName: "platform", AdminEmail: "root@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyBootstrapped)
	assert.Equal(t, KindConflict, Classify(err))
}

func TestBootstrapRequiresSystemActor(t *testing.T) {
	svc := newTestServices(t, storagetest.NewStore(t))

	u := &entities.User{Role: entities.RoleAdministrator}
	u.Base.Meta.ID = "u1"
	u.Base.Meta.TenantID = "t1"

	_, err := svc.System.Bootstrap(actorContext(t, u, false), BootstrapInput{
		TenantName: "platform",
		AdminEmail: "root@example.com",
	})
	assert.Error(t, err)
}
