package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
)

// testServices bundles every service over one store for tests.
type testServices struct {
	Store         *storage.Store
	System        *SystemService
	Tenants       *TenantService
	Departments   *DepartmentService
	Users         *UserService
	Tasks         *TaskService
	Vendors       *VendorService
	Materials     *MaterialService
	Notifications *NotificationService
}

func newTestServices(t *testing.T, store *storage.Store) *testServices {
	t.Helper()

	graph := store.Graph()
	resolver := authz.NewResolver(authz.MustMatrix(graph), graph)
	retry := storage.DefaultRetryConfig

	return &testServices{
		Store:         store,
		System:        NewSystemService(SystemServiceParams{Store: store, Resolver: resolver, Retry: retry}),
		Tenants:       NewTenantService(TenantServiceParams{Store: store, Resolver: resolver, Retry: retry}),
		Departments:   NewDepartmentService(DepartmentServiceParams{Store: store, Resolver: resolver, Retry: retry}),
		Users:         NewUserService(UserServiceParams{Store: store, Resolver: resolver, Retry: retry}),
		Tasks:         NewTaskService(TaskServiceParams{Store: store, Resolver: resolver, Retry: retry}),
		Vendors:       NewVendorService(VendorServiceParams{Store: store, Resolver: resolver, Retry: retry}),
		Materials:     NewMaterialService(MaterialServiceParams{Store: store, Resolver: resolver, Retry: retry}),
		Notifications: NewNotificationService(NotificationServiceParams{Store: store, Resolver: resolver, Retry: retry}),
	}
}

// actorContext builds a request context acting as the given user.
func actorContext(t *testing.T, u *entities.User, platform bool) context.Context {
	t.Helper()

	ctx, err := authz.WithActor(context.Background(), authz.Actor{
		ID:              u.Base.Meta.ID,
		Role:            u.Role,
		TenantID:        u.Base.Meta.TenantID,
		DepartmentID:    u.Base.Meta.DepartmentID,
		IsPlatformActor: platform,
	})
	require.NoError(t, err)

	return ctx
}

// bootstrapPlatform runs Bootstrap and returns the platform admin context.
func bootstrapPlatform(t *testing.T, svc *testServices) (context.Context, *BootstrapResult) {
	t.Helper()

	res, err := svc.System.Bootstrap(authz.NewSystemContext(context.Background()), BootstrapInput{
		TenantName: "platform",
		TenantSlug: "platform",
		AdminEmail: "root@example.com",
		AdminName:  "Root",
	})
	require.NoError(t, err)

	return actorContext(t, res.Admin, true), res
}

// seedTenant creates a tenant through the platform admin and returns the
// tenant admin's context alongside the created resources.
func seedTenant(t *testing.T, svc *testServices, platformCtx context.Context, name string) (context.Context, *CreateTenantResult) {
	t.Helper()

	res, err := svc.Tenants.CreateTenant(platformCtx, CreateTenantInput{
		Name:       name,
		Slug:       name,
		AdminEmail: name + "-admin@example.com",
		AdminName:  "Admin",
	})
	require.NoError(t, err)

	return actorContext(t, res.Admin, false), res
}
