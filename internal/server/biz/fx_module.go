package biz

import (
	"go.uber.org/fx"
)

var Module = fx.Module("biz",
	fx.Provide(NewSystemService),
	fx.Provide(NewTenantService),
	fx.Provide(NewDepartmentService),
	fx.Provide(NewUserService),
	fx.Provide(NewTaskService),
	fx.Provide(NewVendorService),
	fx.Provide(NewMaterialService),
	fx.Provide(NewNotificationService),
)
