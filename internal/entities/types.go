// Package entities defines the record types managed by the core, the
// lifecycle fields every record carries, and the dependency graph that
// drives cascade delete and restore.
package entities

// ResourceType identifies a record type in the entity graph.
type ResourceType string

const (
	TypeTenant       ResourceType = "tenant"
	TypeDepartment   ResourceType = "department"
	TypeUser         ResourceType = "user"
	TypeProjectTask  ResourceType = "project_task"
	TypeRoutineTask  ResourceType = "routine_task"
	TypeAssignedTask ResourceType = "assigned_task"
	TypeActivity     ResourceType = "activity"
	TypeComment      ResourceType = "comment"
	TypeMaterial     ResourceType = "material"
	TypeVendor       ResourceType = "vendor"
	TypeAttachment   ResourceType = "attachment"
	TypeNotification ResourceType = "notification"
)

func (t ResourceType) String() string {
	return string(t)
}

// Role is the administrative role an actor holds within their tenant.
type Role string

const (
	// RolePlatformAdministrator is held only by actors of the platform tenant.
	RolePlatformAdministrator Role = "platform_administrator"
	// RoleAdministrator is the top administrative role of a regular tenant.
	// A tenant must always retain at least one active administrator.
	RoleAdministrator Role = "administrator"
	// RoleDepartmentHead manages one department of a tenant.
	RoleDepartmentHead Role = "department_head"
	// RoleMember is a regular tenant member.
	RoleMember Role = "member"
)

// AllRoles lists every role recognized by the authorization matrix.
var AllRoles = []Role{
	RolePlatformAdministrator,
	RoleAdministrator,
	RoleDepartmentHead,
	RoleMember,
}

func (r Role) String() string {
	return string(r)
}
