package authz

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/girmesh03/taskhub/internal/entities"
)

// ErrInvalidMatrix marks a matrix that failed startup validation. The
// process must refuse to boot when it is returned; there are no implicit
// cell defaults at runtime.
var ErrInvalidMatrix = errors.New("authz: invalid authorization matrix")

// OperationScopes maps each gated operation to its declared scope.
type OperationScopes map[Operation]Scope

type cellKey struct {
	Resource entities.ResourceType
	Role     entities.Role
}

// Matrix is the immutable (resourceType, role) permission table. It is
// built once at process start and shared read-only without locking.
type Matrix struct {
	cells map[cellKey]OperationScopes
}

// NewMatrix builds and validates the production matrix against the entity
// graph: the full (resourceType x role x operation) cross product must be
// declared, and scope ALL may appear only in the
// (tenant, platform_administrator) cell.
func NewMatrix(graph *entities.Graph) (*Matrix, error) {
	m := &Matrix{cells: make(map[cellKey]OperationScopes)}

	for resource, byRole := range matrixTable() {
		for role, ops := range byRole {
			m.cells[cellKey{Resource: resource, Role: role}] = ops
		}
	}

	if err := m.validate(graph); err != nil {
		return nil, err
	}

	return m, nil
}

// MustMatrix is NewMatrix for wiring paths where a failure is programmer error.
func MustMatrix(graph *entities.Graph) *Matrix {
	m, err := NewMatrix(graph)
	if err != nil {
		panic(err)
	}

	return m
}

// Lookup returns the declared scope for the cell and operation. The second
// return is false when the cell or operation is undeclared; callers must
// treat that as a deny.
func (m *Matrix) Lookup(resource entities.ResourceType, role entities.Role, op Operation) (Scope, bool) {
	ops, ok := m.cells[cellKey{Resource: resource, Role: role}]
	if !ok {
		return ScopeNone, false
	}

	scope, ok := ops[op]
	if !ok {
		return ScopeNone, false
	}

	return scope, ok
}

func (m *Matrix) validate(graph *entities.Graph) error {
	var merr *multierror.Error

	for _, resource := range graph.Types() {
		for _, role := range entities.AllRoles {
			ops, ok := m.cells[cellKey{Resource: resource, Role: role}]
			if !ok {
				merr = multierror.Append(merr, fmt.Errorf("missing cell (%s, %s)", resource, role))
				continue
			}

			for _, op := range AllOperations {
				scope, ok := ops[op]
				if !ok {
					merr = multierror.Append(merr, fmt.Errorf("missing operation %s in cell (%s, %s)", op, resource, role))
					continue
				}

				if !scope.Valid() {
					merr = multierror.Append(merr,
						fmt.Errorf("invalid scope %q at (%s, %s, %s)", scope, resource, role, op))
					continue
				}

				if scope == ScopeAll &&
					(resource != entities.TypeTenant || role != entities.RolePlatformAdministrator) {
					merr = multierror.Append(merr,
						fmt.Errorf("scope ALL is reserved for (tenant, platform_administrator), found at (%s, %s, %s)",
							resource, role, op))
				}
			}
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMatrix, err)
	}

	return nil
}

func ops(create, read, update, del Scope) OperationScopes {
	return OperationScopes{
		OpCreate: create,
		OpRead:   read,
		OpUpdate: update,
		OpDelete: del,
	}
}

// taskCells returns the cells shared by the three task variants: tenant
// administrators manage every task in the tenant, department heads their
// department's, members only the tasks they own or are assigned to.
func taskCells() map[entities.Role]OperationScopes {
	return map[entities.Role]OperationScopes{
		entities.RolePlatformAdministrator: ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
		entities.RoleAdministrator:         ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
		entities.RoleDepartmentHead:        ops(ScopeDepartment, ScopeDepartment, ScopeDepartment, ScopeDepartment),
		entities.RoleMember:                ops(ScopeOwn, ScopeOwn, ScopeOwn, ScopeOwn),
	}
}

// matrixTable is the single declarative permission table. Every
// (resource, role) pair must appear; validation fails closed on gaps.
func matrixTable() map[entities.ResourceType]map[entities.Role]OperationScopes {
	return map[entities.ResourceType]map[entities.Role]OperationScopes{
		entities.TypeTenant: {
			entities.RolePlatformAdministrator: ops(ScopeAll, ScopeAll, ScopeAll, ScopeAll),
			entities.RoleAdministrator:         ops(ScopeNone, ScopeTenant, ScopeTenant, ScopeNone),
			entities.RoleDepartmentHead:        ops(ScopeNone, ScopeTenant, ScopeNone, ScopeNone),
			entities.RoleMember:                ops(ScopeNone, ScopeTenant, ScopeNone, ScopeNone),
		},
		entities.TypeDepartment: {
			entities.RolePlatformAdministrator: ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
			entities.RoleAdministrator:         ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
			entities.RoleDepartmentHead:        ops(ScopeNone, ScopeTenant, ScopeDepartment, ScopeNone),
			entities.RoleMember:                ops(ScopeNone, ScopeDepartment, ScopeNone, ScopeNone),
		},
		entities.TypeUser: {
			entities.RolePlatformAdministrator: ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
			entities.RoleAdministrator:         ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
			entities.RoleDepartmentHead:        ops(ScopeNone, ScopeDepartment, ScopeDepartment, ScopeNone),
			entities.RoleMember:                ops(ScopeNone, ScopeDepartment, ScopeOwn, ScopeNone),
		},
		entities.TypeProjectTask:  taskCells(),
		entities.TypeRoutineTask:  taskCells(),
		entities.TypeAssignedTask: taskCells(),
		entities.TypeActivity: {
			entities.RolePlatformAdministrator: ops(ScopeOwn, ScopeTenant, ScopeNone, ScopeNone),
			entities.RoleAdministrator:         ops(ScopeOwn, ScopeTenant, ScopeNone, ScopeTenant),
			entities.RoleDepartmentHead:        ops(ScopeOwn, ScopeDepartment, ScopeNone, ScopeDepartment),
			entities.RoleMember:                ops(ScopeOwn, ScopeDepartment, ScopeNone, ScopeNone),
		},
		entities.TypeComment: {
			entities.RolePlatformAdministrator: ops(ScopeOwn, ScopeTenant, ScopeOwn, ScopeTenant),
			entities.RoleAdministrator:         ops(ScopeOwn, ScopeTenant, ScopeOwn, ScopeTenant),
			entities.RoleDepartmentHead:        ops(ScopeOwn, ScopeDepartment, ScopeOwn, ScopeDepartment),
			entities.RoleMember:                ops(ScopeOwn, ScopeDepartment, ScopeOwn, ScopeOwn),
		},
		entities.TypeMaterial: {
			entities.RolePlatformAdministrator: ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
			entities.RoleAdministrator:         ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
			entities.RoleDepartmentHead:        ops(ScopeNone, ScopeTenant, ScopeNone, ScopeNone),
			entities.RoleMember:                ops(ScopeNone, ScopeTenant, ScopeNone, ScopeNone),
		},
		entities.TypeVendor: {
			entities.RolePlatformAdministrator: ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
			entities.RoleAdministrator:         ops(ScopeTenant, ScopeTenant, ScopeTenant, ScopeTenant),
			entities.RoleDepartmentHead:        ops(ScopeNone, ScopeTenant, ScopeNone, ScopeNone),
			entities.RoleMember:                ops(ScopeNone, ScopeTenant, ScopeNone, ScopeNone),
		},
		entities.TypeAttachment: {
			entities.RolePlatformAdministrator: ops(ScopeOwn, ScopeTenant, ScopeNone, ScopeTenant),
			entities.RoleAdministrator:         ops(ScopeOwn, ScopeTenant, ScopeNone, ScopeTenant),
			entities.RoleDepartmentHead:        ops(ScopeOwn, ScopeDepartment, ScopeNone, ScopeDepartment),
			entities.RoleMember:                ops(ScopeOwn, ScopeDepartment, ScopeNone, ScopeOwn),
		},
		entities.TypeNotification: {
			entities.RolePlatformAdministrator: ops(ScopeNone, ScopeOwn, ScopeOwn, ScopeOwn),
			entities.RoleAdministrator:         ops(ScopeNone, ScopeOwn, ScopeOwn, ScopeOwn),
			entities.RoleDepartmentHead:        ops(ScopeNone, ScopeOwn, ScopeOwn, ScopeOwn),
			entities.RoleMember:                ops(ScopeNone, ScopeOwn, ScopeOwn, ScopeOwn),
		},
	}
}
