package authz

// Scope is the breadth of an actor's visibility or mutability over a
// resource type for one operation.
type Scope string

const (
	// ScopeNone denies the operation outright.
	ScopeNone Scope = "none"
	// ScopeOwn limits the operation to records the actor owns per the
	// resource type's ownership predicate.
	ScopeOwn Scope = "own"
	// ScopeDepartment limits the operation to the actor's department.
	ScopeDepartment Scope = "department"
	// ScopeTenant limits the operation to the actor's tenant.
	ScopeTenant Scope = "tenant"
	// ScopeAll crosses tenant boundaries. Only the platform administrator
	// cell for the tenant resource may carry it.
	ScopeAll Scope = "all"
)

var scopeRank = map[Scope]int{
	ScopeNone:       0,
	ScopeOwn:        1,
	ScopeDepartment: 2,
	ScopeTenant:     3,
	ScopeAll:        4,
}

// Valid reports whether s is a declared scope value.
func (s Scope) Valid() bool {
	_, ok := scopeRank[s]
	return ok
}

// Wider reports whether s grants strictly more reach than other.
func (s Scope) Wider(other Scope) bool {
	return scopeRank[s] > scopeRank[other]
}

func (s Scope) String() string {
	return string(s)
}

// Operation is one of the four gated operations.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// AllOperations lists every operation a matrix cell must define.
var AllOperations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}
