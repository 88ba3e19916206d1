package storage

import (
	entsql "entgo.io/ent/dialect/sql"
)

// Predicate narrows a list query. Predicates compose by conjunction.
type Predicate func(*entsql.Selector)

// All matches every row; used for the unrestricted platform scope.
func All() Predicate {
	return func(*entsql.Selector) {}
}

// And combines predicates by conjunction.
func And(preds ...Predicate) Predicate {
	return func(s *entsql.Selector) {
		for _, p := range preds {
			p(s)
		}
	}
}

// FieldEQ matches rows whose column equals v.
func FieldEQ(column string, v any) Predicate {
	return func(s *entsql.Selector) {
		s.Where(entsql.EQ(column, v))
	}
}

// FieldNEQ matches rows whose column differs from v.
func FieldNEQ(column string, v any) Predicate {
	return func(s *entsql.Selector) {
		s.Where(entsql.NEQ(column, v))
	}
}

// FieldGT matches rows whose column is greater than v.
func FieldGT(column string, v any) Predicate {
	return func(s *entsql.Selector) {
		s.Where(entsql.GT(column, v))
	}
}

// IDEQ matches one record by id.
func IDEQ(id string) Predicate {
	return FieldEQ("id", id)
}

// TenantEQ scopes a query to one tenant.
func TenantEQ(tenantID string) Predicate {
	return FieldEQ("tenant_id", tenantID)
}

// DepartmentEQ scopes a query to one department.
func DepartmentEQ(departmentID string) Predicate {
	return FieldEQ("department_id", departmentID)
}

// OwnerEQ scopes a query to records owned by one actor.
func OwnerEQ(ownerID string) Predicate {
	return FieldEQ("owner_id", ownerID)
}

// OwnedOrAssigned matches records owned by the actor or listing the actor
// in a persisted assignee column. The column holds a JSON array of ids, so
// matching the quoted id keeps the comparison an exact token match.
func OwnedOrAssigned(actorID, assigneeColumn string) Predicate {
	return func(s *entsql.Selector) {
		s.Where(entsql.Or(
			entsql.EQ("owner_id", actorID),
			entsql.Contains(assigneeColumn, `"`+actorID+`"`),
		))
	}
}

// BatchEQ matches records stamped with one deletion batch.
func BatchEQ(batchID string) Predicate {
	return FieldEQ("deletion_batch_id", batchID)
}

// ReadMode selects the default-visibility behavior of read paths.
type ReadMode int

const (
	// ModeActive excludes soft-deleted records; the default everywhere.
	ModeActive ReadMode = iota
	// ModeWithDeleted includes soft-deleted records (audit and restore UIs).
	ModeWithDeleted
	// ModeDeletedOnly returns only soft-deleted records.
	ModeDeletedOnly
)

func (m ReadMode) apply(s *entsql.Selector) {
	switch m {
	case ModeActive:
		s.Where(entsql.EQ("is_deleted", false))
	case ModeDeletedOnly:
		s.Where(entsql.EQ("is_deleted", true))
	case ModeWithDeleted:
	}
}
