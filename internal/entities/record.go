package entities

import "time"

// Meta holds the identity and ownership columns shared by every record.
type Meta struct {
	ID           string
	TenantID     string
	DepartmentID string
	OwnerID      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Base is embedded by every concrete record type. It is excluded from the
// attrs payload; the storage layer persists its fields as dedicated columns.
type Base struct {
	Meta      Meta      `json:"-"`
	Lifecycle Lifecycle `json:"-"`
}

func (b *Base) GetBase() *Base { return b }

// Record is the minimal contract the lifecycle and cascade engines require.
// Any storage engine able to persist the Base columns, the declared ref
// columns and an opaque attrs payload can satisfy it.
type Record interface {
	// Type identifies the record's resource type in the entity graph.
	Type() ResourceType
	// GetBase exposes the shared identity and lifecycle fields.
	GetBase() *Base
	// Refs returns the values of the record's declared ref columns.
	Refs() map[string]string
	// SetRef overwrites one declared ref column.
	SetRef(column, value string)
}

// noRefs is embedded by record types without declared ref columns.
type noRefs struct{}

func (noRefs) Refs() map[string]string { return nil }

func (noRefs) SetRef(string, string) {}
