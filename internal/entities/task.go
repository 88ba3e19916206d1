package entities

import (
	"encoding/json"
	"slices"
)

// Ref columns shared by the task variants and their dependents.
const (
	ColTaskID     = "task_id"
	ColVendorID   = "vendor_id"
	ColMaterialID = "material_id"
	// ColAssignees holds the assignee ids as a JSON array so scoped list
	// queries can match individual assignees in SQL.
	ColAssignees = "assignee_ids"
)

// TaskStatus is the workflow state shared by all task variants.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// taskCore holds the fields common to every task variant. The owner is the
// creating actor; assignees extend the ownership predicate.
type taskCore struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	AssigneeIDs []string   `json:"-"`
}

// ownedOrAssigned is the ownership predicate for task variants.
func (c *taskCore) ownedOrAssigned(actorID string, ownerID string) bool {
	return actorID == ownerID || slices.Contains(c.AssigneeIDs, actorID)
}

func (c *taskCore) assigneesRef() string {
	if len(c.AssigneeIDs) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(c.AssigneeIDs)
	return string(b)
}

func (c *taskCore) setAssigneesRef(value string) {
	c.AssigneeIDs = nil
	if value == "" || value == "[]" {
		return
	}
	_ = json.Unmarshal([]byte(value), &c.AssigneeIDs)
}

// ProjectTask is externally driven work, optionally tied to a vendor.
// An active project task blocks deletion of the vendor it references.
type ProjectTask struct {
	Base `json:"-"`
	taskCore

	VendorID string `json:"-"`
}

func (*ProjectTask) Type() ResourceType { return TypeProjectTask }

func (t *ProjectTask) Refs() map[string]string {
	return map[string]string{ColVendorID: t.VendorID, ColAssignees: t.assigneesRef()}
}

func (t *ProjectTask) SetRef(column, value string) {
	switch column {
	case ColVendorID:
		t.VendorID = value
	case ColAssignees:
		t.setAssigneesRef(value)
	}
}

func (t *ProjectTask) OwnedBy(actorID string) bool {
	return t.ownedOrAssigned(actorID, t.Meta.OwnerID)
}

// RoutineTask is recurring maintenance work consuming a material.
// Deleting the material requires reassigning active routine tasks.
type RoutineTask struct {
	Base `json:"-"`
	taskCore

	MaterialID string `json:"-"`
}

func (*RoutineTask) Type() ResourceType { return TypeRoutineTask }

func (t *RoutineTask) Refs() map[string]string {
	return map[string]string{ColMaterialID: t.MaterialID, ColAssignees: t.assigneesRef()}
}

func (t *RoutineTask) SetRef(column, value string) {
	switch column {
	case ColMaterialID:
		t.MaterialID = value
	case ColAssignees:
		t.setAssigneesRef(value)
	}
}

func (t *RoutineTask) OwnedBy(actorID string) bool {
	return t.ownedOrAssigned(actorID, t.Meta.OwnerID)
}

// AssignedTask is ad hoc work handed directly to one or more assignees.
type AssignedTask struct {
	Base `json:"-"`
	taskCore

	DueAt string `json:"due_at,omitempty"`
}

func (*AssignedTask) Type() ResourceType { return TypeAssignedTask }

func (t *AssignedTask) Refs() map[string]string {
	return map[string]string{ColAssignees: t.assigneesRef()}
}

func (t *AssignedTask) SetRef(column, value string) {
	if column == ColAssignees {
		t.setAssigneesRef(value)
	}
}

func (t *AssignedTask) OwnedBy(actorID string) bool {
	return t.ownedOrAssigned(actorID, t.Meta.OwnerID)
}
