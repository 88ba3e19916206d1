package entities

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidGraph marks a graph that failed startup validation. The process
// must refuse to boot when it is returned.
var ErrInvalidGraph = errors.New("entities: invalid entity graph")

// CascadePolicy is the rule applied to an edge's children when the parent
// record is deleted.
type CascadePolicy string

const (
	// PolicySoftDelete recursively soft-deletes active children in the
	// same transaction and deletion batch.
	PolicySoftDelete CascadePolicy = "soft_delete"
	// PolicyBlockIfExists aborts the whole cascade when any active child
	// exists, naming the blockers.
	PolicyBlockIfExists CascadePolicy = "block_if_exists"
	// PolicyRequireReassignment rewrites the ref column of active children
	// to a caller-supplied replacement before the parent is deleted.
	// Records already deleted keep the old reference.
	PolicyRequireReassignment CascadePolicy = "require_reassignment"
)

// Edge declares a parent-to-child dependency in the entity graph.
type Edge struct {
	Child     ResourceType
	RefColumn string
	Policy    CascadePolicy
}

// Descriptor describes one resource type: its table, its queryable ref
// columns, its ownership predicate and its cascade edges.
type Descriptor struct {
	Type          ResourceType
	Table         string
	HasDepartment bool
	RefColumns    []string
	New           func() Record
	// Owns is the type-specific ownership predicate used by OWN scope.
	Owns func(actorID string, rec Record) bool
	// Edges are walked in declaration order during a cascade.
	Edges []Edge
	// MaxSelfDepth bounds recursion for a self-referential edge; zero
	// forbids self edges entirely.
	MaxSelfDepth int
}

// commonColumns are always persisted and may serve as edge ref columns
// without an explicit declaration.
var commonColumns = []string{"tenant_id", "department_id", "owner_id"}

// Graph is the immutable entity graph shared read-only by all request
// handling goroutines.
type Graph struct {
	order       []ResourceType
	descriptors map[ResourceType]*Descriptor
}

// NewGraph builds and validates the production entity graph. A validation
// failure is fatal; there are no runtime defaults.
func NewGraph() (*Graph, error) {
	g := buildGraph()
	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}

// MustGraph is NewGraph for wiring paths where a failure is programmer error.
func MustGraph() *Graph {
	g, err := NewGraph()
	if err != nil {
		panic(err)
	}

	return g
}

// Descriptor returns the descriptor for the given type, or nil.
func (g *Graph) Descriptor(t ResourceType) *Descriptor {
	return g.descriptors[t]
}

// Types returns all resource types in declaration order.
func (g *Graph) Types() []ResourceType {
	return slices.Clone(g.order)
}

// NewRecord allocates an empty record of the given type.
func (g *Graph) NewRecord(t ResourceType) (Record, error) {
	d := g.descriptors[t]
	if d == nil {
		return nil, fmt.Errorf("entities: unknown resource type %q", t)
	}

	return d.New(), nil
}

// Owns evaluates the type-specific ownership predicate.
func (g *Graph) Owns(actorID string, rec Record) bool {
	d := g.descriptors[rec.Type()]
	if d == nil || d.Owns == nil {
		return false
	}

	return d.Owns(actorID, rec)
}

// Validate checks the graph declarations: every edge target declared, every
// ref column resolvable, self edges bounded, and the graph acyclic apart
// from bounded self edges. All problems are reported together.
func (g *Graph) Validate() error {
	var merr *multierror.Error

	for _, t := range g.order {
		d := g.descriptors[t]
		if d.Table == "" {
			merr = multierror.Append(merr, fmt.Errorf("type %q: missing table", t))
		}

		if d.New == nil {
			merr = multierror.Append(merr, fmt.Errorf("type %q: missing factory", t))
		}

		for _, e := range d.Edges {
			child, ok := g.descriptors[e.Child]
			if !ok {
				merr = multierror.Append(merr, fmt.Errorf("type %q: edge to undeclared type %q", t, e.Child))
				continue
			}

			if !slices.Contains(commonColumns, e.RefColumn) && !slices.Contains(child.RefColumns, e.RefColumn) {
				merr = multierror.Append(merr,
					fmt.Errorf("type %q: edge to %q via unknown column %q", t, e.Child, e.RefColumn))
			}

			if e.Child == t {
				if d.MaxSelfDepth <= 0 {
					merr = multierror.Append(merr, fmt.Errorf("type %q: unbounded self edge", t))
				}

				if e.Policy != PolicySoftDelete {
					merr = multierror.Append(merr, fmt.Errorf("type %q: self edge must soft delete", t))
				}
			}
		}
	}

	if err := g.checkAcyclic(); err != nil {
		merr = multierror.Append(merr, err)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}

	return nil
}

// checkAcyclic runs a coloring DFS over the edges, ignoring bounded self
// edges, and reports the first cycle found.
func (g *Graph) checkAcyclic() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[ResourceType]int, len(g.order))

	var visit func(t ResourceType, path []ResourceType) error

	visit = func(t ResourceType, path []ResourceType) error {
		color[t] = gray
		path = append(path, t)

		for _, e := range g.descriptors[t].Edges {
			if e.Child == t {
				continue
			}

			switch color[e.Child] {
			case gray:
				return fmt.Errorf("cycle through %v -> %q", path, e.Child)
			case white:
				if err := visit(e.Child, path); err != nil {
					return err
				}
			}
		}

		color[t] = black

		return nil
	}

	for _, t := range g.order {
		if color[t] == white {
			if err := visit(t, nil); err != nil {
				return err
			}
		}
	}

	return nil
}

func ownsByOwner(actorID string, rec Record) bool {
	return rec.GetBase().Meta.OwnerID == actorID
}

// buildGraph declares the production entity graph. Edge order matters: a
// tenant cascade clears departments (and their tasks) before vendors and
// materials so the blocking and reassignment policies see no active tasks.
func buildGraph() *Graph {
	descriptors := []*Descriptor{
		{
			Type:       TypeTenant,
			Table:      "tenants",
			RefColumns: []string{ColIsPlatform},
			New:        func() Record { return &Tenant{} },
			Owns:       ownsByOwner,
			Edges: []Edge{
				{Child: TypeDepartment, RefColumn: "tenant_id", Policy: PolicySoftDelete},
				{Child: TypeUser, RefColumn: "tenant_id", Policy: PolicySoftDelete},
				{Child: TypeVendor, RefColumn: "tenant_id", Policy: PolicySoftDelete},
				{Child: TypeMaterial, RefColumn: "tenant_id", Policy: PolicySoftDelete},
			},
		},
		{
			Type:       TypeDepartment,
			Table:      "departments",
			RefColumns: []string{ColHeadActorID},
			New:        func() Record { return &Department{} },
			Owns: func(actorID string, rec Record) bool {
				return rec.(*Department).HeadActorID == actorID
			},
			Edges: []Edge{
				{Child: TypeProjectTask, RefColumn: "department_id", Policy: PolicySoftDelete},
				{Child: TypeRoutineTask, RefColumn: "department_id", Policy: PolicySoftDelete},
				{Child: TypeAssignedTask, RefColumn: "department_id", Policy: PolicySoftDelete},
			},
		},
		{
			Type:          TypeUser,
			Table:         "users",
			HasDepartment: true,
			RefColumns:    []string{ColRole},
			New:           func() Record { return &User{} },
			Owns: func(actorID string, rec Record) bool {
				return rec.GetBase().Meta.ID == actorID
			},
			Edges: []Edge{
				{Child: TypeNotification, RefColumn: "owner_id", Policy: PolicySoftDelete},
			},
		},
		{
			Type:          TypeProjectTask,
			Table:         "project_tasks",
			HasDepartment: true,
			RefColumns:    []string{ColVendorID, ColAssignees},
			New:           func() Record { return &ProjectTask{} },
			Owns: func(actorID string, rec Record) bool {
				return rec.(*ProjectTask).OwnedBy(actorID)
			},
			Edges: taskDependentEdges(),
		},
		{
			Type:          TypeRoutineTask,
			Table:         "routine_tasks",
			HasDepartment: true,
			RefColumns:    []string{ColMaterialID, ColAssignees},
			New:           func() Record { return &RoutineTask{} },
			Owns: func(actorID string, rec Record) bool {
				return rec.(*RoutineTask).OwnedBy(actorID)
			},
			Edges: taskDependentEdges(),
		},
		{
			Type:          TypeAssignedTask,
			Table:         "assigned_tasks",
			HasDepartment: true,
			RefColumns:    []string{ColAssignees},
			New:           func() Record { return &AssignedTask{} },
			Owns: func(actorID string, rec Record) bool {
				return rec.(*AssignedTask).OwnedBy(actorID)
			},
			Edges: taskDependentEdges(),
		},
		{
			Type:          TypeActivity,
			Table:         "activities",
			HasDepartment: true,
			RefColumns:    []string{ColTaskID},
			New:           func() Record { return &Activity{} },
			Owns:          ownsByOwner,
		},
		{
			Type:          TypeComment,
			Table:         "comments",
			HasDepartment: true,
			RefColumns:    []string{ColTaskID, ColParentID},
			New:           func() Record { return &Comment{} },
			Owns:          ownsByOwner,
			Edges: []Edge{
				{Child: TypeComment, RefColumn: ColParentID, Policy: PolicySoftDelete},
			},
			MaxSelfDepth: MaxCommentDepth,
		},
		{
			Type:  TypeMaterial,
			Table: "materials",
			New:   func() Record { return &Material{} },
			Owns:  ownsByOwner,
			Edges: []Edge{
				{Child: TypeRoutineTask, RefColumn: ColMaterialID, Policy: PolicyRequireReassignment},
			},
		},
		{
			Type:  TypeVendor,
			Table: "vendors",
			New:   func() Record { return &Vendor{} },
			Owns:  ownsByOwner,
			Edges: []Edge{
				{Child: TypeProjectTask, RefColumn: ColVendorID, Policy: PolicyBlockIfExists},
			},
		},
		{
			Type:          TypeAttachment,
			Table:         "attachments",
			HasDepartment: true,
			RefColumns:    []string{ColTaskID},
			New:           func() Record { return &Attachment{} },
			Owns:          ownsByOwner,
		},
		{
			Type:  TypeNotification,
			Table: "notifications",
			New:   func() Record { return &Notification{} },
			Owns:  ownsByOwner,
		},
	}

	g := &Graph{descriptors: make(map[ResourceType]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		g.order = append(g.order, d.Type)
		g.descriptors[d.Type] = d
	}

	return g
}

func taskDependentEdges() []Edge {
	return []Edge{
		{Child: TypeActivity, RefColumn: ColTaskID, Policy: PolicySoftDelete},
		{Child: TypeComment, RefColumn: ColTaskID, Policy: PolicySoftDelete},
		{Child: TypeAttachment, RefColumn: ColTaskID, Policy: PolicySoftDelete},
	}
}
