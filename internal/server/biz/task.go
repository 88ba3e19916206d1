package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/cascade"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/storage"
)

type TaskServiceParams struct {
	fx.In

	Store    *storage.Store
	Resolver *authz.Resolver
	Retry    storage.RetryConfig
}

// TaskService manages the three task variants and their dependents:
// activities, comments and attachments.
type TaskService struct {
	*AbstractService
}

func NewTaskService(params TaskServiceParams) *TaskService {
	return &TaskService{
		AbstractService: newAbstractService(params.Store, params.Resolver, params.Retry),
	}
}

var taskTypes = []entities.ResourceType{
	entities.TypeProjectTask,
	entities.TypeRoutineTask,
	entities.TypeAssignedTask,
}

func validTaskType(t entities.ResourceType) error {
	for _, tt := range taskTypes {
		if t == tt {
			return nil
		}
	}

	return fmt.Errorf("%w: %q is not a task type", ErrInvalidInput, t)
}

// CreateTaskInput carries the fields shared by all task variants.
// VendorID applies to project tasks, MaterialID to routine tasks.
type CreateTaskInput struct {
	TenantID     string
	DepartmentID string
	Title        string
	Description  string
	AssigneeIDs  []string
	VendorID     string
	MaterialID   string
	DueAt        string
}

func (s *TaskService) CreateTask(ctx context.Context, t entities.ResourceType, input CreateTaskInput) (entities.Record, error) {
	if err := validTaskType(t); err != nil {
		return nil, err
	}

	if input.TenantID == "" || input.DepartmentID == "" || input.Title == "" {
		return nil, fmt.Errorf("%w: tenant id, department id and title are required", ErrInvalidInput)
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.Graph().NewRecord(t)
	if err != nil {
		return nil, err
	}

	base := rec.GetBase()
	base.Meta.TenantID = input.TenantID
	base.Meta.DepartmentID = input.DepartmentID
	base.Meta.OwnerID = actor.ID

	switch task := rec.(type) {
	case *entities.ProjectTask:
		task.Title = input.Title
		task.Description = input.Description
		task.Status = entities.TaskStatusOpen
		task.AssigneeIDs = input.AssigneeIDs
		task.VendorID = input.VendorID
	case *entities.RoutineTask:
		task.Title = input.Title
		task.Description = input.Description
		task.Status = entities.TaskStatusOpen
		task.AssigneeIDs = input.AssigneeIDs
		task.MaterialID = input.MaterialID
	case *entities.AssignedTask:
		task.Title = input.Title
		task.Description = input.Description
		task.Status = entities.TaskStatusOpen
		task.AssigneeIDs = input.AssigneeIDs
		task.DueAt = input.DueAt
	}

	if err := s.create(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *TaskService) GetTask(ctx context.Context, t entities.ResourceType, id string, mode storage.ReadMode) (entities.Record, error) {
	if err := validTaskType(t); err != nil {
		return nil, err
	}

	rec, _, err := s.getAuthorized(ctx, t, id, authz.OpRead, mode)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *TaskService) ListTasks(ctx context.Context, t entities.ResourceType, mode storage.ReadMode, opts ...storage.ListOption) ([]entities.Record, error) {
	if err := validTaskType(t); err != nil {
		return nil, err
	}

	return s.list(ctx, t, mode, nil, opts...)
}

// UpdateTaskInput mutates the shared task fields; nil leaves a field
// unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *entities.TaskStatus
	AssigneeIDs *[]string
}

func (s *TaskService) UpdateTask(ctx context.Context, t entities.ResourceType, id string, input UpdateTaskInput) (entities.Record, error) {
	if err := validTaskType(t); err != nil {
		return nil, err
	}

	return s.update(ctx, t, id, func(rec entities.Record) error {
		switch task := rec.(type) {
		case *entities.ProjectTask:
			applyTaskInput(&task.Title, &task.Description, &task.Status, &task.AssigneeIDs, input)
		case *entities.RoutineTask:
			applyTaskInput(&task.Title, &task.Description, &task.Status, &task.AssigneeIDs, input)
		case *entities.AssignedTask:
			applyTaskInput(&task.Title, &task.Description, &task.Status, &task.AssigneeIDs, input)
		}

		return nil
	})
}

func applyTaskInput(title, desc *string, status *entities.TaskStatus, assignees *[]string, input UpdateTaskInput) {
	if input.Title != nil {
		*title = *input.Title
	}

	if input.Description != nil {
		*desc = *input.Description
	}

	if input.Status != nil {
		*status = *input.Status
	}

	if input.AssigneeIDs != nil {
		*assignees = *input.AssigneeIDs
	}
}

func (s *TaskService) DeleteTask(ctx context.Context, t entities.ResourceType, id string) (*cascade.Result, error) {
	if err := validTaskType(t); err != nil {
		return nil, err
	}

	return s.deleteCascade(ctx, t, id, cascade.Options{})
}

func (s *TaskService) RestoreTask(ctx context.Context, t entities.ResourceType, id string, cascadeChildren bool) (*cascade.Result, error) {
	if err := validTaskType(t); err != nil {
		return nil, err
	}

	return s.restoreCascade(ctx, t, id, cascade.RestoreOptions{CascadeChildren: cascadeChildren})
}

// AddActivityInput records work done on a task.
type AddActivityInput struct {
	TaskType entities.ResourceType
	TaskID   string
	Action   string
	Note     string
}

func (s *TaskService) AddActivity(ctx context.Context, input AddActivityInput) (*entities.Activity, error) {
	task, err := s.GetTask(ctx, input.TaskType, input.TaskID, storage.ModeActive)
	if err != nil {
		return nil, err
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}

	activity := &entities.Activity{TaskID: input.TaskID, Action: input.Action, Note: input.Note}
	activity.Base.Meta.TenantID = task.GetBase().Meta.TenantID
	activity.Base.Meta.DepartmentID = task.GetBase().Meta.DepartmentID
	activity.Base.Meta.OwnerID = actor.ID

	if err := s.create(ctx, activity); err != nil {
		return nil, err
	}

	return activity, nil
}

// AddCommentInput posts a comment on a task, optionally as a reply.
type AddCommentInput struct {
	TaskType entities.ResourceType
	TaskID   string
	ParentID string
	Body     string
}

func (s *TaskService) AddComment(ctx context.Context, input AddCommentInput) (*entities.Comment, error) {
	if input.Body == "" {
		return nil, fmt.Errorf("%w: comment body is required", ErrInvalidInput)
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}

	var comment *entities.Comment

	// The parent-chain walk and the insert share one transaction so a
	// parent deleted concurrently cannot admit a reply.
	err = s.RunInTransaction(ctx, func(ctx context.Context) error {
		task, err := s.GetTask(ctx, input.TaskType, input.TaskID, storage.ModeActive)
		if err != nil {
			return err
		}

		if input.ParentID != "" {
			if err := s.checkCommentDepth(ctx, input.TaskID, input.ParentID); err != nil {
				return err
			}
		}

		comment = &entities.Comment{TaskID: input.TaskID, ParentID: input.ParentID, Body: input.Body}
		comment.Base.Meta.TenantID = task.GetBase().Meta.TenantID
		comment.Base.Meta.DepartmentID = task.GetBase().Meta.DepartmentID
		comment.Base.Meta.OwnerID = actor.ID

		return s.create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// checkCommentDepth walks the parent chain and refuses a reply that would
// nest past the thread limit. The parent must be an active comment on the
// same task.
func (s *TaskService) checkCommentDepth(ctx context.Context, taskID, parentID string) error {
	sess := s.session(ctx)
	depth := 1

	for id := parentID; id != ""; {
		rec, err := sess.Get(ctx, entities.TypeComment, id, storage.ModeActive)
		if err != nil {
			return err
		}

		parent := rec.(*entities.Comment)
		if parent.TaskID != taskID {
			return fmt.Errorf("%w: parent comment belongs to another task", ErrInvalidInput)
		}

		if depth >= entities.MaxCommentDepth {
			return fmt.Errorf("%w: max depth is %d", ErrCommentTooDeep, entities.MaxCommentDepth)
		}

		depth++
		id = parent.ParentID
	}

	return nil
}

func (s *TaskService) ListComments(ctx context.Context, taskID string, mode storage.ReadMode, opts ...storage.ListOption) ([]*entities.Comment, error) {
	recs, err := s.list(ctx, entities.TypeComment, mode,
		[]storage.Predicate{storage.FieldEQ(entities.ColTaskID, taskID)}, opts...)
	if err != nil {
		return nil, err
	}

	comments := make([]*entities.Comment, len(recs))
	for i, rec := range recs {
		comments[i] = rec.(*entities.Comment)
	}

	return comments, nil
}

// DeleteComment soft deletes a comment and cascades over its reply thread.
func (s *TaskService) DeleteComment(ctx context.Context, id string) (*cascade.Result, error) {
	return s.deleteCascade(ctx, entities.TypeComment, id, cascade.Options{})
}

func (s *TaskService) RestoreComment(ctx context.Context, id string, cascadeChildren bool) (*cascade.Result, error) {
	return s.restoreCascade(ctx, entities.TypeComment, id, cascade.RestoreOptions{CascadeChildren: cascadeChildren})
}

// AddAttachmentInput links an uploaded object to a task.
type AddAttachmentInput struct {
	TaskType    entities.ResourceType
	TaskID      string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
}

func (s *TaskService) AddAttachment(ctx context.Context, input AddAttachmentInput) (*entities.Attachment, error) {
	task, err := s.GetTask(ctx, input.TaskType, input.TaskID, storage.ModeActive)
	if err != nil {
		return nil, err
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}

	att := &entities.Attachment{
		TaskID:      input.TaskID,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		StorageKey:  input.StorageKey,
	}
	att.Base.Meta.TenantID = task.GetBase().Meta.TenantID
	att.Base.Meta.DepartmentID = task.GetBase().Meta.DepartmentID
	att.Base.Meta.OwnerID = actor.ID

	if err := s.create(ctx, att); err != nil {
		return nil, err
	}

	return att, nil
}
