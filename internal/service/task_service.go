package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"task-manager/internal/consistency"
	"task-manager/internal/models"
	"task-manager/internal/query"
	"task-manager/internal/repository"
	"task-manager/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskInput is the writable part of a task as sent by clients.
type TaskInput struct {
	Name         string `json:"name" form:"name" validate:"required"`
	Description  string `json:"description" form:"description"`
	Deadline     Deadline `json:"deadline" form:"deadline" validate:"required"`
	Completed    *bool  `json:"completed" form:"completed"`
	AssignedUser string `json:"assignedUser" form:"assignedUser"`
}

// Deadline is stored as opaque text. JSON clients may send a string, a
// number such as epoch milliseconds, or a boolean; numbers keep their
// literal text.
type Deadline string

func (d *Deadline) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*d = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Deadline(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("deadline must be a scalar, got %s", data)
	default:
		*d = Deadline(data)
	}
	return nil
}

type TaskService struct {
	tasks        TaskStore
	users        UserStore
	engine       *consistency.Engine
	validate     *validator.Validate
	defaultLimit int
}

func NewTaskService(tasks TaskStore, users UserStore, validate *validator.Validate, defaultLimit int) *TaskService {
	return &TaskService{
		tasks:        tasks,
		users:        users,
		engine:       consistency.NewEngine(tasks, users),
		validate:     validate,
		defaultLimit: defaultLimit,
	}
}

func (s *TaskService) List(ctx context.Context, req query.Request) (query.Result, error) {
	return s.tasks.Find(ctx, req, s.defaultLimit)
}

// Get returns the task, projected when proj is set.
func (s *TaskService) Get(ctx context.Context, id string, proj *query.Projection) (any, error) {
	id, err := checkID(id)
	if err != nil {
		return nil, err
	}
	resolved, err := repository.TaskCollection.ResolveProjection(proj)
	if err != nil {
		return nil, err
	}
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return query.Project(*task, resolved), nil
}

func (s *TaskService) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	assignee, name, err := s.resolveAssignee(ctx, in.AssignedUser)
	if err != nil {
		return nil, err
	}

	task := in.task(uuid.NewString(), assignee, name)
	var plan consistency.Plan
	plan.Add("insert task", func(ctx context.Context) error {
		return s.tasks.Insert(ctx, task)
	})
	plan.Append(s.engine.Plan(consistency.TaskActions(nil, taskState(task))))
	if err := plan.Execute(ctx); err != nil {
		return nil, err
	}

	logger.AuditLogger.Info("Task created",
		zap.String("task_id", task.ID),
		zap.String("assigned_user", task.AssignedUser),
	)
	return task, nil
}

// Update replaces the task and brings the old and new assignees'
// pending lists in line with it.
func (s *TaskService) Update(ctx context.Context, id string, in TaskInput) (*models.Task, error) {
	id, err := checkID(id)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	assignee, name, err := s.resolveAssignee(ctx, in.AssignedUser)
	if err != nil {
		return nil, err
	}

	task := in.task(id, assignee, name)
	task.DateCreated = existing.DateCreated
	var plan consistency.Plan
	plan.Add("update task", func(ctx context.Context) error {
		return s.tasks.Update(ctx, task)
	})
	plan.Append(s.engine.Plan(consistency.TaskActions(taskState(existing), taskState(task))))
	if err := plan.Execute(ctx); err != nil {
		return nil, err
	}

	logger.AuditLogger.Info("Task updated",
		zap.String("task_id", task.ID),
		zap.String("previous_user", existing.AssignedUser),
		zap.String("assigned_user", task.AssignedUser),
		zap.Bool("completed", task.Completed),
	)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	id, err := checkID(id)
	if err != nil {
		return err
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	plan := s.engine.Plan(consistency.TaskActions(taskState(existing), nil))
	plan.Add("delete task", func(ctx context.Context) error {
		return s.tasks.Delete(ctx, id)
	})
	if err := plan.Execute(ctx); err != nil {
		return err
	}

	logger.AuditLogger.Info("Task deleted", zap.String("task_id", id))
	return nil
}

func (s *TaskService) find(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Entity: "Task"}
	}
	return task, err
}

func (s *TaskService) validateInput(in TaskInput) error {
	if err := s.validate.Struct(in); err != nil {
		return requiredFields(err, "Name and deadline are required", "Missing required fields: name and/or deadline")
	}
	return nil
}

// resolveAssignee returns the canonical user id and the name to store on
// the task. An empty id means unassigned.
func (s *TaskService) resolveAssignee(ctx context.Context, userID string) (string, string, error) {
	if userID == "" {
		return "", models.UnassignedName, nil
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return "", "", errInvalidAssignee
	}
	user, err := s.users.FindByID(ctx, parsed.String())
	if errors.Is(err, repository.ErrNotFound) {
		return "", "", errInvalidAssignee
	}
	if err != nil {
		return "", "", err
	}
	return user.ID, user.Name, nil
}

func (in TaskInput) task(id, assignee, assigneeName string) *models.Task {
	completed := false
	if in.Completed != nil {
		completed = *in.Completed
	}
	return &models.Task{
		ID:               id,
		Name:             in.Name,
		Description:      in.Description,
		Deadline:         string(in.Deadline),
		Completed:        completed,
		AssignedUser:     assignee,
		AssignedUserName: assigneeName,
	}
}

func taskState(t *models.Task) *consistency.TaskState {
	return &consistency.TaskState{ID: t.ID, AssignedUser: t.AssignedUser, Completed: t.Completed}
}
