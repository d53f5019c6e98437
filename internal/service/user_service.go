package service

import (
	"context"
	"errors"

	"task-manager/internal/consistency"
	"task-manager/internal/models"
	"task-manager/internal/query"
	"task-manager/internal/repository"
	"task-manager/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// UserInput is the writable part of a user as sent by clients.
type UserInput struct {
	Name         string   `json:"name" form:"name" validate:"required"`
	Email        string   `json:"email" form:"email" validate:"required"`
	PendingTasks []string `json:"pendingTasks" form:"pendingTasks"`
}

type UserService struct {
	tasks        TaskStore
	users        UserStore
	engine       *consistency.Engine
	validate     *validator.Validate
	defaultLimit int
}

func NewUserService(tasks TaskStore, users UserStore, validate *validator.Validate, defaultLimit int) *UserService {
	return &UserService{
		tasks:        tasks,
		users:        users,
		engine:       consistency.NewEngine(tasks, users),
		validate:     validate,
		defaultLimit: defaultLimit,
	}
}

func (s *UserService) List(ctx context.Context, req query.Request) (query.Result, error) {
	return s.users.Find(ctx, req, s.defaultLimit)
}

// Get returns the user, projected when proj is set.
func (s *UserService) Get(ctx context.Context, id string, proj *query.Projection) (any, error) {
	id, err := checkID(id)
	if err != nil {
		return nil, err
	}
	resolved, err := repository.UserCollection.ResolveProjection(proj)
	if err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return query.Project(*user, resolved), nil
}

// Create stores the user and assigns every task listed in pendingTasks to it.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	pending, err := s.resolvePending(ctx, in.PendingTasks)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: uuid.NewString(), Name: in.Name, Email: in.Email, PendingTasks: pending}
	var plan consistency.Plan
	plan.Add("insert user", func(ctx context.Context) error {
		return s.users.Insert(ctx, user)
	})
	plan.Append(s.engine.Plan(consistency.UserActions(nil, userState(user))))
	if err := plan.Execute(ctx); err != nil {
		return nil, err
	}

	logger.AuditLogger.Info("User created",
		zap.String("user_id", user.ID),
		zap.Int("pending_tasks", len(user.PendingTasks)),
	)
	return user, nil
}

// Update replaces the user. Tasks added to pendingTasks are taken over by
// this user even if another user holds them; removed tasks are released
// only while still assigned here.
func (s *UserService) Update(ctx context.Context, id string, in UserInput) (*models.User, error) {
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
	pending, err := s.resolvePending(ctx, in.PendingTasks)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: id, Name: in.Name, Email: in.Email, PendingTasks: pending, DateCreated: existing.DateCreated}
	prev := userState(existing)
	var plan consistency.Plan
	plan.Add("update user", func(ctx context.Context) error {
		return s.users.Update(ctx, user)
	})
	plan.Append(s.engine.Plan(consistency.UserActions(&prev, userState(user))))
	if err := plan.Execute(ctx); err != nil {
		return nil, err
	}

	logger.AuditLogger.Info("User updated",
		zap.String("user_id", user.ID),
		zap.Int("pending_tasks", len(user.PendingTasks)),
	)
	return user, nil
}

// Delete unassigns every task of the user, then removes the user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	id, err := checkID(id)
	if err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	plan := s.engine.Plan(consistency.UserDeletedActions(id))
	plan.Add("delete user", func(ctx context.Context) error {
		return s.users.Delete(ctx, id)
	})
	if err := plan.Execute(ctx); err != nil {
		return err
	}

	logger.AuditLogger.Info("User deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Entity: "User"}
	}
	return user, err
}

func (s *UserService) validateInput(in UserInput) error {
	if err := s.validate.Struct(in); err != nil {
		return requiredFields(err, "Name and email are required", "Missing required fields: name and/or email")
	}
	return nil
}

// resolvePending canonicalizes and deduplicates the ids and checks that
// every one names an existing task.
func (s *UserService) resolvePending(ctx context.Context, ids []string) (pq.StringArray, error) {
	pending := make(pq.StringArray, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, raw := range ids {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, errInvalidTaskIDs
		}
		id := parsed.String()
		if seen[id] {
			continue
		}
		seen[id] = true
		pending = append(pending, id)
	}
	if len(pending) == 0 {
		return pending, nil
	}

	n, err := s.tasks.CountExisting(ctx, pending)
	if err != nil {
		return nil, err
	}
	if n != len(pending) {
		return nil, errInvalidTaskIDs
	}
	return pending, nil
}

func userState(u *models.User) consistency.UserState {
	return consistency.UserState{ID: u.ID, Name: u.Name, PendingTasks: u.PendingTasks}
}
