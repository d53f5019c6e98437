package service

import (
	"context"

	"task-manager/internal/consistency"
	"task-manager/internal/models"
	"task-manager/internal/query"
)

// TaskStore is the persistence the services need for tasks.
type TaskStore interface {
	consistency.TaskWriter
	Find(ctx context.Context, req query.Request, defaultLimit int) (query.Result, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Insert(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	CountExisting(ctx context.Context, ids []string) (int, error)
}

// UserStore is the persistence the services need for users.
type UserStore interface {
	consistency.UserWriter
	Find(ctx context.Context, req query.Request, defaultLimit int) (query.Result, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
