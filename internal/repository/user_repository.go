package repository

import (
	"context"
	"fmt"

	"task-manager/internal/models"
	"task-manager/internal/query"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UserRepository persists users in Postgres.
type UserRepository struct {
	db   *sqlx.DB
	exec *query.Executor
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, exec: query.NewExecutor(db)}
}

// Find runs a client query against the users table.
func (r *UserRepository) Find(ctx context.Context, req query.Request, defaultLimit int) (query.Result, error) {
	return query.Execute[models.User](ctx, r.exec, UserCollection, req, defaultLimit)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	sqlQuery, args, err := psql.Select(UserCollection.Columns()...).
		From(UserCollection.Table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	var user models.User
	if err := r.db.GetContext(ctx, &user, sqlQuery, args...); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// Insert stores a new user, assigning its id when empty. A taken email
// yields a *DuplicateError.
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	sqlQuery, args, err := psql.Insert(UserCollection.Table).
		Columns("id", "name", "email", "pending_tasks").
		Values(user.ID, user.Name, user.Email, pendingArray(user)).
		Suffix("RETURNING date_created").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).Scan(&user.DateCreated); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	sqlQuery, args, err := psql.Update(UserCollection.Table).
		Set("name", user.Name).
		Set("email", user.Email).
		Set("pending_tasks", pendingArray(user)).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING date_created").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user update: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).Scan(&user.DateCreated); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	sqlQuery, args, err := psql.Delete(UserCollection.Table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user delete: %w", err)
	}
	return execAffecting(ctx, r.db, sqlQuery, args)
}

// AddPendingTask appends taskID to the user's pending set unless present.
func (r *UserRepository) AddPendingTask(ctx context.Context, userID, taskID string) error {
	return r.update(ctx, psql.Update(UserCollection.Table).
		Set("pending_tasks", squirrel.Expr("array_append(pending_tasks, ?)", taskID)).
		Where(squirrel.Eq{"id": userID}).
		Where(squirrel.Expr("NOT (? = ANY(pending_tasks))", taskID)))
}

func (r *UserRepository) RemovePendingTask(ctx context.Context, userID, taskID string) error {
	return r.update(ctx, psql.Update(UserCollection.Table).
		Set("pending_tasks", squirrel.Expr("array_remove(pending_tasks, ?)", taskID)).
		Where(squirrel.Eq{"id": userID}))
}

func (r *UserRepository) update(ctx context.Context, b squirrel.UpdateBuilder) error {
	sqlQuery, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("failed to update users: %w", err)
	}
	return nil
}

// pendingArray never returns NULL for the NOT NULL column.
func pendingArray(user *models.User) pq.StringArray {
	if user.PendingTasks == nil {
		return pq.StringArray{}
	}
	return user.PendingTasks
}
