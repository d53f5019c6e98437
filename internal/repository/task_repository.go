package repository

import (
	"context"
	"fmt"

	"task-manager/internal/models"
	"task-manager/internal/query"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// TaskRepository persists tasks in Postgres.
type TaskRepository struct {
	db   *sqlx.DB
	exec *query.Executor
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db, exec: query.NewExecutor(db)}
}

// Find runs a client query against the tasks table.
func (r *TaskRepository) Find(ctx context.Context, req query.Request, defaultLimit int) (query.Result, error) {
	return query.Execute[models.Task](ctx, r.exec, TaskCollection, req, defaultLimit)
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	sqlQuery, args, err := psql.Select(TaskCollection.Columns()...).
		From(TaskCollection.Table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build task query: %w", err)
	}

	var task models.Task
	if err := r.db.GetContext(ctx, &task, sqlQuery, args...); err != nil {
		return nil, mapError(err)
	}
	return &task, nil
}

// Insert stores a new task, assigning its id when empty.
func (r *TaskRepository) Insert(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	sqlQuery, args, err := psql.Insert(TaskCollection.Table).
		Columns("id", "name", "description", "deadline", "completed", "assigned_user", "assigned_user_name").
		Values(task.ID, task.Name, task.Description, task.Deadline, task.Completed, task.AssignedUser, task.AssignedUserName).
		Suffix("RETURNING date_created").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task insert: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).Scan(&task.DateCreated); err != nil {
		return mapError(err)
	}
	return nil
}

// Update overwrites every mutable column of the task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	sqlQuery, args, err := psql.Update(TaskCollection.Table).
		Set("name", task.Name).
		Set("description", task.Description).
		Set("deadline", task.Deadline).
		Set("completed", task.Completed).
		Set("assigned_user", task.AssignedUser).
		Set("assigned_user_name", task.AssignedUserName).
		Where(squirrel.Eq{"id": task.ID}).
		Suffix("RETURNING date_created").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task update: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).Scan(&task.DateCreated); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	sqlQuery, args, err := psql.Delete(TaskCollection.Table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task delete: %w", err)
	}
	return execAffecting(ctx, r.db, sqlQuery, args)
}

// CountExisting reports how many of the given ids name a stored task.
func (r *TaskRepository) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sqlQuery, args, err := psql.Select("COUNT(*)").
		From(TaskCollection.Table).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build task count: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, sqlQuery, args...); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// Assign hands the task to the user and reopens it.
func (r *TaskRepository) Assign(ctx context.Context, taskID, userID, userName string) error {
	return r.update(ctx, psql.Update(TaskCollection.Table).
		Set("assigned_user", userID).
		Set("assigned_user_name", userName).
		Set("completed", false).
		Where(squirrel.Eq{"id": taskID}))
}

// UnassignIfOwnedBy clears the assignment only while the task still belongs
// to userID.
func (r *TaskRepository) UnassignIfOwnedBy(ctx context.Context, taskID, userID string) error {
	return r.update(ctx, unassign().
		Where(squirrel.Eq{"id": taskID, "assigned_user": userID}))
}

func (r *TaskRepository) UnassignAllForUser(ctx context.Context, userID string) error {
	return r.update(ctx, unassign().
		Where(squirrel.Eq{"assigned_user": userID}))
}

// RenameAssignee refreshes the denormalized name on the user's tasks.
func (r *TaskRepository) RenameAssignee(ctx context.Context, userID, userName string) error {
	return r.update(ctx, psql.Update(TaskCollection.Table).
		Set("assigned_user_name", userName).
		Where(squirrel.Eq{"assigned_user": userID}))
}

func unassign() squirrel.UpdateBuilder {
	return psql.Update(TaskCollection.Table).
		Set("assigned_user", "").
		Set("assigned_user_name", models.UnassignedName)
}

func (r *TaskRepository) update(ctx context.Context, b squirrel.UpdateBuilder) error {
	sqlQuery, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("failed to update tasks: %w", err)
	}
	return nil
}

// execAffecting runs a statement that must touch at least one row.
func execAffecting(ctx context.Context, db sqlx.ExecerContext, sqlQuery string, args []any) error {
	res, err := db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
