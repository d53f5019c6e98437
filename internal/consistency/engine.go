package consistency

import (
	"context"
	"fmt"
)

// TaskWriter is the task collection as seen from user mutations.
type TaskWriter interface {
	Assign(ctx context.Context, taskID, userID, userName string) error
	UnassignIfOwnedBy(ctx context.Context, taskID, userID string) error
	UnassignAllForUser(ctx context.Context, userID string) error
	RenameAssignee(ctx context.Context, userID, userName string) error
}

// UserWriter is the user collection as seen from task mutations.
type UserWriter interface {
	AddPendingTask(ctx context.Context, userID, taskID string) error
	RemovePendingTask(ctx context.Context, userID, taskID string) error
}

// Engine maps actions onto the companion stores.
type Engine struct {
	tasks TaskWriter
	users UserWriter
}

func NewEngine(tasks TaskWriter, users UserWriter) *Engine {
	return &Engine{tasks: tasks, users: users}
}

// Plan returns one step per action, in action order.
func (e *Engine) Plan(actions []Action) Plan {
	var p Plan
	for _, a := range actions {
		name := fmt.Sprintf("%s(user=%s task=%s)", a.Kind, a.UserID, a.TaskID)
		p.Add(name, func(ctx context.Context) error {
			return e.apply(ctx, a)
		})
	}
	return p
}

func (e *Engine) apply(ctx context.Context, a Action) error {
	switch a.Kind {
	case AddPending:
		return e.users.AddPendingTask(ctx, a.UserID, a.TaskID)
	case RemovePending:
		return e.users.RemovePendingTask(ctx, a.UserID, a.TaskID)
	case AssignTask:
		return e.tasks.Assign(ctx, a.TaskID, a.UserID, a.UserName)
	case UnassignTask:
		return e.tasks.UnassignIfOwnedBy(ctx, a.TaskID, a.UserID)
	case UnassignAll:
		return e.tasks.UnassignAllForUser(ctx, a.UserID)
	case RenameAssignee:
		return e.tasks.RenameAssignee(ctx, a.UserID, a.UserName)
	default:
		return fmt.Errorf("unknown action %d", a.Kind)
	}
}
