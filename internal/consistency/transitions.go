// Package consistency keeps Task.assignedUser and User.pendingTasks in step.
//
// Each mutation of a task or a user is described as a before/after state. The
// transition functions turn that pair into the companion-collection actions
// needed to restore the assignment invariant, and Engine.Plan turns actions
// into an ordered list of writes.
package consistency

// TaskState is the part of a task the engine cares about.
type TaskState struct {
	ID           string
	AssignedUser string
	Completed    bool
}

// UserState is the part of a user the engine cares about.
type UserState struct {
	ID           string
	Name         string
	PendingTasks []string
}

type ActionKind int

const (
	// AddPending adds TaskID to the pendingTasks of UserID.
	AddPending ActionKind = iota
	// RemovePending removes TaskID from the pendingTasks of UserID.
	RemovePending
	// AssignTask points TaskID at UserID/UserName and reopens it.
	AssignTask
	// UnassignTask clears TaskID if it is still assigned to UserID.
	UnassignTask
	// UnassignAll clears every task assigned to UserID.
	UnassignAll
	// RenameAssignee refreshes assignedUserName on the tasks of UserID.
	RenameAssignee
)

func (k ActionKind) String() string {
	switch k {
	case AddPending:
		return "add-pending"
	case RemovePending:
		return "remove-pending"
	case AssignTask:
		return "assign-task"
	case UnassignTask:
		return "unassign-task"
	case UnassignAll:
		return "unassign-all"
	case RenameAssignee:
		return "rename-assignee"
	default:
		return "unknown"
	}
}

// Action is one companion-collection write.
type Action struct {
	Kind     ActionKind
	UserID   string
	TaskID   string
	UserName string
}

// TaskActions returns the user-side writes for a task transition. prev is nil
// for a create and next is nil for a delete.
func TaskActions(prev, next *TaskState) []Action {
	switch {
	case prev == nil && next == nil:
		return nil
	case prev == nil:
		if next.AssignedUser != "" && !next.Completed {
			return []Action{{Kind: AddPending, UserID: next.AssignedUser, TaskID: next.ID}}
		}
		return nil
	case next == nil:
		if prev.AssignedUser != "" {
			return []Action{{Kind: RemovePending, UserID: prev.AssignedUser, TaskID: prev.ID}}
		}
		return nil
	}

	var actions []Action
	if prev.AssignedUser != next.AssignedUser {
		if prev.AssignedUser != "" {
			actions = append(actions, Action{Kind: RemovePending, UserID: prev.AssignedUser, TaskID: next.ID})
		}
		if next.AssignedUser != "" && !next.Completed {
			actions = append(actions, Action{Kind: AddPending, UserID: next.AssignedUser, TaskID: next.ID})
		}
		return actions
	}

	if next.AssignedUser != "" && prev.Completed != next.Completed {
		kind := AddPending
		if next.Completed {
			kind = RemovePending
		}
		actions = append(actions, Action{Kind: kind, UserID: next.AssignedUser, TaskID: next.ID})
	}
	return actions
}

// UserActions returns the task-side writes for a user create (prev nil) or
// update. Tasks added to the pending list are assigned to the user even when
// another user holds them; that user's pending list is left as it is.
func UserActions(prev *UserState, next UserState) []Action {
	var old []string
	if prev != nil {
		old = prev.PendingTasks
	}
	added, removed := diff(old, next.PendingTasks)

	actions := make([]Action, 0, len(added)+len(removed)+1)
	for _, id := range added {
		actions = append(actions, Action{Kind: AssignTask, UserID: next.ID, UserName: next.Name, TaskID: id})
	}
	for _, id := range removed {
		actions = append(actions, Action{Kind: UnassignTask, UserID: next.ID, TaskID: id})
	}
	if prev != nil && prev.Name != next.Name {
		actions = append(actions, Action{Kind: RenameAssignee, UserID: next.ID, UserName: next.Name})
	}
	return actions
}

// UserDeletedActions releases every task held by the deleted user.
func UserDeletedActions(userID string) []Action {
	return []Action{{Kind: UnassignAll, UserID: userID}}
}

// diff returns the ids only in next and the ids only in prev, each in the
// order they first appear.
func diff(prev, next []string) (added, removed []string) {
	inPrev := make(map[string]bool, len(prev))
	for _, id := range prev {
		inPrev[id] = true
	}
	inNext := make(map[string]bool, len(next))
	for _, id := range next {
		if !inNext[id] && !inPrev[id] {
			added = append(added, id)
		}
		inNext[id] = true
	}
	seen := make(map[string]bool, len(prev))
	for _, id := range prev {
		if !inNext[id] && !seen[id] {
			removed = append(removed, id)
		}
		seen[id] = true
	}
	return added, removed
}
