package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"task-manager/internal/consistency"
	"task-manager/internal/models"
	"task-manager/internal/query"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func mustCreateUser(t *testing.T, f fixture, name, email string, pending ...string) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), UserInput{Name: name, Email: email, PendingTasks: pending})
	require.NoError(t, err)
	return u
}

func mustCreateTask(t *testing.T, f fixture, in TaskInput) *models.Task {
	t.Helper()
	if in.Deadline == "" {
		in.Deadline = "2025-01-01"
	}
	task, err := f.tasks.Create(context.Background(), in)
	require.NoError(t, err)
	return task
}

func TestCreateAssignedTaskAddsToPending(t *testing.T) {
	f := newFixture()
	ann := mustCreateUser(t, f, "Ann", "ann@x.io")

	task := mustCreateTask(t, f, TaskInput{Name: "Write", AssignedUser: ann.ID})

	assert.Equal(t, "Ann", task.AssignedUserName)
	assert.Equal(t, ann.ID, task.AssignedUser)
	assert.False(t, task.Completed)
	assert.Contains(t, f.db.users[ann.ID].PendingTasks, task.ID)
}

func TestCreateCompletedTaskSkipsPending(t *testing.T) {
	f := newFixture()
	ann := mustCreateUser(t, f, "Ann", "ann@x.io")

	task := mustCreateTask(t, f, TaskInput{Name: "Done", AssignedUser: ann.ID, Completed: boolPtr(true)})

	assert.True(t, task.Completed)
	assert.Empty(t, f.db.users[ann.ID].PendingTasks)
}

func TestCreateUnassignedTask(t *testing.T) {
	f := newFixture()
	task := mustCreateTask(t, f, TaskInput{Name: "Loose", Description: "free"})

	assert.Equal(t, "", task.AssignedUser)
	assert.Equal(t, models.UnassignedName, task.AssignedUserName)
	assert.Equal(t, "free", task.Description)
	assert.NotContains(t, f.db.calls, "AddPendingTask")
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.tasks.Create(ctx, TaskInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name and deadline are required", verr.Message)
	assert.Equal(t, "Missing required fields: name and/or deadline", verr.Detail)
	assert.Equal(t, []string{"name", "deadline"}, verr.Fields)

	_, err = f.tasks.Create(ctx, TaskInput{Name: "n", Deadline: "d", AssignedUser: "not-a-uuid"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid assigned user", verr.Message)

	_, err = f.tasks.Create(ctx, TaskInput{Name: "n", Deadline: "d", AssignedUser: uuid.NewString()})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The assigned user does not exist", verr.Detail)
	assert.Empty(t, f.db.tasks)
}

func TestCompletingTaskRemovesFromPending(t *testing.T) {
	f := newFixture()
	ann := mustCreateUser(t, f, "Ann", "ann@x.io")
	task := mustCreateTask(t, f, TaskInput{Name: "Write", AssignedUser: ann.ID})

	updated, err := f.tasks.Update(context.Background(), task.ID, TaskInput{
		Name: "Write", Deadline: Deadline(task.Deadline), AssignedUser: ann.ID, Completed: boolPtr(true),
	})
	require.NoError(t, err)

	assert.True(t, updated.Completed)
	assert.NotContains(t, f.db.users[ann.ID].PendingTasks, task.ID)

	_, err = f.tasks.Update(context.Background(), task.ID, TaskInput{
		Name: "Write", Deadline: Deadline(task.Deadline), AssignedUser: ann.ID,
	})
	require.NoError(t, err)
	assert.Contains(t, f.db.users[ann.ID].PendingTasks, task.ID)
}

func TestReassigningTaskMovesPending(t *testing.T) {
	f := newFixture()
	ann := mustCreateUser(t, f, "Ann", "ann@x.io")
	bob := mustCreateUser(t, f, "Bob", "bob@x.io")
	task := mustCreateTask(t, f, TaskInput{Name: "Write", AssignedUser: ann.ID})

	updated, err := f.tasks.Update(context.Background(), task.ID, TaskInput{
		Name: "Write", Deadline: "d", AssignedUser: bob.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bob", updated.AssignedUserName)
	assert.Empty(t, f.db.users[ann.ID].PendingTasks)
	assert.Equal(t, []string{task.ID}, []string(f.db.users[bob.ID].PendingTasks))
	assert.Equal(t, task.DateCreated, updated.DateCreated)
}

func TestUpdateOmittedCompletedReopensTask(t *testing.T) {
	f := newFixture()
	task := mustCreateTask(t, f, TaskInput{Name: "Write", Completed: boolPtr(true)})

	updated, err := f.tasks.Update(context.Background(), task.ID, TaskInput{Name: "Write", Deadline: "d"})
	require.NoError(t, err)
	assert.False(t, updated.Completed)
}

func TestUpdateTaskErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := TaskInput{Name: "n", Deadline: "d"}

	_, err := f.tasks.Update(ctx, "123", in)
	assert.Same(t, errInvalidID, err)

	_, err = f.tasks.Update(ctx, uuid.NewString(), in)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Task not found", nf.Message())
	assert.Equal(t, "No task found with the provided ID", nf.Detail())

	// Field validation runs before the lookup.
	_, err = f.tasks.Update(ctx, uuid.NewString(), TaskInput{Name: "n"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"deadline"}, verr.Fields)
}

func TestDeleteTaskRemovesFromPending(t *testing.T) {
	f := newFixture()
	ann := mustCreateUser(t, f, "Ann", "ann@x.io")
	task := mustCreateTask(t, f, TaskInput{Name: "Write", AssignedUser: ann.ID})

	require.NoError(t, f.tasks.Delete(context.Background(), task.ID))

	assert.NotContains(t, f.db.tasks, task.ID)
	assert.Empty(t, f.db.users[ann.ID].PendingTasks)

	var nf *NotFoundError
	require.ErrorAs(t, f.tasks.Delete(context.Background(), task.ID), &nf)
}

func TestGetTaskWithProjection(t *testing.T) {
	f := newFixture()
	task := mustCreateTask(t, f, TaskInput{Name: "Write"})
	ctx := context.Background()

	full, err := f.tasks.Get(ctx, task.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, *task, full)

	projected, err := f.tasks.Get(ctx, task.ID, &query.Projection{Fields: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": task.ID, "name": "Write"}, projected)

	_, err = f.tasks.Get(ctx, task.ID, &query.Projection{Fields: []string{"secret"}})
	var qerr *query.Error
	require.ErrorAs(t, err, &qerr)

	// Upper-case ids resolve to the stored lower-case form.
	_, err = f.tasks.Get(ctx, strings.ToUpper(task.ID), nil)
	require.NoError(t, err)
}

func TestListTasksUsesDefaultLimit(t *testing.T) {
	f := newFixture()
	mustCreateTask(t, f, TaskInput{Name: "a"})

	res, err := f.tasks.List(context.Background(), query.Request{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 100, f.db.lastLimit)

	_, err = f.users.List(context.Background(), query.Request{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.db.lastLimit)
}

func TestTaskCreatePartialFailureKeepsTask(t *testing.T) {
	f := newFixture()
	ann := mustCreateUser(t, f, "Ann", "ann@x.io")
	f.db.fail["AddPendingTask"] = errors.New("users unavailable")

	_, err := f.tasks.Create(context.Background(), TaskInput{Name: "Write", Deadline: "d", AssignedUser: ann.ID})

	var partial *consistency.PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"insert task"}, partial.Completed)
	assert.Len(t, f.db.tasks, 1)
	assert.Empty(t, f.db.users[ann.ID].PendingTasks)
}

func TestTaskUpdateFirstWriteFailureSkipsCompanions(t *testing.T) {
	f := newFixture()
	ann := mustCreateUser(t, f, "Ann", "ann@x.io")
	task := mustCreateTask(t, f, TaskInput{Name: "Write"})
	boom := errors.New("boom")
	f.db.fail["UpdateTask"] = boom
	f.db.calls = nil

	_, err := f.tasks.Update(context.Background(), task.ID, TaskInput{Name: "Write", Deadline: "d", AssignedUser: ann.ID})
	require.ErrorIs(t, err, boom)
	assert.NotContains(t, f.db.calls, "AddPendingTask")
}

func TestDeadlineAcceptsJSONScalars(t *testing.T) {
	cases := map[string]Deadline{
		`"2025-01-01"`:  "2025-01-01",
		`1735689600000`: "1735689600000",
		`1.5e3`:         "1.5e3",
		`true`:          "true",
		`null`:          "",
	}
	for raw, want := range cases {
		var in TaskInput
		require.NoError(t, json.Unmarshal([]byte(`{"deadline":`+raw+`}`), &in), raw)
		assert.Equal(t, want, in.Deadline, raw)
	}

	var in TaskInput
	assert.Error(t, json.Unmarshal([]byte(`{"deadline":[1]}`), &in))
}

func TestNullDeadlineFailsValidation(t *testing.T) {
	f := newFixture()
	var in TaskInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"n","deadline":null}`), &in))

	_, err := f.tasks.Create(context.Background(), in)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "deadline")
}
