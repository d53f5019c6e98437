package service

import (
	"context"
	"slices"

	"task-manager/internal/models"
	"task-manager/internal/query"
	"task-manager/internal/repository"
)

// memDB backs both fake stores so companion writes see each other.
type memDB struct {
	tasks     map[string]models.Task
	users     map[string]models.User
	fail      map[string]error
	hooks     map[string]func()
	calls     []string
	lastLimit int
}

func newMemDB() *memDB {
	return &memDB{
		tasks: map[string]models.Task{},
		users: map[string]models.User{},
		fail:  map[string]error{},
		hooks: map[string]func(){},
	}
}

// call records name and runs a hook registered for it once, before the write
// lands. Hooks let a test interleave a second request.
func (db *memDB) call(name string) error {
	db.calls = append(db.calls, name)
	if hook, ok := db.hooks[name]; ok {
		delete(db.hooks, name)
		hook()
	}
	return db.fail[name]
}

type memTasks struct{ db *memDB }

type memUsers struct{ db *memDB }

func (m memTasks) Find(_ context.Context, _ query.Request, defaultLimit int) (query.Result, error) {
	m.db.lastLimit = defaultLimit
	var res query.Result
	for _, t := range m.db.tasks {
		res.Records = append(res.Records, t)
	}
	return res, nil
}

func (m memTasks) FindByID(_ context.Context, id string) (*models.Task, error) {
	if err := m.db.call("FindTask"); err != nil {
		return nil, err
	}
	t, ok := m.db.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m memTasks) Insert(_ context.Context, task *models.Task) error {
	if err := m.db.call("InsertTask"); err != nil {
		return err
	}
	m.db.tasks[task.ID] = *task
	return nil
}

func (m memTasks) Update(_ context.Context, task *models.Task) error {
	if err := m.db.call("UpdateTask"); err != nil {
		return err
	}
	if _, ok := m.db.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	m.db.tasks[task.ID] = *task
	return nil
}

func (m memTasks) Delete(_ context.Context, id string) error {
	if err := m.db.call("DeleteTask"); err != nil {
		return err
	}
	if _, ok := m.db.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.db.tasks, id)
	return nil
}

func (m memTasks) CountExisting(_ context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if _, ok := m.db.tasks[id]; ok {
			n++
		}
	}
	return n, nil
}

func (m memTasks) Assign(_ context.Context, taskID, userID, userName string) error {
	if err := m.db.call("Assign"); err != nil {
		return err
	}
	if t, ok := m.db.tasks[taskID]; ok {
		t.AssignedUser, t.AssignedUserName, t.Completed = userID, userName, false
		m.db.tasks[taskID] = t
	}
	return nil
}

func (m memTasks) UnassignIfOwnedBy(_ context.Context, taskID, userID string) error {
	if err := m.db.call("UnassignIfOwnedBy"); err != nil {
		return err
	}
	if t, ok := m.db.tasks[taskID]; ok && t.AssignedUser == userID {
		t.AssignedUser, t.AssignedUserName = "", models.UnassignedName
		m.db.tasks[taskID] = t
	}
	return nil
}

func (m memTasks) UnassignAllForUser(_ context.Context, userID string) error {
	if err := m.db.call("UnassignAllForUser"); err != nil {
		return err
	}
	for id, t := range m.db.tasks {
		if t.AssignedUser == userID {
			t.AssignedUser, t.AssignedUserName = "", models.UnassignedName
			m.db.tasks[id] = t
		}
	}
	return nil
}

func (m memTasks) RenameAssignee(_ context.Context, userID, userName string) error {
	if err := m.db.call("RenameAssignee"); err != nil {
		return err
	}
	for id, t := range m.db.tasks {
		if t.AssignedUser == userID {
			t.AssignedUserName = userName
			m.db.tasks[id] = t
		}
	}
	return nil
}

func (m memUsers) Find(_ context.Context, _ query.Request, defaultLimit int) (query.Result, error) {
	m.db.lastLimit = defaultLimit
	var res query.Result
	for _, u := range m.db.users {
		res.Records = append(res.Records, u)
	}
	return res, nil
}

func (m memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if err := m.db.call("FindUser"); err != nil {
		return nil, err
	}
	u, ok := m.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.PendingTasks = slices.Clone(u.PendingTasks)
	return &u, nil
}

func (m memUsers) emailTaken(email, except string) bool {
	for id, u := range m.db.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (m memUsers) Insert(_ context.Context, user *models.User) error {
	if err := m.db.call("InsertUser"); err != nil {
		return err
	}
	if m.emailTaken(user.Email, "") {
		return &repository.DuplicateError{Field: "email"}
	}
	stored := *user
	stored.PendingTasks = slices.Clone(user.PendingTasks)
	m.db.users[user.ID] = stored
	return nil
}

func (m memUsers) Update(_ context.Context, user *models.User) error {
	if err := m.db.call("UpdateUser"); err != nil {
		return err
	}
	if _, ok := m.db.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return &repository.DuplicateError{Field: "email"}
	}
	stored := *user
	stored.PendingTasks = slices.Clone(user.PendingTasks)
	m.db.users[user.ID] = stored
	return nil
}

func (m memUsers) Delete(_ context.Context, id string) error {
	if err := m.db.call("DeleteUser"); err != nil {
		return err
	}
	if _, ok := m.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.db.users, id)
	return nil
}

func (m memUsers) AddPendingTask(_ context.Context, userID, taskID string) error {
	if err := m.db.call("AddPendingTask"); err != nil {
		return err
	}
	u, ok := m.db.users[userID]
	if !ok || slices.Contains(u.PendingTasks, taskID) {
		return nil
	}
	u.PendingTasks = append(slices.Clone(u.PendingTasks), taskID)
	m.db.users[userID] = u
	return nil
}

func (m memUsers) RemovePendingTask(_ context.Context, userID, taskID string) error {
	if err := m.db.call("RemovePendingTask"); err != nil {
		return err
	}
	u, ok := m.db.users[userID]
	if !ok {
		return nil
	}
	u.PendingTasks = slices.DeleteFunc(slices.Clone(u.PendingTasks), func(id string) bool {
		return id == taskID
	})
	m.db.users[userID] = u
	return nil
}

type fixture struct {
	db    *memDB
	tasks *TaskService
	users *UserService
}

func newFixture() fixture {
	db := newMemDB()
	tasks, users := memTasks{db: db}, memUsers{db: db}
	v := NewValidator()
	return fixture{
		db:    db,
		tasks: NewTaskService(tasks, users, v, 100),
		users: NewUserService(tasks, users, v, 0),
	}
}
