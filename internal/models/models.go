package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// UnassignedName is stored in Task.AssignedUserName when no user holds the task.
const UnassignedName = "unassigned"

type User struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Email        string         `json:"email" db:"email"`
	PendingTasks pq.StringArray `json:"pendingTasks" db:"pending_tasks"`
	DateCreated  time.Time      `json:"dateCreated" db:"date_created"`
}

// Fields returns the user keyed by its JSON field names.
func (u User) Fields() map[string]any {
	pending := []string(u.PendingTasks)
	if pending == nil {
		pending = []string{}
	}
	return map[string]any{
		"id":           u.ID,
		"name":         u.Name,
		"email":        u.Email,
		"pendingTasks": pending,
		"dateCreated":  u.DateCreated,
	}
}

// MarshalJSON renders an empty pending list as [] rather than null.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	p := plain(u)
	if p.PendingTasks == nil {
		p.PendingTasks = pq.StringArray{}
	}
	return json.Marshal(p)
}

type Task struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Description      string    `json:"description" db:"description"`
	Deadline         string    `json:"deadline" db:"deadline"`
	Completed        bool      `json:"completed" db:"completed"`
	AssignedUser     string    `json:"assignedUser" db:"assigned_user"`
	AssignedUserName string    `json:"assignedUserName" db:"assigned_user_name"`
	DateCreated      time.Time `json:"dateCreated" db:"date_created"`
}

// Fields returns the task keyed by its JSON field names.
func (t Task) Fields() map[string]any {
	return map[string]any{
		"id":               t.ID,
		"name":             t.Name,
		"description":      t.Description,
		"deadline":         t.Deadline,
		"completed":        t.Completed,
		"assignedUser":     t.AssignedUser,
		"assignedUserName": t.AssignedUserName,
		"dateCreated":      t.DateCreated,
	}
}
