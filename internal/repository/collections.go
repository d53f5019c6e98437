package repository

import "task-manager/internal/query"

// TaskCollection is the queryable view of the tasks table.
var TaskCollection = withDefaultOrder(query.NewCollection("tasks",
	query.Field{Name: "id", Column: "id", Kind: query.ColumnUUID},
	query.Field{Name: "name", Column: "name", Kind: query.ColumnText},
	query.Field{Name: "description", Column: "description", Kind: query.ColumnText},
	query.Field{Name: "deadline", Column: "deadline", Kind: query.ColumnText},
	query.Field{Name: "completed", Column: "completed", Kind: query.ColumnBool},
	query.Field{Name: "assignedUser", Column: "assigned_user", Kind: query.ColumnText},
	query.Field{Name: "assignedUserName", Column: "assigned_user_name", Kind: query.ColumnText},
	query.Field{Name: "dateCreated", Column: "date_created", Kind: query.ColumnTime},
))

// UserCollection is the queryable view of the users table.
var UserCollection = withDefaultOrder(query.NewCollection("users",
	query.Field{Name: "id", Column: "id", Kind: query.ColumnUUID},
	query.Field{Name: "name", Column: "name", Kind: query.ColumnText},
	query.Field{Name: "email", Column: "email", Kind: query.ColumnText},
	query.Field{Name: "pendingTasks", Column: "pending_tasks", Kind: query.ColumnTextArray},
	query.Field{Name: "dateCreated", Column: "date_created", Kind: query.ColumnTime},
))

// Rows come back in insertion order unless the client sorts.
func withDefaultOrder(c query.Collection) query.Collection {
	c.DefaultOrder = []query.SortKey{{Field: "dateCreated"}}
	return c
}
