package query

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTasks = NewCollection("tasks",
	Field{Name: "id", Column: "id", Kind: ColumnUUID},
	Field{Name: "name", Column: "name", Kind: ColumnText},
	Field{Name: "deadline", Column: "deadline", Kind: ColumnText},
	Field{Name: "completed", Column: "completed", Kind: ColumnBool},
	Field{Name: "assignedUser", Column: "assigned_user", Kind: ColumnText},
	Field{Name: "dateCreated", Column: "date_created", Kind: ColumnTime},
	Field{Name: "tags", Column: "tags", Kind: ColumnTextArray},
)

func whereSQL(t *testing.T, raw string) (string, []any) {
	t.Helper()
	req, err := Parse(map[string]string{"where": raw})
	require.NoError(t, err)
	cond, err := testTasks.Where(req.Filter)
	require.NoError(t, err)
	require.NotNil(t, cond)
	sql, args, err := cond.ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestWhereNilFilterMatchesAll(t *testing.T) {
	cond, err := testTasks.Where(nil)
	require.NoError(t, err)
	assert.Nil(t, cond)
}

func TestWhereTranslation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		sql  string
		args []any
	}{
		{"equality", `{"completed":false}`, "(completed = ?)", []any{false}},
		{"bool from string", `{"completed":"true"}`, "(completed = ?)", []any{true}},
		{"comparison", `{"deadline":{"$gte":"2025-01-01","$lt":"2026-01-01"}}`, "(deadline >= ? AND deadline < ?)", []any{"2025-01-01", "2026-01-01"}},
		{"in", `{"name":{"$in":["a","b"]}}`, "(name IN (?,?))", []any{"a", "b"}},
		{"nin", `{"name":{"$nin":["a"]}}`, "(name NOT IN (?))", []any{"a"}},
		{"ne null", `{"name":{"$ne":null}}`, "(name IS NOT NULL)", nil},
		{"or", `{"completed":false,"$or":[{"assignedUser":""},{"name":"x"}]}`,
			"(completed = ? AND ((assigned_user = ?) OR (name = ?)))", []any{false, "", "x"}},
		{"nor", `{"$nor":[{"name":"x"}]}`, "(NOT (((name = ?))))", []any{"x"}},
		{"regex", `{"name":{"$regex":"^a","$options":"i"}}`, "(name ~* ?)", []any{"^a"}},
		{"exists", `{"name":{"$exists":false}}`, "(FALSE)", nil},
		{"id alias", `{"_id":"6F9619FF-8B86-D011-B42D-00C04FC964FF"}`, "(id = ?)", []any{"6f9619ff-8b86-d011-b42d-00c04fc964ff"}},
		{"time", `{"dateCreated":{"$gt":"2025-01-02T03:04:05Z"}}`, "(date_created > ?)", []any{time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}},
		{"array contains", `{"tags":"x"}`, "(tags @> ?)", []any{pq.Array([]string{"x"})}},
		{"array exact", `{"tags":["x","y"]}`, "(tags = ?)", []any{pq.Array([]string{"x", "y"})}},
		{"array in", `{"tags":{"$in":["x","y"]}}`, "(tags && ?)", []any{pq.Array([]string{"x", "y"})}},
		{"array size", `{"tags":{"$size":2}}`, "(cardinality(tags) = ?)", []any{int64(2)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args := whereSQL(t, tc.raw)
			assert.Equal(t, tc.sql, sql)
			if tc.args == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tc.args, args)
			}
		})
	}
}

func TestWhereRejectsInvalidFields(t *testing.T) {
	cases := map[string]string{
		"unknown field":      `{"owner":"x"}`,
		"number on text":     `{"name":5}`,
		"bad uuid":           `{"id":"not-an-id"}`,
		"bad time":           `{"dateCreated":"yesterday"}`,
		"gt null":            `{"deadline":{"$gt":null}}`,
		"regex on bool":      `{"completed":{"$regex":"t"}}`,
		"size on text":       `{"name":{"$size":1}}`,
		"gt on array":        `{"tags":{"$gt":"a"}}`,
		"array number elems": `{"tags":{"$in":[1]}}`,
		"regex options":      `{"name":{"$regex":"a","$options":"m"}}`,
		"eq with list":       `{"name":["a","b"]}`,
		"unknown nested":     `{"$or":[{"owner":"x"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := Parse(map[string]string{"where": raw})
			require.NoError(t, err)
			_, err = testTasks.Where(req.Filter)
			var qErr *Error
			require.ErrorAs(t, err, &qErr)
			assert.False(t, qErr.Syntax())
			assert.Equal(t, ParamWhere, qErr.Param)
		})
	}
}

func TestSelectSQL(t *testing.T) {
	testTasks := testTasks
	testTasks.DefaultOrder = []SortKey{{Field: "dateCreated"}}
	cols := "id, name, deadline, completed, assigned_user, date_created, tags"

	cases := []struct {
		name   string
		params map[string]string
		def    int
		sql    string
	}{
		{"defaults", map[string]string{}, 100,
			"SELECT " + cols + " FROM tasks ORDER BY date_created ASC, id ASC LIMIT 100"},
		{"no default limit", map[string]string{}, 0,
			"SELECT " + cols + " FROM tasks ORDER BY date_created ASC, id ASC"},
		{"filter sort limit", map[string]string{"where": `{"completed":false}`, "sort": `{"deadline":1}`, "limit": "2"}, 100,
			"SELECT " + cols + " FROM tasks WHERE (completed = $1) ORDER BY deadline ASC, id ASC LIMIT 2"},
		{"skip", map[string]string{"skip": "5", "sort": `{"id":-1}`}, 0,
			"SELECT " + cols + " FROM tasks ORDER BY id DESC OFFSET 5"},
		{"limit zero is unbounded", map[string]string{"limit": "0"}, 100,
			"SELECT " + cols + " FROM tasks ORDER BY date_created ASC, id ASC"},
		{"negative limit", map[string]string{"limit": "-3"}, 100,
			"SELECT " + cols + " FROM tasks ORDER BY date_created ASC, id ASC LIMIT 3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := Parse(tc.params)
			require.NoError(t, err)
			sql, _, err := testTasks.SelectSQL(req, tc.def)
			require.NoError(t, err)
			assert.Equal(t, tc.sql, sql)
		})
	}
}

func TestSelectSQLUnknownSortField(t *testing.T) {
	req, err := Parse(map[string]string{"sort": `{"owner":1}`})
	require.NoError(t, err)
	_, _, err = testTasks.SelectSQL(req, 0)
	var qErr *Error
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, ParamSort, qErr.Param)
	assert.Equal(t, "owner", qErr.Field)
}

type fakeRecord map[string]any

func (f fakeRecord) Fields() map[string]any { return f }

func TestProject(t *testing.T) {
	rec := fakeRecord{"id": "1", "name": "T", "deadline": "d", "completed": false}

	assert.Equal(t, rec, Project(rec, nil))

	incl, err := testTasks.ResolveProjection(&Projection{Fields: []string{"name", "deadline"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "1", "name": "T", "deadline": "d"}, Project(rec, incl))

	excl, err := testTasks.ResolveProjection(&Projection{Fields: []string{"deadline"}, Exclude: true, ExcludeID: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "T", "completed": false}, Project(rec, excl))

	_, err = testTasks.ResolveProjection(&Projection{Fields: []string{"secret"}})
	var qErr *Error
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, ParamSelect, qErr.Param)
}
