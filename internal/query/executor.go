package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres rejects a $regex pattern only when it runs the statement.
const invalidRegexCode = "2201B"

// Result holds either the matching records or, for count requests, their number.
type Result struct {
	Records []any
	Count   int64
	Counted bool
}

// Data is the value rendered to the client.
func (r Result) Data() any {
	if r.Counted {
		return r.Count
	}
	if r.Records == nil {
		return []any{}
	}
	return r.Records
}

// Executor runs requests against a database handle.
type Executor struct {
	db sqlx.QueryerContext
}

func NewExecutor(db sqlx.QueryerContext) *Executor {
	return &Executor{db: db}
}

// Count returns how many rows of the collection match the filter.
func (e *Executor) Count(ctx context.Context, coll Collection, f *Filter) (int64, error) {
	where, err := coll.Where(f)
	if err != nil {
		return 0, err
	}
	builder := squirrel.Select("COUNT(*)").
		From(coll.Table).
		PlaceholderFormat(squirrel.Dollar)
	if where != nil {
		builder = builder.Where(where)
	}
	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := sqlx.GetContext(ctx, e.db, &count, sqlQuery, args...); err != nil {
		if qErr := patternError(err); qErr != nil {
			return 0, qErr
		}
		return 0, fmt.Errorf("failed to count %s: %w", coll.Table, err)
	}
	return count, nil
}

// SelectSQL builds the listing statement for a request.
func (c Collection) SelectSQL(req Request, defaultLimit int) (string, []any, error) {
	where, err := c.Where(req.Filter)
	if err != nil {
		return "", nil, err
	}
	orderBy, err := orderClauses(c, req.Sort)
	if err != nil {
		return "", nil, err
	}

	builder := squirrel.Select(c.Columns()...).
		From(c.Table).
		PlaceholderFormat(squirrel.Dollar)
	if where != nil {
		builder = builder.Where(where)
	}
	builder = builder.OrderBy(orderBy...)
	if req.Skip > 0 {
		builder = builder.Offset(uint64(req.Skip))
	}
	if limit, ok := effectiveLimit(req.Limit, defaultLimit); ok {
		builder = builder.Limit(limit)
	}
	return builder.ToSql()
}

func orderClauses(coll Collection, keys []SortKey) ([]string, error) {
	if len(keys) == 0 {
		keys = coll.DefaultOrder
	}
	clauses := make([]string, 0, len(keys)+1)
	hasID := false
	for _, k := range keys {
		f, ok := coll.Field(k.Field)
		if !ok {
			return nil, invalid(ParamSort, k.Field, "unknown field")
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		clauses = append(clauses, f.Column+" "+dir)
		hasID = hasID || f.Name == "id"
	}
	if !hasID {
		if id, ok := coll.Field("id"); ok {
			clauses = append(clauses, id.Column+" ASC")
		}
	}
	return clauses, nil
}

// effectiveLimit picks the request limit, then the caller default. Zero means
// no limit and a negative limit counts as its absolute value.
func effectiveLimit(limit *int, defaultLimit int) (uint64, bool) {
	if limit != nil {
		n := *limit
		if n < 0 {
			n = -n
		}
		if n <= 0 {
			return 0, false
		}
		return uint64(n), true
	}
	if defaultLimit > 0 {
		return uint64(defaultLimit), true
	}
	return 0, false
}

// Execute runs the request and returns the projected records, or the count
// when the request asks for one.
func Execute[T Record](ctx context.Context, e *Executor, coll Collection, req Request, defaultLimit int) (Result, error) {
	if req.Count {
		n, err := e.Count(ctx, coll, req.Filter)
		if err != nil {
			return Result{}, err
		}
		return Result{Count: n, Counted: true}, nil
	}

	proj, err := coll.ResolveProjection(req.Projection)
	if err != nil {
		return Result{}, err
	}
	sqlQuery, args, err := coll.SelectSQL(req, defaultLimit)
	if err != nil {
		return Result{}, err
	}
	var rows []T
	if err := sqlx.SelectContext(ctx, e.db, &rows, sqlQuery, args...); err != nil {
		if qErr := patternError(err); qErr != nil {
			return Result{}, qErr
		}
		return Result{}, fmt.Errorf("failed to list %s: %w", coll.Table, err)
	}

	records := make([]any, 0, len(rows))
	for _, row := range rows {
		records = append(records, Project(row, proj))
	}
	return Result{Records: records}, nil
}

// patternError turns a database rejection of a client regex into a query error.
func patternError(err error) *Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == invalidRegexCode {
		return invalid(ParamWhere, "", "%s", pqErr.Message)
	}
	return nil
}
