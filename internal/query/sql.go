package query

import (
	"fmt"
	"math"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Where translates a filter into a squirrel condition. A nil result means
// the filter matches every row.
func (c Collection) Where(f *Filter) (squirrel.Sqlizer, error) {
	if f.empty() {
		return nil, nil
	}
	return c.conjunction(*f)
}

func (c Collection) conjunction(f Filter) (squirrel.Sqlizer, error) {
	and := squirrel.And{}
	for _, p := range f.Predicates {
		cond, err := c.predicate(p)
		if err != nil {
			return nil, err
		}
		and = append(and, cond)
	}
	for _, g := range f.And {
		cond, err := c.conjunction(g)
		if err != nil {
			return nil, err
		}
		and = append(and, cond)
	}
	if len(f.Or) > 0 {
		or, err := c.disjunction(f.Or)
		if err != nil {
			return nil, err
		}
		and = append(and, or)
	}
	if len(f.Nor) > 0 {
		nor, err := c.disjunction(f.Nor)
		if err != nil {
			return nil, err
		}
		and = append(and, not{nor})
	}
	if len(and) == 0 {
		return squirrel.Expr("TRUE"), nil
	}
	return and, nil
}

func (c Collection) disjunction(groups []Filter) (squirrel.Sqlizer, error) {
	or := squirrel.Or{}
	for _, g := range groups {
		cond, err := c.conjunction(g)
		if err != nil {
			return nil, err
		}
		or = append(or, cond)
	}
	return or, nil
}

type not struct {
	cond squirrel.Sqlizer
}

func (n not) ToSql() (string, []any, error) {
	sql, args, err := n.cond.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", args, nil
}

func (c Collection) predicate(p Predicate) (squirrel.Sqlizer, error) {
	field, ok := c.Field(p.Field)
	if !ok {
		return nil, invalid(ParamWhere, p.Field, "unknown field")
	}
	col := field.Column

	switch p.Op {
	case OpExists:
		// every registered column is NOT NULL
		if p.Value.Bool {
			return squirrel.Expr("TRUE"), nil
		}
		return squirrel.Expr("FALSE"), nil
	case OpSize:
		if field.Kind != ColumnTextArray {
			return nil, invalid(ParamWhere, p.Field, "$size needs an array field")
		}
		return squirrel.Expr(fmt.Sprintf("cardinality(%s) = ?", col), int64(p.Value.Num)), nil
	case OpRegex:
		if field.Kind != ColumnText {
			return nil, invalid(ParamWhere, p.Field, "$regex needs a text field")
		}
		switch p.Options {
		case "":
			return squirrel.Expr(fmt.Sprintf("%s ~ ?", col), p.Value.Str), nil
		case "i":
			return squirrel.Expr(fmt.Sprintf("%s ~* ?", col), p.Value.Str), nil
		default:
			return nil, invalid(ParamWhere, p.Field, "unsupported $options %q", p.Options)
		}
	}

	if field.Kind == ColumnTextArray {
		return arrayPredicate(field, p)
	}

	if p.Value.Kind == KindList {
		if p.Op != OpIn && p.Op != OpNin {
			return nil, invalid(ParamWhere, p.Field, "%s cannot compare with an array", p.Op)
		}
		args := make([]any, 0, len(p.Value.List))
		for _, item := range p.Value.List {
			arg, err := argument(field, item)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if p.Op == OpIn {
			return squirrel.Eq{col: args}, nil
		}
		return squirrel.NotEq{col: args}, nil
	}

	arg, err := argument(field, p.Value)
	if err != nil {
		return nil, err
	}
	if arg == nil && p.Op != OpEq && p.Op != OpNe {
		return nil, invalid(ParamWhere, p.Field, "%s cannot compare with null", p.Op)
	}

	switch p.Op {
	case OpEq:
		return squirrel.Eq{col: arg}, nil
	case OpNe:
		return squirrel.NotEq{col: arg}, nil
	case OpGt:
		return squirrel.Gt{col: arg}, nil
	case OpGte:
		return squirrel.GtOrEq{col: arg}, nil
	case OpLt:
		return squirrel.Lt{col: arg}, nil
	case OpLte:
		return squirrel.LtOrEq{col: arg}, nil
	default:
		return nil, invalid(ParamWhere, p.Field, "unsupported operator %s", p.Op)
	}
}

// arrayPredicate follows document-store array semantics: a scalar matches
// when the array contains it, a list matches the whole array.
func arrayPredicate(field Field, p Predicate) (squirrel.Sqlizer, error) {
	col := field.Column
	if p.Value.Kind == KindNull {
		switch p.Op {
		case OpEq:
			return squirrel.Eq{col: nil}, nil
		case OpNe:
			return squirrel.NotEq{col: nil}, nil
		}
	}

	elems, err := arrayElements(field, p.Value)
	if err != nil {
		return nil, err
	}
	list := p.Value.Kind == KindList

	switch {
	case p.Op == OpEq && list:
		return squirrel.Expr(fmt.Sprintf("%s = ?", col), pq.Array(elems)), nil
	case p.Op == OpEq:
		return squirrel.Expr(fmt.Sprintf("%s @> ?", col), pq.Array(elems)), nil
	case p.Op == OpNe && list:
		return squirrel.Expr(fmt.Sprintf("%s <> ?", col), pq.Array(elems)), nil
	case p.Op == OpNe:
		return squirrel.Expr(fmt.Sprintf("NOT (%s @> ?)", col), pq.Array(elems)), nil
	case p.Op == OpIn:
		return squirrel.Expr(fmt.Sprintf("%s && ?", col), pq.Array(elems)), nil
	case p.Op == OpNin:
		return squirrel.Expr(fmt.Sprintf("NOT (%s && ?)", col), pq.Array(elems)), nil
	default:
		return nil, invalid(ParamWhere, field.Name, "%s is not supported on array fields", p.Op)
	}
}

func arrayElements(field Field, v Value) ([]string, error) {
	items := []Value{v}
	if v.Kind == KindList {
		items = v.List
	}
	elems := make([]string, 0, len(items))
	for _, item := range items {
		if item.Kind != KindString {
			return nil, invalid(ParamWhere, field.Name, "array elements must be strings")
		}
		elems = append(elems, item.Str)
	}
	return elems, nil
}

// argument converts a document value into a driver argument for the column,
// rejecting values the column type cannot hold.
func argument(field Field, v Value) (any, error) {
	if v.Kind == KindNull {
		return nil, nil
	}
	switch field.Kind {
	case ColumnUUID:
		if v.Kind == KindString {
			id, err := uuid.Parse(v.Str)
			if err == nil {
				return id.String(), nil
			}
		}
		return nil, invalid(ParamWhere, field.Name, "invalid id %s", describe(v))
	case ColumnText:
		if v.Kind == KindString {
			return v.Str, nil
		}
	case ColumnBool:
		switch {
		case v.Kind == KindBool:
			return v.Bool, nil
		case v.Kind == KindString && (v.Str == "true" || v.Str == "false"):
			return v.Str == "true", nil
		}
	case ColumnTime:
		switch v.Kind {
		case KindString:
			for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
				if t, err := time.Parse(layout, v.Str); err == nil {
					return t, nil
				}
			}
		case KindNumber:
			if !math.IsInf(v.Num, 0) && !math.IsNaN(v.Num) {
				return time.UnixMilli(int64(v.Num)).UTC(), nil
			}
		}
	}
	return nil, invalid(ParamWhere, field.Name, "cannot compare with %s", describe(v))
}

func describe(v Value) string {
	switch v.Kind {
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindNumber:
		return fmt.Sprintf("number %v", v.Num)
	case KindBool:
		return fmt.Sprintf("boolean %v", v.Bool)
	case KindList:
		return "an array"
	default:
		return "null"
	}
}
