package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Nesting limit for $and/$or/$nor groups.
const maxFilterDepth = 4

var (
	errNotObject = errors.New("document must be a JSON object")
	errTrailing  = errors.New("unexpected data after document")
)

type member struct {
	key string
	raw json.RawMessage
}

// decodeObject reads a JSON object keeping its key order. A repeated key
// keeps its first position and its last value.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	var members []member
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if i, seen := index[key]; seen {
			members[i].raw = raw
			continue
		}
		index[key] = len(members)
		members = append(members, member{key: key, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailing
	}
	return members, nil
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func decodeScalar(raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Value{}, err
	}
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	default:
		return Value{}, errors.New("expected a scalar value")
	}
}

// decodeValue accepts scalars and flat lists of scalars.
func decodeValue(raw json.RawMessage) (Value, error) {
	switch firstByte(raw) {
	case '{':
		return Value{}, errors.New("embedded documents are not supported")
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Value{}, err
		}
		list := make([]Value, 0, len(items))
		for _, item := range items {
			if b := firstByte(item); b == '[' || b == '{' {
				return Value{}, errors.New("nested lists and documents are not supported")
			}
			v, err := decodeScalar(item)
			if err != nil {
				return Value{}, err
			}
			list = append(list, v)
		}
		return List(list...), nil
	default:
		return decodeScalar(raw)
	}
}

func parseFilter(members []member, depth int) (*Filter, error) {
	if depth > maxFilterDepth {
		return nil, fmt.Errorf("logical operators nested deeper than %d levels", maxFilterDepth)
	}
	f := &Filter{}
	for _, m := range members {
		switch m.key {
		case "$and", "$or", "$nor":
			groups, err := parseGroups(m, depth)
			if err != nil {
				return nil, err
			}
			switch m.key {
			case "$and":
				f.And = append(f.And, groups...)
			case "$or":
				f.Or = append(f.Or, groups...)
			default:
				f.Nor = append(f.Nor, groups...)
			}
		default:
			if strings.HasPrefix(m.key, "$") {
				return nil, fmt.Errorf("unknown top level operator %s", m.key)
			}
			preds, err := parseCondition(m.key, m.raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.key, err)
			}
			f.Predicates = append(f.Predicates, preds...)
		}
	}
	return f, nil
}

func parseGroups(m member, depth int) ([]Filter, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(m.raw, &items); err != nil || len(items) == 0 {
		return nil, fmt.Errorf("%s must be a nonempty array", m.key)
	}
	groups := make([]Filter, 0, len(items))
	for _, item := range items {
		sub, err := decodeObject(item)
		if err != nil {
			return nil, fmt.Errorf("%s entries must be objects", m.key)
		}
		g, err := parseFilter(sub, depth+1)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, nil
}

func parseCondition(field string, raw json.RawMessage) ([]Predicate, error) {
	if firstByte(raw) != '{' {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		return []Predicate{{Field: field, Op: OpEq, Value: v}}, nil
	}

	ops, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, errors.New("embedded documents are not supported")
	}
	operators := 0
	options := ""
	for _, op := range ops {
		if strings.HasPrefix(op.key, "$") {
			operators++
		}
		if op.key == "$options" {
			v, err := decodeScalar(op.raw)
			if err != nil || v.Kind != KindString {
				return nil, errors.New("$options must be a string")
			}
			options = v.Str
		}
	}
	switch {
	case operators == 0:
		return nil, errors.New("embedded documents are not supported")
	case operators != len(ops):
		return nil, errors.New("cannot mix operators and fields")
	}

	var preds []Predicate
	for _, op := range ops {
		p := Predicate{Field: field, Op: Operator(op.key)}
		switch p.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			p.Value, err = decodeValue(op.raw)
		case OpIn, OpNin:
			p.Value, err = decodeValue(op.raw)
			if err == nil && p.Value.Kind != KindList {
				err = fmt.Errorf("%s needs an array", op.key)
			}
		case OpExists:
			p.Value, err = decodeScalar(op.raw)
			if err == nil {
				p.Value = Bool(truthy(p.Value))
			}
		case OpRegex:
			p.Value, err = decodeScalar(op.raw)
			if err == nil && p.Value.Kind != KindString {
				err = errors.New("$regex needs a string")
			}
			p.Options = options
		case OpSize:
			p.Value, err = decodeScalar(op.raw)
			if err == nil && (p.Value.Kind != KindNumber || p.Value.Num < 0 || p.Value.Num != float64(int64(p.Value.Num))) {
				err = errors.New("$size needs a non-negative integer")
			}
		case "$options":
			if !hasOperator(ops, OpRegex) {
				return nil, errors.New("$options needs a $regex")
			}
			continue
		default:
			err = fmt.Errorf("unknown operator %s", op.key)
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func hasOperator(ops []member, op Operator) bool {
	for _, m := range ops {
		if Operator(m.key) == op {
			return true
		}
	}
	return false
}

func truthy(v Value) bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	default:
		return true
	}
}

func parseSort(members []member) ([]SortKey, error) {
	keys := make([]SortKey, 0, len(members))
	for _, m := range members {
		v, err := decodeScalar(m.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.key, err)
		}
		key := SortKey{Field: m.key}
		switch {
		case v.Kind == KindNumber && v.Num == 1:
		case v.Kind == KindNumber && v.Num == -1:
			key.Desc = true
		case v.Kind == KindString:
			switch strings.ToLower(v.Str) {
			case "asc", "ascending":
			case "desc", "descending":
				key.Desc = true
			default:
				return nil, fmt.Errorf("invalid sort value for %s", m.key)
			}
		default:
			return nil, fmt.Errorf("invalid sort value for %s", m.key)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func isIDField(name string) bool {
	return name == "id" || name == "_id"
}

func parseProjection(members []member) (*Projection, error) {
	if len(members) == 0 {
		return nil, nil
	}
	p := &Projection{}
	included, excluded := 0, 0
	for _, m := range members {
		v, err := decodeScalar(m.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.key, err)
		}
		if v.Kind != KindNumber && v.Kind != KindBool {
			return nil, fmt.Errorf("invalid projection value for %s", m.key)
		}
		keep := truthy(v)
		if isIDField(m.key) {
			p.ExcludeID = !keep
			continue
		}
		if keep {
			included++
		} else {
			excluded++
		}
		p.Fields = append(p.Fields, m.key)
	}
	if included > 0 && excluded > 0 {
		return nil, errors.New("projection cannot have a mix of inclusion and exclusion")
	}
	p.Exclude = excluded > 0
	if included == 0 && excluded == 0 {
		// only id was named: {"id":0} drops it, {"id":1} keeps just the id
		p.Exclude = p.ExcludeID
	}
	return p, nil
}
