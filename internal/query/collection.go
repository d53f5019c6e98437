package query

// ColumnKind is the storage type of a queryable column.
type ColumnKind int

const (
	ColumnUUID ColumnKind = iota
	ColumnText
	ColumnBool
	ColumnTime
	ColumnTextArray
)

// Field maps a JSON field name to its column.
type Field struct {
	Name   string
	Column string
	Kind   ColumnKind
}

// Collection whitelists the fields a client may filter, sort and select on.
// Only columns registered here ever reach generated SQL.
type Collection struct {
	Table  string
	fields []Field
	byName map[string]Field
	// DefaultOrder is used when the request has no sort.
	DefaultOrder []SortKey
}

func NewCollection(table string, fields ...Field) Collection {
	c := Collection{Table: table, fields: fields, byName: make(map[string]Field, len(fields))}
	for _, f := range fields {
		c.byName[f.Name] = f
	}
	return c
}

// Field looks up a field by JSON name; "_id" is an alias of "id".
func (c Collection) Field(name string) (Field, bool) {
	if name == "_id" {
		name = "id"
	}
	f, ok := c.byName[name]
	return f, ok
}

// Columns lists every column in declaration order.
func (c Collection) Columns() []string {
	cols := make([]string, len(c.fields))
	for i, f := range c.fields {
		cols[i] = f.Column
	}
	return cols
}

// ResolveProjection checks projected names against the collection and
// rewrites aliases to canonical field names.
func (c Collection) ResolveProjection(p *Projection) (*Projection, error) {
	if p == nil {
		return nil, nil
	}
	resolved := &Projection{Exclude: p.Exclude, ExcludeID: p.ExcludeID}
	for _, name := range p.Fields {
		f, ok := c.Field(name)
		if !ok {
			return nil, invalid(ParamSelect, name, "unknown field")
		}
		resolved.Fields = append(resolved.Fields, f.Name)
	}
	return resolved, nil
}

// Record is anything the executor can project.
type Record interface {
	Fields() map[string]any
}

// Project applies a resolved projection to a record. A nil projection returns
// the record unchanged.
func Project(rec Record, p *Projection) any {
	if p == nil {
		return rec
	}
	all := rec.Fields()
	out := make(map[string]any, len(all))
	if p.Exclude {
		for k, v := range all {
			out[k] = v
		}
		for _, name := range p.Fields {
			delete(out, name)
		}
	} else {
		for _, name := range p.Fields {
			if v, ok := all[name]; ok {
				out[name] = v
			}
		}
		out["id"] = all["id"]
	}
	if p.ExcludeID {
		delete(out, "id")
	}
	return out
}
