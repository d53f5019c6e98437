package query

// ValueKind tags the dynamic type held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

// Value is a scalar or a flat list of scalars taken from a filter document.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []Value
}

func Null() Value { return Value{Kind: KindNull} }
func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func List(items ...Value) Value { return Value{Kind: KindList, List: items} }

// Operator is a comparison operator understood by the executor.
type Operator string

const (
	OpEq     Operator = "$eq"
	OpNe     Operator = "$ne"
	OpGt     Operator = "$gt"
	OpGte    Operator = "$gte"
	OpLt     Operator = "$lt"
	OpLte    Operator = "$lte"
	OpIn     Operator = "$in"
	OpNin    Operator = "$nin"
	OpExists Operator = "$exists"
	OpRegex  Operator = "$regex"
	OpSize   Operator = "$size"
)

// Predicate compares one field against a value.
type Predicate struct {
	Field string
	Op    Operator
	Value Value
	// Options carries $options for $regex; only "i" is supported.
	Options string
}

// Filter is a conjunction of predicates and nested logical groups.
// The zero Filter matches everything.
type Filter struct {
	Predicates []Predicate
	And        []Filter
	Or         []Filter
	Nor        []Filter
}

func (f *Filter) empty() bool {
	return f == nil || (len(f.Predicates) == 0 && len(f.And) == 0 && len(f.Or) == 0 && len(f.Nor) == 0)
}

type SortKey struct {
	Field string
	Desc  bool
}

// Projection selects the fields returned for each record. With Exclude set,
// Fields lists the fields to drop, otherwise the fields to keep.
type Projection struct {
	Fields    []string
	Exclude   bool
	ExcludeID bool
}

// Request is the parsed form of the listing query parameters.
type Request struct {
	Filter     *Filter
	Sort       []SortKey
	Projection *Projection
	Skip       int
	Limit      *int
	Count      bool
}
