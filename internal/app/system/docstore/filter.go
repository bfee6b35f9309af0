package docstore

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Op is a filter comparison.
type Op string

const (
	OpEq Op = "=="
	OpGt Op = ">" // time.Time values only
)

// Cond is one top-level field comparison.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. The zero Filter matches everything.
type Filter struct {
	Conds []Cond
}

// All matches every document in a collection.
func All() Filter { return Filter{} }

// Eq matches documents whose field equals value.
func Eq(field string, value any) Filter {
	return Filter{Conds: []Cond{{Field: field, Op: OpEq, Value: value}}}
}

// After matches documents whose time field is strictly after t.
func After(field string, t time.Time) Filter {
	return Filter{Conds: []Cond{{Field: field, Op: OpGt, Value: t}}}
}

// And returns a filter matching both f and g.
func (f Filter) And(g Filter) Filter {
	out := Filter{Conds: make([]Cond, 0, len(f.Conds)+len(g.Conds))}
	out.Conds = append(out.Conds, f.Conds...)
	out.Conds = append(out.Conds, g.Conds...)
	return out
}

// IsAll reports whether f has no conditions.
func (f Filter) IsAll() bool { return len(f.Conds) == 0 }

// Matches evaluates f against a raw document.
func (f Filter) Matches(doc bson.Raw) bool {
	for _, c := range f.Conds {
		rv, err := doc.LookupErr(c.Field)
		if err != nil {
			return false
		}
		switch c.Op {
		case OpEq:
			t, data, err := bson.MarshalValue(c.Value)
			if err != nil || rv.Type != t || !bytes.Equal(rv.Value, data) {
				return false
			}
		case OpGt:
			want, ok := c.Value.(time.Time)
			if !ok || rv.Type != bsontype.DateTime {
				return false
			}
			// bson stores milliseconds; compare at that precision
			if !rv.Time().After(want.Truncate(time.Millisecond)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// BSON renders f as a MongoDB query document.
func (f Filter) BSON() bson.M {
	q := bson.M{}
	for _, c := range f.Conds {
		switch c.Op {
		case OpEq:
			q[c.Field] = c.Value
		case OpGt:
			q[c.Field] = bson.M{"$gt": c.Value}
		}
	}
	return q
}

// String renders f for logs, e.g. `status == "approved"`.
func (f Filter) String() string {
	if f.IsAll() {
		return "*"
	}
	parts := make([]string, 0, len(f.Conds))
	for _, c := range f.Conds {
		parts = append(parts, fmt.Sprintf("%s %s %q", c.Field, c.Op, fmt.Sprint(c.Value)))
	}
	sort.Strings(parts)
	return strings.Join(parts, " && ")
}
