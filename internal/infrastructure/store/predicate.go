package store

import (
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"

	"github.com/eslsoft/kanaplay/pkg/filterexpr"
)

// Filter selects documents of a collection. A nil Filter matches everything.
type Filter = *sql.Predicate

// All matches every document.
var All Filter

// Eq matches column == value. A nil value matches NULL.
func Eq(column string, value any) Filter {
	if value == nil {
		return sql.IsNull(column)
	}
	return sql.EQ(column, normalizeValue(value))
}

// Ne matches column != value. A nil value matches NOT NULL.
func Ne(column string, value any) Filter {
	if value == nil {
		return sql.NotNull(column)
	}
	return sql.NEQ(column, normalizeValue(value))
}

func Lt(column string, value any) Filter  { return sql.LT(column, normalizeValue(value)) }
func Lte(column string, value any) Filter { return sql.LTE(column, normalizeValue(value)) }
func Gt(column string, value any) Filter  { return sql.GT(column, normalizeValue(value)) }
func Gte(column string, value any) Filter { return sql.GTE(column, normalizeValue(value)) }

// In matches documents whose column holds one of values. An empty set matches nothing.
func In[V any](column string, values []V) Filter {
	if len(values) == 0 {
		return sql.ExprP("1 = 0")
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = normalizeValue(v)
	}
	return sql.In(column, args...)
}

// HasPrefix matches string columns starting with prefix.
func HasPrefix(column, prefix string) Filter {
	return sql.HasPrefix(column, prefix)
}

// And combines filters by conjunction, ignoring nil entries.
func And(filters ...Filter) Filter {
	kept := make([]*sql.Predicate, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return sql.And(kept...)
	}
}

// FromConditions turns parsed filter conditions into a store filter.
func FromConditions(conds []filterexpr.Condition) (Filter, error) {
	filters := make([]Filter, 0, len(conds))
	for _, cond := range conds {
		var f Filter
		switch cond.Op {
		case filterexpr.OpEQ:
			f = Eq(cond.Column, cond.Value)
		case filterexpr.OpNE:
			f = Ne(cond.Column, cond.Value)
		case filterexpr.OpLT:
			f = Lt(cond.Column, cond.Value)
		case filterexpr.OpLTE:
			f = Lte(cond.Column, cond.Value)
		case filterexpr.OpGT:
			f = Gt(cond.Column, cond.Value)
		case filterexpr.OpGTE:
			f = Gte(cond.Column, cond.Value)
		case filterexpr.OpSW:
			prefix, ok := cond.Value.(string)
			if !ok {
				return nil, fmt.Errorf("startsWith on %s requires a string", cond.Column)
			}
			f = HasPrefix(cond.Column, prefix)
		case filterexpr.OpIN:
			values, ok := cond.Value.([]any)
			if !ok {
				return nil, fmt.Errorf("in on %s requires a list", cond.Column)
			}
			f = In(cond.Column, values)
		default:
			return nil, fmt.Errorf("unsupported operator %q", cond.Op)
		}
		filters = append(filters, f)
	}
	return And(filters...), nil
}

// Millis converts t into the representation used by time-valued index columns.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UnixMilli()
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UnixMilli()
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	default:
		return v
	}
}
