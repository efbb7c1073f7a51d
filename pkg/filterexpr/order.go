package filterexpr

import (
	"errors"
	"fmt"
	"strings"
)

// OrderTerm is one resolved sort key.
type OrderTerm struct {
	Column string
	Desc   bool
}

// ParseOrder resolves an order_by string such as "level desc, id" against the schema.
// An empty input yields the schema default followed by the fallback key.
func ParseOrder(raw string, schema OrderSchema) ([]OrderTerm, error) {
	if schema.DefaultKey == "" {
		return nil, errors.New("order schema default key required")
	}
	if _, ok := schema.Fields[schema.DefaultKey]; !ok {
		return nil, fmt.Errorf("order key %q missing from schema fields", schema.DefaultKey)
	}
	if schema.FallbackKey != "" {
		if _, ok := schema.Fields[schema.FallbackKey]; !ok {
			return nil, fmt.Errorf("fallback order key %q missing from schema fields", schema.FallbackKey)
		}
	}

	var terms []OrderTerm
	seen := make(map[string]struct{})

	raw = strings.TrimSpace(raw)
	for _, seg := range strings.Split(raw, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}

		parts := strings.Fields(seg)
		key := parts[0]
		field, ok := schema.Fields[key]
		if !ok {
			return nil, fmt.Errorf("field %q cannot be used for ordering", key)
		}

		var desc bool
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return nil, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
			}
		default:
			return nil, fmt.Errorf("invalid order segment %q", seg)
		}

		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate order key %q", key)
		}
		seen[key] = struct{}{}
		terms = append(terms, OrderTerm{Column: columnOf(key, field), Desc: desc})
	}

	if len(terms) == 0 {
		terms = append(terms, OrderTerm{
			Column: columnOf(schema.DefaultKey, schema.Fields[schema.DefaultKey]),
			Desc:   schema.DefaultDesc,
		})
		seen[schema.DefaultKey] = struct{}{}
	}

	// a trailing unique key keeps paging deterministic
	if schema.FallbackKey != "" {
		if _, ok := seen[schema.FallbackKey]; !ok {
			terms = append(terms, OrderTerm{Column: columnOf(schema.FallbackKey, schema.Fields[schema.FallbackKey])})
		}
	}
	return terms, nil
}

func columnOf(key string, field OrderField) string {
	if field.Column != "" {
		return field.Column
	}
	return key
}
