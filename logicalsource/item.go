package logicalsource

import (
	"fmt"

	"github.com/google/uuid"
)

// ItemRecord adapts a caller-provided value map to the Record
// interface, for embedding callers that map single items without a
// decoder. Nil values are absent; slice values expand to multiple
// values; everything else is rendered with fmt.
type ItemRecord struct {
	id     string
	values map[string]any
}

// NewItemRecord wraps a value map as a record.
func NewItemRecord(values map[string]any) *ItemRecord {
	return &ItemRecord{
		id:     "item-" + uuid.NewString()[:8],
		values: values,
	}
}

// ID implements Record.
func (r *ItemRecord) ID() string {
	return r.id
}

// Get implements Record.
func (r *ItemRecord) Get(expression string) ([]string, error) {
	v, ok := r.values[expression]
	if !ok || v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case string:
		return []string{vv}, nil
	case []string:
		return vv, nil
	case []any:
		var out []string
		for _, el := range vv {
			if el == nil {
				continue
			}
			out = append(out, fmt.Sprintf("%v", el))
		}
		return out, nil
	default:
		return []string{fmt.Sprintf("%v", v)}, nil
	}
}

// Raw returns the underlying value map.
func (r *ItemRecord) Raw() map[string]any {
	return r.values
}
