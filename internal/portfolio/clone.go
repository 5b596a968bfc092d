package portfolio

import (
	"encoding/json"
	"reflect"
)

// Clone returns a deep copy of doc. A nil document clones to an empty one.
func Clone(doc Document) Document {
	if doc == nil {
		return Document{}
	}
	out, _ := cloneValue(map[string]any(doc)).(map[string]any)
	return Document(out)
}

// Equal reports whether two documents hold the same tree.
func Equal(a, b Document) bool {
	return reflect.DeepEqual(cloneValue(map[string]any(a)), cloneValue(map[string]any(b)))
}

// cloneValue deep-copies a decoded-JSON value. Values of any other Go type are
// converted to their decoded-JSON form first.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil, string, float64, bool:
		return t
	case Document:
		return cloneValue(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = cloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = cloneValue(child)
		}
		return out
	default:
		converted, err := jsonValue(t)
		if err != nil {
			return nil
		}
		return converted
	}
}

// jsonValue converts an arbitrary Go value into its decoded-JSON form.
func jsonValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// asMap returns v as a plain mapping, or nil when it is not one.
func asMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case Document:
		return map[string]any(t)
	default:
		return nil
	}
}
