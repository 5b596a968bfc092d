package portfolio

import (
	"strconv"
	"strings"
)

// SplitPath splits a dot-delimited document path into its segments.
func SplitPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &PathError{Path: path, Message: "empty path"}
	}
	segs := strings.Split(path, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, &PathError{Path: path, Message: "empty path segment"}
		}
	}
	return segs, nil
}

// SetPath writes value at path inside doc, in place. Missing or null
// intermediate segments are created as empty mappings; a numeric segment
// indexes into an existing array. Descending through any other existing value
// fails with a *PathError and leaves doc untouched.
func SetPath(doc Document, path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	v, err := jsonValue(value)
	if err != nil {
		return &PathError{Path: path, Message: "value is not JSON-encodable: " + err.Error()}
	}

	// Check the whole walk first so a failure never leaves half-created levels behind.
	if err := checkPath(doc, path, segs); err != nil {
		return err
	}

	var cur any = map[string]any(doc)
	for i, seg := range segs {
		last := i == len(segs)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[seg] = v
				return nil
			}
			next := node[seg]
			if next == nil {
				next = map[string]any{}
				node[seg] = next
			}
			cur = next
		case []any:
			idx, _ := strconv.Atoi(seg)
			if last {
				node[idx] = v
				return nil
			}
			next := node[idx]
			if next == nil {
				next = map[string]any{}
				node[idx] = next
			}
			cur = next
		}
	}
	return nil
}

func checkPath(doc Document, path string, segs []string) error {
	var cur any = map[string]any(doc)
	for i, seg := range segs {
		if cur == nil {
			// Everything below a created level is created too.
			return nil
		}
		last := i == len(segs)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				return nil
			}
			cur = node[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return &PathError{Path: path, Segment: strings.Join(segs[:i+1], "."), Message: "array index out of range"}
			}
			if last {
				return nil
			}
			cur = node[idx]
		default:
			return &PathError{Path: path, Segment: strings.Join(segs[:i], "."), Message: "cannot descend into non-mapping value"}
		}
	}
	return nil
}

// Get reads the value at path. The returned value is a deep copy.
func Get(doc Document, path string) (any, bool) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, false
	}
	var cur any = map[string]any(doc)
	for _, seg := range segs {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cloneValue(cur), true
}
