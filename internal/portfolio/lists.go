package portfolio

// List returns a copy of the list stored at field, or an empty list.
func List(doc Document, field string) []any {
	arr, _ := doc[field].([]any)
	out, _ := cloneValue(arr).([]any)
	if out == nil {
		return []any{}
	}
	return out
}

// Reorder moves the element at from to position to, shifting the rest.
func Reorder(list []any, from, to int) ([]any, error) {
	if from < 0 || from >= len(list) {
		return nil, &ListError{Index: from, Message: "source index out of range"}
	}
	if to < 0 || to >= len(list) {
		return nil, &ListError{Index: to, Message: "target index out of range"}
	}
	out := make([]any, 0, len(list))
	moved := list[from]
	for i, item := range list {
		if i != from {
			out = append(out, item)
		}
	}
	out = append(out[:to], append([]any{moved}, out[to:]...)...)
	return out, nil
}

// RemoveAt returns list without the element at idx.
func RemoveAt(list []any, idx int) ([]any, error) {
	if idx < 0 || idx >= len(list) {
		return nil, &ListError{Index: idx, Message: "index out of range"}
	}
	out := make([]any, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...), nil
}

// PatchAt shallow-merges patch into the record at idx.
func PatchAt(list []any, idx int, patch map[string]any) ([]any, error) {
	if idx < 0 || idx >= len(list) {
		return nil, &ListError{Index: idx, Message: "index out of range"}
	}
	out := make([]any, len(list))
	copy(out, list)
	rec := map[string]any{}
	for k, v := range asMap(list[idx]) {
		rec[k] = v
	}
	for k, v := range patch {
		rec[k] = cloneValue(v)
	}
	out[idx] = rec
	return out, nil
}

// Counts returns the number of entries in every list field, for the editor's
// overview page.
func Counts(doc Document) map[string]int {
	out := make(map[string]int, len(listFields))
	for _, field := range listFields {
		arr, _ := doc[field].([]any)
		out[field] = len(arr)
	}
	return out
}
