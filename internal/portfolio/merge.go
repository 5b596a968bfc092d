package portfolio

// Merge overlays incoming onto fallback and returns a fresh tree:
//   - a nil incoming value yields a copy of fallback
//   - when either side is an array, an incoming array replaces fallback wholesale
//   - two mappings merge key by key
//   - otherwise the incoming scalar wins
func Merge(fallback, incoming any) any {
	if incoming == nil {
		return cloneValue(fallback)
	}

	_, fallbackIsArray := fallback.([]any)
	_, incomingIsArray := incoming.([]any)
	if fallbackIsArray || incomingIsArray {
		if incomingIsArray {
			return cloneValue(incoming)
		}
		return cloneValue(fallback)
	}

	fm, im := asMap(fallback), asMap(incoming)
	if fm != nil && im != nil {
		out := make(map[string]any, len(fm)+len(im))
		for k, v := range fm {
			out[k] = cloneValue(v)
		}
		for k, v := range im {
			out[k] = Merge(fm[k], v)
		}
		return out
	}

	return cloneValue(incoming)
}
