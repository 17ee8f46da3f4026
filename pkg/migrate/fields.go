package migrate

// fieldCopy is one entry of a per-kind reconcile table: a field name (used
// in logs and tests) and a copy func that moves the relational value onto
// the document, reporting whether the document changed.
type fieldCopy[O, D any] struct {
	name string
	copy func(old *O, doc *D) bool
}

// applyFields runs every entry of a reconcile table and reports whether any
// of them changed the document.
func applyFields[O, D any](fields []fieldCopy[O, D], old *O, doc *D) bool {
	changed := false
	for _, f := range fields {
		if f.copy(old, doc) {
			changed = true
		}
	}
	return changed
}

// assign overwrites dst with src and reports whether the value changed.
func assign[T comparable](dst *T, src T) bool {
	if *dst == src {
		return false
	}
	*dst = src
	return true
}

// assignPtr overwrites the pointer field dst with a copy of src, treating
// nil as "unset". It reports whether the effective value changed.
func assignPtr[T comparable](dst **T, src *T) bool {
	if *dst == nil && src == nil {
		return false
	}
	if *dst != nil && src != nil && **dst == *src {
		return false
	}
	if src == nil {
		*dst = nil
		return true
	}
	v := *src
	*dst = &v
	return true
}

// clonePtr copies a pointer field so that document and relational record
// never alias the same value.
func clonePtr[T any](src *T) *T {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
