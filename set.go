package sclone

import "reflect"

// Set is an insertion-ordered collection of unique values. Comparable values
// are deduplicated by equality; non-comparable values (maps, slices) are
// kept as-is and matched by identity only.
type Set struct {
	items []any
	index map[any]int
}

// NewSet returns a set holding the given values, in order, deduplicated.
func NewSet(values ...any) *Set {
	s := &Set{index: make(map[any]int)}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v unless an equal value is already present. Reports whether
// the set grew.
func (s *Set) Add(v any) bool {
	if s.index == nil {
		s.index = make(map[any]int)
	}
	if isComparable(v) {
		if _, ok := s.index[v]; ok {
			return false
		}
		s.index[v] = len(s.items)
	}
	s.items = append(s.items, v)
	return true
}

// Has reports whether an equal value is present. Non-comparable values match
// by identity.
func (s *Set) Has(v any) bool {
	if isComparable(v) {
		_, ok := s.index[v]
		return ok
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
	default:
		return false
	}
	for _, item := range s.items {
		if item == nil || isComparable(item) {
			continue
		}
		iv := reflect.ValueOf(item)
		if iv.Kind() == rv.Kind() && iv.UnsafePointer() == rv.UnsafePointer() {
			return true
		}
	}
	return false
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	return len(s.items)
}

// Values returns the set's values in insertion order. The caller must not
// mutate the returned slice.
func (s *Set) Values() []any {
	return s.items
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

// MapFromEntries builds a map from a list of [key, value] pairs, the way the
// wire format represents keyed mappings. Entries that are not 2-element
// pairs, or whose key cannot be used as a map key, yield an EntryError.
func MapFromEntries(entries [][]any) (map[any]any, error) {
	m := make(map[any]any, len(entries))
	for i, e := range entries {
		if len(e) != 2 {
			return nil, &EntryError{Index: i, Msg: "entry must be a [key, value] pair"}
		}
		if !isComparable(e[0]) {
			return nil, &EntryError{Index: i, Msg: "key is not usable as a map key"}
		}
		m[e[0]] = e[1]
	}
	return m, nil
}
