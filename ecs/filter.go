package ecs

import (
	"reflect"
	"slices"
)

// AccessFilter is the set-membership predicate a filter entry applies to its
// component types.
type AccessFilter uint8

const (
	// NoFilter declares no interest in nodes at all.
	NoFilter AccessFilter = iota
	// AnyOf matches nodes having at least one of the types.
	AnyOf
	// AllOf matches nodes having every one of the types.
	AllOf
	// NoneOf rejects nodes having any of the types.
	NoneOf
)

func (f AccessFilter) String() string {
	switch f {
	case NoFilter:
		return "NoFilter"
	case AnyOf:
		return "AnyOf"
	case AllOf:
		return "AllOf"
	case NoneOf:
		return "NoneOf"
	}
	return "AccessFilter(?)"
}

// AccessKind is the declared intent on a component type. Write implies Read.
type AccessKind uint8

const (
	Read AccessKind = 1 << iota
	Write

	ReadWrite = Read | Write
)

func (k AccessKind) String() string {
	switch {
	case k&Write != 0:
		return "Write"
	case k&Read != 0:
		return "Read"
	}
	return "None"
}

// FilterEntry is one (filter, access kind, component types) declaration of a
// system.
type FilterEntry struct {
	Filter AccessFilter
	Kind   AccessKind
	Types  []reflect.Type
}

// NewFilter creates a read-write entry.
func NewFilter(filter AccessFilter, types ...reflect.Type) FilterEntry {
	return FilterEntry{Filter: filter, Kind: ReadWrite, Types: types}
}

// As returns a copy of the entry with the given access kind.
func (e FilterEntry) As(kind AccessKind) FilterEntry {
	e.Kind = kind
	return e
}

// Filtered is implemented by systems that declare component interests.
// Systems without it get a NoFilter context.
type Filtered interface {
	Filters() []FilterEntry
}

// resolvedFilter is a set of filter entries expressed in component indices.
// Targets within a filter kind are unioned, sorted and deduplicated.
type resolvedFilter struct {
	anyOf  []int
	allOf  []int
	noneOf []int
	access map[int]AccessKind
}

func resolveFilter(registry *ComponentRegistry, entries []FilterEntry) resolvedFilter {
	f := resolvedFilter{access: make(map[int]AccessKind)}

	for _, entry := range entries {
		indices := make([]int, 0, len(entry.Types))
		for _, t := range entry.Types {
			indices = append(indices, registry.GetOrCreateIndex(t))
		}

		switch entry.Filter {
		case AnyOf:
			f.anyOf = append(f.anyOf, indices...)
		case AllOf:
			f.allOf = append(f.allOf, indices...)
		case NoneOf:
			f.noneOf = append(f.noneOf, indices...)
			continue
		}

		kind := Read
		if entry.Kind&Write != 0 {
			kind = Write
		}
		for _, index := range indices {
			if f.access[index] != Write {
				f.access[index] = kind
			}
		}
	}

	f.anyOf = sortedUnique(f.anyOf)
	f.allOf = sortedUnique(f.allOf)
	f.noneOf = sortedUnique(f.noneOf)
	return f
}

// isNoFilter reports whether no constraining kind has any target.
func (f resolvedFilter) isNoFilter() bool {
	return len(f.anyOf) == 0 && len(f.allOf) == 0 && len(f.noneOf) == 0
}

// matches evaluates NoneOf, then AnyOf, then AllOf, short-circuiting.
// A node with one of the AnyOf types is valid without the AllOf check.
func (f *resolvedFilter) matches(n *Node) bool {
	for _, index := range f.noneOf {
		if n.HasComponent(index) {
			return false
		}
	}
	for _, index := range f.anyOf {
		if n.HasComponent(index) {
			return true
		}
	}
	if len(f.allOf) > 0 {
		for _, index := range f.allOf {
			if !n.HasComponent(index) {
				return false
			}
		}
		return true
	}
	return true
}

// declared reports whether index may be read through the context.
func (f *resolvedFilter) declared(index int) bool {
	_, ok := f.access[index]
	return ok
}

// mergeAccess widens the access map with another declaration of the same
// structural filter.
func (f *resolvedFilter) mergeAccess(other resolvedFilter) {
	for index, kind := range other.access {
		if f.access[index] != Write {
			f.access[index] = kind
		}
	}
}

func (f *resolvedFilter) sameTargets(other *resolvedFilter) bool {
	return slices.Equal(f.anyOf, other.anyOf) &&
		slices.Equal(f.allOf, other.allOf) &&
		slices.Equal(f.noneOf, other.noneOf)
}

// hash returns the structural identity of the filter: an FNV-1a hash over
// each non-empty filter kind in ascending order and its sorted targets.
// Access kinds do not take part.
func (f resolvedFilter) hash() uint64 {
	const (
		offset64 uint64 = 14695981039346656037
		prime64  uint64 = 1099511628211
	)
	h := offset64
	mix := func(v uint64) {
		for i := 0; i < 8; i++ {
			h ^= v & 0xFF
			h *= prime64
			v >>= 8
		}
	}

	if f.isNoFilter() {
		mix(uint64(NoFilter))
		return h
	}
	for _, group := range []struct {
		kind    AccessFilter
		targets []int
	}{
		{AnyOf, f.anyOf},
		{AllOf, f.allOf},
		{NoneOf, f.noneOf},
	} {
		if len(group.targets) == 0 {
			continue
		}
		mix(uint64(group.kind))
		mix(uint64(len(group.targets)))
		for _, index := range group.targets {
			mix(uint64(index))
		}
	}
	return h
}

func sortedUnique(indices []int) []int {
	if len(indices) == 0 {
		return nil
	}
	slices.Sort(indices)
	return slices.Compact(indices)
}
