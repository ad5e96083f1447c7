package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotRegistered is returned when a component type has no index yet.
var ErrNotRegistered = errors.New("ecs: component type not registered")

// Name is the built-in component holding a node's display name.
type Name struct {
	Value string
}

// builtinComponents occupy the reserved index range at the start of every
// registry, in this order.
var builtinComponents = []reflect.Type{
	reflect.TypeFor[Name](),
}

// ComponentRegistry assigns each component type a stable, contiguous index
// and remembers which component types another type requires.
// A registry is usually built once at startup and shared by a World.
type ComponentRegistry struct {
	indices   map[reflect.Type]int
	names     map[string]reflect.Type
	types     []reflect.Type
	factories []func() any
	requires  [][]int
}

// NewComponentRegistry creates a registry with the built-in components
// already registered.
func NewComponentRegistry() *ComponentRegistry {
	r := &ComponentRegistry{
		indices: make(map[reflect.Type]int),
		names:   make(map[string]reflect.Type),
	}
	for _, t := range builtinComponents {
		r.GetOrCreateIndex(t)
	}
	return r
}

// RegisterComponent registers T and the component types it requires.
// Required types that are not registered yet get an index as well.
// Registering T again only appends new requirements.
func RegisterComponent[T any](r *ComponentRegistry, requires ...reflect.Type) int {
	t := reflect.TypeFor[T]()
	index := r.GetOrCreateIndex(t)
	r.factories[index] = func() any { return new(T) }

	for _, req := range requires {
		reqIndex := r.GetOrCreateIndex(req)
		if reqIndex == index {
			panic("ecs: component " + t.String() + " cannot require itself")
		}
		if !containsIndex(r.requires[index], reqIndex) {
			r.requires[index] = append(r.requires[index], reqIndex)
		}
	}
	return index
}

// ComponentIndex returns the index of T, panicking if T was never registered.
func ComponentIndex[T any](r *ComponentRegistry) int {
	return r.MustGetIndex(reflect.TypeFor[T]())
}

// GetOrCreateIndex returns the index of t, assigning the next free index if
// t is new. Pointer types resolve to their element type.
func (r *ComponentRegistry) GetOrCreateIndex(t reflect.Type) int {
	t = componentType(t)
	if index, ok := r.indices[t]; ok {
		return index
	}

	index := len(r.types)
	r.indices[t] = index
	r.types = append(r.types, t)
	r.factories = append(r.factories, func() any { return reflect.New(t).Interface() })
	r.requires = append(r.requires, nil)
	if _, taken := r.names[t.Name()]; !taken && t.Name() != "" {
		r.names[t.Name()] = t
	}
	return index
}

// GetIndex returns the index of an already registered component type.
func (r *ComponentRegistry) GetIndex(t reflect.Type) (int, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	index, ok := r.indices[t]
	if !ok {
		return -1, fmt.Errorf("%w: %v", ErrNotRegistered, t)
	}
	return index, nil
}

// MustGetIndex is GetIndex for callers that registered t beforehand.
func (r *ComponentRegistry) MustGetIndex(t reflect.Type) int {
	index, err := r.GetIndex(t)
	if err != nil {
		panic(err.Error())
	}
	return index
}

// RequiredComponents returns the indices directly required by the component
// at index, in declaration order. The result must not be modified.
func (r *ComponentRegistry) RequiredComponents(index int) []int {
	if index < 0 || index >= len(r.requires) {
		return nil
	}
	return r.requires[index]
}

// TypeOf returns the component type registered at index.
func (r *ComponentRegistry) TypeOf(index int) reflect.Type {
	return r.types[index]
}

// TypeByName looks a component type up by its Go type name.
func (r *ComponentRegistry) TypeByName(name string) (reflect.Type, bool) {
	t, ok := r.names[name]
	return t, ok
}

// Count returns the number of registered component types.
func (r *ComponentRegistry) Count() int {
	return len(r.types)
}

// newComponent returns a pointer to a zero value of the component at index.
func (r *ComponentRegistry) newComponent(index int) any {
	return r.factories[index]()
}

// componentType validates t as a component type and strips one pointer level.
// Components can be structs or primitives, but not maps, channels, functions
// or pointers to pointers.
func componentType(t reflect.Type) reflect.Type {
	if t == nil {
		panic("ecs: nil component type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func,
		reflect.Interface, reflect.UnsafePointer, reflect.Invalid:
		panic("ecs: " + t.String() + " is not a component type")
	}
	return t
}

func containsIndex(indices []int, index int) bool {
	for _, i := range indices {
		if i == index {
			return true
		}
	}
	return false
}
