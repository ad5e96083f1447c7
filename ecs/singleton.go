package ecs

import "reflect"

// Singleton gives access to a world-wide component instance. Singletons are
// stored on the world root, which is never a member of any context, so they
// do not show up in queries.
//
// A Singleton declared as an exported field of a system is bound by the
// World when the system is added.
type Singleton[T any] struct {
	world *World
	index int
}

// NewSingleton returns an accessor for the T singleton of w. If the
// singleton does not exist yet it is created from initializer, or as a zero
// value.
func NewSingleton[T any](w *World, initializer ...T) *Singleton[T] {
	s := &Singleton[T]{}
	s.Init(w)
	if !s.Exists() {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		w.root.AddComponent(&value)
	}
	return s
}

// Init binds the accessor to w without creating the singleton.
func (s *Singleton[T]) Init(w *World) {
	s.world = w
	s.index = w.registry.GetOrCreateIndex(reflect.TypeFor[T]())
}

// Get returns the singleton, or nil if it has not been created.
func (s *Singleton[T]) Get() *T {
	if s.world == nil {
		return nil
	}
	component, ok := s.world.root.TryGetComponent(s.index)
	if !ok {
		return nil
	}
	return component.(*T)
}

// Exists reports whether the singleton has been created.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}

// singletonBinder is implemented by *Singleton[T] for every T.
type singletonBinder interface {
	Init(w *World)
}
