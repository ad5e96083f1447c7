package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View reads a fixed combination of components of a context's members into
// a struct of component pointers.
// The type T should be a struct whose fields are pointers to component types.
// Named fields can be marked as optional using the `ecs:"optional"` struct tag;
// embedded fields are always required.
//
// A View declared as an exported field of a system is bound by the World when
// the system is added. If the system does not implement Filtered, the
// system's filter is derived from its views: required fields become AllOf and
// optional fields are declared without constraining membership.
type View[T any] struct {
	ctx         *Context
	types       []reflect.Type
	indices     []int
	optional    []bool
	fieldOffset []uintptr
}

// NewView creates a view over ctx. Every field type must be declared by the
// context's filter.
func NewView[T any](ctx *Context) *View[T] {
	v := &View[T]{}
	v.Init(ctx)
	return v
}

// Init binds the view to ctx, resolving its component indices.
// Called by the World for View fields of systems.
func (v *View[T]) Init(ctx *Context) {
	v.layout()
	v.ctx = ctx
	v.indices = make([]int, len(v.types))
	for i, t := range v.types {
		index := ctx.world.registry.GetOrCreateIndex(t)
		ctx.assertDeclared(index)
		v.indices[i] = index
	}
}

// Filters returns the filter entries implied by the view's fields.
func (v *View[T]) Filters() []FilterEntry {
	v.layout()
	var required, optional []reflect.Type
	for i, t := range v.types {
		if v.optional[i] {
			optional = append(optional, t)
		} else {
			required = append(required, t)
		}
	}

	entries := make([]FilterEntry, 0, 2)
	if len(required) > 0 {
		entries = append(entries, NewFilter(AllOf, required...))
	}
	if len(optional) > 0 {
		entries = append(entries, NewFilter(NoFilter, optional...))
	}
	return entries
}

// Context returns the context the view is bound to.
func (v *View[T]) Context() *Context { return v.ctx }

func (v *View[T]) layout() {
	if v.types != nil {
		return
	}
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("ecs: View type parameter must be a struct")
	}

	types := make([]reflect.Type, 0, structType.NumField())
	optional := make([]bool, 0, structType.NumField())
	fieldOffset := make([]uintptr, 0, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Pointer {
			panic("ecs: View struct fields must be pointer types")
		}

		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("ecs: invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		types = append(types, field.Type.Elem())
		optional = append(optional, isOptional)
		fieldOffset = append(fieldOffset, field.Offset)
	}

	v.types = types
	v.optional = optional
	v.fieldOffset = fieldOffset
}

// Fill populates ptr with n's components.
// Returns false if n is missing any required component; optional components
// are set to nil if not present.
func (v *View[T]) Fill(n *Node, ptr *T) bool {
	v.assertBound()
	structPtr := unsafe.Pointer(ptr)

	for i, index := range v.indices {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])

		component, ok := n.TryGetComponent(index)
		if !ok {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		// Components are stored as pointers, so the interface data word is
		// the component pointer itself.
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
	}
	return true
}

// Get returns a populated view struct for n, or nil if n is missing a
// required component.
func (v *View[T]) Get(n *Node) *T {
	var result T
	if !v.Fill(n, &result) {
		return nil
	}
	return &result
}

// Iter yields the context's members that have every required component,
// together with their populated view struct, in ID order.
func (v *View[T]) Iter() iter.Seq2[*Node, T] {
	v.assertBound()
	nodes := v.ctx.Nodes()

	return func(yield func(*Node, T) bool) {
		var result T
		for _, n := range nodes {
			if !v.Fill(n, &result) {
				continue
			}
			if !yield(n, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates a node under the world root holding copies of the non-nil
// components in data.
func (v *View[T]) Spawn(data T) *Node {
	v.assertBound()
	structPtr := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.types))
	for i, componentType := range v.types {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])
		componentPtr := *(*unsafe.Pointer)(fieldPtr)

		if componentPtr == nil {
			if !v.optional[i] {
				panic("ecs: required component " + componentType.String() + " is nil in View.Spawn")
			}
			continue
		}
		components = append(components, reflect.NewAt(componentType, componentPtr).Elem().Interface())
	}

	return v.ctx.world.NewBuilder().With(components...).Build()
}

func (v *View[T]) assertBound() {
	if v.ctx == nil {
		panic("ecs: View used before Init")
	}
	v.ctx.assertLive()
}

// viewBinder is implemented by *View[T] for every T.
type viewBinder interface {
	Filtered
	Init(ctx *Context)
}
