package ecs

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Query is a one-shot closure over a context's current members. Execute
// never panics: a failure of the closure is recorded and reported as false.
type Query struct {
	ctx    *Context
	action func(ctx *Context)
	logger *zap.Logger
	err    error
}

// Q wraps action as a Query over the nodes having every one of types. The
// types are declared read-write, so action may use Each and Component on
// them.
//
// Example usage:
//
//	ok := world.Q(func(ctx *ecs.Context) {
//		for node, pos := range ecs.Each[Position](ctx) {
//			fmt.Println(node.Name(), pos.X)
//		}
//	}, reflect.TypeFor[Position]()).Execute()
func (w *World) Q(action func(ctx *Context), types ...reflect.Type) *Query {
	return w.NewQuery(action, NewFilter(AllOf, types...))
}

// NewQuery wraps action as a Query over the context for entries.
func (w *World) NewQuery(action func(ctx *Context), entries ...FilterEntry) *Query {
	return &Query{
		ctx:    w.Context(entries...),
		action: action,
		logger: w.logger,
	}
}

// Q2 wraps action as a Query run once per node having both a T1 and a T2
// component.
func Q2[T1, T2 any](w *World, action func(n *Node, a *T1, b *T2)) *Query {
	return w.Q(func(ctx *Context) {
		for n, a := range Each[T1](ctx) {
			b, _ := Component[T2](ctx, n)
			action(n, a, b)
		}
	}, reflect.TypeFor[T1](), reflect.TypeFor[T2]())
}

// Q3 is Q2 for three component types.
func Q3[T1, T2, T3 any](w *World, action func(n *Node, a *T1, b *T2, c *T3)) *Query {
	return w.Q(func(ctx *Context) {
		for n, a := range Each[T1](ctx) {
			b, _ := Component[T2](ctx, n)
			c, _ := Component[T3](ctx, n)
			action(n, a, b, c)
		}
	}, reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3]())
}

// Context returns the context the query runs over.
func (q *Query) Context() *Context { return q.ctx }

// Execute runs the closure once. It reports false, and records the failure
// for Err, if the closure panics.
func (q *Query) Execute() (ok bool) {
	q.err = nil
	defer func() {
		if r := recover(); r != nil {
			if err, isErr := r.(error); isErr {
				q.err = fmt.Errorf("ecs: query failed: %w", err)
			} else {
				q.err = fmt.Errorf("ecs: query failed: %v", r)
			}
			q.logger.Warn("query failed",
				zap.Uint64("context_id", uint64(q.ctx.id)),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	q.action(q.ctx)
	return true
}

// Err returns the failure recorded by the last Execute, if any.
func (q *Query) Err() error { return q.err }
