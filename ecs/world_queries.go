package ecs

import (
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// Contexts returns the number of live query contexts.
func (w *World) Contexts() int {
	return len(w.contextList)
}

// ContextList returns the live query contexts in creation order. The slice
// must not be modified.
func (w *World) ContextList() []*Context {
	return w.contextList
}

// Context returns the shared context for a filter, creating and back-filling
// it if needed. Contexts obtained this way are kept for the lifetime of the
// world.
func (w *World) Context(entries ...FilterEntry) *Context {
	return w.getOrCreateContext(entries, true)
}

// NodesWith returns the enabled nodes having every one of types, ordered by
// ID. The slice is a snapshot and must not be modified.
func (w *World) NodesWith(types ...reflect.Type) []*Node {
	return w.Context(NewFilter(AllOf, types...)).Nodes()
}

// NodesWithFilter is NodesWith for an arbitrary filter kind.
func (w *World) NodesWithFilter(filter AccessFilter, types ...reflect.Type) []*Node {
	return w.Context(NewFilter(filter, types...)).Nodes()
}

// getOrCreateContext resolves entries to a context, reusing one with the
// same structure. Access declarations of every requester are merged.
// Ad-hoc contexts are pinned and never disposed by system removal.
func (w *World) getOrCreateContext(entries []FilterEntry, adHoc bool) *Context {
	filter := resolveFilter(w.registry, entries)
	id := ContextId(filter.hash())

	// Filters whose hashes collide share a bucket and are told apart by
	// their targets.
	for _, ctx := range w.contexts[id] {
		if ctx.filter.sameTargets(&filter) {
			ctx.filter.mergeAccess(filter)
			ctx.adHoc = ctx.adHoc || adHoc
			return ctx
		}
	}

	ctx := newContext(w, id, filter)
	ctx.adHoc = adHoc
	w.contexts[id] = append(w.contexts[id], ctx)
	w.contextList = append(w.contextList, ctx)
	w.logger.Debug("context created",
		zap.Uint64("context_id", uint64(id)),
		zap.Bool("ad_hoc", adHoc),
		zap.Ints("any_of", filter.anyOf),
		zap.Ints("all_of", filter.allOf),
		zap.Ints("none_of", filter.noneOf),
	)

	if !ctx.IsNoFilter() {
		for _, n := range w.Nodes() {
			ctx.TryRegisterNode(n)
		}
	}
	return ctx
}

// releaseContext drops a system's reference and disposes the context once
// no system uses it, unless it is pinned.
func (w *World) releaseContext(ctx *Context) {
	ctx.refs--
	if ctx.refs > 0 || ctx.adHoc {
		return
	}
	isCtx := func(other *Context) bool { return other == ctx }
	w.contexts[ctx.id] = slices.DeleteFunc(w.contexts[ctx.id], isCtx)
	if len(w.contexts[ctx.id]) == 0 {
		delete(w.contexts, ctx.id)
	}
	w.contextList = slices.DeleteFunc(slices.Clone(w.contextList), isCtx)
	ctx.Dispose()
	w.logger.Debug("context disposed", zap.Uint64("context_id", uint64(ctx.id)))
}
