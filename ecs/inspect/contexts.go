package inspect

import (
	"fmt"
	"io"
	"strconv"

	"github.com/plus3/ignite/ecs"
)

// ContextInfo summarizes a live query context.
type ContextInfo struct {
	ID      ecs.ContextId
	Filter  string
	Members int
	Systems int
	Pinned  bool
}

// Contexts returns the world's live contexts in creation order.
func Contexts(world *ecs.World) []ContextInfo {
	list := world.ContextList()
	infos := make([]ContextInfo, 0, len(list))
	for _, ctx := range list {
		infos = append(infos, ContextInfo{
			ID:      ctx.ID(),
			Filter:  ctx.String(),
			Members: ctx.Count(),
			Systems: ctx.Systems(),
			Pinned:  ctx.IsPinned(),
		})
	}
	return infos
}

// WriteContexts writes a table of the world's live contexts.
func WriteContexts(w io.Writer, world *ecs.World, cellWidth int) error {
	t := newTable(cellWidth, "Context", "Members", "Systems", "Pinned", "Filter")
	for _, info := range Contexts(world) {
		t.append(
			fmt.Sprintf("%016x", uint64(info.ID)),
			strconv.Itoa(info.Members),
			strconv.Itoa(info.Systems),
			strconv.FormatBool(info.Pinned),
			info.Filter,
		)
	}
	return t.write(w)
}

// Match returns the enabled nodes, not pending destruction, that carry every
// named component. Unlike World.NodesWith it scans the world instead of
// creating a context, so probing leaves no trace.
func Match(world *ecs.World, names ...string) ([]*ecs.Node, error) {
	registry := world.Registry()
	indices := make([]int, 0, len(names))
	for _, name := range names {
		t, ok := registry.TypeByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoComponent, name)
		}
		index, err := registry.GetIndex(t)
		if err != nil {
			return nil, err
		}
		indices = append(indices, index)
	}

	var matched []*ecs.Node
Nodes:
	for _, n := range world.Nodes() {
		if !n.IsEnabled() || n.IsPendingDestroy() {
			continue
		}
		for _, index := range indices {
			if !n.HasComponent(index) {
				continue Nodes
			}
		}
		matched = append(matched, n)
	}
	return matched, nil
}
