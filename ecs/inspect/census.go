package inspect

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/plus3/ignite/ecs"
)

const censusBarWidth = 20

// ComponentCensus counts the nodes carrying one component type.
type ComponentCensus struct {
	Name    string
	Index   int
	Nodes   int
	Enabled int
}

// Census counts every registered component type across the world's nodes,
// the root excluded. Results are ordered by descending node count, then by
// name.
func Census(world *ecs.World) []ComponentCensus {
	registry := world.Registry()
	census := make([]ComponentCensus, registry.Count())
	for i := range census {
		census[i] = ComponentCensus{Name: componentName(registry.TypeOf(i)), Index: i}
	}

	for _, n := range world.Nodes() {
		for _, index := range n.ComponentIndices() {
			census[index].Nodes++
			if n.IsEnabled() {
				census[index].Enabled++
			}
		}
	}

	slices.SortFunc(census, func(a, b ComponentCensus) int {
		if c := cmp.Compare(b.Nodes, a.Nodes); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return census
}

// WriteCensus writes the census as a table with a bar scaled to the most
// common component.
func WriteCensus(w io.Writer, world *ecs.World, cellWidth int) error {
	census := Census(world)
	most := 0
	if len(census) > 0 {
		most = census[0].Nodes
	}

	t := newTable(cellWidth, "Component", "Index", "Nodes", "Enabled", "")
	for _, c := range census {
		bar := ""
		if most > 0 {
			bar = strings.Repeat("#", c.Nodes*censusBarWidth/most)
		}
		t.append(c.Name, strconv.Itoa(c.Index), strconv.Itoa(c.Nodes), strconv.Itoa(c.Enabled), bar)
	}
	return t.write(w)
}
