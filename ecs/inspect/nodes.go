package inspect

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/plus3/ignite/ecs"
)

// Column selects the sort key of a NodeBrowser.
type Column uint8

const (
	ColumnID Column = iota
	ColumnName
	ColumnComponents
	ColumnCount
)

// NodeInfo is one row of the node table.
type NodeInfo struct {
	ID         ecs.NodeId
	Name       string
	Enabled    bool
	Parent     ecs.NodeId
	Components []string
}

// NodeBrowser lists the world's nodes as a filtered, sorted and paged
// table. The zero value lists every node by ascending ID on one page.
type NodeBrowser struct {
	// Filter keeps nodes whose ID, name or component names contain it,
	// ignoring case.
	Filter     string
	SortBy     Column
	Descending bool
	// PageSize of zero disables paging.
	PageSize int
	Page     int
	// CellWidth truncates wide cells when positive.
	CellWidth int
}

// Rows returns every node passing the filter, in sort order.
func (nb *NodeBrowser) Rows(world *ecs.World) []NodeInfo {
	registry := world.Registry()
	filter := strings.ToLower(nb.Filter)

	rows := make([]NodeInfo, 0, world.NodeCount())
	for _, n := range world.Nodes() {
		info := NodeInfo{
			ID:      n.ID(),
			Name:    n.Name(),
			Enabled: n.IsEnabled(),
		}
		if parent := n.Parent(); parent != nil {
			info.Parent = parent.ID()
		}
		for _, index := range n.ComponentIndices() {
			info.Components = append(info.Components, componentName(registry.TypeOf(index)))
		}

		if filter != "" && !info.contains(filter) {
			continue
		}
		rows = append(rows, info)
	}

	slices.SortStableFunc(rows, func(a, b NodeInfo) int {
		var c int
		switch nb.SortBy {
		case ColumnName:
			c = cmp.Compare(a.Name, b.Name)
		case ColumnComponents:
			c = cmp.Compare(strings.Join(a.Components, ","), strings.Join(b.Components, ","))
		case ColumnCount:
			c = cmp.Compare(len(a.Components), len(b.Components))
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if nb.Descending {
			return -c
		}
		return c
	})
	return rows
}

func (info *NodeInfo) contains(filter string) bool {
	if strings.Contains(strconv.FormatUint(uint64(info.ID), 10), filter) ||
		strings.Contains(strings.ToLower(info.Name), filter) {
		return true
	}
	for _, name := range info.Components {
		if strings.Contains(strings.ToLower(name), filter) {
			return true
		}
	}
	return false
}

// Pages returns the number of pages needed for total rows.
func (nb *NodeBrowser) Pages(total int) int {
	if nb.PageSize <= 0 || total == 0 {
		return 1
	}
	return (total + nb.PageSize - 1) / nb.PageSize
}

// Write writes the current page followed by a footer line. Out of range
// pages are clamped.
func (nb *NodeBrowser) Write(w io.Writer, world *ecs.World) error {
	rows := nb.Rows(world)
	pages := nb.Pages(len(rows))
	page := min(max(nb.Page, 0), pages-1)

	visible := rows
	if nb.PageSize > 0 {
		start := page * nb.PageSize
		end := min(start+nb.PageSize, len(rows))
		visible = rows[start:end]
	}

	t := newTable(nb.CellWidth, "ID", "Name", "State", "Parent", "Components")
	for _, row := range visible {
		state := "enabled"
		if !row.Enabled {
			state = "disabled"
		}
		t.append(
			strconv.FormatUint(uint64(row.ID), 10),
			row.Name,
			state,
			strconv.FormatUint(uint64(row.Parent), 10),
			strings.Join(row.Components, ", "),
		)
	}
	if err := t.write(w); err != nil {
		return err
	}

	var err error
	if pages > 1 {
		_, err = fmt.Fprintf(w, "page %d/%d (%d nodes)\n", page+1, pages, len(rows))
	} else {
		_, err = fmt.Fprintf(w, "total: %d nodes\n", len(rows))
	}
	return err
}
