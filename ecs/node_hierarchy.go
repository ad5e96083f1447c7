package ecs

import "slices"

// Parent returns the node's parent, or nil for the world root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children ordered by ID.
func (n *Node) Children() []*Node {
	children := make([]*Node, 0, n.children.Len())
	n.children.ForEach(func(_ NodeId, child *Node) bool {
		children = append(children, child)
		return true
	})
	slices.SortFunc(children, func(a, b *Node) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return children
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	return n.children.Len()
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// AddChild makes child a direct child of n, detaching it from its previous
// parent first.
func (n *Node) AddChild(child *Node) *Node {
	n.assertAlive()
	child.assertAlive()
	if child == n || child.IsAncestorOf(n) {
		panic("ecs: adding node as a child would create a cycle")
	}
	if child.parent == n {
		return n
	}

	if old := child.parent; old != nil {
		old.children.Del(child.id)
		old.childRemoved.Emit(func(fn ChildRemovedFunc) { fn(old, child, false) })
	}

	n.children.Put(child.id, child)
	child.parent = n
	n.childAdded.Emit(func(fn ChildFunc) { fn(n, child) })
	child.parentChanged.Emit(func(fn ParentChangedFunc) { fn(child, n) })
	return n
}

// AddChildren adds every node in children as a child of n.
func (n *Node) AddChildren(children ...*Node) *Node {
	for _, child := range children {
		n.AddChild(child)
	}
	return n
}

// RemoveChild detaches child from n and re-attaches it to the world root.
// It reports false if child is not a child of n, or if n is the root.
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil || child.parent != n {
		return false
	}
	root := n.worldRoot()
	if root == nil || root == n {
		return false
	}
	root.AddChild(child)
	return true
}

// SetParent moves the node under parent, or under the world root if parent
// is nil.
func (n *Node) SetParent(parent *Node) *Node {
	if parent == nil {
		parent = n.worldRoot()
	}
	if parent != nil {
		parent.AddChild(n)
	}
	return n
}

func (n *Node) worldRoot() *Node {
	if n.world == nil {
		return nil
	}
	return n.world.root
}
