package ecs

import "reflect"

// Commands buffers structural changes made by systems. The World flushes the
// buffer at the end of each Update pass, before pending destruction is
// finalized, so systems never see these changes mid-pass.
type Commands struct {
	world    *World
	spawns   []spawnCommand
	destroys []*Node
	adds     []addComponentCommand
	removes  []removeComponentCommand
	defers   []func()
}

func newCommands(w *World) *Commands {
	return &Commands{world: w}
}

type spawnCommand struct {
	parent     *Node
	components []any
}

type addComponentCommand struct {
	node      *Node
	component any
}

type removeComponentCommand struct {
	node     *Node
	compType reflect.Type
}

// Defer queues a function to run after the other queued commands.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues the creation of a node under the world root.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// SpawnChild queues the creation of a node under parent.
func (c *Commands) SpawnChild(parent *Node, components ...any) {
	c.spawns = append(c.spawns, spawnCommand{parent: parent, components: components})
}

// Destroy queues the destruction of a node.
func (c *Commands) Destroy(node *Node) {
	c.destroys = append(c.destroys, node)
}

// AddComponent queues adding or replacing a component on a node.
func (c *Commands) AddComponent(node *Node, component any) {
	c.adds = append(c.adds, addComponentCommand{
		node:      node,
		component: component,
	})
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(node *Node, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{
		node:     node,
		compType: compType,
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies the queued commands: destroys, then removals, additions,
// spawns and deferred functions. Changes to nodes being destroyed are
// dropped. Commands queued while flushing are applied in the same call.
func (c *Commands) Flush() {
	for c.Len() > 0 {
		spawns, destroys, adds, removes, defers := c.spawns, c.destroys, c.adds, c.removes, c.defers
		c.spawns, c.destroys, c.adds, c.removes, c.defers = nil, nil, nil, nil, nil

		for _, node := range destroys {
			node.Destroy()
		}

		for _, cmd := range removes {
			if cmd.node.pendingDestroy {
				continue
			}
			index, err := c.world.registry.GetIndex(cmd.compType)
			if err != nil {
				continue
			}
			cmd.node.RemoveComponent(index)
		}

		for _, cmd := range adds {
			if !cmd.node.pendingDestroy {
				cmd.node.AddOrReplaceComponent(cmd.component)
			}
		}

		for _, cmd := range spawns {
			if cmd.parent != nil && cmd.parent.finalized {
				continue
			}
			c.world.NewBuilder().With(cmd.components...).ChildOf(cmd.parent).Build()
		}

		for _, fn := range defers {
			fn()
		}
	}
}
