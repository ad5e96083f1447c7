package ecs

import "math"

// NodeId encodes a 32-bit sequence number in the lower bits and a 16-bit
// generation in bits 32-47. The zero value is never assigned.
type NodeId uint64

// NewNodeId creates a NodeId from a generation and a sequence number.
func NewNodeId(generation uint16, sequence uint32) NodeId {
	return NodeId(uint64(generation)<<32 | uint64(sequence))
}

// Generation extracts the generation from the node ID
func (id NodeId) Generation() uint16 {
	return uint16(id >> 32)
}

// Sequence extracts the sequence number from the node ID
func (id NodeId) Sequence() uint32 {
	return uint32(id & 0xFFFFFFFF)
}

// idGenerator hands out monotonically increasing node IDs for one World.
// When the sequence overflows the generation is bumped; once the generation
// wraps too, IDs repeat. That collision is a known limitation.
type idGenerator struct {
	sequence   uint32
	generation uint16
}

func (g *idGenerator) next() NodeId {
	if g.sequence == math.MaxUint32 {
		g.sequence = 0
		g.generation++
	}
	g.sequence++
	return NewNodeId(g.generation, g.sequence)
}
