package engine

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// NodeID identifies a node structurally within one tree.
type NodeID struct {
	Start uint32
	End   uint32
	Type  string
}

// IDOf returns the identity of n
func IDOf(n *sitter.Node) NodeID {
	return NodeID{Start: n.StartByte(), End: n.EndByte(), Type: n.Type()}
}

// contains reports whether other lies within id's span.
func (id NodeID) contains(other NodeID) bool {
	return id.Start <= other.Start && other.End <= id.End
}

// noCopy makes go vet report copies of the enclosing struct.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// ClaimSet holds the nodes already assigned to an operation during one pass.
// It is created by the orchestrator and shared by pointer with every rule;
// a copy would no longer guarantee one rewrite per node.
type ClaimSet struct {
	_     noCopy
	ids   map[NodeID]struct{}
	order []NodeID
}

// NewClaimSet creates an empty claim set
func NewClaimSet() *ClaimSet {
	return &ClaimSet{ids: make(map[NodeID]struct{})}
}

// Claim records n and reports whether it was free. A node is claimed at most once.
func (c *ClaimSet) Claim(n *sitter.Node) bool {
	id := IDOf(n)
	if _, taken := c.ids[id]; taken {
		return false
	}
	c.ids[id] = struct{}{}
	c.order = append(c.order, id)
	return true
}

// Has reports whether n is claimed
func (c *ClaimSet) Has(n *sitter.Node) bool {
	if c == nil || n == nil {
		return false
	}
	_, ok := c.ids[IDOf(n)]
	return ok
}

// Len returns the number of claimed nodes
func (c *ClaimSet) Len() int {
	return len(c.order)
}

// IDs returns claimed identities in claim order
func (c *ClaimSet) IDs() []NodeID {
	out := make([]NodeID, len(c.order))
	copy(out, c.order)
	return out
}
