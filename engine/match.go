package engine

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Binding is the subtree captured by one placeholder. Variadic placeholders
// capture an ordered list in Nodes and leave Node nil.
type Binding struct {
	Node  *sitter.Node
	Nodes []*sitter.Node
}

// Bindings maps placeholder names to captured subtrees.
type Bindings map[string]Binding

// Node returns the single node captured by name, or nil
func (b Bindings) Node(name string) *sitter.Node {
	return b[name].Node
}

// Nodes returns the nodes captured by name. A single capture is returned as a
// one-element slice.
func (b Bindings) Nodes(name string) []*sitter.Node {
	bind, ok := b[name]
	if !ok {
		return nil
	}
	if bind.Node != nil {
		return []*sitter.Node{bind.Node}
	}
	return bind.Nodes
}

// Match binds a pattern to a concrete node. The node is a non-owning handle
// into the tree being migrated and is only valid while that tree is open.
type Match struct {
	Pattern  *Pattern
	Node     *sitter.Node
	Bindings Bindings
	Resolved string
	Tier     Tier
	Aux      any
}

// ID returns the structural identity of the matched node
func (m *Match) ID() NodeID {
	return IDOf(m.Node)
}
