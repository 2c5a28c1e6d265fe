package engine

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Operation is a deferred rewrite of one claimed node. It is created during
// find and materialized during rewrite.
type Operation struct {
	Seq   int
	Rule  Rule
	Match *Match
	Start uint32
	End   uint32

	consumes []*sitter.Node
	refs     map[string][]*sitter.Node
	edits    []Edit
}

// NewOperation wraps a match produced by rule r
func NewOperation(r Rule, m *Match) *Operation {
	return &Operation{
		Seq:   -1,
		Rule:  r,
		Match: m,
		Start: m.Node.StartByte(),
		End:   m.Node.EndByte(),
	}
}

// Node returns the claimed node
func (op *Operation) Node() *sitter.Node {
	return op.Match.Node
}

// ID returns the claimed node's identity
func (op *Operation) ID() NodeID {
	return op.Match.ID()
}

// Consume declares nodes whose references disappear once the operation is
// applied. Operations that never call Consume consume their own node.
func (op *Operation) Consume(nodes ...*sitter.Node) {
	for _, n := range nodes {
		if n != nil {
			op.consumes = append(op.consumes, n)
		}
	}
	if op.consumes == nil {
		op.consumes = []*sitter.Node{}
	}
}

// Track records the references to symbol seen at find time so the rewrite
// can decide whether removing its import is safe.
func (op *Operation) Track(symbol string, refs []*sitter.Node) {
	if op.refs == nil {
		op.refs = make(map[string][]*sitter.Node)
	}
	op.refs[symbol] = refs
}

// Edits returns the edits produced by the rewrite
func (op *Operation) Edits() []Edit {
	return op.edits
}

func (op *Operation) consumedSpans() []span {
	if op.consumes == nil {
		return []span{{op.Start, op.End}}
	}
	spans := make([]span, 0, len(op.consumes))
	for _, n := range op.consumes {
		spans = append(spans, span{n.StartByte(), n.EndByte()})
	}
	return spans
}

// Queue is the ordered set of operations of one pass. No two operations may
// target the same node.
type Queue struct {
	ops   []*Operation
	index map[NodeID]int
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{index: make(map[NodeID]int)}
}

// Push appends op and assigns its sequence number
func (q *Queue) Push(op *Operation) error {
	id := op.ID()
	if prev, dup := q.index[id]; dup {
		return fmt.Errorf("%w: %s [%d,%d) by %s and %s", ErrDuplicateClaim,
			id.Type, id.Start, id.End, q.ops[prev].Rule.Name(), op.Rule.Name())
	}
	op.Seq = len(q.ops)
	q.index[id] = op.Seq
	q.ops = append(q.ops, op)
	return nil
}

// Len returns the number of queued operations
func (q *Queue) Len() int {
	return len(q.ops)
}

// Operations returns the queued operations in enqueue order
func (q *Queue) Operations() []*Operation {
	return q.ops
}
