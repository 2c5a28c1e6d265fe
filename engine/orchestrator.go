package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// Plan is the outcome of one pass over one compilation unit: the queued
// operations, their combined edits against the original source, and the net
// import changes.
type Plan struct {
	Operations []*Operation
	Edits      []Edit
	Imports    []ImportDelta
}

// Empty reports whether the pass found nothing to migrate
func (p *Plan) Empty() bool {
	return len(p.Operations) == 0
}

// RuleCounts returns the number of operations per rule name
func (p *Plan) RuleCounts() map[string]int {
	counts := make(map[string]int)
	for _, op := range p.Operations {
		counts[op.Rule.Name()]++
	}
	return counts
}

// Orchestrator runs the registered rules over a tree in two phases: every
// rule's find, then every operation's rewrite.
type Orchestrator struct {
	registry *Registry
	logger   *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the logger used for pass diagnostics
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an orchestrator over registry
func NewOrchestrator(registry *Registry, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry returns the rules this orchestrator runs
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Run performs one pass over t. Any contract violation aborts the pass
// before a single edit is returned.
func (o *Orchestrator) Run(t Tree) (*Plan, error) {
	claims := NewClaimSet()
	queue := NewQueue()

	for _, rule := range o.registry.Rules() {
		ops, err := rule.Find(t, claims)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", rule.Name(), err)
		}
		for _, op := range ops {
			if !claims.Has(op.Node()) {
				return nil, fmt.Errorf("find %s: %w: %s at byte %d", rule.Name(), ErrUnclaimed, op.Node().Type(), op.Start)
			}
			op.Rule = rule
			if err := queue.Push(op); err != nil {
				return nil, fmt.Errorf("find %s: %w", rule.Name(), err)
			}
		}
		if len(ops) > 0 {
			o.logger.Debug("rule matched", "rule", rule.Name(), "operations", len(ops))
		}
	}

	plan := &Plan{Operations: queue.Operations()}
	if queue.Len() == 0 {
		return plan, nil
	}

	var consumed []span
	for _, op := range queue.Operations() {
		consumed = append(consumed, op.consumedSpans()...)
	}

	coord := NewCoordinator(t.Imports())
	for _, op := range queue.Operations() {
		c := newChange(op, t.Source(), consumed, coord.Requester(op.Seq))
		if err := op.Rule.Rewrite(op, c); err != nil {
			return nil, fmt.Errorf("rewrite %s at byte %d: %w", op.Rule.Name(), op.Start, err)
		}
		op.edits = c.Edits()
		plan.Edits = append(plan.Edits, op.edits...)
	}

	SortEdits(plan.Edits)
	if err := CheckOverlaps(plan.Edits); err != nil {
		return nil, err
	}
	plan.Imports = coord.Resolve()

	o.logger.Debug("pass planned",
		"operations", len(plan.Operations),
		"edits", len(plan.Edits),
		"imports", len(plan.Imports))
	return plan, nil
}

// SortEdits orders edits by start offset; at equal offsets insertions come
// first, then edits keep their owner order.
func SortEdits(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i], edits[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Insertion() != b.Insertion() {
			return a.Insertion()
		}
		return a.Owner < b.Owner
	})
}

// CheckOverlaps returns ErrOverlappingEdits for the first pair of sorted
// edits that touch the same bytes.
func CheckOverlaps(edits []Edit) error {
	for i := 1; i < len(edits); i++ {
		for j := 0; j < i; j++ {
			if edits[i].Overlaps(edits[j]) {
				return fmt.Errorf("%w: [%d,%d) from operation %d and [%d,%d) from operation %d",
					ErrOverlappingEdits,
					edits[j].Start, edits[j].End, edits[j].Owner,
					edits[i].Start, edits[i].End, edits[i].Owner)
			}
		}
	}
	return nil
}
