package engine

import (
	"fmt"
	"iter"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tree is the query facility over one parsed compilation unit.
type Tree interface {
	Source() []byte
	Root() *sitter.Node
	Text(n *sitter.Node) string

	// Query yields nodes of p's kind whose symbol matches p, in document
	// order, skipping nodes already in claims.
	Query(p *Pattern, claims *ClaimSet) iter.Seq[*sitter.Node]
	// Match binds p's placeholders against n. A shape mismatch returns false.
	Match(p *Pattern, n *sitter.Node) (*Match, bool)

	// Resolve maps a written name to a qualified symbol, falling back to
	// syntactic heuristics when the unit does not bind it.
	Resolve(name string) (string, Tier)
	// Matches reports whether a written name refers to symbol.
	Matches(name, symbol string) (bool, Tier)
	// Subtype reports whether the class declared by decl extends or
	// implements symbol, and whether it does so directly.
	Subtype(decl *sitter.Node, symbol string) (direct bool, ok bool)
	// Superclass returns the declaration of decl's superclass when the
	// unit declares it, or nil.
	Superclass(decl *sitter.Node) *sitter.Node
	// References returns every construct in the unit that refers to symbol.
	References(symbol string) []*sitter.Node
	// Imports returns the import declarations the unit starts with.
	Imports() []ImportKey
}

// Rule is one independently registered migration.
type Rule interface {
	Name() string
	Priority() int
	// Find scans t, claims every accepted node in claims and returns one
	// operation per claimed node.
	Find(t Tree, claims *ClaimSet) ([]*Operation, error)
	// Rewrite materializes op from its captured match only.
	Rewrite(op *Operation, c *Change) error
	// Preview returns a canonical before/after pair for documentation.
	Preview() (before, after string)
}

// ImportTable is the fixed import delta of a rule. Removals are dropped when
// a reference to the symbol survives the pass.
type ImportTable struct {
	Add          []string
	Remove       []string
	AddStatic    [][2]string
	RemoveStatic [][2]string
}

// PatternRule implements the find contract once for every rule that is a
// list of patterns plus an acceptance predicate and a rewrite function.
type PatternRule struct {
	ID       string
	Rank     int
	Patterns []*Pattern

	// Accept validates a bound match and may attach Aux. Nil accepts all.
	Accept func(t Tree, m *Match) bool
	// Consumes lists the nodes whose references the rewrite eliminates.
	// Nil means the matched node itself.
	Consumes func(m *Match) []*sitter.Node
	// Apply emits the edits of one operation.
	Apply func(m *Match, c *Change) error

	Imports ImportTable
	// Tracks names symbols, beyond Imports.Remove, whose references are
	// recorded for Change.RemoveImportUnlessReferenced.
	Tracks []string

	Before string
	After  string
}

// Name returns the rule identifier
func (r *PatternRule) Name() string { return r.ID }

// Priority returns the rule rank; higher runs first
func (r *PatternRule) Priority() int { return r.Rank }

// Preview returns the documentation pair
func (r *PatternRule) Preview() (string, string) { return r.Before, r.After }

// Find queries every pattern in order, binds, accepts and claims.
func (r *PatternRule) Find(t Tree, claims *ClaimSet) ([]*Operation, error) {
	var ops []*Operation
	for _, p := range r.Patterns {
		for n := range t.Query(p, claims) {
			m, ok := t.Match(p, n)
			if !ok {
				continue
			}
			if r.Accept != nil && !r.Accept(t, m) {
				continue
			}
			if !claims.Claim(n) {
				continue
			}
			op := NewOperation(r, m)
			if r.Consumes != nil {
				op.Consume(r.Consumes(m)...)
			}
			ops = append(ops, op)
		}
	}
	if len(ops) == 0 {
		return nil, nil
	}

	tracked := append(append([]string(nil), r.Imports.Remove...), r.Tracks...)
	for _, sym := range tracked {
		refs := t.References(sym)
		for _, op := range ops {
			op.Track(sym, refs)
		}
	}
	return ops, nil
}

// Rewrite applies the rule's function then its import table.
func (r *PatternRule) Rewrite(op *Operation, c *Change) error {
	if r.Apply != nil {
		if err := r.Apply(op.Match, c); err != nil {
			return fmt.Errorf("%s: %w", r.ID, err)
		}
	}
	for _, sym := range r.Imports.Remove {
		c.RemoveImportUnlessReferenced(sym)
	}
	for _, pair := range r.Imports.RemoveStatic {
		c.RemoveStaticImport(pair[0], pair[1])
	}
	for _, sym := range r.Imports.Add {
		c.AddImport(sym)
	}
	for _, pair := range r.Imports.AddStatic {
		c.AddStaticImport(pair[0], pair[1])
	}
	return nil
}

// ranked overrides the priority of a rule.
type ranked struct {
	Rule
	rank int
}

func (r ranked) Priority() int { return r.rank }

// WithPriority returns rule with its priority replaced
func WithPriority(rule Rule, priority int) Rule {
	if rr, ok := rule.(ranked); ok {
		rule = rr.Rule
	}
	return ranked{Rule: rule, rank: priority}
}

// Registry holds rules in precedence order. Rules are ordered by priority,
// highest first; rules of equal priority keep registration order, so the
// first registered rule claims a contested node. The order is part of the
// observable contract.
type Registry struct {
	rules []Rule
	names map[string]int
}

// NewRegistry registers rules in the given order, panicking on duplicate names
func NewRegistry(rules ...Rule) *Registry {
	reg := &Registry{names: make(map[string]int)}
	for _, r := range rules {
		if err := reg.Register(r); err != nil {
			panic(err)
		}
	}
	return reg
}

// Register appends rule after all rules registered so far
func (reg *Registry) Register(rule Rule) error {
	if _, dup := reg.names[rule.Name()]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.Name())
	}
	reg.names[rule.Name()] = len(reg.rules)
	reg.rules = append(reg.rules, rule)
	return nil
}

// Rules returns the rules in precedence order
func (reg *Registry) Rules() []Rule {
	out := make([]Rule, len(reg.rules))
	copy(out, reg.rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

// Get looks a rule up by name
func (reg *Registry) Get(name string) (Rule, bool) {
	i, ok := reg.names[name]
	if !ok {
		return nil, false
	}
	return reg.rules[i], true
}

// Len returns the number of registered rules
func (reg *Registry) Len() int {
	return len(reg.rules)
}

// Filter returns a registry keeping registration order, without the
// disabled rules and with priorities overridden.
func (reg *Registry) Filter(disabled []string, priorities map[string]int) (*Registry, error) {
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		if _, ok := reg.names[name]; !ok {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
		skip[name] = true
	}
	for name := range priorities {
		if _, ok := reg.names[name]; !ok {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
	}

	out := &Registry{names: make(map[string]int)}
	for _, r := range reg.rules {
		if skip[r.Name()] {
			continue
		}
		if p, ok := priorities[r.Name()]; ok {
			r = WithPriority(r, p)
		}
		if err := out.Register(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}
