package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/base"
	"github.com/oxhq/junify/providers/java"
)

const lifecycleSource = `package p;

import org.junit.Before;
import org.junit.Test;

class T {
    @Before
    void a() {}

    @Before
    void b() {}

    @Test
    void c() {}
}
`

var beforePattern = engine.MustCompile(engine.KindMarker, "org.junit.Before", "@Before")

func renameBefore(id, to string) *engine.PatternRule {
	return &engine.PatternRule{
		ID:       id,
		Patterns: []*engine.Pattern{beforePattern},
		Apply: func(m *engine.Match, c *engine.Change) error {
			engine.RenameAnnotation(c, m, to, "")
			return nil
		},
		Imports: engine.ImportTable{
			Add:    []string{"org.junit.jupiter.api." + to},
			Remove: []string{"org.junit.Before"},
		},
	}
}

// rogueRule breaks the find contract on purpose
type rogueRule struct {
	claim      bool
	rewriteErr error
}

func (r *rogueRule) Name() string                                    { return "rogue" }
func (r *rogueRule) Priority() int                                   { return 0 }
func (r *rogueRule) Preview() (string, string)                       { return "", "" }
func (r *rogueRule) Rewrite(*engine.Operation, *engine.Change) error { return r.rewriteErr }

func (r *rogueRule) Find(t engine.Tree, claims *engine.ClaimSet) ([]*engine.Operation, error) {
	var ops []*engine.Operation
	for n := range t.Query(beforePattern, nil) {
		m, ok := t.Match(beforePattern, n)
		if !ok {
			continue
		}
		if r.claim && !claims.Claim(n) {
			continue
		}
		ops = append(ops, engine.NewOperation(r, m))
	}
	return ops, nil
}

func parse(t *testing.T, src string) *java.Tree {
	t.Helper()
	tree, err := java.ParseSource(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func render(t *testing.T, tree *java.Tree, plan *engine.Plan) string {
	t.Helper()
	edits := append(plan.Edits, java.ImportEdits(tree, plan.Imports)...)
	out, err := base.ApplyEdits(tree.Source(), edits)
	require.NoError(t, err)
	return string(out)
}

func TestRunFirstRegisteredRuleClaims(t *testing.T) {
	tree := parse(t, lifecycleSource)
	reg := engine.NewRegistry(renameBefore("each", "BeforeEach"), renameBefore("all", "BeforeAll"))

	plan, err := engine.NewOrchestrator(reg).Run(tree)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"each": 2}, plan.RuleCounts())
	for i, op := range plan.Operations {
		assert.Equal(t, i, op.Seq)
		assert.Equal(t, "@BeforeEach", op.Edits()[0].Fragment.Render(tree.Source()))
	}

	var deltas []string
	for _, d := range plan.Imports {
		deltas = append(deltas, d.String())
	}
	assert.Equal(t, []string{"+org.junit.jupiter.api.BeforeEach", "-org.junit.Before"}, deltas)
}

func TestRunPriorityOverridesRegistrationOrder(t *testing.T) {
	tree := parse(t, lifecycleSource)
	all := renameBefore("all", "BeforeAll")
	all.Rank = 10
	reg := engine.NewRegistry(renameBefore("each", "BeforeEach"), all)

	plan, err := engine.NewOrchestrator(reg).Run(tree)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"all": 2}, plan.RuleCounts())
}

func TestRunMaterializes(t *testing.T) {
	tree := parse(t, lifecycleSource)
	plan, err := engine.NewOrchestrator(engine.NewRegistry(renameBefore("before", "BeforeEach"))).Run(tree)
	require.NoError(t, err)

	out := render(t, tree, plan)
	assert.Contains(t, out, "import org.junit.jupiter.api.BeforeEach;")
	assert.NotContains(t, out, "import org.junit.Before;")
	assert.Contains(t, out, "import org.junit.Test;")
	assert.Contains(t, out, "    @BeforeEach\n    void a() {}")
	assert.Contains(t, out, "    @BeforeEach\n    void b() {}")

	// a second pass over the output finds nothing
	again := parse(t, out)
	plan, err = engine.NewOrchestrator(engine.NewRegistry(renameBefore("before", "BeforeEach"))).Run(again)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Edits)
}

func TestRunEmpty(t *testing.T) {
	tree := parse(t, "class Plain {}\n")
	plan, err := engine.NewOrchestrator(engine.NewRegistry(renameBefore("before", "BeforeEach"))).Run(tree)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Imports)
}

func TestRunContractViolations(t *testing.T) {
	tree := parse(t, lifecycleSource)

	_, err := engine.NewOrchestrator(engine.NewRegistry(&rogueRule{})).Run(tree)
	assert.ErrorIs(t, err, engine.ErrUnclaimed)

	reg := engine.NewRegistry(renameBefore("before", "BeforeEach"), &rogueRule{})
	_, err = engine.NewOrchestrator(reg).Run(tree)
	assert.ErrorIs(t, err, engine.ErrDuplicateClaim)

	boom := errors.New("boom")
	_, err = engine.NewOrchestrator(engine.NewRegistry(&rogueRule{claim: true, rewriteErr: boom})).Run(tree)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry(t *testing.T) {
	reg := engine.NewRegistry(renameBefore("a", "BeforeEach"), renameBefore("b", "BeforeAll"))
	assert.Equal(t, 2, reg.Len())

	err := reg.Register(renameBefore("a", "BeforeEach"))
	assert.ErrorIs(t, err, engine.ErrDuplicateRule)
	assert.Panics(t, func() { engine.NewRegistry(renameBefore("x", "A"), renameBefore("x", "B")) })

	r, ok := reg.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", r.Name())
	_, ok = reg.Get("c")
	assert.False(t, ok)
}

func TestRegistryFilter(t *testing.T) {
	reg := engine.NewRegistry(
		renameBefore("a", "BeforeEach"),
		renameBefore("b", "BeforeAll"),
		renameBefore("c", "AfterAll"),
	)

	filtered, err := reg.Filter([]string{"a"}, map[string]int{"c": 5})
	require.NoError(t, err)
	var names []string
	for _, r := range filtered.Rules() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"c", "b"}, names)
	c, _ := filtered.Get("c")
	assert.Equal(t, 5, c.Priority())

	// the source registry is unchanged
	assert.Equal(t, 3, reg.Len())
	c, _ = reg.Get("c")
	assert.Equal(t, 0, c.Priority())

	_, err = reg.Filter([]string{"missing"}, nil)
	assert.Error(t, err)
	_, err = reg.Filter(nil, map[string]int{"missing": 1})
	assert.Error(t, err)
}

func TestWithPriority(t *testing.T) {
	r := engine.WithPriority(engine.WithPriority(renameBefore("a", "BeforeEach"), 3), 7)
	assert.Equal(t, 7, r.Priority())
	assert.Equal(t, "a", r.Name())
}
