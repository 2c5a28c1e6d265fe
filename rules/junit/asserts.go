package junit

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/java"
)

// Message position of the JUnit 4 assertion families. JUnit 4 takes the
// failure message first, Jupiter takes it last.
var (
	oneParamAsserts = []string{"assertTrue", "assertFalse", "assertNull", "assertNotNull"}
	twoParamAsserts = []string{"assertEquals", "assertNotEquals", "assertArrayEquals", "assertSame", "assertNotSame", "assertThrows"}
	noParamAsserts  = []string{"fail"}
	oneParamAssumes = []string{"assumeTrue", "assumeFalse"}
)

// callPlan is the rewrite of one assertion call
type callPlan struct {
	method  string
	target  string // class now owning the method
	order   []int  // argument permutation, nil to keep
	static  bool   // called through a static import
	single  bool   // the static import names the method itself
	qualify bool   // the target's simple name is bound to another type
}

// messageOrder returns the permutation moving a leading String message to
// the end, or nil when the call carries no message.
func messageOrder(t engine.Tree, args []*sitter.Node, params int) []int {
	if len(args) < params+1 || len(args) > params+2 || !java.IsStringExpr(t, args[0]) {
		return nil
	}
	order := make([]int, 0, len(args))
	for i := 1; i < len(args); i++ {
		order = append(order, i)
	}
	return append(order, 0)
}

// staticImport reports whether t imports member of owner by name
func staticImport(t engine.Tree, owner, member string) bool {
	for _, k := range t.Imports() {
		if k.Static && k.Symbol == owner && k.Member == member {
			return true
		}
	}
	return false
}

// shadowed reports whether the simple name of target already names another
// type in t, so importing target would clash with it.
func shadowed(t engine.Tree, target string) bool {
	q, tier := t.Resolve(simpleName(target))
	switch tier {
	case engine.TierBound:
		return q != target
	case engine.TierHeuristic:
		return q != target && !strings.HasPrefix(q, "org.junit.")
	}
	return false
}

type assertFamily struct {
	target  string
	methods []string
	params  int // arguments besides the message; -1 when never reordered
}

// migrationRule moves calls of a JUnit 4 utility class to its Jupiter
// replacement, reordering message arguments and migrating static imports.
func migrationRule(id, owner string, families []assertFamily, before, after string) engine.Rule {
	var patterns []*engine.Pattern
	for _, f := range families {
		for _, method := range f.methods {
			patterns = append(patterns,
				engine.MustCompile(engine.KindCall, owner, simpleName(owner)+"."+method+"($args$)"))
		}
	}

	family := func(method string) assertFamily {
		for _, f := range families {
			for _, m := range f.methods {
				if m == method {
					return f
				}
			}
		}
		return assertFamily{}
	}

	return &engine.PatternRule{
		ID:       id,
		Patterns: patterns,
		Accept: func(t engine.Tree, m *engine.Match) bool {
			method := m.Pattern.Member
			f := family(method)
			plan := &callPlan{method: method, target: f.target}
			if f.params >= 0 {
				plan.order = messageOrder(t, m.Bindings.Nodes("args"), f.params)
			}
			if m.Node.ChildByFieldName("object") == nil {
				plan.static = true
				plan.single = staticImport(t, owner, method)
			} else {
				plan.qualify = shadowed(t, f.target)
			}
			m.Aux = plan
			return true
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			plan := m.Aux.(*callPlan)
			if plan.order != nil {
				if err := engine.ReorderArguments(c, m.Bindings.Nodes("args"), plan.order); err != nil {
					return err
				}
			}
			if !plan.static {
				if plan.qualify {
					c.Replace(m.Node.ChildByFieldName("object"), engine.Lit(plan.target))
					return nil
				}
				c.Replace(m.Node.ChildByFieldName("object"), engine.Lit(simpleName(plan.target)))
				c.AddImport(plan.target)
				return nil
			}

			// the JUnit 4 static import stays while unmigrated calls use it
			stale := !c.Referenced(owner)
			if plan.single || plan.target == matcherAssert {
				c.AddStaticImport(plan.target, plan.method)
			} else {
				c.AddStaticImport(plan.target, "*")
			}
			if !stale {
				return nil
			}
			if plan.single {
				c.RemoveStaticImport(owner, plan.method)
			} else {
				c.RemoveStaticImport(owner, "*")
			}
			return nil
		},
		Imports: engine.ImportTable{Remove: []string{owner}},
		Before:  before,
		After:   after,
	}
}

func assertRule() engine.Rule {
	return migrationRule("assert", junitAssert, []assertFamily{
		{target: jupiterAssertions, methods: oneParamAsserts, params: 1},
		{target: jupiterAssertions, methods: twoParamAsserts, params: 2},
		{target: jupiterAssertions, methods: noParamAsserts, params: -1},
		{target: matcherAssert, methods: []string{"assertThat"}, params: -1},
	},
		"Assert.assertEquals(\"sizes differ\", expected, actual);",
		"Assertions.assertEquals(expected, actual, \"sizes differ\");")
}

func assumeRule() engine.Rule {
	return migrationRule("assume", junitAssume, []assertFamily{
		{target: jupiterAssume, methods: oneParamAssumes, params: 1},
	},
		"Assume.assumeTrue(\"needs linux\", isLinux());",
		"Assumptions.assumeTrue(isLinux(), \"needs linux\");")
}
