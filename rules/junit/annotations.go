package junit

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/java"
)

func simpleName(symbol string) string {
	return symbol[strings.LastIndexByte(symbol, '.')+1:]
}

// renameRule migrates a marker annotation to its Jupiter counterpart
func renameRule(id, from, to, before, after string) *engine.PatternRule {
	return &engine.PatternRule{
		ID:       id,
		Patterns: []*engine.Pattern{engine.MustCompile(engine.KindMarker, from, "@"+simpleName(from))},
		Apply: func(m *engine.Match, c *engine.Change) error {
			engine.RenameAnnotation(c, m, simpleName(to), "")
			return nil
		},
		Imports: engine.ImportTable{Add: []string{to}, Remove: []string{from}},
		Before:  before,
		After:   after,
	}
}

func beforeRule() engine.Rule {
	return renameRule("before", junitBefore, jupiterBeforeEach,
		"@Before\npublic void setUp() {\n}",
		"@BeforeEach\npublic void setUp() {\n}")
}

func afterRule() engine.Rule {
	return renameRule("after", junitAfter, jupiterAfterEach,
		"@After\npublic void tearDown() {\n}",
		"@AfterEach\npublic void tearDown() {\n}")
}

func beforeClassRule() engine.Rule {
	return renameRule("beforeclass", junitBeforeClass, jupiterBeforeAll,
		"@BeforeClass\npublic static void init() {\n}",
		"@BeforeAll\npublic static void init() {\n}")
}

func afterClassRule() engine.Rule {
	return renameRule("afterclass", junitAfterClass, jupiterAfterAll,
		"@AfterClass\npublic static void cleanup() {\n}",
		"@AfterAll\npublic static void cleanup() {\n}")
}

func testRule() engine.Rule {
	return renameRule("test", junitTest, jupiterTest,
		"import org.junit.Test;\n\n@Test\npublic void works() {\n}",
		"import org.junit.jupiter.api.Test;\n\n@Test\npublic void works() {\n}")
}

func ignoreRule() engine.Rule {
	return &engine.PatternRule{
		ID: "ignore",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindMarker, junitIgnore, "@Ignore"),
			engine.MustCompile(engine.KindKeyedSingleValue, junitIgnore, "@Ignore($reason)"),
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			engine.RenameAnnotation(c, m, "Disabled", "reason")
			return nil
		},
		Imports: engine.ImportTable{Add: []string{jupiterDisabled}, Remove: []string{junitIgnore}},
		Before:  "@Ignore(\"not ready yet\")\n@Test\npublic void test() {\n}",
		After:   "@Disabled(\"not ready yet\")\n@Test\npublic void test() {\n}",
	}
}

// timeoutPlan is the literal timeout of a test, in the coarsest exact unit
type timeoutPlan struct {
	value  int64
	unit   engine.TimeUnit
	expect *expectedWrap
}

func timeoutAnnotation(value int64, unit engine.TimeUnit) string {
	return fmt.Sprintf("@Timeout(value = %d, unit = TimeUnit.%s)", value, unit)
}

func testTimeoutRule() engine.Rule {
	return &engine.PatternRule{
		ID: "test-timeout",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindKeyedMultiValue, junitTest, "@Test(timeout=$timeout, expected=$expected)"),
		},
		Accept: func(t engine.Tree, m *engine.Match) bool {
			n := m.Bindings.Node("timeout")
			if n == nil {
				return false
			}
			ms, ok := java.IntLiteral(t, n)
			if !ok || ms <= 0 {
				return false
			}
			plan := &timeoutPlan{}
			plan.value, plan.unit = engine.InferTimeUnit(ms)
			if exp := m.Bindings.Node("expected"); exp != nil {
				if plan.expect, ok = newExpectedWrap(exp, m.Node); !ok {
					return false
				}
			}
			m.Aux = plan
			return true
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			plan := m.Aux.(*timeoutPlan)
			c.Replace(m.Node, engine.Lit("@Test"+c.Separator(m.Node)+timeoutAnnotation(plan.value, plan.unit)))
			if plan.expect != nil {
				plan.expect.apply(c)
			}
			return nil
		},
		Imports: engine.ImportTable{
			Add:    []string{jupiterTest, jupiterTimeout, timeUnit},
			Remove: []string{junitTest},
		},
		Before: "@Test(timeout = 1000)\npublic void slow() {\n}",
		After:  "@Test\n@Timeout(value = 1, unit = TimeUnit.SECONDS)\npublic void slow() {\n}",
	}
}

// expectedWrap moves a test body into an assertThrows lambda
type expectedWrap struct {
	exception *sitter.Node
	method    *sitter.Node
	body      *sitter.Node
	first     *sitter.Node
}

func newExpectedWrap(literal, annotation *sitter.Node) (*expectedWrap, bool) {
	if java.ClassLiteralType(literal) == nil {
		return nil, false
	}
	method := java.Enclosing(annotation, "method_declaration")
	if method == nil {
		return nil, false
	}
	body := method.ChildByFieldName("body")
	if body == nil {
		return nil, false
	}
	w := &expectedWrap{exception: literal, method: method, body: body}
	if stmts := java.NamedChildren(body); len(stmts) > 0 {
		w.first = stmts[0]
	}
	return w, true
}

// apply inserts around the body instead of replacing it so edits of other
// operations inside the body still apply.
func (w *expectedWrap) apply(c *engine.Change) {
	indent := c.Indent(w.method)
	inner := indent + "\t"
	if w.first != nil {
		if in := c.Indent(w.first); in != "" {
			inner = in
		}
	}
	c.InsertBefore(w.body,
		engine.Lit("{\n"+inner+"assertThrows("), engine.Ref(w.exception), engine.Lit(", () -> "))
	c.InsertAfter(w.body, engine.Lit(");\n"+indent+"}"))
	c.AddStaticImport(jupiterAssertions, "assertThrows")
}

func testExpectedRule() engine.Rule {
	return &engine.PatternRule{
		ID: "test-expected",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindKeyedMultiValue, junitTest, "@Test(expected=$expected)"),
		},
		Accept: func(t engine.Tree, m *engine.Match) bool {
			w, ok := newExpectedWrap(m.Bindings.Node("expected"), m.Node)
			if ok {
				m.Aux = w
			}
			return ok
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			c.Replace(m.Node, engine.Lit("@Test"))
			m.Aux.(*expectedWrap).apply(c)
			return nil
		},
		Imports: engine.ImportTable{Add: []string{jupiterTest}, Remove: []string{junitTest}},
		Before:  "@Test(expected = IllegalStateException.class)\npublic void fails() {\n\tservice.run();\n}",
		After:   "@Test\npublic void fails() {\n\tassertThrows(IllegalStateException.class, () -> {\n\tservice.run();\n});\n}",
	}
}
