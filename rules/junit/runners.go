package junit

import (
	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/java"
)

var runWithPattern = engine.MustCompile(engine.KindKeyedSingleValue, junitRunWith, "@RunWith($runner)")

// runnerIs accepts a @RunWith whose class literal names one of runners
func runnerIs(runners ...string) func(engine.Tree, *engine.Match) bool {
	return func(t engine.Tree, m *engine.Match) bool {
		typ := java.ClassLiteralType(m.Bindings.Node("runner"))
		if typ == nil {
			return false
		}
		name := java.TypeName(t, typ)
		for _, r := range runners {
			if ok, _ := t.Matches(name, r); ok {
				return true
			}
		}
		return false
	}
}

func runWithSuiteRule() engine.Rule {
	return &engine.PatternRule{
		ID:       "runwith-suite",
		Patterns: []*engine.Pattern{runWithPattern},
		Accept:   runnerIs(junitSuite),
		Apply: func(m *engine.Match, c *engine.Change) error {
			c.Replace(m.Node, engine.Lit("@Suite"))
			return nil
		},
		Imports: engine.ImportTable{
			Add:    []string{platformSuite},
			Remove: []string{junitRunWith, junitSuite},
		},
		Before: "@RunWith(Suite.class)\n@Suite.SuiteClasses({FirstTest.class, SecondTest.class})\npublic class AllTests {\n}",
		After:  "@Suite\n@SelectClasses({FirstTest.class, SecondTest.class})\npublic class AllTests {\n}",
	}
}

func suiteClassesRule() engine.Rule {
	return &engine.PatternRule{
		ID: "suite-classes",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindKeyedSingleValue, junitSuiteClasses, "@Suite.SuiteClasses($classes)"),
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			engine.RenameAnnotation(c, m, "SelectClasses", "classes")
			return nil
		},
		Imports: engine.ImportTable{
			Add:    []string{platformSelectClasses},
			Remove: []string{junitSuiteClasses, junitSuite},
		},
		Before: "@Suite.SuiteClasses({FirstTest.class, SecondTest.class})",
		After:  "@SelectClasses({FirstTest.class, SecondTest.class})",
	}
}

// extendWithRule replaces @RunWith(runner) by @ExtendWith(extension)
func extendWithRule(id string, runners []string, extension, before, after string) engine.Rule {
	annotation := "@ExtendWith(" + simpleName(extension) + ".class)"
	return &engine.PatternRule{
		ID:       id,
		Patterns: []*engine.Pattern{runWithPattern},
		Accept:   runnerIs(runners...),
		Apply: func(m *engine.Match, c *engine.Change) error {
			c.Replace(m.Node, engine.Lit(annotation))
			return nil
		},
		Imports: engine.ImportTable{
			Add:    []string{jupiterExtendWith, extension},
			Remove: append([]string{junitRunWith}, runners...),
		},
		Before: before,
		After:  after,
	}
}

func runWithMockitoRule() engine.Rule {
	runners := []string{
		mockitoRunner,
		mockitoRunner + ".Strict",
		mockitoRunner + ".Silent",
		mockitoLegacyRunner,
		mockitoLegacyRunner + ".Strict",
		mockitoLegacyRunner + ".Silent",
	}
	return extendWithRule("runwith-mockito", runners, mockitoExtension,
		"@RunWith(MockitoJUnitRunner.class)\npublic class ServiceTest {\n}",
		"@ExtendWith(MockitoExtension.class)\npublic class ServiceTest {\n}")
}

func runWithSpringRule() engine.Rule {
	return extendWithRule("runwith-spring", []string{springRunner, springClassRunner}, springExtension,
		"@RunWith(SpringRunner.class)\npublic class ContextTest {\n}",
		"@ExtendWith(SpringExtension.class)\npublic class ContextTest {\n}")
}
