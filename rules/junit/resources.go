package junit

import (
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/java"
)

var timeUnits = []string{"NANOSECONDS", "MICROSECONDS", "MILLISECONDS", "SECONDS", "MINUTES", "HOURS", "DAYS"}

// ruleTimeout is a class-wide timeout declared as a JUnit 4 rule field.
// Only one field per class annotates it; the others are just removed.
type ruleTimeout struct {
	value    int64
	unit     string
	class    *sitter.Node
	annotate bool
}

// parseRuleTimeout reads Timeout.seconds(n), Timeout.millis(n),
// new Timeout(n) and new Timeout(n, TimeUnit.X) initializers.
func parseRuleTimeout(t engine.Tree, init *sitter.Node) (int64, string, bool) {
	args := java.CallArgs(init)
	switch init.Type() {
	case "method_invocation":
		obj, name := init.ChildByFieldName("object"), init.ChildByFieldName("name")
		if obj == nil || name == nil || len(args) != 1 {
			return 0, "", false
		}
		if ok, _ := t.Matches(java.TypeName(t, obj), junitTimeoutRule); !ok {
			return 0, "", false
		}
		v, ok := java.IntLiteral(t, args[0])
		if !ok {
			return 0, "", false
		}
		switch t.Text(name) {
		case "seconds":
			return v, "SECONDS", true
		case "millis":
			return v, "MILLISECONDS", true
		}
	case "object_creation_expression":
		if ok, _ := t.Matches(java.TypeName(t, init.ChildByFieldName("type")), junitTimeoutRule); !ok {
			return 0, "", false
		}
		if len(args) == 0 || len(args) > 2 {
			return 0, "", false
		}
		v, ok := java.IntLiteral(t, args[0])
		if !ok {
			return 0, "", false
		}
		if len(args) == 1 {
			return v, "MILLISECONDS", true
		}
		if unit, ok := timeUnitConstant(t, args[1]); ok {
			return v, unit, true
		}
	}
	return 0, "", false
}

func timeUnitConstant(t engine.Tree, n *sitter.Node) (string, bool) {
	var name string
	switch n.Type() {
	case "field_access":
		obj := n.ChildByFieldName("object")
		if ok, _ := t.Matches(java.TypeName(t, obj), timeUnit); !ok {
			return "", false
		}
		name = t.Text(n.ChildByFieldName("field"))
	case "identifier":
		name = t.Text(n)
	}
	if !slices.Contains(timeUnits, name) {
		return "", false
	}
	return name, true
}

func ruleTimeoutRule() engine.Rule {
	return &engine.PatternRule{
		ID: "rule-timeout",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindFieldDecl, junitTimeoutRule, "@Rule Timeout $name = $init", engine.Annotated(junitRule)),
			engine.MustCompile(engine.KindFieldDecl, junitTimeoutRule, "@ClassRule Timeout $name = $init", engine.Annotated(junitClassRule)),
		},
		Accept: func(t engine.Tree, m *engine.Match) bool {
			class := java.Enclosing(m.Node, "class_declaration")
			if class == nil {
				return false
			}
			value, unit, ok := parseRuleTimeout(t, m.Bindings.Node("init"))
			if !ok || value <= 0 {
				return false
			}
			plan := &ruleTimeout{value: value, unit: unit, class: class}
			if winner := timeoutField(t, class); winner != nil && !hasTimeout(t, class) {
				plan.annotate = engine.IDOf(winner) == engine.IDOf(m.Node)
			}
			m.Aux = plan
			return true
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			plan := m.Aux.(*ruleTimeout)
			c.DeleteLines(m.Node)
			if !plan.annotate {
				return nil
			}
			annotation := fmt.Sprintf("@Timeout(value = %d, unit = TimeUnit.%s)", plan.value, plan.unit)
			c.InsertBefore(plan.class, engine.Lit(annotation+c.Separator(plan.class)))
			c.AddImport(jupiterTimeout)
			c.AddImport(timeUnit)
			return nil
		},
		Imports: engine.ImportTable{
			Remove: []string{junitTimeoutRule, junitRule, junitClassRule},
		},
		Before: "public class SlowTest {\n\t@Rule\n\tpublic Timeout timeout = Timeout.seconds(10);\n}",
		After:  "@Timeout(value = 10, unit = TimeUnit.SECONDS)\npublic class SlowTest {\n}",
	}
}

// timeoutField returns the timeout rule field of class that becomes the
// class annotation: the first @Rule field, else the first @ClassRule one.
func timeoutField(t engine.Tree, class *sitter.Node) *sitter.Node {
	var classRule *sitter.Node
	for _, field := range java.NamedChildren(class.ChildByFieldName("body")) {
		if field.Type() != "field_declaration" {
			continue
		}
		if ok, _ := t.Matches(java.TypeName(t, field.ChildByFieldName("type")), junitTimeoutRule); !ok {
			continue
		}
		decls := java.Declarators(field)
		if len(decls) != 1 || decls[0].ChildByFieldName("value") == nil {
			continue
		}
		if v, _, ok := parseRuleTimeout(t, decls[0].ChildByFieldName("value")); !ok || v <= 0 {
			continue
		}
		for _, a := range java.Annotations(field) {
			name := t.Text(a.ChildByFieldName("name"))
			if ok, _ := t.Matches(name, junitRule); ok {
				return field
			}
			if ok, _ := t.Matches(name, junitClassRule); ok && classRule == nil {
				classRule = field
			}
		}
	}
	return classRule
}

// hasTimeout reports whether class already carries a @Timeout annotation
func hasTimeout(t engine.Tree, class *sitter.Node) bool {
	for _, a := range java.Annotations(class) {
		if simpleName(t.Text(a.ChildByFieldName("name"))) == "Timeout" {
			return true
		}
	}
	return false
}

// lifecycle maps an ExternalResource hook to its Jupiter callback
type lifecycle struct {
	from     string
	to       string
	callback string
}

var resourceLifecycle = []lifecycle{
	{from: "before", to: "beforeEach", callback: jupiterBeforeEachCallback},
	{from: "after", to: "afterEach", callback: jupiterAfterEachCallback},
}

func lifecycleOf(name string) (lifecycle, bool) {
	for _, lc := range resourceLifecycle {
		if lc.from == name {
			return lc, true
		}
	}
	return lifecycle{}, false
}

// resourcePlan is the declaration transform of one ExternalResource subclass
type resourcePlan struct {
	transform engine.DeclarationTransform
	callbacks []string
	context   bool
}

func externalResourceRule() engine.Rule {
	return &engine.PatternRule{
		ID: "external-resource",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindTypeDecl, junitExternalResource, "class $type extends ExternalResource"),
		},
		Accept: func(t engine.Tree, m *engine.Match) bool {
			plan, ok := planResource(t, m.Node)
			if ok {
				m.Aux = plan
			}
			return ok
		},
		Consumes: func(m *engine.Match) []*sitter.Node {
			plan := m.Aux.(*resourcePlan)
			if plan.transform.Supertype == nil {
				return []*sitter.Node{}
			}
			return []*sitter.Node{plan.transform.Supertype}
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			plan := m.Aux.(*resourcePlan)
			plan.transform.Apply(c)
			for _, cb := range plan.callbacks {
				c.AddImport(cb)
			}
			if plan.context {
				c.AddImport(jupiterExtensionContext)
			}
			return nil
		},
		Imports: engine.ImportTable{Remove: []string{junitExternalResource}},
		Before: "class Server extends ExternalResource {\n" +
			"\t@Override\n\tprotected void before() throws Throwable {\n\t\tstart();\n\t}\n" +
			"\t@Override\n\tprotected void after() {\n\t\tstop();\n\t}\n}",
		After: "class Server implements BeforeEachCallback, AfterEachCallback {\n" +
			"\t@Override\n\tpublic void beforeEach(ExtensionContext context) {\n\t\tstart();\n\t}\n" +
			"\t@Override\n\tpublic void afterEach(ExtensionContext context) {\n\t\tstop();\n\t}\n}",
	}
}

// planResource builds the transform of decl. Direct subclasses always
// migrate; indirect ones only when they override a lifecycle hook. An
// indirect subclass implements the callbacks of the hooks its local
// superclasses do not declare.
func planResource(t engine.Tree, decl *sitter.Node) (*resourcePlan, bool) {
	direct, ok := t.Subtype(decl, junitExternalResource)
	if !ok {
		return nil, false
	}
	plan := &resourcePlan{transform: engine.DeclarationTransform{Direct: direct}}
	if direct {
		plan.transform.Supertype = decl.ChildByFieldName("superclass")
	} else {
		plan.transform.Extends = decl.ChildByFieldName("superclass")
	}
	for _, list := range java.NamedChildren(decl.ChildByFieldName("interfaces")) {
		if list.Type() == "type_list" {
			plan.transform.Interfaces = list
		}
	}

	inherited := inheritedHooks(t, decl)
	for _, method := range java.Methods(decl) {
		lc, ok := lifecycleOf(t.Text(method.ChildByFieldName("name")))
		if !ok {
			continue
		}
		mr, ok := lifecycleRename(t, method, lc, inherited)
		if !ok {
			continue
		}
		if mr.Parameter != "" {
			plan.context = true
		}
		plan.transform.Members = append(plan.transform.Members, mr)
		if !inherited[lc.from] {
			plan.callbacks = append(plan.callbacks, lc.callback)
		}
	}
	if !plan.transform.Applies() {
		return nil, false
	}

	for _, cb := range plan.callbacks {
		plan.transform.Capabilities = append(plan.transform.Capabilities, simpleName(cb))
	}
	return plan, true
}

// inheritedHooks returns the lifecycle hooks declared by the local
// superclasses of decl. They migrate along with decl, so decl inherits
// their callbacks.
func inheritedHooks(t engine.Tree, decl *sitter.Node) map[string]bool {
	hooks := make(map[string]bool)
	seen := map[engine.NodeID]bool{engine.IDOf(decl): true}
	for sup := t.Superclass(decl); sup != nil && !seen[engine.IDOf(sup)]; sup = t.Superclass(sup) {
		seen[engine.IDOf(sup)] = true
		for _, method := range java.Methods(sup) {
			lc, ok := lifecycleOf(t.Text(method.ChildByFieldName("name")))
			if ok && len(java.NamedChildren(method.ChildByFieldName("parameters"))) <= 1 {
				hooks[lc.from] = true
			}
		}
	}
	return hooks
}

// lifecycleRename renames one hook. Super calls to a hook no local
// superclass declares are dropped since ExternalResource's hooks are empty.
func lifecycleRename(t engine.Tree, method *sitter.Node, lc lifecycle, inherited map[string]bool) (engine.MemberRename, bool) {
	params := method.ChildByFieldName("parameters")
	mr := engine.MemberRename{
		Name:   method.ChildByFieldName("name"),
		To:     lc.to,
		Params: params,
	}

	context := "context"
	switch list := java.NamedChildren(params); len(list) {
	case 0:
		mr.Parameter = "ExtensionContext context"
	case 1:
		if ok, _ := t.Matches(java.TypeName(t, list[0].ChildByFieldName("type")), jupiterExtensionContext); !ok {
			return mr, false
		}
		if name := list[0].ChildByFieldName("name"); name != nil {
			context = t.Text(name)
		}
	default:
		return mr, false
	}

	switch {
	case java.ModifierKeyword(method, "protected") != nil:
		mr.Visibility = java.ModifierKeyword(method, "protected")
	case java.ModifierKeyword(method, "private") != nil:
		mr.Visibility = java.ModifierKeyword(method, "private")
	case java.ModifierKeyword(method, "public") == nil:
		mr.PublicBefore = method.ChildByFieldName("type")
	}

	if th := java.Throws(method); th != nil && strings.Join(strings.Fields(t.Text(th)), " ") == "throws Throwable" {
		mr.Throws = th
	}

	walkSuperCalls(t, method.ChildByFieldName("body"), func(call *sitter.Node, called lifecycle) {
		sc := engine.SuperCall{
			Name:      call.ChildByFieldName("name"),
			Args:      call.ChildByFieldName("arguments"),
			To:        called.to,
			Arguments: context,
		}
		if parent := call.Parent(); !inherited[called.from] && parent != nil && parent.Type() == "expression_statement" {
			sc.Drop = parent
		}
		mr.SuperCalls = append(mr.SuperCalls, sc)
	})
	return mr, true
}

// walkSuperCalls reports every super.before() or super.after() under n
func walkSuperCalls(t engine.Tree, n *sitter.Node, fn func(*sitter.Node, lifecycle)) {
	if n == nil {
		return
	}
	if n.Type() == "method_invocation" {
		if obj := n.ChildByFieldName("object"); obj != nil && obj.Type() == "super" {
			if lc, ok := lifecycleOf(t.Text(n.ChildByFieldName("name"))); ok && len(java.CallArgs(n)) == 0 {
				fn(n, lc)
			}
		}
	}
	for _, c := range java.NamedChildren(n) {
		walkSuperCalls(t, c, fn)
	}
}

func ruleExtensionRule() engine.Rule {
	return &engine.PatternRule{
		ID: "rule-extension",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindFieldDecl, junitExternalResource, "@Rule $type $name", engine.Annotated(junitRule)),
			engine.MustCompile(engine.KindFieldDecl, junitExternalResource, "@ClassRule $type $name", engine.Annotated(junitClassRule)),
		},
		Accept: func(t engine.Tree, m *engine.Match) bool {
			// only subclasses declared here become extensions
			if ok, _ := t.Matches(java.TypeName(t, m.Bindings.Node("type")), junitExternalResource); ok {
				return false
			}
			var rules []*sitter.Node
			for _, a := range java.Annotations(m.Node) {
				name := t.Text(a.ChildByFieldName("name"))
				isRule, _ := t.Matches(name, junitRule)
				isClassRule, _ := t.Matches(name, junitClassRule)
				if isRule || isClassRule {
					rules = append(rules, a)
				}
			}
			m.Aux = rules
			return len(rules) > 0
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			for _, a := range m.Aux.([]*sitter.Node) {
				c.Replace(a, engine.Lit("@RegisterExtension"))
			}
			return nil
		},
		Imports: engine.ImportTable{
			Add:    []string{jupiterRegisterExtension},
			Remove: []string{junitRule, junitClassRule},
		},
		Before: "@Rule\npublic Server server = new Server();",
		After:  "@RegisterExtension\npublic Server server = new Server();",
	}
}
