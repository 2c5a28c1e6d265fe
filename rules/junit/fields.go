package junit

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/java"
)

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && engine.IDOf(a) == engine.IDOf(b)
}

// fieldUses returns the expressions of the unit reading the field declared
// by field: bare identifiers and this.name accesses. It fails when the name
// is declared again anywhere, since uses can then not be told apart.
func fieldUses(t engine.Tree, field *sitter.Node, name string) ([]*sitter.Node, bool) {
	var uses []*sitter.Node
	ok := true
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch {
		case !ok || sameNode(n, field):
			return
		case n.Type() == "import_declaration" || n.Type() == "package_declaration":
			return
		case n.Type() == "identifier" && t.Text(n) == name:
			use, fine := fieldUse(n)
			if !fine {
				ok = false
				return
			}
			if use != nil {
				uses = append(uses, use)
			}
			return
		}
		for _, c := range java.NamedChildren(n) {
			visit(c)
		}
	}
	visit(t.Root())
	return uses, ok
}

// fieldUse classifies one identifier spelled like the field. It returns the
// reading expression, nil for a name that is not a variable reference, or
// false for a declaration shadowing the field.
func fieldUse(n *sitter.Node) (*sitter.Node, bool) {
	parent := n.Parent()
	if parent == nil {
		return n, true
	}
	switch parent.Type() {
	case "field_access":
		if !sameNode(parent.ChildByFieldName("field"), n) {
			return n, true
		}
		if obj := parent.ChildByFieldName("object"); obj != nil && obj.Type() == "this" {
			return parent, true
		}
		return nil, true
	case "method_invocation":
		if sameNode(parent.ChildByFieldName("name"), n) {
			return nil, true
		}
	case "method_reference":
		if !sameNode(parent.NamedChild(0), n) {
			return nil, true
		}
	case "lambda_expression":
		if sameNode(parent.ChildByFieldName("parameters"), n) {
			return nil, false
		}
	case "variable_declarator", "formal_parameter", "catch_formal_parameter", "enhanced_for_statement", "resource":
		if sameNode(parent.ChildByFieldName("name"), n) {
			return nil, false
		}
	case "inferred_parameters":
		return nil, false
	case "method_declaration", "constructor_declaration", "class_declaration", "interface_declaration",
		"enum_declaration", "record_declaration", "enum_constant", "labeled_statement",
		"element_value_pair", "scoped_identifier", "break_statement", "continue_statement":
		return nil, true
	}
	return n, true
}

// useCall returns the invocation whose receiver is use, or nil
func useCall(use *sitter.Node) *sitter.Node {
	call := use.Parent()
	if call == nil || call.Type() != "method_invocation" || !sameNode(call.ChildByFieldName("object"), use) {
		return nil
	}
	return call
}

// deleteModifier removes an annotation together with the whitespace up to
// the next token of the declaration
func deleteModifier(c *engine.Change, a *sitter.Node) {
	next := a.NextSibling()
	if next == nil && a.Parent() != nil {
		next = a.Parent().NextSibling()
	}
	if next == nil {
		c.Delete(a)
		return
	}
	c.ReplaceSpan(a.StartByte(), next.StartByte())
}

// ruleAnnotations returns the @Rule and @ClassRule annotations of a field
func ruleAnnotations(t engine.Tree, field *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, a := range java.Annotations(field) {
		name := t.Text(a.ChildByFieldName("name"))
		isRule, _ := t.Matches(name, junitRule)
		isClassRule, _ := t.Matches(name, junitClassRule)
		if isRule || isClassRule {
			out = append(out, a)
		}
	}
	return out
}

// dropInitializer removes " = init" from the single declarator of field
func dropInitializer(c *engine.Change, field *sitter.Node) {
	decls := java.Declarators(field)
	if len(decls) != 1 || decls[0].ChildByFieldName("value") == nil {
		return
	}
	c.ReplaceSpan(decls[0].ChildByFieldName("name").EndByte(), decls[0].EndByte())
}

// newWithoutArgs reports whether init is "new <symbol>()"
func newWithoutArgs(t engine.Tree, init *sitter.Node, symbol string) bool {
	if init == nil {
		return true
	}
	if init.Type() != "object_creation_expression" || len(java.CallArgs(init)) != 0 {
		return false
	}
	if init.ChildByFieldName("body") != nil || java.ChildOfType(init, "class_body") != nil {
		return false
	}
	ok, _ := t.Matches(java.TypeName(t, init.ChildByFieldName("type")), symbol)
	return ok
}

// fieldPlan is the rewrite of one rule field and the calls reading it
type fieldPlan struct {
	rules   []*sitter.Node
	folders []folderCall
	calls   []*sitter.Node
}

// folderCall is one TemporaryFolder call rewritten against a Path
type folderCall struct {
	call *sitter.Node
	use  *sitter.Node
	arg  *sitter.Node
	kind string
}

func (f folderCall) pieces() []engine.Piece {
	switch f.kind {
	case "getRoot":
		return []engine.Piece{engine.Ref(f.use), engine.Lit(".toFile()")}
	case "newFile":
		if f.arg == nil {
			return []engine.Piece{engine.Lit("Files.createTempFile("), engine.Ref(f.use), engine.Lit(`, "junit", null).toFile()`)}
		}
		return []engine.Piece{engine.Lit("Files.createFile("), engine.Ref(f.use), engine.Lit(".resolve("), engine.Ref(f.arg), engine.Lit(")).toFile()")}
	default:
		if f.arg == nil {
			return []engine.Piece{engine.Lit("Files.createTempDirectory("), engine.Ref(f.use), engine.Lit(`, "junit").toFile()`)}
		}
		return []engine.Piece{engine.Lit("Files.createDirectories("), engine.Ref(f.use), engine.Lit(".resolve("), engine.Ref(f.arg), engine.Lit(")).toFile()")}
	}
}

func temporaryFolderRule() engine.Rule {
	return &engine.PatternRule{
		ID: "rule-temporary-folder",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindFieldDecl, junitTemporaryFolder, "@Rule TemporaryFolder $name", engine.Annotated(junitRule)),
			engine.MustCompile(engine.KindFieldDecl, junitTemporaryFolder, "@ClassRule TemporaryFolder $name", engine.Annotated(junitClassRule)),
		},
		Accept: func(t engine.Tree, m *engine.Match) bool {
			decls := java.Declarators(m.Node)
			if !newWithoutArgs(t, decls[0].ChildByFieldName("value"), junitTemporaryFolder) {
				return false
			}
			uses, ok := fieldUses(t, m.Node, t.Text(m.Bindings.Node("name")))
			if !ok {
				return false
			}
			calls := make([]folderCall, 0, len(uses))
			for _, use := range uses {
				call := useCall(use)
				if call == nil {
					return false
				}
				fc := folderCall{call: call, use: use, kind: t.Text(call.ChildByFieldName("name"))}
				args := java.CallArgs(call)
				switch {
				case fc.kind == "getRoot" && len(args) == 0:
				case (fc.kind == "newFile" || fc.kind == "newFolder") && len(args) <= 1:
					if len(args) == 1 {
						if !java.IsStringExpr(t, args[0]) {
							return false
						}
						fc.arg = args[0]
					}
				default:
					return false
				}
				calls = append(calls, fc)
			}
			m.Aux = &fieldPlan{rules: ruleAnnotations(t, m.Node), folders: calls}
			return true
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			plan := m.Aux.(*fieldPlan)
			for _, a := range plan.rules {
				c.Replace(a, engine.Lit("@TempDir"))
			}
			c.Replace(m.Node.ChildByFieldName("type"), engine.Lit("Path"))
			dropInitializer(c, m.Node)
			for _, fc := range plan.folders {
				c.Replace(fc.call, fc.pieces()...)
				if fc.kind != "getRoot" {
					c.AddImport(javaFiles)
				}
			}
			return nil
		},
		Imports: engine.ImportTable{
			Add:    []string{jupiterTempDir, javaPath},
			Remove: []string{junitTemporaryFolder, junitRule, junitClassRule},
		},
		Before: "@Rule\npublic TemporaryFolder folder = new TemporaryFolder();\n\n" +
			"@Test\npublic void writes() throws IOException {\n\tFile out = folder.newFile(\"out.txt\");\n}",
		After: "@TempDir\npublic Path folder;\n\n" +
			"@Test\npublic void writes() throws IOException {\n\tFile out = Files.createFile(folder.resolve(\"out.txt\")).toFile();\n}",
	}
}

func testNameRule() engine.Rule {
	return &engine.PatternRule{
		ID: "rule-test-name",
		Patterns: []*engine.Pattern{
			engine.MustCompile(engine.KindFieldDecl, junitTestName, "@Rule TestName $name", engine.Annotated(junitRule)),
		},
		Accept: func(t engine.Tree, m *engine.Match) bool {
			if java.ModifierKeyword(m.Node, "static") != nil {
				return false
			}
			decls := java.Declarators(m.Node)
			if !newWithoutArgs(t, decls[0].ChildByFieldName("value"), junitTestName) {
				return false
			}
			uses, ok := fieldUses(t, m.Node, t.Text(m.Bindings.Node("name")))
			if !ok {
				return false
			}
			calls := make([]*sitter.Node, 0, len(uses))
			for _, use := range uses {
				call := useCall(use)
				if call == nil || t.Text(call.ChildByFieldName("name")) != "getMethodName" || len(java.CallArgs(call)) != 0 {
					return false
				}
				calls = append(calls, call)
			}
			m.Aux = &fieldPlan{rules: ruleAnnotations(t, m.Node), calls: calls}
			return true
		},
		Apply: func(m *engine.Match, c *engine.Change) error {
			plan := m.Aux.(*fieldPlan)
			for _, a := range plan.rules {
				deleteModifier(c, a)
			}
			c.Replace(m.Node.ChildByFieldName("type"), engine.Lit("String"))
			dropInitializer(c, m.Node)
			for _, call := range plan.calls {
				c.Replace(call, engine.Ref(call.ChildByFieldName("object")))
			}

			name := c.Source(m.Bindings.Node("name"))
			sep := c.Separator(m.Node)
			if sep == " " {
				sep = "\n"
			}
			unit := "    "
			if strings.Contains(sep, "\t") {
				unit = "\t"
			}
			c.InsertAfter(m.Node, engine.Lit("\n"+sep+"@BeforeEach"+
				sep+"void initTestName(TestInfo testInfo) {"+
				sep+unit+"this."+name+" = testInfo.getTestMethod().get().getName();"+
				sep+"}"))
			return nil
		},
		Imports: engine.ImportTable{
			Add:    []string{jupiterTestInfo, jupiterBeforeEach},
			Remove: []string{junitTestName, junitRule},
		},
		Before: "@Rule\npublic TestName name = new TestName();\n\n" +
			"@Test\npublic void logs() {\n\tSystem.out.println(name.getMethodName());\n}",
		After: "public String name;\n\n@BeforeEach\nvoid initTestName(TestInfo testInfo) {\n" +
			"\tthis.name = testInfo.getTestMethod().get().getName();\n}\n\n" +
			"@Test\npublic void logs() {\n\tSystem.out.println(name);\n}",
	}
}
