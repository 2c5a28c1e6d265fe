package java

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/base"
)

var typeDeclarations = []string{
	"class_declaration",
	"interface_declaration",
	"enum_declaration",
	"record_declaration",
	"annotation_type_declaration",
}

// Tree is one parsed Java compilation unit. It implements engine.Tree.
type Tree struct {
	source   []byte
	tree     *sitter.Tree
	root     *sitter.Node
	config   Config
	resolver *Resolver

	imports     []Import
	importNodes []*sitter.Node
	pkg         *sitter.Node
	decls       map[string]*sitter.Node // qualified name to declaration
}

// ParseSource parses source with a dedicated parser
func ParseSource(ctx context.Context, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	return NewTree(tree, source), nil
}

// NewTree wraps a parsed tree and indexes its header and declarations.
// The Tree takes ownership of tree.
func NewTree(tree *sitter.Tree, source []byte) *Tree {
	t := &Tree{
		source: source,
		tree:   tree,
		root:   tree.RootNode(),
		decls:  make(map[string]*sitter.Node),
	}

	pkg := ""
	for _, c := range NamedChildren(t.root) {
		switch c.Type() {
		case "package_declaration":
			t.pkg = c
			pkg = t.dottedName(c)
		case "import_declaration":
			t.importNodes = append(t.importNodes, c)
			t.imports = append(t.imports, t.parseImport(c))
		}
	}

	local := make(map[string]string)
	var methods []string
	t.indexDeclarations(t.root, pkg, local, &methods)
	t.resolver = NewResolver(pkg, t.imports, local)
	t.resolver.DeclareMethods(methods...)
	return t
}

// Close releases the underlying tree
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Source returns the original source
func (t *Tree) Source() []byte {
	return t.source
}

// Root returns the compilation unit node
func (t *Tree) Root() *sitter.Node {
	return t.root
}

// Text returns the source text of n
func (t *Tree) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(t.source[n.StartByte():n.EndByte()])
}

// Resolver returns the name resolver of the unit
func (t *Tree) Resolver() *Resolver {
	return t.resolver
}

// Resolve maps a written name to a qualified symbol
func (t *Tree) Resolve(name string) (string, engine.Tier) {
	return t.resolver.Resolve(name)
}

// Matches reports whether a written name refers to symbol
func (t *Tree) Matches(name, symbol string) (bool, engine.Tier) {
	return t.resolver.Matches(name, symbol)
}

// Imports returns the import declarations of the unit
func (t *Tree) Imports() []engine.ImportKey {
	keys := make([]engine.ImportKey, 0, len(t.imports))
	for _, imp := range t.imports {
		keys = append(keys, imp.Key())
	}
	return keys
}

// ErrorCount returns the number of syntax errors in the unit
func (t *Tree) ErrorCount() int {
	var errs []string
	base.CollectErrors(t.root, &errs)
	return len(errs)
}

// Query yields candidate nodes for p in pre-order, skipping claimed nodes.
// Claims are checked lazily so nodes claimed while iterating are skipped.
func (t *Tree) Query(p *engine.Pattern, claims *engine.ClaimSet) iter.Seq[*sitter.Node] {
	types := t.config.NodeTypes(p.Kind)
	return func(yield func(*sitter.Node) bool) {
		stack := []*sitter.Node{t.root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if slices.Contains(types, n.Type()) && (claims == nil || !claims.Has(n)) {
				if _, ok := t.symbolTier(p, n); ok && !yield(n) {
					return
				}
			}
			for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
				if c := n.NamedChild(i); c != nil {
					stack = append(stack, c)
				}
			}
		}
	}
}

// Match binds p's placeholders against n
func (t *Tree) Match(p *engine.Pattern, n *sitter.Node) (*engine.Match, bool) {
	tier, ok := t.symbolTier(p, n)
	if !ok {
		return nil, false
	}
	m := &engine.Match{
		Pattern:  p,
		Node:     n,
		Bindings: make(engine.Bindings),
		Resolved: p.Symbol,
		Tier:     tier,
	}

	switch p.Kind {
	case engine.KindMarker:
		if len(AnnotationArgs(n)) > 0 {
			return nil, false
		}
	case engine.KindKeyedSingleValue:
		args := AnnotationArgs(n)
		if len(args) != 1 {
			return nil, false
		}
		value := args[0]
		if value.Type() == "element_value_pair" {
			key, v := ElementPair(value)
			if t.Text(key) != "value" {
				return nil, false
			}
			value = v
		}
		m.Bindings[p.Placeholders[0]] = engine.Binding{Node: value}
	case engine.KindKeyedMultiValue:
		args := AnnotationArgs(n)
		if len(args) == 0 {
			return nil, false
		}
		for _, arg := range args {
			key, value := ElementPair(arg)
			if key == nil {
				return nil, false
			}
			i := slices.Index(p.Keys, t.Text(key))
			if i < 0 {
				return nil, false
			}
			m.Bindings[p.Placeholders[i]] = engine.Binding{Node: value}
		}
	case engine.KindCall:
		args := CallArgs(n)
		fixed := len(p.Placeholders)
		if p.Variadic {
			fixed--
			if len(args) < fixed {
				return nil, false
			}
		} else if len(args) != fixed {
			return nil, false
		}
		for i := 0; i < fixed; i++ {
			m.Bindings[p.Placeholders[i]] = engine.Binding{Node: args[i]}
		}
		if p.Variadic {
			m.Bindings[p.Placeholders[fixed]] = engine.Binding{Nodes: args[fixed:]}
		}
	case engine.KindTypeDecl:
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil, false
		}
		m.Bindings[p.Placeholders[0]] = engine.Binding{Node: name}
	case engine.KindFieldDecl:
		decls := Declarators(n)
		if len(decls) != 1 {
			return nil, false
		}
		name, value := decls[0].ChildByFieldName("name"), decls[0].ChildByFieldName("value")
		m.Bindings[p.Field.Name] = engine.Binding{Node: name}
		if p.Field.Init != "" {
			if value == nil {
				return nil, false
			}
			m.Bindings[p.Field.Init] = engine.Binding{Node: value}
		}
		if p.Field.Type != "" {
			typ := n.ChildByFieldName("type")
			m.Bindings[p.Field.Type] = engine.Binding{Node: typ}
			m.Resolved, _ = t.resolver.Resolve(TypeName(t, typ))
		}
	default:
		return nil, false
	}
	return m, true
}

// symbolTier checks that n refers to p's symbol and reports how the name
// was resolved.
func (t *Tree) symbolTier(p *engine.Pattern, n *sitter.Node) (engine.Tier, bool) {
	switch p.Kind {
	case engine.KindMarker, engine.KindKeyedSingleValue, engine.KindKeyedMultiValue:
		ok, tier := t.resolver.Matches(t.Text(n.ChildByFieldName("name")), p.Symbol)
		return tier, ok
	case engine.KindCall:
		name := n.ChildByFieldName("name")
		if name == nil || t.Text(name) != p.Member {
			return engine.TierUnresolved, false
		}
		obj := n.ChildByFieldName("object")
		if obj == nil {
			ok, tier := t.resolver.MatchesStatic(p.Member, p.Symbol)
			return tier, ok
		}
		switch obj.Type() {
		case "identifier", "field_access", "scoped_identifier":
			ok, tier := t.resolver.Matches(TypeName(t, obj), p.Symbol)
			return tier, ok
		}
		return engine.TierUnresolved, false
	case engine.KindTypeDecl:
		if n.ChildByFieldName("superclass") == nil {
			return engine.TierUnresolved, false
		}
		if _, ok := t.Subtype(n, p.Symbol); !ok {
			return engine.TierUnresolved, false
		}
		tier := engine.TierBound
		for _, st := range Supertypes(n) {
			if ok, at := t.resolver.Matches(TypeName(t, st), p.Symbol); ok {
				tier = at
			}
		}
		return tier, true
	case engine.KindFieldDecl:
		return t.fieldTier(p, n)
	}
	return engine.TierUnresolved, false
}

func (t *Tree) fieldTier(p *engine.Pattern, n *sitter.Node) (engine.Tier, bool) {
	tier := engine.TierBound
	if len(p.Annotations) > 0 {
		found := false
		for _, a := range Annotations(n) {
			for _, sym := range p.Annotations {
				if ok, at := t.resolver.Matches(t.Text(a.ChildByFieldName("name")), sym); ok {
					found = true
					tier = min(tier, at)
				}
			}
		}
		if !found {
			return engine.TierUnresolved, false
		}
	}

	name := TypeName(t, n.ChildByFieldName("type"))
	if ok, tt := t.resolver.Matches(name, p.Symbol); ok {
		return min(tier, tt), true
	}
	if p.Field.Type == "" {
		return engine.TierUnresolved, false
	}
	if decl := t.localDecl(name); decl != nil {
		if _, ok := t.Subtype(decl, p.Symbol); ok {
			return tier, true
		}
	}
	return engine.TierUnresolved, false
}

// Subtype reports whether decl extends or implements symbol, walking
// supertypes declared in the same unit.
func (t *Tree) Subtype(decl *sitter.Node, symbol string) (bool, bool) {
	return t.subtype(decl, symbol, make(map[engine.NodeID]bool), true)
}

func (t *Tree) subtype(decl *sitter.Node, symbol string, seen map[engine.NodeID]bool, top bool) (bool, bool) {
	seen[engine.IDOf(decl)] = true
	supers := Supertypes(decl)
	for _, st := range supers {
		if ok, _ := t.resolver.Matches(TypeName(t, st), symbol); ok {
			return top, true
		}
	}
	for _, st := range supers {
		local := t.localDecl(TypeName(t, st))
		if local == nil || seen[engine.IDOf(local)] {
			continue
		}
		if _, ok := t.subtype(local, symbol, seen, false); ok {
			return false, true
		}
	}
	return false, false
}

// Superclass returns the local declaration decl extends, or nil
func (t *Tree) Superclass(decl *sitter.Node) *sitter.Node {
	types := NamedChildren(decl.ChildByFieldName("superclass"))
	if len(types) == 0 {
		return nil
	}
	return t.localDecl(TypeName(t, types[0]))
}

// localDecl returns the declaration of a type declared in this unit
func (t *Tree) localDecl(name string) *sitter.Node {
	q, tier := t.resolver.Resolve(name)
	if tier != engine.TierBound {
		return nil
	}
	return t.decls[q]
}

// Declaration returns the declaration of the local type with the given
// qualified name
func (t *Tree) Declaration(qualified string) *sitter.Node {
	return t.decls[qualified]
}

// References returns every name in the unit, outside the header, that
// refers to symbol or to a type nested in it.
func (t *Tree) References(symbol string) []*sitter.Node {
	_, simple := splitLast(symbol)
	var refs []*sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "import_declaration", "package_declaration":
			return
		case "marker_annotation", "annotation":
			if name := n.ChildByFieldName("name"); t.refers(name, symbol) {
				refs = append(refs, name)
			}
			if args := n.ChildByFieldName("arguments"); args != nil {
				visit(args)
			}
			return
		case "type_identifier", "scoped_type_identifier":
			if t.refers(n, symbol) {
				refs = append(refs, n)
			}
			return
		case "method_invocation", "field_access":
			obj := n.ChildByFieldName("object")
			if obj != nil && (obj.Type() == "identifier" || obj.Type() == "scoped_identifier") && t.refers(obj, symbol) {
				refs = append(refs, obj)
			}
			if n.Type() == "method_invocation" && obj == nil {
				if name := n.ChildByFieldName("name"); name != nil {
					if ok, _ := t.resolver.MatchesStatic(t.Text(name), symbol); ok {
						refs = append(refs, name)
					}
				}
			}
		case "identifier":
			// bare identifiers only refer to types as call or field qualifiers
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c != nil {
				visit(c)
			}
		}
	}
	if simple != "" {
		visit(t.root)
	}
	return refs
}

func (t *Tree) refers(name *sitter.Node, symbol string) bool {
	if name == nil {
		return false
	}
	text := strings.Join(strings.Fields(t.Text(name)), "")
	if ok, _ := t.resolver.Matches(text, symbol); ok {
		return true
	}
	q, tier := t.resolver.Resolve(text)
	return tier != engine.TierUnresolved && strings.HasPrefix(q, symbol+".")
}

func (t *Tree) parseImport(n *sitter.Node) Import {
	imp := Import{Path: t.dottedName(n)}
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.OnDemand = true
		}
	}
	return imp
}

// dottedName returns the identifier or scoped identifier of a header declaration
func (t *Tree) dottedName(n *sitter.Node) string {
	for _, c := range NamedChildren(n) {
		if c.Type() == "identifier" || c.Type() == "scoped_identifier" {
			return strings.Join(strings.Fields(t.Text(c)), "")
		}
	}
	return ""
}

func (t *Tree) indexDeclarations(n *sitter.Node, prefix string, local map[string]string, methods *[]string) {
	for _, c := range NamedChildren(n) {
		if c.Type() == "method_declaration" {
			if name := c.ChildByFieldName("name"); name != nil {
				*methods = append(*methods, t.Text(name))
			}
			continue
		}
		if !slices.Contains(typeDeclarations, c.Type()) {
			if c.Type() == "class_body" || c.Type() == "interface_body" || c.Type() == "enum_body" ||
				c.Type() == "enum_body_declarations" || c.Type() == "annotation_type_body" {
				t.indexDeclarations(c, prefix, local, methods)
			}
			continue
		}
		name := c.ChildByFieldName("name")
		if name == nil {
			continue
		}
		simple := t.Text(name)
		qualified := simple
		if prefix != "" {
			qualified = prefix + "." + simple
		}
		if _, exists := local[simple]; !exists {
			local[simple] = qualified
		}
		t.decls[qualified] = c
		if body := c.ChildByFieldName("body"); body != nil {
			t.indexDeclarations(body, qualified, local, methods)
		}
	}
}
