package java

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/junify/engine"
)

// IsComment reports whether n is a line or block comment
func IsComment(n *sitter.Node) bool {
	switch n.Type() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

// NamedChildren returns n's named children without comments
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || IsComment(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ChildOfType returns the first direct child of n with the given type
func ChildOfType(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == typ {
			return c
		}
	}
	return nil
}

// AnnotationArgs returns the elements of an annotation's argument list
func AnnotationArgs(n *sitter.Node) []*sitter.Node {
	if n.Type() != "annotation" {
		return nil
	}
	return NamedChildren(n.ChildByFieldName("arguments"))
}

// ElementPair splits an element_value_pair into its key and value nodes
func ElementPair(n *sitter.Node) (key, value *sitter.Node) {
	if n == nil || n.Type() != "element_value_pair" {
		return nil, nil
	}
	return n.ChildByFieldName("key"), n.ChildByFieldName("value")
}

// CallArgs returns the argument expressions of a method invocation or
// object creation expression
func CallArgs(n *sitter.Node) []*sitter.Node {
	return NamedChildren(n.ChildByFieldName("arguments"))
}

// Modifiers returns the modifiers node of a declaration, or nil
func Modifiers(decl *sitter.Node) *sitter.Node {
	return ChildOfType(decl, "modifiers")
}

// Annotations returns the annotations among a declaration's modifiers
func Annotations(decl *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range NamedChildren(Modifiers(decl)) {
		if c.Type() == "marker_annotation" || c.Type() == "annotation" {
			out = append(out, c)
		}
	}
	return out
}

// ModifierKeyword returns the keyword token kw among a declaration's
// modifiers, or nil
func ModifierKeyword(decl *sitter.Node, kw string) *sitter.Node {
	return ChildOfType(Modifiers(decl), kw)
}

// Enclosing returns the nearest ancestor of n with one of the given types
func Enclosing(n *sitter.Node, types ...string) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		for _, typ := range types {
			if p.Type() == typ {
				return p
			}
		}
	}
	return nil
}

// Methods returns the method declarations directly in a class body
func Methods(decl *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range NamedChildren(decl.ChildByFieldName("body")) {
		if c.Type() == "method_declaration" {
			out = append(out, c)
		}
	}
	return out
}

// Throws returns the throws clause of a method, or nil
func Throws(method *sitter.Node) *sitter.Node {
	return ChildOfType(method, "throws")
}

// Supertypes returns the type nodes a declaration extends or implements
func Supertypes(decl *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	out = append(out, NamedChildren(decl.ChildByFieldName("superclass"))...)
	for _, clause := range []*sitter.Node{decl.ChildByFieldName("interfaces"), ChildOfType(decl, "extends_interfaces")} {
		for _, list := range NamedChildren(clause) {
			if list.Type() == "type_list" {
				out = append(out, NamedChildren(list)...)
			}
		}
	}
	return out
}

// TypeName returns the written name of a type node without type arguments
func TypeName(t engine.Tree, typ *sitter.Node) string {
	if typ == nil {
		return ""
	}
	switch typ.Type() {
	case "generic_type":
		if children := NamedChildren(typ); len(children) > 0 {
			return TypeName(t, children[0])
		}
	case "annotated_type":
		if children := NamedChildren(typ); len(children) > 0 {
			return TypeName(t, children[len(children)-1])
		}
	}
	return strings.Join(strings.Fields(t.Text(typ)), "")
}

// IntLiteral returns the value of an integer literal node. Any other
// expression, including constants and arithmetic, is not a literal.
func IntLiteral(t engine.Tree, n *sitter.Node) (int64, bool) {
	switch n.Type() {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
	default:
		return 0, false
	}
	text := strings.ReplaceAll(t.Text(n), "_", "")
	text = strings.TrimRight(text, "lL")
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ClassLiteralType returns the type of a `X.class` expression, or nil
func ClassLiteralType(n *sitter.Node) *sitter.Node {
	if n == nil || n.Type() != "class_literal" {
		return nil
	}
	children := NamedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// IsStringExpr reports whether expression n is statically known to be a
// java.lang.String: literals, concatenations, String-typed casts and
// variables declared as String within the unit.
func IsStringExpr(t engine.Tree, n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "string_literal", "text_block":
		return true
	case "parenthesized_expression":
		children := NamedChildren(n)
		return len(children) == 1 && IsStringExpr(t, children[0])
	case "binary_expression":
		op := n.ChildByFieldName("operator")
		if op == nil || op.Type() != "+" {
			return false
		}
		return IsStringExpr(t, n.ChildByFieldName("left")) || IsStringExpr(t, n.ChildByFieldName("right"))
	case "cast_expression":
		return isStringType(t, n.ChildByFieldName("type"))
	case "method_invocation":
		name := n.ChildByFieldName("name")
		if name == nil {
			return false
		}
		switch t.Text(name) {
		case "toString":
			return len(CallArgs(n)) == 0
		case "format", "valueOf", "join":
			obj := n.ChildByFieldName("object")
			return obj != nil && isStringType(t, obj)
		}
	case "identifier":
		return isStringType(t, DeclaredType(t, n))
	case "field_access":
		obj := n.ChildByFieldName("object")
		field := n.ChildByFieldName("field")
		if obj == nil || field == nil || obj.Type() != "this" {
			return false
		}
		return isStringType(t, fieldType(t, Enclosing(n, "class_declaration", "enum_declaration"), t.Text(field)))
	}
	return false
}

func isStringType(t engine.Tree, typ *sitter.Node) bool {
	if typ == nil {
		return false
	}
	q, _ := t.Resolve(TypeName(t, typ))
	return q == "java.lang.String"
}

// DeclaredType finds the declared type of the variable ident refers to by
// walking the enclosing scopes outwards: locals declared before ident,
// parameters, then fields of the enclosing classes.
func DeclaredType(t engine.Tree, ident *sitter.Node) *sitter.Node {
	name := t.Text(ident)
	for p := ident.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "block", "constructor_body", "switch_block_statement_group":
			for _, stmt := range NamedChildren(p) {
				if stmt.StartByte() >= ident.StartByte() {
					break
				}
				if stmt.Type() == "local_variable_declaration" && declares(t, stmt, name) {
					return stmt.ChildByFieldName("type")
				}
			}
		case "for_statement":
			if init := p.ChildByFieldName("init"); init != nil && init.Type() == "local_variable_declaration" && declares(t, init, name) {
				return init.ChildByFieldName("type")
			}
		case "enhanced_for_statement", "catch_formal_parameter":
			if n := p.ChildByFieldName("name"); n != nil && t.Text(n) == name {
				return p.ChildByFieldName("type")
			}
		case "method_declaration", "constructor_declaration", "lambda_expression":
			for _, param := range NamedChildren(p.ChildByFieldName("parameters")) {
				if n := param.ChildByFieldName("name"); n != nil && t.Text(n) == name {
					return param.ChildByFieldName("type")
				}
			}
		case "class_declaration", "enum_declaration", "record_declaration":
			if typ := fieldType(t, p, name); typ != nil {
				return typ
			}
		}
	}
	return nil
}

func fieldType(t engine.Tree, decl *sitter.Node, name string) *sitter.Node {
	if decl == nil {
		return nil
	}
	for _, member := range NamedChildren(decl.ChildByFieldName("body")) {
		if member.Type() == "field_declaration" && declares(t, member, name) {
			return member.ChildByFieldName("type")
		}
	}
	return nil
}

// declares reports whether a variable or field declaration declares name
func declares(t engine.Tree, decl *sitter.Node, name string) bool {
	for _, d := range Declarators(decl) {
		if n := d.ChildByFieldName("name"); n != nil && t.Text(n) == name {
			return true
		}
	}
	return false
}

// Declarators returns the variable declarators of a field or local
// variable declaration
func Declarators(decl *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range NamedChildren(decl) {
		if c.Type() == "variable_declarator" {
			out = append(out, c)
		}
	}
	return out
}
