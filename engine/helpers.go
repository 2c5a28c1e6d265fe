package engine

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// RenameAnnotation replaces the matched annotation with @name. When the
// placeholder value is bound its node is moved into the new annotation as its
// single value; otherwise the result is a bare marker.
func RenameAnnotation(c *Change, m *Match, name, value string) {
	if value != "" {
		if v := m.Bindings.Node(value); v != nil {
			c.Replace(m.Node, Lit("@"+name+"("), Ref(v), Lit(")"))
			return
		}
	}
	c.Replace(m.Node, Lit("@"+name))
}

// Permute returns args rearranged so that position i holds args[order[i]].
// Arities 1 through 4 are supported.
func Permute[T any](args []T, order []int) ([]T, error) {
	if err := checkOrder(len(args), order); err != nil {
		return nil, err
	}
	out := make([]T, len(args))
	for i, from := range order {
		out[i] = args[from]
	}
	return out, nil
}

// InvertOrder returns the order that undoes order
func InvertOrder(order []int) ([]int, error) {
	if err := checkOrder(len(order), order); err != nil {
		return nil, err
	}
	inv := make([]int, len(order))
	for i, from := range order {
		inv[from] = i
	}
	return inv, nil
}

// ReorderArguments moves each argument into its new slot. Every slot is
// replaced by a reference to the original argument node, so comments and
// nested expressions travel with it.
func ReorderArguments(c *Change, args []*sitter.Node, order []int) error {
	moved, err := Permute(args, order)
	if err != nil {
		return err
	}
	for i, slot := range args {
		if moved[i] == slot {
			continue
		}
		c.Replace(slot, Ref(moved[i]))
	}
	return nil
}

func checkOrder(n int, order []int) error {
	if n < 1 || n > 4 || len(order) != n {
		return fmt.Errorf("%w: %d arguments, order %v", ErrInvalidPermutation, n, order)
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return fmt.Errorf("%w: %v", ErrInvalidPermutation, order)
		}
		seen[i] = true
	}
	return nil
}

// DeclarationTransform swaps a type's legacy supertype for a set of
// implemented capabilities and renames its lifecycle members.
type DeclarationTransform struct {
	// Direct is set when the type extends the legacy base itself.
	Direct bool
	// Supertype is the extends clause to replace, nil for indirect subclasses.
	Supertype *sitter.Node
	// Extends is the extends clause an indirect subclass keeps. Capabilities
	// it does not inherit are implemented after it.
	Extends *sitter.Node
	// Interfaces is the type list of an existing implements clause, if any.
	Interfaces   *sitter.Node
	Capabilities []string
	Members      []MemberRename
}

// MemberRename renames one method and adapts its signature.
type MemberRename struct {
	Name *sitter.Node
	To   string
	// Params is the parameter list; Parameter is prepended to it when set.
	Params    *sitter.Node
	Parameter string
	// Visibility is an access modifier replaced by public. When it is nil and
	// PublicBefore is set, public is inserted before that node.
	Visibility   *sitter.Node
	PublicBefore *sitter.Node
	// Throws is a throws clause to drop.
	Throws     *sitter.Node
	SuperCalls []SuperCall
}

// SuperCall is an invocation of the superclass version of a renamed member.
// When Drop is set the statement is removed instead of renamed.
type SuperCall struct {
	Name      *sitter.Node
	Args      *sitter.Node
	To        string
	Arguments string
	Drop      *sitter.Node
}

// Applies reports whether the declaration qualifies for migration: always
// for a direct subclass, and for an indirect one only when it declares at
// least one lifecycle member.
func (d DeclarationTransform) Applies() bool {
	return d.Direct || len(d.Members) > 0
}

// Apply emits the edits of the transform
func (d DeclarationTransform) Apply(c *Change) {
	caps := strings.Join(d.Capabilities, ", ")
	switch {
	case d.Supertype != nil && caps == "":
		c.Delete(d.Supertype)
	case d.Supertype != nil && d.Interfaces != nil:
		c.Delete(d.Supertype)
		c.InsertAfter(d.Interfaces, Lit(", "+caps))
	case d.Supertype != nil:
		c.Replace(d.Supertype, Lit("implements "+caps))
	case caps == "":
	case d.Interfaces != nil:
		c.InsertAfter(d.Interfaces, Lit(", "+caps))
	case d.Extends != nil:
		c.InsertAfter(d.Extends, Lit(" implements "+caps))
	}

	for _, mr := range d.Members {
		switch {
		case mr.Visibility != nil:
			c.Replace(mr.Visibility, Lit("public"))
		case mr.PublicBefore != nil:
			c.InsertBefore(mr.PublicBefore, Lit("public "))
		}
		c.Replace(mr.Name, Lit(mr.To))
		if mr.Parameter != "" && mr.Params != nil {
			if mr.Params.NamedChildCount() == 0 {
				c.Replace(mr.Params, Lit("("+mr.Parameter+")"))
			} else {
				at := mr.Params.StartByte() + 1
				c.ReplaceSpan(at, at, Lit(mr.Parameter+", "))
			}
		}
		if mr.Throws != nil {
			c.Delete(mr.Throws)
		}
		for _, sc := range mr.SuperCalls {
			if sc.Drop != nil {
				c.DeleteLines(sc.Drop)
				continue
			}
			c.Replace(sc.Name, Lit(sc.To))
			c.Replace(sc.Args, Lit("("+sc.Arguments+")"))
		}
	}
}
