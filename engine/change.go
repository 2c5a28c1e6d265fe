package engine

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Piece is one part of a replacement: literal text or a reference to an
// original node whose source is carried over verbatim.
type Piece struct {
	Text string
	Node *sitter.Node
}

// Lit returns a literal text piece
func Lit(s string) Piece {
	return Piece{Text: s}
}

// Ref returns a piece that moves n's original source into the replacement
func Ref(n *sitter.Node) Piece {
	return Piece{Node: n}
}

// Fragment is replacement text assembled from pieces.
type Fragment []Piece

// Render materializes the fragment against the original source
func (f Fragment) Render(src []byte) string {
	var sb strings.Builder
	for _, p := range f {
		if p.Node != nil {
			sb.Write(src[p.Node.StartByte():p.Node.EndByte()])
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Refs returns the nodes moved by the fragment, in order
func (f Fragment) Refs() []*sitter.Node {
	var refs []*sitter.Node
	for _, p := range f {
		if p.Node != nil {
			refs = append(refs, p.Node)
		}
	}
	return refs
}

// Edit replaces the byte span [Start, End) of the original source. Start ==
// End is an insertion. Owner is the sequence number of the producing
// operation, or -1 for import header edits.
type Edit struct {
	Start    uint32
	End      uint32
	Fragment Fragment
	Owner    int
}

// Insertion reports whether the edit inserts without replacing
func (e Edit) Insertion() bool {
	return e.Start == e.End
}

// Overlaps reports whether two edits touch the same bytes. Edits sharing
// only a boundary do not overlap.
func (e Edit) Overlaps(o Edit) bool {
	if e.Insertion() && o.Insertion() {
		return false
	}
	return e.Start < o.End && o.Start < e.End
}

type span struct {
	start, end uint32
}

// Change collects the edits and import requests of one operation's rewrite.
type Change struct {
	op       *Operation
	src      []byte
	consumed []span
	imports  Requester
	edits    []Edit
}

func newChange(op *Operation, src []byte, consumed []span, imports Requester) *Change {
	return &Change{op: op, src: src, consumed: consumed, imports: imports}
}

// Replace swaps n for the given pieces
func (c *Change) Replace(n *sitter.Node, pieces ...Piece) {
	c.ReplaceSpan(n.StartByte(), n.EndByte(), pieces...)
}

// ReplaceSpan swaps the byte span [start, end) for the given pieces
func (c *Change) ReplaceSpan(start, end uint32, pieces ...Piece) {
	c.edits = append(c.edits, Edit{Start: start, End: end, Fragment: Fragment(pieces), Owner: c.op.Seq})
}

// InsertBefore inserts pieces immediately before n
func (c *Change) InsertBefore(n *sitter.Node, pieces ...Piece) {
	c.ReplaceSpan(n.StartByte(), n.StartByte(), pieces...)
}

// InsertAfter inserts pieces immediately after n
func (c *Change) InsertAfter(n *sitter.Node, pieces ...Piece) {
	c.ReplaceSpan(n.EndByte(), n.EndByte(), pieces...)
}

// Delete removes n together with the horizontal whitespace preceding it
func (c *Change) Delete(n *sitter.Node) {
	start := n.StartByte()
	for start > 0 && (c.src[start-1] == ' ' || c.src[start-1] == '\t') {
		start--
	}
	c.ReplaceSpan(start, n.EndByte())
}

// DeleteLines removes every line n occupies when n is alone on them, or just n otherwise
func (c *Change) DeleteLines(n *sitter.Node) {
	start, end := n.StartByte(), n.EndByte()
	lineStart := start
	for lineStart > 0 && (c.src[lineStart-1] == ' ' || c.src[lineStart-1] == '\t') {
		lineStart--
	}
	lineEnd := end
	for int(lineEnd) < len(c.src) && (c.src[lineEnd] == ' ' || c.src[lineEnd] == '\t') {
		lineEnd++
	}
	atLineStart := lineStart == 0 || c.src[lineStart-1] == '\n'
	atLineEnd := int(lineEnd) == len(c.src) || c.src[lineEnd] == '\n' || c.src[lineEnd] == '\r'
	if !atLineStart || !atLineEnd {
		c.Delete(n)
		return
	}
	if int(lineEnd) < len(c.src) && c.src[lineEnd] == '\r' {
		lineEnd++
	}
	if int(lineEnd) < len(c.src) && c.src[lineEnd] == '\n' {
		lineEnd++
	}
	c.ReplaceSpan(lineStart, lineEnd)
}

// Indent returns the whitespace that precedes n on its line
func (c *Change) Indent(n *sitter.Node) string {
	start := n.StartByte()
	i := start
	for i > 0 && (c.src[i-1] == ' ' || c.src[i-1] == '\t') {
		i--
	}
	if i > 0 && c.src[i-1] != '\n' {
		return ""
	}
	return string(c.src[i:start])
}

// Separator returns the text that puts a sibling construct next to n: a
// newline plus n's indentation when n starts its line, else a single space.
func (c *Change) Separator(n *sitter.Node) string {
	start := n.StartByte()
	i := start
	for i > 0 && (c.src[i-1] == ' ' || c.src[i-1] == '\t') {
		i--
	}
	if i == 0 || c.src[i-1] == '\n' {
		return "\n" + string(c.src[i:start])
	}
	return " "
}

// AddImport requests an import of symbol
func (c *Change) AddImport(symbol string) {
	c.imports.Add(symbol)
}

// RemoveImport requests removal of symbol's import unconditionally
func (c *Change) RemoveImport(symbol string) {
	c.imports.Remove(symbol)
}

// AddStaticImport requests a static import of symbol.member
func (c *Change) AddStaticImport(symbol, member string) {
	c.imports.AddStatic(symbol, member)
}

// RemoveStaticImport requests removal of the static import symbol.member
func (c *Change) RemoveStaticImport(symbol, member string) {
	c.imports.RemoveStatic(symbol, member)
}

// RemoveImportUnlessReferenced requests removal of symbol's import only when
// every reference recorded for it at find time is consumed by an operation of
// this pass. Symbols the operation never tracked are removed unconditionally.
func (c *Change) RemoveImportUnlessReferenced(symbol string) {
	refs, tracked := c.op.refs[symbol]
	if tracked {
		for _, ref := range refs {
			if !c.isConsumed(ref) {
				return
			}
		}
	}
	c.imports.Remove(symbol)
}

// Referenced reports whether symbol still has a reference no operation consumes
func (c *Change) Referenced(symbol string) bool {
	for _, ref := range c.op.refs[symbol] {
		if !c.isConsumed(ref) {
			return true
		}
	}
	return false
}

func (c *Change) isConsumed(n *sitter.Node) bool {
	start, end := n.StartByte(), n.EndByte()
	for _, s := range c.consumed {
		if s.start <= start && end <= s.end {
			return true
		}
	}
	return false
}

// Source returns the original text of n
func (c *Change) Source(n *sitter.Node) string {
	return string(c.src[n.StartByte():n.EndByte()])
}

// Edits returns the edits recorded so far
func (c *Change) Edits() []Edit {
	return c.edits
}
