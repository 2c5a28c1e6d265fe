package java

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/junify/engine"
)

// ImportEdits turns the net import deltas of a pass into edits of the
// unit's header. Removed imports lose their whole line; added imports are
// written in sorted order, static ones last, after the last surviving import.
// Additions already covered by an on-demand import are skipped.
func ImportEdits(t *Tree, deltas []engine.ImportDelta) []engine.Edit {
	removed := make(map[engine.ImportKey]bool)
	var adds, addsStatic []string
	for _, d := range deltas {
		switch d.Action {
		case engine.ImportRemove, engine.ImportRemoveStatic:
			removed[d.Key()] = true
		}
	}
	for _, d := range deltas {
		switch d.Action {
		case engine.ImportAdd:
			if !t.coveredOnDemand(d.Symbol, removed) {
				adds = append(adds, "import "+d.Symbol+";")
			}
		case engine.ImportAddStatic:
			if !t.coveredStatic(d.Symbol, removed) {
				addsStatic = append(addsStatic, "import static "+d.Symbol+"."+d.Member+";")
			}
		}
	}

	var edits []engine.Edit
	var anchor *sitter.Node
	for i, n := range t.importNodes {
		if removed[t.imports[i].Key()] {
			start, end := lineSpan(t.source, n)
			edits = append(edits, engine.Edit{Start: start, End: end, Owner: -1})
			continue
		}
		anchor = n
	}

	sort.Strings(adds)
	sort.Strings(addsStatic)
	lines := append(adds, addsStatic...)
	if len(lines) == 0 {
		return edits
	}
	block := strings.Join(lines, "\n")

	var insert engine.Edit
	switch {
	case anchor != nil:
		at := anchor.EndByte()
		insert = engine.Edit{Start: at, End: at, Fragment: engine.Fragment{engine.Lit("\n" + block)}}
	case len(t.importNodes) > 0:
		at, _ := lineSpan(t.source, t.importNodes[0])
		insert = engine.Edit{Start: at, End: at, Fragment: engine.Fragment{engine.Lit(block + "\n")}}
	case t.pkg != nil:
		at := t.pkg.EndByte()
		insert = engine.Edit{Start: at, End: at, Fragment: engine.Fragment{engine.Lit("\n\n" + block)}}
	default:
		insert = engine.Edit{Fragment: engine.Fragment{engine.Lit(block + "\n\n")}}
	}
	insert.Owner = -1
	return append(edits, insert)
}

// coveredOnDemand reports whether symbol is already visible through a
// surviving on-demand import of its package or through the unit's package.
func (t *Tree) coveredOnDemand(symbol string, removed map[engine.ImportKey]bool) bool {
	owner, _ := splitLast(symbol)
	if owner == t.resolver.Package() {
		return true
	}
	key := engine.ImportKey{Symbol: owner + ".*"}
	for _, imp := range t.imports {
		if imp.Key() == key && !removed[key] {
			return true
		}
	}
	return false
}

func (t *Tree) coveredStatic(owner string, removed map[engine.ImportKey]bool) bool {
	key := engine.ImportKey{Symbol: owner, Member: "*", Static: true}
	for _, imp := range t.imports {
		if imp.Key() == key && !removed[key] {
			return true
		}
	}
	return false
}

// lineSpan returns the span of the lines n occupies including the trailing
// newline, or n's own span when other code shares those lines.
func lineSpan(src []byte, n *sitter.Node) (uint32, uint32) {
	start, end := n.StartByte(), n.EndByte()
	lineStart := start
	for lineStart > 0 && (src[lineStart-1] == ' ' || src[lineStart-1] == '\t') {
		lineStart--
	}
	lineEnd := end
	for int(lineEnd) < len(src) && (src[lineEnd] == ' ' || src[lineEnd] == '\t' || src[lineEnd] == '\r') {
		lineEnd++
	}
	if lineStart > 0 && src[lineStart-1] != '\n' {
		return start, end
	}
	if int(lineEnd) < len(src) {
		if src[lineEnd] != '\n' {
			return start, end
		}
		lineEnd++
	}
	return lineStart, lineEnd
}
