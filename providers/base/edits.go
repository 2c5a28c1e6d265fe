package base

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/oxhq/junify/engine"
)

// ApplyEdits materializes edits against src. Edits are sorted, checked for
// overlap and spliced in one forward pass; each fragment renders its moved
// nodes from the original source.
func ApplyEdits(src []byte, edits []engine.Edit) ([]byte, error) {
	if len(edits) == 0 {
		return slices.Clone(src), nil
	}

	sorted := slices.Clone(edits)
	engine.SortEdits(sorted)
	if err := engine.CheckOverlaps(sorted); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(len(src) + len(src)/8)

	cursor := uint32(0)
	for _, e := range sorted {
		if int(e.End) > len(src) || e.Start > e.End {
			return nil, fmt.Errorf("edit [%d,%d) outside source of %d bytes", e.Start, e.End, len(src))
		}
		out.Write(src[cursor:e.Start])
		out.WriteString(e.Fragment.Render(src))
		if e.End > cursor {
			cursor = e.End
		}
	}
	out.Write(src[cursor:])
	return out.Bytes(), nil
}
