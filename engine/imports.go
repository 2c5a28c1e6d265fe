package engine

import (
	"fmt"
	"sort"
)

// ImportAction is the kind of change requested for an import declaration.
type ImportAction int

const (
	ImportAdd ImportAction = iota
	ImportRemove
	ImportAddStatic
	ImportRemoveStatic
)

// String returns the action name
func (a ImportAction) String() string {
	switch a {
	case ImportAdd:
		return "add"
	case ImportRemove:
		return "remove"
	case ImportAddStatic:
		return "add-static"
	case ImportRemoveStatic:
		return "remove-static"
	default:
		return fmt.Sprintf("ImportAction(%d)", int(a))
	}
}

// ImportKey identifies one import declaration. Member is set for static
// imports and is "*" for on-demand static imports; a non-static on-demand
// import keeps the ".*" suffix in Symbol.
type ImportKey struct {
	Symbol string
	Member string
	Static bool
}

// String renders the key the way it is written after the import keyword
func (k ImportKey) String() string {
	if k.Static {
		return "static " + k.Symbol + "." + k.Member
	}
	return k.Symbol
}

// ImportDelta is one net change to a compilation unit's imports.
type ImportDelta struct {
	Action ImportAction
	Symbol string
	Member string
}

// Key returns the import declaration the delta refers to
func (d ImportDelta) Key() ImportKey {
	static := d.Action == ImportAddStatic || d.Action == ImportRemoveStatic
	return ImportKey{Symbol: d.Symbol, Member: d.Member, Static: static}
}

// String renders the delta as +import or -import
func (d ImportDelta) String() string {
	sign := "+"
	if d.Action == ImportRemove || d.Action == ImportRemoveStatic {
		sign = "-"
	}
	return sign + d.Key().String()
}

type importState int

const (
	stateAbsent importState = iota
	statePresent
	statePendingAdd
	statePendingRemove
)

type importEntry struct {
	present bool
	state   importState
	adders  map[int]struct{}
}

// Coordinator accumulates import requests from every operation of one pass
// and resolves them into a minimal set of net changes.
type Coordinator struct {
	entries map[ImportKey]*importEntry
}

// NewCoordinator creates a coordinator for a unit that currently declares existing
func NewCoordinator(existing []ImportKey) *Coordinator {
	c := &Coordinator{entries: make(map[ImportKey]*importEntry)}
	for _, key := range existing {
		c.entries[key] = &importEntry{present: true, state: statePresent}
	}
	return c
}

// Requester returns the request handle for one owner, normally an operation sequence number
func (c *Coordinator) Requester(owner int) Requester {
	return Requester{c: c, owner: owner}
}

// Requester files import requests on behalf of one owner.
type Requester struct {
	c     *Coordinator
	owner int
}

// Add requests that symbol be imported
func (r Requester) Add(symbol string) {
	r.c.request(r.owner, ImportKey{Symbol: symbol}, true)
}

// Remove requests that symbol no longer be imported
func (r Requester) Remove(symbol string) {
	r.c.request(r.owner, ImportKey{Symbol: symbol}, false)
}

// AddStatic requests a static import of member from symbol
func (r Requester) AddStatic(symbol, member string) {
	r.c.request(r.owner, ImportKey{Symbol: symbol, Member: member, Static: true}, true)
}

// RemoveStatic requests removal of a static import of member from symbol
func (r Requester) RemoveStatic(symbol, member string) {
	r.c.request(r.owner, ImportKey{Symbol: symbol, Member: member, Static: true}, false)
}

// request moves key through its state machine. An owner's later request
// overrides its earlier one; a removal never undoes another owner's addition.
func (c *Coordinator) request(owner int, key ImportKey, add bool) {
	e, ok := c.entries[key]
	if !ok {
		e = &importEntry{state: stateAbsent}
		c.entries[key] = e
	}
	if e.adders == nil {
		e.adders = make(map[int]struct{})
	}

	if add {
		e.adders[owner] = struct{}{}
		e.state = statePendingAdd
		return
	}

	delete(e.adders, owner)
	if len(e.adders) > 0 {
		return
	}
	e.state = statePendingRemove
}

// Resolve returns the net deltas against the imports the unit started with,
// ordered by action then symbol then member.
func (c *Coordinator) Resolve() []ImportDelta {
	var deltas []ImportDelta
	for key, e := range c.entries {
		switch {
		case e.state == statePendingAdd && !e.present:
			action := ImportAdd
			if key.Static {
				action = ImportAddStatic
			}
			deltas = append(deltas, ImportDelta{Action: action, Symbol: key.Symbol, Member: key.Member})
		case e.state == statePendingRemove && e.present:
			action := ImportRemove
			if key.Static {
				action = ImportRemoveStatic
			}
			deltas = append(deltas, ImportDelta{Action: action, Symbol: key.Symbol, Member: key.Member})
		}
	}

	sort.Slice(deltas, func(i, j int) bool {
		a, b := deltas[i], deltas[j]
		if a.Action != b.Action {
			return a.Action < b.Action
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Member < b.Member
	})
	return deltas
}
