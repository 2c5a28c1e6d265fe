package java

import (
	"slices"
	"strings"

	"github.com/oxhq/junify/engine"
)

// javaLang lists the java.lang types resolved without an import.
var javaLang = map[string]bool{
	"AssertionError": true, "AutoCloseable": true, "Boolean": true, "Byte": true,
	"CharSequence": true, "Character": true, "Class": true, "Cloneable": true,
	"Comparable": true, "Deprecated": true, "Double": true, "Enum": true,
	"Error": true, "Exception": true, "Float": true, "FunctionalInterface": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
	"IndexOutOfBoundsException": true, "Integer": true, "InterruptedException": true,
	"Iterable": true, "Long": true, "Math": true, "NullPointerException": true,
	"Number": true, "Object": true, "Override": true, "Record": true,
	"Runnable": true, "RuntimeException": true, "SafeVarargs": true, "Short": true,
	"String": true, "StringBuilder": true, "SuppressWarnings": true, "System": true,
	"Thread": true, "Throwable": true, "UnsupportedOperationException": true, "Void": true,
}

// staticMembers lists the static methods of library classes commonly
// imported on demand. An unqualified call to any other name never refers to
// one of these classes.
var staticMembers = map[string][]string{
	"org.junit.Assert": {
		"assertArrayEquals", "assertEquals", "assertFalse", "assertNotEquals", "assertNotNull",
		"assertNotSame", "assertNull", "assertSame", "assertThat", "assertThrows", "assertTrue", "fail",
	},
	"org.junit.Assume": {
		"assumeFalse", "assumeNoException", "assumeNotNull", "assumeThat", "assumeTrue",
	},
	"org.hamcrest.MatcherAssert": {"assertThat"},
}

// Import is one import declaration of a compilation unit.
type Import struct {
	Path     string // dotted name without the trailing .*
	Static   bool
	OnDemand bool
}

// Key returns the coordinator key of the import
func (imp Import) Key() engine.ImportKey {
	switch {
	case imp.Static && imp.OnDemand:
		return engine.ImportKey{Symbol: imp.Path, Member: "*", Static: true}
	case imp.Static:
		owner, member := splitLast(imp.Path)
		return engine.ImportKey{Symbol: owner, Member: member, Static: true}
	case imp.OnDemand:
		return engine.ImportKey{Symbol: imp.Path + ".*"}
	default:
		return engine.ImportKey{Symbol: imp.Path}
	}
}

// Resolver maps names written in a compilation unit to qualified symbols.
// Names bound by an import, a local declaration or java.lang resolve in the
// bound tier; everything else goes through simple-name heuristics.
type Resolver struct {
	pkg          string
	single       map[string]string
	static       map[string]string
	demand       []string
	staticDemand []string
	local        map[string]string
	roots        map[string]bool
	methods      map[string]bool
}

// NewResolver builds a resolver from a unit's package, imports and declared
// types (simple name to qualified name).
func NewResolver(pkg string, imports []Import, local map[string]string) *Resolver {
	r := &Resolver{
		pkg:     pkg,
		single:  make(map[string]string),
		static:  make(map[string]string),
		local:   local,
		roots:   make(map[string]bool),
		methods: make(map[string]bool),
	}
	if r.local == nil {
		r.local = make(map[string]string)
	}

	for _, imp := range imports {
		switch {
		case imp.Static && imp.OnDemand:
			r.staticDemand = append(r.staticDemand, imp.Path)
		case imp.Static:
			owner, member := splitLast(imp.Path)
			r.static[member] = owner
		case imp.OnDemand:
			r.demand = append(r.demand, imp.Path)
		default:
			_, simple := splitLast(imp.Path)
			r.single[simple] = imp.Path
		}
		r.roots[namespaceRoot(imp.Path)] = true
	}
	return r
}

// Resolve maps a simple or dotted name to a qualified symbol
func (r *Resolver) Resolve(name string) (string, engine.Tier) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", engine.TierUnresolved
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		head, rest := name[:i], name[i:]
		if isLowerStart(head) {
			return name, engine.TierBound
		}
		if q, tier := r.resolveSimple(head); tier != engine.TierUnresolved {
			return q + rest, tier
		}
		return "", engine.TierUnresolved
	}
	return r.resolveSimple(name)
}

func (r *Resolver) resolveSimple(name string) (string, engine.Tier) {
	if q, ok := r.single[name]; ok {
		return q, engine.TierBound
	}
	if q, ok := r.local[name]; ok {
		return q, engine.TierBound
	}
	if javaLang[name] {
		return "java.lang." + name, engine.TierBound
	}
	if len(r.demand) == 1 {
		return r.demand[0] + "." + name, engine.TierHeuristic
	}
	return "", engine.TierUnresolved
}

// Matches reports whether name refers to symbol. A name the unit binds to
// another symbol never matches; an unbound name matches on simple-name
// equality when the symbol's owner is imported on demand, or when nothing is
// imported on demand and the unit imports from the symbol's namespace.
func (r *Resolver) Matches(name, symbol string) (bool, engine.Tier) {
	q, tier := r.Resolve(name)
	switch tier {
	case engine.TierBound:
		return q == symbol, engine.TierBound
	case engine.TierHeuristic:
		if q == symbol {
			return true, engine.TierHeuristic
		}
	}

	name = strings.TrimSpace(name)
	if !strings.HasSuffix(symbol, "."+name) {
		return false, engine.TierUnresolved
	}
	owner := strings.TrimSuffix(symbol, "."+name)
	if slices.Contains(r.demand, owner) {
		return true, engine.TierHeuristic
	}
	if len(r.demand) == 0 && r.roots[namespaceRoot(owner)] {
		return true, engine.TierHeuristic
	}
	return false, engine.TierUnresolved
}

// DeclareMethods records the names of methods declared in the unit. They
// shadow members imported on demand.
func (r *Resolver) DeclareMethods(names ...string) {
	for _, name := range names {
		r.methods[name] = true
	}
}

// MatchesStatic reports whether an unqualified call to member resolves to a
// static member of owner through the unit's static imports.
func (r *Resolver) MatchesStatic(member, owner string) (bool, engine.Tier) {
	if o, ok := r.static[member]; ok {
		return o == owner, engine.TierBound
	}
	if !slices.Contains(r.staticDemand, owner) {
		return false, engine.TierUnresolved
	}
	if r.methods[member] {
		return false, engine.TierBound
	}
	if known, ok := staticMembers[owner]; ok && !slices.Contains(known, member) {
		return false, engine.TierBound
	}
	return true, engine.TierHeuristic
}

// Local reports whether qualified names a type declared in the unit
func (r *Resolver) Local(qualified string) bool {
	for _, q := range r.local {
		if q == qualified {
			return true
		}
	}
	return false
}

// Package returns the unit's package name
func (r *Resolver) Package() string {
	return r.pkg
}

func splitLast(path string) (string, string) {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// namespaceRoot returns the first two segments of a dotted name.
func namespaceRoot(path string) string {
	parts := strings.SplitN(path, ".", 3)
	if len(parts) < 2 {
		return path
	}
	return parts[0] + "." + parts[1]
}

func isLowerStart(s string) bool {
	return s != "" && s[0] >= 'a' && s[0] <= 'z'
}
