package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	identExpr = `[A-Za-z_][A-Za-z0-9_]*`
	nameExpr  = identExpr + `(?:\.` + identExpr + `)*`
)

var (
	annotationRe = regexp.MustCompile(`^@(` + nameExpr + `)(?:\((.*)\))?$`)
	callRe       = regexp.MustCompile(`^(` + nameExpr + `)\.(` + identExpr + `)\((.*)\)$`)
	typeDeclRe   = regexp.MustCompile(`^class\s+\$(` + identExpr + `)\s+extends\s+(` + nameExpr + `)$`)
	fieldDeclRe  = regexp.MustCompile(`^((?:@` + nameExpr + `\s+)*)(\$?` + nameExpr + `)\s+\$(` + identExpr + `)(?:\s*=\s*\$(` + identExpr + `))?$`)
	holeRe       = regexp.MustCompile(`^\$(` + identExpr + `)(\$?)$`)
	pairRe       = regexp.MustCompile(`^(` + identExpr + `)\s*=\s*(.+)$`)
)

// Pattern describes a node shape a rule is interested in. Patterns are built
// once at rule registration and never modified afterwards.
type Pattern struct {
	Kind   Kind
	Symbol string // qualified symbol the construct must resolve to
	Name   string // construct name as written: annotation, qualifier, base or field type
	Member string // invoked method for calls

	// Placeholders lists capture names in declaration order.
	Placeholders []string
	// Keys holds the element keys of a keyed-multi pattern, parallel to Placeholders.
	Keys []string
	// Variadic marks the last call placeholder as capturing all remaining arguments.
	Variadic bool

	// Field names the captures of a field declaration pattern.
	Field FieldSlots
	// Annotations lists the qualified annotations a field declaration must carry.
	Annotations []string

	Source string
}

// FieldSlots names the placeholders of a field declaration pattern. An empty
// Type means the declared type is written literally and must resolve to Symbol.
type FieldSlots struct {
	Type string
	Name string
	Init string
}

// Option adjusts a pattern during compilation.
type Option func(*Pattern)

// Annotated requires a field declaration to carry one of the given annotations.
func Annotated(symbols ...string) Option {
	return func(p *Pattern) {
		p.Annotations = append(p.Annotations, symbols...)
	}
}

// Compile turns the compact text form of a pattern into a Pattern. Errors wrap
// ErrIncompatiblePattern and are meant to surface at registration time.
func Compile(kind Kind, symbol, text string, opts ...Option) (*Pattern, error) {
	text = strings.TrimSpace(text)
	p := &Pattern{Kind: kind, Symbol: symbol, Source: text}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	switch {
	case symbol == "":
		err = errors.New("qualified symbol is required")
	case !kind.Valid():
		err = errors.New("unknown node kind")
	default:
		switch kind {
		case KindMarker:
			err = p.compileMarker(text)
		case KindKeyedSingleValue:
			err = p.compileKeyedSingle(text)
		case KindKeyedMultiValue:
			err = p.compileKeyedMulti(text)
		case KindCall:
			err = p.compileCall(text)
		case KindTypeDecl:
			err = p.compileTypeDecl(text)
		case KindFieldDecl:
			err = p.compileFieldDecl(text)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s pattern %q: %v", ErrIncompatiblePattern, kind, text, err)
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. It is intended for rule
// tables built at package initialisation.
func MustCompile(kind Kind, symbol, text string, opts ...Option) *Pattern {
	p, err := Compile(kind, symbol, text, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// SimpleName returns the last segment of the pattern's symbol
func (p *Pattern) SimpleName() string {
	return lastSegment(p.Symbol)
}

// String returns the pattern source
func (p *Pattern) String() string {
	return p.Source
}

func (p *Pattern) compileMarker(text string) error {
	m := annotationRe.FindStringSubmatch(text)
	if m == nil {
		return errors.New("expected @Name")
	}
	if strings.Contains(text, "(") {
		return errors.New("marker takes no values")
	}
	p.Name = m[1]
	return p.checkName()
}

func (p *Pattern) compileKeyedSingle(text string) error {
	m := annotationRe.FindStringSubmatch(text)
	if m == nil || !strings.Contains(text, "(") {
		return errors.New("expected @Name($value)")
	}
	p.Name = m[1]
	body := strings.TrimSpace(m[2])
	if pairRe.MatchString(body) {
		return errors.New("keyed single value cannot name its key")
	}
	name, variadic, ok := parseHole(body)
	if !ok || variadic {
		return errors.New("value must be a single $placeholder")
	}
	if err := p.addPlaceholder(name); err != nil {
		return err
	}
	return p.checkName()
}

func (p *Pattern) compileKeyedMulti(text string) error {
	m := annotationRe.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[2]) == "" {
		return errors.New("expected @Name(key=$value, ...)")
	}
	p.Name = m[1]
	for _, part := range splitList(m[2]) {
		pair := pairRe.FindStringSubmatch(part)
		if pair == nil {
			return fmt.Errorf("element %q is not key=$placeholder", part)
		}
		name, variadic, ok := parseHole(strings.TrimSpace(pair[2]))
		if !ok || variadic {
			return fmt.Errorf("element %q must bind a single placeholder", part)
		}
		for _, k := range p.Keys {
			if k == pair[1] {
				return fmt.Errorf("key %q repeated", k)
			}
		}
		if err := p.addPlaceholder(name); err != nil {
			return err
		}
		p.Keys = append(p.Keys, pair[1])
	}
	return p.checkName()
}

func (p *Pattern) compileCall(text string) error {
	m := callRe.FindStringSubmatch(text)
	if m == nil {
		return errors.New("expected Qualifier.member(...)")
	}
	p.Name, p.Member = m[1], m[2]
	args := splitList(m[3])
	for i, arg := range args {
		name, variadic, ok := parseHole(arg)
		if !ok {
			return fmt.Errorf("argument %q is not a placeholder", arg)
		}
		if variadic && i != len(args)-1 {
			return fmt.Errorf("variadic $%s$ must be the last argument", name)
		}
		if err := p.addPlaceholder(name); err != nil {
			return err
		}
		p.Variadic = variadic
	}
	return p.checkName()
}

func (p *Pattern) compileTypeDecl(text string) error {
	m := typeDeclRe.FindStringSubmatch(text)
	if m == nil {
		return errors.New("expected class $name extends Base")
	}
	p.Name = m[2]
	if err := p.addPlaceholder(m[1]); err != nil {
		return err
	}
	return p.checkName()
}

func (p *Pattern) compileFieldDecl(text string) error {
	m := fieldDeclRe.FindStringSubmatch(text)
	if m == nil {
		return errors.New("expected [@Annotation] Type $name [= $init]")
	}

	written := strings.Fields(m[1])
	for _, a := range written {
		simple := lastSegment(strings.TrimPrefix(a, "@"))
		if !containsSimple(p.Annotations, simple) {
			return fmt.Errorf("annotation %s has no qualified symbol", a)
		}
	}
	for _, sym := range p.Annotations {
		found := false
		for _, a := range written {
			if lastSegment(strings.TrimPrefix(a, "@")) == lastSegment(sym) {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("annotation %s is not written in the pattern", sym)
		}
	}

	if name, variadic, ok := parseHole(m[2]); ok {
		if variadic {
			return errors.New("declared type cannot be variadic")
		}
		if err := p.addPlaceholder(name); err != nil {
			return err
		}
		p.Field.Type = name
	} else {
		p.Name = m[2]
		if err := p.checkName(); err != nil {
			return err
		}
	}

	if err := p.addPlaceholder(m[3]); err != nil {
		return err
	}
	p.Field.Name = m[3]
	if m[4] != "" {
		if err := p.addPlaceholder(m[4]); err != nil {
			return err
		}
		p.Field.Init = m[4]
	}
	return nil
}

func (p *Pattern) addPlaceholder(name string) error {
	for _, existing := range p.Placeholders {
		if existing == name {
			return fmt.Errorf("placeholder $%s declared twice", name)
		}
	}
	p.Placeholders = append(p.Placeholders, name)
	return nil
}

// checkName verifies the written name refers to the pattern symbol.
func (p *Pattern) checkName() error {
	if lastSegment(p.Name) != lastSegment(p.Symbol) {
		return fmt.Errorf("name %s does not name symbol %s", p.Name, p.Symbol)
	}
	return nil
}

func parseHole(s string) (name string, variadic bool, ok bool) {
	m := holeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false, false
	}
	return m[1], m[2] == "$", true
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func lastSegment(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func containsSimple(symbols []string, simple string) bool {
	for _, s := range symbols {
		if lastSegment(s) == simple {
			return true
		}
	}
	return false
}
