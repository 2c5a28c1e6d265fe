package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		symbol string
		text   string
		opts   []Option
		check  func(t *testing.T, p *Pattern)
	}{
		{
			name:   "marker",
			kind:   KindMarker,
			symbol: "org.junit.Before",
			text:   "@Before",
			check: func(t *testing.T, p *Pattern) {
				assert.Equal(t, "Before", p.Name)
				assert.Empty(t, p.Placeholders)
				assert.Equal(t, "Before", p.SimpleName())
			},
		},
		{
			name:   "keyed single",
			kind:   KindKeyedSingleValue,
			symbol: "org.junit.Ignore",
			text:   "@Ignore($reason)",
			check: func(t *testing.T, p *Pattern) {
				assert.Equal(t, []string{"reason"}, p.Placeholders)
			},
		},
		{
			name:   "keyed multi",
			kind:   KindKeyedMultiValue,
			symbol: "org.junit.Test",
			text:   "@Test(timeout = $ms, expected=$ex)",
			check: func(t *testing.T, p *Pattern) {
				assert.Equal(t, []string{"ms", "ex"}, p.Placeholders)
				assert.Equal(t, []string{"timeout", "expected"}, p.Keys)
			},
		},
		{
			name:   "variadic call",
			kind:   KindCall,
			symbol: "org.junit.Assert",
			text:   "Assert.assertEquals($args$)",
			check: func(t *testing.T, p *Pattern) {
				assert.Equal(t, "Assert", p.Name)
				assert.Equal(t, "assertEquals", p.Member)
				assert.True(t, p.Variadic)
				assert.Equal(t, []string{"args"}, p.Placeholders)
			},
		},
		{
			name:   "fixed call",
			kind:   KindCall,
			symbol: "org.junit.Assume",
			text:   "org.junit.Assume.assumeTrue($msg, $cond)",
			check: func(t *testing.T, p *Pattern) {
				assert.False(t, p.Variadic)
				assert.Equal(t, []string{"msg", "cond"}, p.Placeholders)
			},
		},
		{
			name:   "type declaration",
			kind:   KindTypeDecl,
			symbol: "org.junit.rules.ExternalResource",
			text:   "class $name extends ExternalResource",
			check: func(t *testing.T, p *Pattern) {
				assert.Equal(t, "ExternalResource", p.Name)
				assert.Equal(t, []string{"name"}, p.Placeholders)
			},
		},
		{
			name:   "annotated field with literal type",
			kind:   KindFieldDecl,
			symbol: "org.junit.rules.Timeout",
			text:   "@Rule Timeout $name = $init",
			opts:   []Option{Annotated("org.junit.Rule")},
			check: func(t *testing.T, p *Pattern) {
				assert.Equal(t, "Timeout", p.Name)
				assert.Equal(t, FieldSlots{Name: "name", Init: "init"}, p.Field)
				assert.Equal(t, []string{"org.junit.Rule"}, p.Annotations)
			},
		},
		{
			name:   "field with captured type",
			kind:   KindFieldDecl,
			symbol: "org.junit.rules.TestRule",
			text:   "@Rule $type $name",
			opts:   []Option{Annotated("org.junit.Rule")},
			check: func(t *testing.T, p *Pattern) {
				assert.Empty(t, p.Name)
				assert.Equal(t, FieldSlots{Type: "type", Name: "name"}, p.Field)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.kind, tt.symbol, tt.text, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.symbol, p.Symbol)
			assert.Equal(t, tt.text, p.String())
			tt.check(t, p)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		symbol string
		text   string
		opts   []Option
	}{
		{"missing symbol", KindMarker, "", "@Before"},
		{"unknown kind", Kind(42), "org.junit.Before", "@Before"},
		{"marker with value", KindMarker, "org.junit.Ignore", "@Ignore($r)"},
		{"name mismatch", KindMarker, "org.junit.Before", "@After"},
		{"single without parens", KindKeyedSingleValue, "org.junit.Ignore", "@Ignore"},
		{"single with key", KindKeyedSingleValue, "org.junit.Ignore", "@Ignore(value=$r)"},
		{"single literal", KindKeyedSingleValue, "org.junit.Ignore", `@Ignore("x")`},
		{"multi empty", KindKeyedMultiValue, "org.junit.Test", "@Test()"},
		{"multi positional", KindKeyedMultiValue, "org.junit.Test", "@Test($ms)"},
		{"multi repeated key", KindKeyedMultiValue, "org.junit.Test", "@Test(timeout=$a, timeout=$b)"},
		{"multi variadic", KindKeyedMultiValue, "org.junit.Test", "@Test(timeout=$a$)"},
		{"call without qualifier", KindCall, "org.junit.Assert", "assertTrue($c)"},
		{"call literal argument", KindCall, "org.junit.Assert", "Assert.assertTrue(true)"},
		{"call variadic not last", KindCall, "org.junit.Assert", "Assert.assertEquals($a$, $b)"},
		{"duplicate placeholder", KindCall, "org.junit.Assert", "Assert.assertEquals($a, $a)"},
		{"type decl without extends", KindTypeDecl, "org.junit.rules.ExternalResource", "class $name"},
		{"field annotation without symbol", KindFieldDecl, "org.junit.rules.Timeout", "@Rule Timeout $name"},
		{"field annotation not written", KindFieldDecl, "org.junit.rules.Timeout", "Timeout $name", []Option{Annotated("org.junit.Rule")}},
		{"field variadic type", KindFieldDecl, "org.junit.rules.TestRule", "$type$ $name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.kind, tt.symbol, tt.text, tt.opts...)
			assert.ErrorIs(t, err, ErrIncompatiblePattern)
		})
	}
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { MustCompile(KindMarker, "org.junit.Before", "@Before(x)") })
	assert.NotPanics(t, func() { MustCompile(KindMarker, "org.junit.Before", "@Before") })
}

func TestKindAndTierNames(t *testing.T) {
	assert.Equal(t, "keyed-multi", KindKeyedMultiValue.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.False(t, Kind(-1).Valid())
	assert.Equal(t, "bound", TierBound.String())
	assert.Equal(t, "heuristic", TierHeuristic.String())
	assert.Equal(t, "unresolved", TierUnresolved.String())
}
