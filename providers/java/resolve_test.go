package java

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/junify/engine"
)

func TestResolverResolve(t *testing.T) {
	r := NewResolver("com.example", []Import{
		{Path: "org.junit.Test"},
		{Path: "org.junit.Assert.assertEquals", Static: true},
	}, map[string]string{"Helper": "com.example.Helper"})

	tests := []struct {
		name string
		want string
		tier engine.Tier
	}{
		{"Test", "org.junit.Test", engine.TierBound},
		{"Helper", "com.example.Helper", engine.TierBound},
		{"String", "java.lang.String", engine.TierBound},
		{"Timeout", "", engine.TierUnresolved},
		{"Test.None", "org.junit.Test.None", engine.TierBound},
		{"org.junit.Ignore", "org.junit.Ignore", engine.TierBound},
		{"Unknown.Inner", "", engine.TierUnresolved},
		{"", "", engine.TierUnresolved},
	}
	for _, tt := range tests {
		got, tier := r.Resolve(tt.name)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, tt.tier, tier, tt.name)
	}
	assert.Equal(t, "com.example", r.Package())
	assert.True(t, r.Local("com.example.Helper"))
	assert.False(t, r.Local("com.example.Other"))

	demand := NewResolver("", []Import{{Path: "org.junit.rules", OnDemand: true}}, nil)
	got, tier := demand.Resolve("Timeout")
	assert.Equal(t, "org.junit.rules.Timeout", got)
	assert.Equal(t, engine.TierHeuristic, tier)
	got, tier = demand.Resolve("org.junit.Rule")
	assert.Equal(t, "org.junit.Rule", got)
	assert.Equal(t, engine.TierBound, tier)
}

func TestResolverMatches(t *testing.T) {
	tests := []struct {
		name    string
		imports []Import
		written string
		symbol  string
		ok      bool
		tier    engine.Tier
	}{
		{
			name:    "single import",
			imports: []Import{{Path: "org.junit.Before"}},
			written: "Before", symbol: "org.junit.Before",
			ok: true, tier: engine.TierBound,
		},
		{
			name:    "bound elsewhere never matches",
			imports: []Import{{Path: "com.acme.Before"}},
			written: "Before", symbol: "org.junit.Before",
			ok: false, tier: engine.TierBound,
		},
		{
			name:    "fully qualified",
			written: "org.junit.Before", symbol: "org.junit.Before",
			ok: true, tier: engine.TierBound,
		},
		{
			name:    "owner imported on demand",
			imports: []Import{{Path: "org.junit", OnDemand: true}, {Path: "java.util", OnDemand: true}},
			written: "Before", symbol: "org.junit.Before",
			ok: true, tier: engine.TierHeuristic,
		},
		{
			name:    "namespace imported without on-demand",
			imports: []Import{{Path: "org.junit.Test"}},
			written: "Ignore", symbol: "org.junit.Ignore",
			ok: true, tier: engine.TierHeuristic,
		},
		{
			name:    "unrelated namespace",
			imports: []Import{{Path: "java.util.List"}},
			written: "Ignore", symbol: "org.junit.Ignore",
			ok: false, tier: engine.TierUnresolved,
		},
		{
			name:    "other on-demand import blocks the namespace heuristic",
			imports: []Import{{Path: "org.junit.Test"}, {Path: "com.acme", OnDemand: true}},
			written: "Ignore", symbol: "org.junit.Ignore",
			ok: false, tier: engine.TierUnresolved,
		},
		{
			name:    "java.lang wins over heuristics",
			imports: []Import{{Path: "org.junit.Test"}},
			written: "Override", symbol: "org.junit.Override",
			ok: false, tier: engine.TierBound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver("p", tt.imports, nil)
			ok, tier := r.Matches(tt.written, tt.symbol)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.tier, tier)
		})
	}
}

func TestResolverMatchesStatic(t *testing.T) {
	r := NewResolver("p", []Import{
		{Path: "org.junit.Assert.assertEquals", Static: true},
		{Path: "org.junit.Assume", Static: true, OnDemand: true},
	}, nil)

	ok, tier := r.MatchesStatic("assertEquals", "org.junit.Assert")
	assert.True(t, ok)
	assert.Equal(t, engine.TierBound, tier)

	ok, _ = r.MatchesStatic("assertEquals", "org.hamcrest.MatcherAssert")
	assert.False(t, ok)

	ok, tier = r.MatchesStatic("assumeTrue", "org.junit.Assume")
	assert.True(t, ok)
	assert.Equal(t, engine.TierHeuristic, tier)

	ok, tier = r.MatchesStatic("fail", "org.junit.Assert")
	assert.False(t, ok)
	assert.Equal(t, engine.TierUnresolved, tier)
}

func TestResolverMatchesStaticOnDemand(t *testing.T) {
	r := NewResolver("p", []Import{
		{Path: "org.junit.Assert", Static: true, OnDemand: true},
		{Path: "com.acme.Checks", Static: true, OnDemand: true},
	}, nil)
	r.DeclareMethods("compute", "assertValid")

	tests := []struct {
		member string
		owner  string
		want   bool
	}{
		{"assertEquals", "org.junit.Assert", true},
		{"fail", "org.junit.Assert", true},
		{"compute", "org.junit.Assert", false},
		{"helper", "org.junit.Assert", false},
		{"assertValid", "com.acme.Checks", false},
		{"check", "com.acme.Checks", true},
	}
	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			ok, _ := r.MatchesStatic(tt.member, tt.owner)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestImportKey(t *testing.T) {
	assert.Equal(t, engine.ImportKey{Symbol: "org.junit.Test"}, Import{Path: "org.junit.Test"}.Key())
	assert.Equal(t, engine.ImportKey{Symbol: "org.junit.*"}, Import{Path: "org.junit", OnDemand: true}.Key())
	assert.Equal(t, engine.ImportKey{Symbol: "org.junit.Assert", Member: "assertTrue", Static: true},
		Import{Path: "org.junit.Assert.assertTrue", Static: true}.Key())
	assert.Equal(t, engine.ImportKey{Symbol: "org.junit.Assert", Member: "*", Static: true},
		Import{Path: "org.junit.Assert", Static: true, OnDemand: true}.Key())
}
