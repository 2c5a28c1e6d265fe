package java

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/oxhq/junify/core"
	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/base"
)

// ErrInvalidOutput is returned when a migrated unit has more syntax errors
// than its original.
var ErrInvalidOutput = errors.New("migrated source does not parse")

// Provider implements providers.Provider for Java
type Provider struct {
	*base.Provider
	orchestrator *engine.Orchestrator
	logger       *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider and orchestrator logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Java provider running the rules of registry
func New(registry *engine.Registry, opts ...Option) *Provider {
	p := &Provider{
		Provider: base.New(Config{}),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.orchestrator = engine.NewOrchestrator(registry, engine.WithLogger(p.logger))
	return p
}

// Registry returns the rules the provider runs
func (p *Provider) Registry() *engine.Registry {
	return p.orchestrator.Registry()
}

// Migrate runs one pass of every rule over source and materializes the result
func (p *Provider) Migrate(ctx context.Context, path string, source []byte) (*core.MigrationResult, error) {
	parsed, err := p.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	t := NewTree(parsed, source)
	defer t.Close()

	plan, err := p.orchestrator.Run(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if plan.Empty() {
		return &core.MigrationResult{
			Modified:   string(source),
			RuleCounts: map[string]int{},
			Confidence: core.ConfidenceScore{Score: 1.0, Level: "high"},
		}, nil
	}

	edits := append(plan.Edits, ImportEdits(t, plan.Imports)...)
	out, err := base.ApplyEdits(source, edits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := p.checkOutput(ctx, t, out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	imports := make([]string, 0, len(plan.Imports))
	for _, d := range plan.Imports {
		imports = append(imports, d.String())
	}

	modified := string(out)
	result := &core.MigrationResult{
		Modified:   modified,
		Diff:       base.Diff(path, string(source), modified),
		Changed:    modified != string(source),
		Operations: len(plan.Operations),
		RuleCounts: plan.RuleCounts(),
		Imports:    imports,
	}
	result.Confidence, result.Warnings = p.calculateConfidence(t, plan)

	p.logger.Debug("migrated",
		"path", path,
		"operations", result.Operations,
		"imports", strings.Join(imports, " "),
		"confidence", result.Confidence.Score)
	return result, nil
}

// checkOutput rejects output that parses worse than the input did
func (p *Provider) checkOutput(ctx context.Context, original *Tree, out []byte) error {
	parsed, err := p.Parse(ctx, out)
	if err != nil {
		return err
	}
	migrated := NewTree(parsed, out)
	defer migrated.Close()

	before, after := original.ErrorCount(), migrated.ErrorCount()
	if after > before {
		return fmt.Errorf("%w: %d syntax errors, %d before migration", ErrInvalidOutput, after, before)
	}
	return nil
}

// calculateConfidence scores a pass by how its matches were resolved
func (p *Provider) calculateConfidence(t *Tree, plan *engine.Plan) (core.ConfidenceScore, []string) {
	score := 1.0
	factors := []core.ConfidenceFactor{}
	var warnings []string

	heuristic := 0
	for _, op := range plan.Operations {
		if op.Match.Tier != engine.TierHeuristic {
			continue
		}
		heuristic++
		line := op.Node().StartPoint().Row + 1
		warnings = append(warnings, fmt.Sprintf("line %d: %s matched %s by simple name",
			line, op.Rule.Name(), op.Match.Pattern.Symbol))
	}
	if heuristic > 0 {
		impact := -0.05 * float64(heuristic)
		if impact < -0.4 {
			impact = -0.4
		}
		score += impact
		factors = append(factors, core.ConfidenceFactor{
			Name:   "heuristic_resolution",
			Impact: impact,
			Reason: fmt.Sprintf("%d matches resolved without an explicit import", heuristic),
		})
	}

	if t.ErrorCount() > 0 {
		score -= 0.2
		factors = append(factors, core.ConfidenceFactor{
			Name:   "syntax_errors",
			Impact: -0.2,
			Reason: "Source had syntax errors before migration",
		})
	}

	if len(plan.Operations) > 50 {
		score -= 0.1
		factors = append(factors, core.ConfidenceFactor{
			Name:   "large_change",
			Impact: -0.1,
			Reason: fmt.Sprintf("Pass rewrote %d constructs", len(plan.Operations)),
		})
	}

	score = max(score, 0)
	return core.ConfidenceScore{Score: score, Level: core.ConfidenceLevel(score), Factors: factors}, warnings
}
