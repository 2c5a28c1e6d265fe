package base

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pmezard/go-difflib/difflib"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers"
)

// LanguageConfig defines language-specific behavior that must be implemented
type LanguageConfig interface {
	// Metadata
	Language() string
	Extensions() []string
	GetLanguage() *sitter.Language

	// NodeTypes maps a pattern kind to the grammar node types that can carry it
	NodeTypes(kind engine.Kind) []string
}

// Provider provides parsing, validation and diffing shared by language providers
type Provider struct {
	config LanguageConfig
	cache  *ASTCache
	pool   sync.Pool

	borrowed atomic.Int64
	returned atomic.Int64
}

// New creates a base provider with language-specific config
func New(config LanguageConfig) *Provider {
	lang := config.GetLanguage()
	if lang == nil {
		panic(fmt.Sprintf("failed to load %s language for tree-sitter", config.Language()))
	}

	p := &Provider{
		config: config,
		cache:  NewASTCache(defaultCacheSize),
	}
	p.pool.New = func() any {
		parser := sitter.NewParser()
		parser.SetLanguage(lang)
		return parser
	}
	return p
}

// Language returns language identifier
func (p *Provider) Language() string {
	return p.config.Language()
}

// Extensions returns supported file extensions
func (p *Provider) Extensions() []string {
	return p.config.Extensions()
}

// Config returns the language configuration
func (p *Provider) Config() LanguageConfig {
	return p.config
}

// Parse parses source into a tree the caller owns and must close
func (p *Provider) Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := p.borrow()
	defer p.release(parser)

	tree, _, err := p.cache.GetOrParse(ctx, parser, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("failed to parse source: no tree produced")
	}
	return tree, nil
}

// Validate checks syntax
func (p *Provider) Validate(source []byte) providers.ValidationResult {
	tree, err := p.Parse(context.Background(), source)
	if err != nil {
		return providers.ValidationResult{Valid: false, Errors: []string{err.Error()}}
	}
	defer tree.Close()

	var errs []string
	CollectErrors(tree.RootNode(), &errs)
	return providers.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Stats returns parser pool counters
func (p *Provider) Stats() providers.Stats {
	borrowed, returned := p.borrowed.Load(), p.returned.Load()
	return providers.Stats{
		BorrowCount: borrowed,
		ReturnCount: returned,
		Active:      borrowed - returned,
		Cache:       p.cache.Stats(),
	}
}

func (p *Provider) borrow() *sitter.Parser {
	p.borrowed.Add(1)
	return p.pool.Get().(*sitter.Parser)
}

func (p *Provider) release(parser *sitter.Parser) {
	p.returned.Add(1)
	p.pool.Put(parser)
}

// Diff creates a unified diff between two versions of path
func Diff(path, original, modified string) string {
	if original == modified {
		return ""
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n@@ changes @@\n%d bytes -> %d bytes\n",
			path, path, len(original), len(modified))
	}
	return text
}

// CollectErrors appends a message for every ERROR or missing node under node
func CollectErrors(node *sitter.Node, errs *[]string) {
	if node == nil {
		return
	}
	if node.IsMissing() {
		*errs = append(*errs, fmt.Sprintf(
			"missing %s at line %d, column %d",
			strings.TrimSpace(node.Type()),
			node.StartPoint().Row+1,
			node.StartPoint().Column+1,
		))
	}
	if node.Type() == "ERROR" {
		*errs = append(*errs, fmt.Sprintf(
			"syntax error at line %d, column %d",
			node.StartPoint().Row+1,
			node.StartPoint().Column+1,
		))
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		CollectErrors(node.Child(i), errs)
	}
}
