package providers

import (
	"context"
	"sort"
	"sync"

	"github.com/oxhq/junify/core"
	"github.com/oxhq/junify/providers/catalog"
)

// Provider migrates test sources of one language
type Provider interface {
	Language() string
	Extensions() []string

	// Migrate runs one orchestrator pass over source and renders the result.
	Migrate(ctx context.Context, path string, source []byte) (*core.MigrationResult, error)
	Validate(source []byte) ValidationResult

	Stats() Stats
}

// ValidationResult reports parse errors of a migrated file
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Registry maps language ids to providers. Registering a provider also
// registers its extensions with the catalog so the walker can detect files.
type Registry struct {
	mu     sync.RWMutex
	byLang map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{byLang: make(map[string]Provider)}
}

// Register adds p, replacing any provider for the same language
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	r.byLang[p.Language()] = p
	r.mu.Unlock()

	catalog.Register(catalog.LanguageInfo{ID: p.Language(), Extensions: p.Extensions()})
}

func (r *Registry) Get(language string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byLang[language]
	return p, ok
}

// ForPath picks the provider for a file by its extension
func (r *Registry) ForPath(path string) (Provider, bool) {
	lang := catalog.Detect(path)
	if lang == "" {
		return nil, false
	}
	return r.Get(lang)
}

// Migrator satisfies core.ProviderRegistry
func (r *Registry) Migrator(language string) (core.Migrator, bool) {
	p, ok := r.Get(language)
	if !ok {
		return nil, false
	}
	return p, true
}

// Languages returns the registered language ids in sorted order
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.byLang))
	for lang := range r.byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Stats sums pool and cache counters over every registered provider
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total Stats
	for _, p := range r.byLang {
		s := p.Stats()
		total.BorrowCount += s.BorrowCount
		total.ReturnCount += s.ReturnCount
		total.Active += s.Active
		for k, v := range s.Cache {
			if total.Cache == nil {
				total.Cache = make(map[string]int64)
			}
			total.Cache[k] += v
		}
	}
	return total
}

// Stats holds parser pool and AST cache counters
type Stats struct {
	BorrowCount int64            `json:"borrow_count"`
	ReturnCount int64            `json:"return_count"`
	Active      int64            `json:"active"`
	Cache       map[string]int64 `json:"cache,omitempty"`
}
