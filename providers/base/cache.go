package base

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
)

// defaultCacheSize bounds the number of parsed sources kept per provider
const defaultCacheSize = 256

// ASTCache keeps parsed trees keyed by the SHA256 of their source. Callers
// always receive a copy they own and must close.
type ASTCache struct {
	entries *lru.Cache[string, *sitter.Tree]
	hits    atomic.Int64
	misses  atomic.Int64
	evicted atomic.Int64
}

// NewASTCache creates a cache holding at most size trees
func NewASTCache(size int) *ASTCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	c := &ASTCache{}
	entries, err := lru.NewWithEvict[string, *sitter.Tree](size, func(_ string, tree *sitter.Tree) {
		c.evicted.Add(1)
		tree.Close()
	})
	if err != nil {
		panic(err)
	}
	c.entries = entries
	return c
}

// GetOrParse returns a copy of the cached tree for source or parses it
func (c *ASTCache) GetOrParse(ctx context.Context, parser *sitter.Parser, source []byte) (*sitter.Tree, bool, error) {
	key := c.key(source)
	if tree, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return tree.Copy(), true, nil
	}
	c.misses.Add(1)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, false, err
	}
	c.entries.Add(key, tree.Copy())
	return tree, false, nil
}

// Purge drops every cached tree
func (c *ASTCache) Purge() {
	c.entries.Purge()
}

// Stats returns hit, miss and eviction counters
func (c *ASTCache) Stats() map[string]int64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	return map[string]int64{
		"hits":      hits,
		"misses":    misses,
		"evictions": c.evicted.Load(),
		"entries":   int64(c.entries.Len()),
		"hit_rate":  hits * 100 / (hits + misses + 1),
	}
}

func (c *ASTCache) key(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}
