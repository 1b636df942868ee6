package dataset

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/armon/go-radix"
)

// ShardInfo describes one loaded JSONL shard.
type ShardInfo struct {
	Path     string
	Examples int
}

// ShardIndex tracks loaded shards in a compressed trie (patricia tree) so
// prepare runs can answer exact and prefix queries over shard paths in O(k),
// where k is the length of the queried path.
type ShardIndex struct {
	tree *radix.Tree
	mu   sync.RWMutex
	size int64
}

// NewShardIndex creates an empty shard index
func NewShardIndex() *ShardIndex {
	return &ShardIndex{tree: radix.New()}
}

// Insert adds a shard to the index. Re-inserting a path replaces the entry
// without growing the index.
func (idx *ShardIndex) Insert(info *ShardInfo) error {
	if info == nil {
		return fmt.Errorf("invalid input: shard info cannot be nil")
	}

	path := normalizeShardPath(info.Path)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, updated := idx.tree.Insert(path, info)
	if !updated {
		idx.size++
	}

	slog.Debug("Shard indexed",
		"path", path,
		"examples", info.Examples,
		"was_update", updated)

	return nil
}

// Lookup finds a shard by its exact path.
func (idx *ShardIndex) Lookup(path string) (*ShardInfo, bool) {
	normalized := normalizeShardPath(path)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	value, found := idx.tree.Get(normalized)
	if !found {
		return nil, false
	}
	return value.(*ShardInfo), true
}

// PrefixLookup finds all shards whose paths start with the given prefix.
func (idx *ShardIndex) PrefixLookup(prefix string) []*ShardInfo {
	normalized := normalizeShardPath(prefix)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var results []*ShardInfo
	idx.tree.WalkPrefix(normalized, func(key string, value interface{}) bool {
		if info, ok := value.(*ShardInfo); ok {
			results = append(results, info)
		}
		return false // Continue walking
	})
	return results
}

// Size returns the number of indexed shards.
func (idx *ShardIndex) Size() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}

// TotalExamples sums example counts across all indexed shards.
func (idx *ShardIndex) TotalExamples() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	total := 0
	idx.tree.Walk(func(key string, value interface{}) bool {
		if info, ok := value.(*ShardInfo); ok {
			total += info.Examples
		}
		return false
	})
	return total
}

// WalkShards executes fn for each indexed shard in key order; returning true
// from fn stops the walk.
func (idx *ShardIndex) WalkShards(fn func(path string, info *ShardInfo) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	idx.tree.Walk(func(key string, value interface{}) bool {
		if info, ok := value.(*ShardInfo); ok {
			return fn(key, info)
		}
		return false
	})
}

// normalizeShardPath ensures consistent path formatting for the index
func normalizeShardPath(path string) string {
	normalized := strings.ReplaceAll(path, "\\", "/")
	normalized = filepath.ToSlash(filepath.Clean(normalized))
	if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}
