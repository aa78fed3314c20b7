// Package search provides a simple, deterministic, concurrency-safe
// in-memory keyword index over marketplace listings. It is intentionally
// small and dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Documents are upserted/removed by ID as listings change
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Result is a ranked document reference with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// Index is the minimal read interface implemented by all indices.
type Index interface {
	TopK(query string, k int) []Result
}

// Option configures a MemoryIndex.
type Option func(*MemoryIndex)

// WithStopwords drops the given words from both documents and queries.
func WithStopwords(words []string) Option {
	return func(ix *MemoryIndex) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			ix.stopwords = m
		}
	}
}

// MemoryIndex is a mutable in-memory index, safe for concurrent use.
type MemoryIndex struct {
	mu        sync.RWMutex
	docs      map[string]map[string]struct{} // id -> token set
	stopwords map[string]struct{}
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex(opts ...Option) *MemoryIndex {
	ix := &MemoryIndex{docs: make(map[string]map[string]struct{})}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// tokenRE extracts Unicode word tokens.
var tokenRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenize lowercases, splits, and filters stop words.
func (ix *MemoryIndex) tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range tokenRE.FindAllString(strings.ToLower(s), -1) {
		if _, stop := ix.stopwords[t]; stop {
			continue
		}
		out[t] = struct{}{}
	}
	return out
}

// Upsert indexes (or re-indexes) the searchable text of a document.
func (ix *MemoryIndex) Upsert(id, text string) {
	if id == "" {
		return
	}
	toks := ix.tokenize(text)
	ix.mu.Lock()
	ix.docs[id] = toks
	ix.mu.Unlock()
}

// Remove drops a document from the index. Unknown IDs are a no-op.
func (ix *MemoryIndex) Remove(id string) {
	ix.mu.Lock()
	delete(ix.docs, id)
	ix.mu.Unlock()
}

// Len reports the number of indexed documents.
func (ix *MemoryIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// TopK returns up to k documents ranked by Jaccard similarity to query.
// Zero-score documents are excluded; ties break on document ID so results
// are stable across calls.
func (ix *MemoryIndex) TopK(query string, k int) []Result {
	if k <= 0 {
		return nil
	}
	q := ix.tokenize(query)
	if len(q) == 0 {
		return nil
	}

	ix.mu.RLock()
	results := make([]Result, 0, len(ix.docs))
	for id, toks := range ix.docs {
		inter := 0
		for t := range q {
			if _, ok := toks[t]; ok {
				inter++
			}
		}
		if inter == 0 {
			continue
		}
		union := len(toks) + len(q) - inter
		results = append(results, Result{ID: id, Score: float64(inter) / float64(union)})
	}
	ix.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
