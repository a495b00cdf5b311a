package rag

import (
	"fmt"
	"math"
	"sort"
)

// ContextChunk is one indexed window of a source document.
type ContextChunk struct {
	ID       string
	SourceID string
	Text     string
	Vector   []float32
}

// ScoredChunk pairs a chunk with its cosine similarity to a query. Higher
// scores are closer; scores lie in [-1, 1].
type ScoredChunk struct {
	Chunk ContextChunk
	Score float64
}

// SimilarityIndex is a brute-force cosine index. It lives for one request
// and is not safe for concurrent writes.
type SimilarityIndex struct {
	chunks     []ContextChunk
	dimensions int
}

func NewSimilarityIndex() *SimilarityIndex {
	return &SimilarityIndex{}
}

// Add stores a chunk. All vectors in an index must share one dimension.
func (ix *SimilarityIndex) Add(chunk ContextChunk) error {
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("chunk %s has no vector", chunk.ID)
	}
	if ix.dimensions == 0 {
		ix.dimensions = len(chunk.Vector)
	} else if len(chunk.Vector) != ix.dimensions {
		return fmt.Errorf("chunk %s has %d dimensions, index has %d", chunk.ID, len(chunk.Vector), ix.dimensions)
	}
	ix.chunks = append(ix.chunks, chunk)
	return nil
}

func (ix *SimilarityIndex) Len() int {
	return len(ix.chunks)
}

// Search returns up to k chunks ordered most to least similar. Equal scores
// keep insertion order.
func (ix *SimilarityIndex) Search(vector []float32, k int) []ScoredChunk {
	if k <= 0 || len(ix.chunks) == 0 {
		return []ScoredChunk{}
	}

	results := make([]ScoredChunk, len(ix.chunks))
	for i, chunk := range ix.chunks {
		results[i] = ScoredChunk{Chunk: chunk, Score: cosineSimilarity(vector, chunk.Vector)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// cosineSimilarity is 0 when either vector has zero norm or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
