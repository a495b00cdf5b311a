package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
)

var hashingKey = []byte("edtriage-hashing-embedder-key-32")

// HashingEmbedder projects unigrams and bigrams into a fixed number of signed
// buckets. It needs no network and is deterministic across processes.
type HashingEmbedder struct {
	dimensions int
}

func NewHashingEmbedder(dimensions int) (*HashingEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("hashing embedder dimensions must be positive, got %d", dimensions)
	}
	return &HashingEmbedder{dimensions: dimensions}, nil
}

func (e *HashingEmbedder) Name() string {
	return fmt.Sprintf("hashing:%d", e.dimensions)
}

// Embed returns an L2-normalized vector. Text without word characters maps to
// the zero vector.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, e.dimensions)
	tokens := tokenize(text)
	for i, token := range tokens {
		e.add(vector, token)
		if i > 0 {
			e.add(vector, tokens[i-1]+" "+token)
		}
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector, nil
}

func (e *HashingEmbedder) add(vector []float32, feature string) {
	h := highwayhash.Sum64([]byte(feature), hashingKey)
	bucket := h % uint64(e.dimensions)
	if h>>63 == 1 {
		vector[bucket]--
	} else {
		vector[bucket]++
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
