package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder scripts batch and per-item behavior for tests.
type fakeEmbedder struct {
	failBatch  bool
	shortBatch bool
	failTexts  map[string]bool
	dim        int
	calls      int
}

func (f *fakeEmbedder) ModelName() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if len(texts) > 1 && f.failBatch {
		return nil, errors.New("batch exploded")
	}
	if len(texts) > 1 && f.shortBatch {
		// Provider silently dropped one item.
		out := make([][]float32, 0, len(texts)-1)
		for range texts[1:] {
			out = append(out, make([]float32, f.dim))
		}
		return out, nil
	}
	var out [][]float32
	for _, t := range texts {
		if f.failTexts[t] {
			return nil, errors.New("item rejected")
		}
		v := make([]float32, f.dim)
		v[0] = float32(len(t))
		out = append(out, v)
	}
	return out, nil
}

func TestNormalizeDimensionPadsShortVector(t *testing.T) {
	in := make([]float32, 1000)
	for i := range in {
		in[i] = float32(i) + 1
	}

	out := NormalizeDimension(in, 1536)
	require.Len(t, out, 1536)
	assert.Equal(t, in, out[:1000])
	for _, v := range out[1000:] {
		assert.Zero(t, v)
	}
}

func TestNormalizeDimensionTruncatesLongVector(t *testing.T) {
	in := make([]float32, 2000)
	for i := range in {
		in[i] = float32(i) + 1
	}

	out := NormalizeDimension(in, 1536)
	require.Len(t, out, 1536)
	assert.Equal(t, in[:1536], out)
}

func TestNormalizeDimensionKeepsExactVector(t *testing.T) {
	in := make([]float32, 1536)
	assert.Equal(t, in, NormalizeDimension(in, 1536))
}

func TestEmbedTextsBatchSuccess(t *testing.T) {
	svc := NewEmbeddingService(&fakeEmbedder{dim: 8}, 16)

	vectors, indices, err := svc.EmbedTexts(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []int{0, 1, 2}, indices)
	for _, v := range vectors {
		assert.Len(t, v, 16)
	}
}

func TestEmbedTextsFallsBackPerItemOnBatchFailure(t *testing.T) {
	fake := &fakeEmbedder{dim: 8, failBatch: true, failTexts: map[string]bool{"bad": true}}
	svc := NewEmbeddingService(fake, 8)

	vectors, indices, err := svc.EmbedTexts(context.Background(), []string{"good", "bad", "fine"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []int{0, 2}, indices)
}

func TestEmbedTextsFallsBackOnShortBatch(t *testing.T) {
	// Two vectors for three inputs must never be zipped positionally.
	fake := &fakeEmbedder{dim: 8, shortBatch: true}
	svc := NewEmbeddingService(fake, 8)

	vectors, indices, err := svc.EmbedTexts(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []int{0, 1, 2}, indices)
	// Per-item calls preserve input identity: first component encodes length.
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(3), vectors[2][0])
}

func TestEmbedQueryPropagatesFailure(t *testing.T) {
	fake := &fakeEmbedder{dim: 8, failTexts: map[string]bool{"doomed": true}}
	svc := NewEmbeddingService(fake, 8)

	_, err := svc.EmbedQuery(context.Background(), "doomed")
	assert.Error(t, err)
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	svc := NewEmbeddingService(&fakeEmbedder{dim: 8}, 8)
	vectors, indices, err := svc.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, indices)
}
