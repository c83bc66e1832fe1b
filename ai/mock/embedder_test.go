package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/archivist/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "Ptolemy")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "Ptolemy")
	require.NoError(t, err)
	c, err := m.EmbedText(ctx, "Seleucus")
	require.NoError(t, err)

	assert.Len(t, a, DefaultDimensions)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, Vector("Ptolemy", DefaultDimensions), a)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestMockEmbedder_FailOn(t *testing.T) {
	m := NewMockEmbedder().FailOn("bad")

	_, err := m.EmbedText(context.Background(), "bad")
	assert.ErrorIs(t, err, core.ErrEmbeddingRequest)

	_, err = m.EmbedText(context.Background(), "good")
	assert.NoError(t, err)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, []string{"bad", "good"}, m.Texts())
}

func TestMockEmbedder_CustomFunc(t *testing.T) {
	m := NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("boom")
	}

	_, err := m.EmbedText(context.Background(), "x")
	assert.EqualError(t, err, "boom")

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	_, err = m.EmbedText(context.Background(), "x")
	assert.NoError(t, err)
}

func TestMockEmbedder_Dimensions(t *testing.T) {
	m := NewMockEmbedder()
	m.Dimensions = 8

	vecs, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 8)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	mp := p.(*MockProvider)

	assert.Same(t, mp.GetMockEmbedder(), p.Embedder())
	require.NoError(t, p.Close())
	assert.True(t, mp.Closed())
}
