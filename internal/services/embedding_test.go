package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedderIsDeterministic(t *testing.T) {
	e := NewLocalEmbedder(64)

	v1, err := e.Embed(context.Background(), "Go developer with Kubernetes experience")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "Go developer with Kubernetes experience")
	require.NoError(t, err)

	assert.Len(t, v1, 64)
	assert.Equal(t, v1, v2)
}

func TestLocalEmbedderEmptyTextIsZeroVector(t *testing.T) {
	e := NewLocalEmbedder(32)

	for _, text := range []string{"", "   ", "\t\n"} {
		v, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, make([]float32, 32), v)
	}
}

func TestLocalEmbedderNonEmptyTextIsNonZero(t *testing.T) {
	e := NewLocalEmbedder(64)

	for _, text := range []string{"the and of", "---", "!!!", "a"} {
		v, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.NotEqual(t, make([]float32, 64), v, text)
	}
}

func TestLocalFeatures(t *testing.T) {
	features := localFeatures("go developer")

	assert.InDelta(t, 1.0, features["go"], 1e-9)
	assert.InDelta(t, 1.0, features["developer"], 1e-9)
	assert.InDelta(t, bigramWeight, features["go developer"], 1e-9)
	assert.InDelta(t, charGramWeight, features["\x00 go"], 1e-9)
	assert.InDelta(t, charGramWeight, features["\x00er "], 1e-9)

	fallback := localFeatures("---")
	assert.Len(t, fallback, 3)
	assert.Contains(t, fallback, "\x00 --")
	assert.Contains(t, fallback, "\x00---")
	assert.Contains(t, fallback, "\x00-- ")

	assert.Empty(t, localFeatures(""))
}

func TestLocalEmbedderDefaults(t *testing.T) {
	e := NewLocalEmbedder(0)
	assert.Equal(t, "local-hash:768", e.Name())

	v, err := e.Embed(context.Background(), "python")
	require.NoError(t, err)
	assert.Len(t, v, DefaultEmbeddingDimensions)
}

func TestLocalEmbedderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalEmbedder(16).Embed(ctx, "text")

	var embErr *EmbeddingError
	require.True(t, errors.As(err, &embErr))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTermFrequencies(t *testing.T) {
	terms := termFrequencies("c++ and go, go developer")

	assert.Equal(t, 1, terms["c++"])
	assert.Equal(t, 2, terms["go"])
	assert.Equal(t, 1, terms["go go"])
	assert.Equal(t, 1, terms["go developer"])
	assert.NotContains(t, terms, "and")
	assert.NotContains(t, terms, "c++ go")
}

type countingEmbedder struct {
	calls atomic.Int32
	vec   []float32
	err   error
}

func (c *countingEmbedder) Name() string { return "counting:3" }

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func TestLazyEmbedderInitialisesOnce(t *testing.T) {
	var inits atomic.Int32
	inner := &countingEmbedder{vec: []float32{1, 0, 0}}
	lazy := NewLazyEmbedder("counting:3", func() (Embedder, error) {
		inits.Add(1)
		return inner, nil
	})

	assert.Equal(t, int32(0), inits.Load())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lazy.Embed(context.Background(), "text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inits.Load())
	assert.Equal(t, int32(16), inner.calls.Load())
}

func TestLazyEmbedderKeepsInitError(t *testing.T) {
	var inits atomic.Int32
	lazy := NewLazyEmbedder("broken", func() (Embedder, error) {
		inits.Add(1)
		return nil, errors.New("model unavailable")
	})

	for i := 0; i < 2; i++ {
		_, err := lazy.Embed(context.Background(), "text")
		var embErr *EmbeddingError
		require.True(t, errors.As(err, &embErr))
		assert.Equal(t, "init", embErr.Op)
	}
	assert.Equal(t, int32(1), inits.Load())
}
