package confusion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/types"
)

func TestGraphCacheAddPairRejectsSelfReference(t *testing.T) {
	c := NewGraphCache()
	err := c.AddPair(context.Background(), "word-1", "word-1", 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, amaserr.ErrIntegrity))
}

func TestGraphCacheFindConfusableBatchFiltersByThreshold(t *testing.T) {
	c := NewGraphCache()
	require.NoError(t, c.AddPair(context.Background(), "cat", "hat", 0.2))
	require.NoError(t, c.AddPair(context.Background(), "cat", "bat", 0.4))
	require.NoError(t, c.AddPair(context.Background(), "cat", "dog", 0.9))

	out, err := c.FindConfusableBatch(context.Background(), []string{"cat"}, 0.5, 10)
	require.NoError(t, err)

	got := out["cat"]
	require.Len(t, got, 2)
	assert.Equal(t, "hat", got[0].OtherID)
	assert.InDelta(t, 0.2, got[0].Distance, 1e-9)
	assert.Equal(t, "bat", got[1].OtherID)
	assert.InDelta(t, 0.4, got[1].Distance, 1e-9)
}

func TestGraphCacheFindConfusableBatchRespectsPerWordLimit(t *testing.T) {
	c := NewGraphCache()
	require.NoError(t, c.AddPair(context.Background(), "cat", "hat", 0.1))
	require.NoError(t, c.AddPair(context.Background(), "cat", "bat", 0.2))
	require.NoError(t, c.AddPair(context.Background(), "cat", "mat", 0.3))

	out, err := c.FindConfusableBatch(context.Background(), []string{"cat"}, 1.0, 2)
	require.NoError(t, err)
	assert.Len(t, out["cat"], 2)
}

func TestGraphCacheFindConfusableBatchUnknownWordReturnsNilNotError(t *testing.T) {
	c := NewGraphCache()
	out, err := c.FindConfusableBatch(context.Background(), []string{"ghost"}, 0.5, 10)
	require.NoError(t, err)
	assert.Nil(t, out["ghost"])
}

func TestGraphCacheIsSymmetric(t *testing.T) {
	c := NewGraphCache()
	require.NoError(t, c.AddPair(context.Background(), "cat", "hat", 0.2))

	out, err := c.FindConfusableBatch(context.Background(), []string{"hat"}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, out["hat"], 1)
	assert.Equal(t, "cat", out["hat"][0].OtherID)
}

func TestGraphCacheRemovePair(t *testing.T) {
	c := NewGraphCache()
	require.NoError(t, c.AddPair(context.Background(), "cat", "hat", 0.2))
	c.RemovePair("cat", "hat")

	out, err := c.FindConfusableBatch(context.Background(), []string{"cat"}, 1.0, 10)
	require.NoError(t, err)
	assert.Empty(t, out["cat"])
}

func TestNewGraphCacheFromPairsSeedsGraph(t *testing.T) {
	pairs := []types.ConfusionPair{
		{WordA: "cat", WordB: "hat", Distance: 0.2},
		{WordA: "cat", WordB: "bat", Distance: 0.3},
	}
	c, err := NewGraphCacheFromPairs(pairs)
	require.NoError(t, err)

	out, err := c.FindConfusableBatch(context.Background(), []string{"cat"}, 1.0, 10)
	require.NoError(t, err)
	assert.Len(t, out["cat"], 2)
}
