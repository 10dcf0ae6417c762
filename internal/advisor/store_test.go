package advisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-amas/internal/types"
)

func TestInMemoryStoreRecordAndGet(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	sug := types.AdvisorSuggestion{ID: "s1", Status: types.SuggestionPending}
	require.NoError(t, s.Record(ctx, sug))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, types.SuggestionPending, got.Status)
}

func TestInMemoryStoreRecordRejectsMissingID(t *testing.T) {
	s := NewInMemoryStore()
	err := s.Record(context.Background(), types.AdvisorSuggestion{})
	assert.Error(t, err)
}

func TestInMemoryStoreGetUnknownReturnsNotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Get(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestInMemoryStoreSaveRequiresExistingRecord(t *testing.T) {
	s := NewInMemoryStore()
	err := s.Save(context.Background(), types.AdvisorSuggestion{ID: "ghost"})
	assert.Error(t, err)
}

func TestInMemoryStoreSaveUpdatesInPlace(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, types.AdvisorSuggestion{ID: "s1", Status: types.SuggestionPending}))

	sug, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	sug.Status = types.SuggestionApproved
	require.NoError(t, s.Save(ctx, sug))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, types.SuggestionApproved, got.Status)
}

func TestInMemoryStoreListOrdersNewestFirstAndRespectsLimit(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, types.AdvisorSuggestion{ID: "s1"}))
	require.NoError(t, s.Record(ctx, types.AdvisorSuggestion{ID: "s2"}))
	require.NoError(t, s.Record(ctx, types.AdvisorSuggestion{ID: "s3"}))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"s3", "s2", "s1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, []string{"s3", "s2"}, []string{limited[0].ID, limited[1].ID})
}
