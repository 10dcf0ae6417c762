package explain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-amas/internal/types"
)

func trace(id, userID string, ts time.Time) types.DecisionTrace {
	return types.DecisionTrace{TraceVersion: types.CurrentTraceVersion, DecisionID: id, UserID: userID, Ts: ts}
}

func TestInMemoryStoreRecordAndGet(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	tr := trace("d1", "u1", time.Now())
	require.NoError(t, s.Record(ctx, tr))

	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}

func TestInMemoryStoreGetUnknownReturnsNotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Get(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestInMemoryStoreRecordRejectsMissingDecisionID(t *testing.T) {
	s := NewInMemoryStore()
	err := s.Record(context.Background(), types.DecisionTrace{UserID: "u1"})
	assert.Error(t, err)
}

func TestInMemoryStoreTimelineOrdersNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, trace("d1", "u1", base)))
	require.NoError(t, s.Record(ctx, trace("d2", "u1", base.Add(time.Minute))))
	require.NoError(t, s.Record(ctx, trace("d3", "u1", base.Add(2*time.Minute))))

	page, cursor, err := s.Timeline(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, cursor)
	require.Len(t, page, 3)
	assert.Equal(t, []string{"d3", "d2", "d1"}, []string{page[0].DecisionID, page[1].DecisionID, page[2].DecisionID})
}

func TestInMemoryStoreTimelinePaginatesByCursor(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, trace("d1", "u1", base)))
	require.NoError(t, s.Record(ctx, trace("d2", "u1", base.Add(time.Minute))))
	require.NoError(t, s.Record(ctx, trace("d3", "u1", base.Add(2*time.Minute))))

	firstPage, cursor, err := s.Timeline(ctx, "u1", "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"d3", "d2"}, []string{firstPage[0].DecisionID, firstPage[1].DecisionID})
	require.Equal(t, "d2", cursor)

	secondPage, cursor2, err := s.Timeline(ctx, "u1", cursor, 2)
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
	assert.Equal(t, "d1", secondPage[0].DecisionID)
	assert.Empty(t, cursor2)
}

func TestInMemoryStoreTimelineScopesByUser(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, trace("d1", "u1", base)))
	require.NoError(t, s.Record(ctx, trace("d2", "u2", base)))

	page, _, err := s.Timeline(ctx, "u1", "", 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "d1", page[0].DecisionID)
}

func TestInMemoryStoreTimelineUnknownCursorErrors(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Record(context.Background(), trace("d1", "u1", time.Now())))
	_, _, err := s.Timeline(context.Background(), "u1", "ghost", 10)
	assert.Error(t, err)
}
