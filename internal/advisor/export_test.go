package advisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"vocab-amas/internal/types"
)

func TestExportYAMLRoundTripsThroughApprovedIDs(t *testing.T) {
	sug := types.AdvisorSuggestion{
		ID:        "s1",
		WeekStart: time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC),
		WeekEnd:   time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC),
		Heuristic: false,
		ParsedSuggestion: []types.SuggestionItem{
			{ID: "i1", Target: "newWordRatioDefault", Value: 0.3, Rationale: "r1"},
			{ID: "i2", Target: "priorityWeightNewWord", Value: 0.2, Rationale: "r2"},
		},
	}

	data, err := ExportYAML(sug)
	require.NoError(t, err)
	assert.Contains(t, string(data), "newWordRatioDefault")
	assert.Contains(t, string(data), "approve: false")

	// Simulate an operator editing the export: flip i1's approve flag
	// by round-tripping through the same struct ExportYAML produced.
	var batch exportBatch
	require.NoError(t, yaml.Unmarshal(data, &batch))
	require.Len(t, batch.Items, 2)
	batch.Items[0].Approve = true

	edited, err := yaml.Marshal(batch)
	require.NoError(t, err)

	ids, err := ApprovedIDs(edited)
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, ids)
}

func TestApprovedIDsEmptyWhenNoneApproved(t *testing.T) {
	sug := types.AdvisorSuggestion{
		ID: "s1",
		ParsedSuggestion: []types.SuggestionItem{
			{ID: "i1", Target: "newWordRatioDefault", Value: 0.3},
		},
	}
	data, err := ExportYAML(sug)
	require.NoError(t, err)

	ids, err := ApprovedIDs(data)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
