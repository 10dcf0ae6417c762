package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripWrappingRemovesThinkBlock(t *testing.T) {
	in := "<think>reasoning here</think>{\"suggestions\":[]}"
	assert.Equal(t, `{"suggestions":[]}`, stripWrapping(in))
}

func TestStripWrappingRemovesCodeFenceWithLanguageTag(t *testing.T) {
	in := "```json\n{\"suggestions\":[]}\n```"
	assert.Equal(t, `{"suggestions":[]}`, stripWrapping(in))
}

func TestStripWrappingRemovesBareCodeFence(t *testing.T) {
	in := "```\n{\"suggestions\":[]}\n```"
	assert.Equal(t, `{"suggestions":[]}`, stripWrapping(in))
}

func TestStripWrappingHandlesThinkThenCodeFence(t *testing.T) {
	in := "<think>hmm</think>```json\n{\"a\":1}\n```"
	assert.Equal(t, `{"a":1}`, stripWrapping(in))
}

func TestStripWrappingLeavesPlainJSONAlone(t *testing.T) {
	in := `{"suggestions":[]}`
	assert.Equal(t, in, stripWrapping(in))
}

func TestParseSuggestionsValidPayload(t *testing.T) {
	resp := `{"suggestions":[{"target":"newWordRatioDefault","value":0.3,"rationale":"test"}]}`
	items, err := parseSuggestions(resp)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "newWordRatioDefault", items[0].Target)
	assert.Equal(t, 0.3, items[0].Value)
	assert.NotEmpty(t, items[0].ID)
}

func TestParseSuggestionsEmptyResponseErrors(t *testing.T) {
	_, err := parseSuggestions("")
	assert.Error(t, err)
}

func TestParseSuggestionsMalformedJSONErrors(t *testing.T) {
	_, err := parseSuggestions("not json at all")
	assert.Error(t, err)
}

func TestParseSuggestionsEmptyArrayIsValid(t *testing.T) {
	items, err := parseSuggestions(`{"suggestions":[]}`)
	require.NoError(t, err)
	assert.Empty(t, items)
}
