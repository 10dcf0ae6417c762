package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"vocab-amas/internal/types"
)

// stripWrapping removes <think>...</think> blocks and markdown code
// fences from a raw LLM completion, the same markdown-fence handling
// the teacher's parseDecompositionFromLLM uses
// (internal/reasoning/decomposition_llm.go), extended to also drop a
// leading reasoning block some models emit before the JSON payload.
func stripWrapping(response string) string {
	s := response

	for {
		start := strings.Index(s, "<think>")
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end < 0 {
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}

	if idx := strings.Index(s, "```json\n"); idx >= 0 {
		start := idx + len("```json\n")
		if end := strings.Index(s[start:], "\n```"); end >= 0 {
			s = s[start : start+end]
		}
	} else if idx := strings.Index(s, "```json"); idx >= 0 {
		start := idx + len("```json")
		if end := strings.Index(s[start:], "```"); end >= 0 {
			s = s[start : start+end]
		}
	} else if idx := strings.Index(s, "```\n"); idx >= 0 {
		start := idx + len("```\n")
		if end := strings.Index(s[start:], "\n```"); end >= 0 {
			s = s[start : start+end]
		}
	}

	return strings.TrimSpace(s)
}

type rawSuggestion struct {
	Target    string      `json:"target"`
	Value     interface{} `json:"value"`
	Rationale string      `json:"rationale,omitempty"`
}

type rawResponse struct {
	Suggestions []rawSuggestion `json:"suggestions"`
}

// parseSuggestions turns a raw LLM completion into SuggestionItems,
// each stamped with a fresh ID. A malformed payload returns an error
// that the caller wraps as amaserr.AdvisorParse (spec.md §7) and
// triggers the heuristic fallback.
func parseSuggestions(response string) ([]types.SuggestionItem, error) {
	cleaned := stripWrapping(response)
	if cleaned == "" {
		return nil, fmt.Errorf("empty LLM response")
	}

	var parsed rawResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	items := make([]types.SuggestionItem, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		items = append(items, types.SuggestionItem{
			ID:        uuid.NewString(),
			Target:    s.Target,
			Value:     s.Value,
			Rationale: s.Rationale,
		})
	}
	return items, nil
}
