package advisor

import (
	"gopkg.in/yaml.v3"

	"vocab-amas/internal/types"
)

// exportItem is the human-editable projection of a SuggestionItem: an
// operator reviewing a YAML export adds/removes an "approve: true" line
// rather than hand-editing JSON.
type exportItem struct {
	ID        string      `yaml:"id"`
	Target    string      `yaml:"target"`
	Value     interface{} `yaml:"value"`
	Rationale string      `yaml:"rationale,omitempty"`
	Approve   bool        `yaml:"approve"`
}

type exportBatch struct {
	ID        string       `yaml:"id"`
	WeekStart string       `yaml:"week_start"`
	WeekEnd   string       `yaml:"week_end"`
	Heuristic bool         `yaml:"heuristic"`
	Items     []exportItem `yaml:"items"`
}

// ExportYAML renders a pending suggestion batch as YAML for an operator
// to review offline before approving (SPEC_FULL.md supplement 8a).
// Every item defaults to approve: false; the operator flips the ones
// they want applied and the result round-trips through ApprovedIDs.
func ExportYAML(sug types.AdvisorSuggestion) ([]byte, error) {
	batch := exportBatch{
		ID:        sug.ID,
		WeekStart: sug.WeekStart.Format("2006-01-02"),
		WeekEnd:   sug.WeekEnd.Format("2006-01-02"),
		Heuristic: sug.Heuristic,
	}
	for _, item := range sug.ParsedSuggestion {
		batch.Items = append(batch.Items, exportItem{
			ID:        item.ID,
			Target:    item.Target,
			Value:     item.Value,
			Rationale: item.Rationale,
		})
	}
	return yaml.Marshal(batch)
}

// ApprovedIDs parses an operator-edited YAML export and returns the IDs
// of the items marked approve: true, ready to pass to Loop.Approve.
func ApprovedIDs(data []byte) ([]string, error) {
	var batch exportBatch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	var ids []string
	for _, item := range batch.Items {
		if item.Approve {
			ids = append(ids, item.ID)
		}
	}
	return ids, nil
}
