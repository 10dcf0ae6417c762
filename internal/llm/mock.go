package llm

import "context"

// MockClient provides deterministic responses for testing, cycling
// through Responses the same way the teacher's MockLLMClient cycles
// through GenerateResponses (internal/modes/llm_mock.go).
type MockClient struct {
	Responses []string
	index     int
	Err       error
	Requests  []CompletionRequest
}

// NewMockClient builds a mock that returns responses in order, wrapping
// around once exhausted.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{Responses: responses}
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	resp := m.Responses[m.index%len(m.Responses)]
	m.index++
	return resp, nil
}
