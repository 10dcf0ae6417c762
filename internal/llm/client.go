// Package llm provides the external advisory-model transport used by
// the LLM Advisor Loop (spec.md §4.10). It is intentionally narrow --
// one prompt in, one completion out -- since the advisor's only call
// site needs a single structured-JSON response, not the multi-method
// reasoning surface an interactive chat client would need.
package llm

import "context"

// CompletionRequest bundles one advisor call.
type CompletionRequest struct {
	System    string
	User      string
	MaxTokens int
}

// Client is the advisor's LLM port. AnthropicClient is the production
// implementation; MockClient gives deterministic responses for tests,
// and the advisor package itself falls back to a heuristic
// implementation of this same interface when no client is configured.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
