package service

import (
	"context"
)

// ChatCompleter is the interface for chat completion providers
type ChatCompleter interface {
	// ChatCompletion sends one non-streaming completion request
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)

	// IsEnabled returns whether the provider is configured and ready
	IsEnabled() bool
}

// Ensure OpenAIClient implements ChatCompleter
var _ ChatCompleter = (*OpenAIClient)(nil)
