/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package aireview turns diff hunks into line-anchored review comments
// using a configurable AI backend.
package aireview

import (
	"context"
	"fmt"
)

// Provider selector values.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// LineComment is one accepted review finding: a 1-based line number in
// the new version of the file and the comment body.
type LineComment struct {
	Line int
	Body string
}

// Backend is the AI provider contract. Reviews must yield the
// structured findings list for a hunk prompt (empty means "no issues");
// Text yields free-form prose, used for exemption summaries. Both fail
// with an error rather than panicking, and callers treat per-call
// failures as "no usable output".
type Backend interface {
	Reviews(ctx context.Context, prompt string) ([]LineComment, error)
	Text(ctx context.Context, prompt string) (string, error)
}

// NewBackend constructs the provider selected by name. An empty model
// picks the provider default.
func NewBackend(ctx context.Context, provider, apiKey, model string) (Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required for provider %q", provider)
	}
	switch provider {
	case ProviderOpenAI:
		return newOpenAIBackend(apiKey, model), nil
	case ProviderGemini:
		return newGeminiBackend(ctx, apiKey, model)
	case ProviderClaude:
		return newClaudeBackend(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be one of openai, gemini, claude", provider)
	}
}
