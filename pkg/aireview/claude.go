/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package aireview

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-sonnet-4-20250514"

type claudeBackend struct {
	client anthropic.Client
	model  string
}

func newClaudeBackend(apiKey, model string) *claudeBackend {
	if model == "" {
		model = defaultClaudeModel
	}
	return &claudeBackend{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Reviews prompts for the reviews contract and parses the text blocks
// of the response. Claude has no JSON response mode, so the prompt's
// formatting rules plus ExtractReviews carry the contract.
func (b *claudeBackend) Reviews(ctx context.Context, prompt string) ([]LineComment, error) {
	text, err := b.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ExtractReviews(text)
}

// Text returns the prose response.
func (b *claudeBackend) Text(ctx context.Context, prompt string) (string, error) {
	return b.complete(ctx, prompt)
}

func (b *claudeBackend) complete(ctx context.Context, prompt string) (string, error) {
	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude message: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude response contained no text")
	}
	return sb.String(), nil
}
