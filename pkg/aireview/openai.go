/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package aireview

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIBackend struct {
	client openai.Client
	model  string
}

func newOpenAIBackend(apiKey, model string) *openAIBackend {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIBackend{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Reviews requests a JSON-object completion and parses it against the
// reviews contract.
func (b *openAIBackend) Reviews(ctx context.Context, prompt string) ([]LineComment, error) {
	completion, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai completion returned no choices")
	}
	return ExtractReviews(completion.Choices[0].Message.Content)
}

// Text requests a plain prose completion.
func (b *openAIBackend) Text(ctx context.Context, prompt string) (string, error) {
	completion, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
