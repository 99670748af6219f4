/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package aireview

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// reviewSchema constrains Gemini output to the reviews contract.
// lineNumber is declared as a string; ExtractReviews coerces it.
var reviewSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"reviews": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"lineNumber":    {Type: genai.TypeString},
					"reviewComment": {Type: genai.TypeString},
				},
				Required: []string{"lineNumber", "reviewComment"},
			},
		},
	},
	Required: []string{"reviews"},
}

type geminiBackend struct {
	client *genai.Client
	model  string
}

func newGeminiBackend(ctx context.Context, apiKey, model string) (*geminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiBackend{client: client, model: model}, nil
}

// Reviews generates schema-constrained JSON and parses it against the
// reviews contract.
func (b *geminiBackend) Reviews(ctx context.Context, prompt string) ([]LineComment, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
		ResponseSchema:   reviewSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return ExtractReviews(resp.Text())
}

// Text generates a plain prose response.
func (b *geminiBackend) Text(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
