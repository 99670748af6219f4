/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/pr-sentinel/pkg/coverage"
	"github.com/example/pr-sentinel/pkg/trigger"
)

// webhookPayload is the missing-tests notification shape. Delivery is
// fire-and-forget: only transport success is checked, the response
// body is never consumed.
type webhookPayload struct {
	Repository  webhookRepository  `json:"repository"`
	PullRequest webhookPullRequest `json:"pull_request"`
	Analysis    webhookAnalysis    `json:"analysis"`
	Metadata    webhookMetadata    `json:"metadata"`
}

type webhookRepository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type webhookPullRequest struct {
	Number int           `json:"number"`
	Title  string        `json:"title"`
	Author webhookAuthor `json:"author"`
}

type webhookAuthor struct {
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

type webhookAnalysis struct {
	MissingTests    []string `json:"missing_tests"`
	AffectedFiles   []string `json:"affected_files"`
	HasTests        bool     `json:"has_tests"`
	Exempt          bool     `json:"exempt"`
	ExemptionReason string   `json:"exemption_reason,omitempty"`
}

type webhookMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	EventType string    `json:"event_type"`
}

func (p *Pipeline) notify(ctx context.Context, prctx PRContext, analysis coverage.Analysis, exemption coverage.Exemption, ev *trigger.Event) error {
	payload := webhookPayload{
		Repository: webhookRepository{Owner: prctx.Owner, Name: prctx.Repo},
		PullRequest: webhookPullRequest{
			Number: prctx.Number,
			Title:  prctx.Title,
			Author: webhookAuthor{Login: prctx.AuthorLogin, Name: prctx.AuthorName},
		},
		Analysis: webhookAnalysis{
			MissingTests:    analysis.Missing,
			AffectedFiles:   analysis.Affected,
			HasTests:        analysis.HasTests,
			Exempt:          exemption.Exempt,
			ExemptionReason: exemption.Reason,
		},
		Metadata: webhookMetadata{
			Timestamp: p.now().UTC(),
			Action:    ev.Action,
			Actor:     p.Config.Actor,
			EventType: ev.Name,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	return resp.Body.Close()
}

func (p *Pipeline) httpClient() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
