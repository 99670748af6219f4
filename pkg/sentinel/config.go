/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package sentinel ties the test-coverage policy and the AI review
// orchestration into one run-once pipeline per GitHub event.
package sentinel

import (
	"fmt"
	"strings"
)

// Config is the complete run configuration, populated from the
// environment once at startup and passed explicitly; components never
// read ambient state.
type Config struct {
	// Provider selects the AI backend: openai, gemini, or claude.
	Provider string `env:"AI_PROVIDER,default=openai"`
	// APIKey authenticates against the selected provider. Required
	// only when the AI review phase is reachable.
	APIKey string `env:"AI_API_KEY"`
	// Model overrides the provider default model.
	Model string `env:"AI_MODEL"`
	// EvaluateTestsOnly narrows a run to the test-coverage check.
	EvaluateTestsOnly bool `env:"EVALUATE_TESTS_ONLY,default=false"`
	// ExcludePatterns are globs for files skipped during AI review.
	// The test-coverage analysis always sees the full diff.
	ExcludePatterns []string `env:"EXCLUDE_PATTERNS"`
	// WebhookURL, when set, receives a notification on missing tests.
	WebhookURL string `env:"WEBHOOK_URL"`

	GitHubToken string `env:"GITHUB_TOKEN,required"`
	Repository  string `env:"GITHUB_REPOSITORY,required"`
	EventName   string `env:"GITHUB_EVENT_NAME,required"`
	EventPath   string `env:"GITHUB_EVENT_PATH,required"`
	Actor       string `env:"GITHUB_ACTOR"`
}

// OwnerRepo splits the "owner/name" repository slug.
func (c Config) OwnerRepo() (string, string, error) {
	owner, repo, ok := strings.Cut(c.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("malformed repository slug %q", c.Repository)
	}
	return owner, repo, nil
}

// PRContext is the immutable snapshot of the pull request under
// review, fetched once per run.
type PRContext struct {
	Owner       string
	Repo        string
	Number      int
	Title       string
	Description string
	AuthorLogin string
	AuthorName  string
}
