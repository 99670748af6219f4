/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client for PR operations.
type Client struct {
	gh *github.Client
}

// NewClient creates a new GitHub client with the provided token.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &Client{gh: github.NewClient(tc)}
}

// NewClientWithHTTP creates a GitHub client with a custom HTTP client.
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{gh: github.NewClient(httpClient)}
}

// GetPR fetches the pull request metadata.
func (c *Client) GetPR(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("get PR: %w", err)
	}
	return pr, nil
}

// GetPRDiff fetches the raw unified diff for a pull request.
func (c *Client) GetPRDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := c.gh.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{
		Type: github.Diff,
	})
	if err != nil {
		return "", fmt.Errorf("get PR diff: %w", err)
	}
	return diff, nil
}

// GetCommitRangeDiff fetches the raw unified diff between two commits.
// Used for synchronize events, where only the newly pushed range matters.
func (c *Client) GetCommitRangeDiff(ctx context.Context, owner, repo, base, head string) (string, error) {
	diff, _, err := c.gh.Repositories.CompareCommitsRaw(ctx, owner, repo, base, head, github.RawOptions{
		Type: github.Diff,
	})
	if err != nil {
		return "", fmt.Errorf("compare commits %s...%s: %w", base, head, err)
	}
	return diff, nil
}

// CreateIssueComment posts an issue-level comment on a pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("create issue comment: %w", err)
	}
	return nil
}

// CreateReview submits a review to a pull request.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, number int, review *github.PullRequestReviewRequest) (*github.PullRequestReview, error) {
	created, _, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, number, review)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return created, nil
}

// Ptr is a helper to get a pointer to a value.
func Ptr[T any](v T) *T {
	return &v
}
