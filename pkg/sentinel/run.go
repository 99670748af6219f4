/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sentinel

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v68/github"
	"github.com/waigani/diffparser"

	"github.com/example/pr-sentinel/pkg/aireview"
	"github.com/example/pr-sentinel/pkg/coverage"
	ghclient "github.com/example/pr-sentinel/pkg/github"
	"github.com/example/pr-sentinel/pkg/trigger"
)

// GitHub is the platform surface the pipeline needs. *ghclient.Client
// satisfies it.
type GitHub interface {
	GetPR(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	GetPRDiff(ctx context.Context, owner, repo string, number int) (string, error)
	GetCommitRangeDiff(ctx context.Context, owner, repo, base, head string) (string, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	CreateReview(ctx context.Context, owner, repo string, number int, review *github.PullRequestReviewRequest) (*github.PullRequestReview, error)
}

// approveBody is the canonical approval message.
const approveBody = "LGTM! No issues found."

// Pipeline runs one event end to end. All collaborators are injected;
// Backend may be nil when the AI phase is unreachable (gate rejection
// or evaluate-tests-only stops).
type Pipeline struct {
	Config  Config
	GitHub  GitHub
	Backend aireview.Backend

	// HTTPClient delivers the webhook; defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Now stamps the webhook payload; defaults to time.Now.
	Now func() time.Time
}

// Process runs the pipeline for one decoded event.
//
// Flow: gate check, fetch PR + diff, test-coverage analysis, optional
// warning comment + webhook, optional AI review, then exactly one
// final review call (COMMENT with findings, or APPROVE).
func (p *Pipeline) Process(ctx context.Context, ev *trigger.Event) error {
	log := clog.FromContext(ctx)

	if !ev.ShouldProcess() {
		log.Infof("event %s (action %q) does not warrant processing", ev.Name, ev.Action)
		return nil
	}

	owner, repo, err := p.Config.OwnerRepo()
	if err != nil {
		return err
	}

	pr, err := p.GitHub.GetPR(ctx, owner, repo, ev.Number)
	if err != nil {
		return fmt.Errorf("fetch PR %s/%s#%d: %w", owner, repo, ev.Number, err)
	}
	prctx := PRContext{
		Owner:       owner,
		Repo:        repo,
		Number:      ev.Number,
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		AuthorLogin: pr.GetUser().GetLogin(),
		AuthorName:  pr.GetUser().GetName(),
	}

	diffText, err := p.fetchDiff(ctx, ev, prctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(diffText) == "" {
		log.Infof("no diff found for %s/%s#%d, nothing to review", owner, repo, ev.Number)
		return nil
	}

	diff, err := diffparser.Parse(diffText)
	if err != nil {
		return fmt.Errorf("parse diff: %w", err)
	}

	var changed []string
	for _, f := range diff.Files {
		if f.NewName != "" {
			changed = append(changed, f.NewName)
		}
	}

	analysis := coverage.Analyze(changed)
	exemption := coverage.Exemption{Exempt: coverage.HasExemption(prctx.Description)}
	testsMissing := analysis.TestsRequired() && !analysis.HasTests

	log.Infof("coverage: %d affected, %d test files, %d missing, exempt=%v",
		len(analysis.Affected), len(analysis.TestFiles), len(analysis.Missing), exemption.Exempt)

	if testsMissing && !exemption.Exempt {
		if err := p.GitHub.CreateIssueComment(ctx, owner, repo, ev.Number, warningComment(analysis.Missing)); err != nil {
			return fmt.Errorf("post missing-tests warning: %w", err)
		}
		if p.Config.WebhookURL != "" {
			if err := p.notify(ctx, prctx, analysis, exemption, ev); err != nil {
				log.Warnf("webhook delivery failed, continuing: %v", err)
			}
		}
	}

	// Evaluate-tests-only stops whenever tests are missing, exempt or
	// not. An exempt PR in this mode gets neither a review nor an
	// approval; that is intentional.
	if p.Config.EvaluateTestsOnly && testsMissing {
		log.Infof("evaluate-tests-only mode with missing tests, stopping after coverage check")
		return nil
	}

	if p.Backend == nil {
		return fmt.Errorf("AI review phase reached but no backend is configured: AI_API_KEY is required")
	}

	orch := aireview.NewOrchestrator(p.Backend, p.Config.ExcludePatterns)
	comments := orch.ReviewDiff(ctx, prctx.Title, prctx.Description, diff)
	sha := pr.GetHead().GetSHA()

	if len(comments) > 0 {
		return p.postComments(ctx, prctx, sha, comments)
	}

	body := approveBody
	if testsMissing && exemption.Exempt {
		exemption.Reason = aireview.ExemptionSummary(ctx, p.Backend, prctx.Title, prctx.Description, coverage.FallbackReason)
		body = fmt.Sprintf("%s\n\n> Test exemption: %s", approveBody, exemption.Reason)
	}
	return p.approve(ctx, prctx, sha, body)
}

func (p *Pipeline) fetchDiff(ctx context.Context, ev *trigger.Event, prctx PRContext) (string, error) {
	if ev.IsSynchronize() {
		diff, err := p.GitHub.GetCommitRangeDiff(ctx, prctx.Owner, prctx.Repo, ev.Before, ev.After)
		if err != nil {
			return "", fmt.Errorf("fetch range diff: %w", err)
		}
		return diff, nil
	}
	diff, err := p.GitHub.GetPRDiff(ctx, prctx.Owner, prctx.Repo, prctx.Number)
	if err != nil {
		return "", fmt.Errorf("fetch PR diff: %w", err)
	}
	return diff, nil
}

func (p *Pipeline) postComments(ctx context.Context, prctx PRContext, sha string, comments []aireview.Comment) error {
	draft := make([]*github.DraftReviewComment, 0, len(comments))
	for _, c := range comments {
		draft = append(draft, &github.DraftReviewComment{
			Path: ghclient.Ptr(c.Path),
			Line: ghclient.Ptr(c.Line),
			Side: ghclient.Ptr("RIGHT"),
			Body: ghclient.Ptr(c.Body),
		})
	}
	review := &github.PullRequestReviewRequest{
		CommitID: ghclient.Ptr(sha),
		Event:    ghclient.Ptr("COMMENT"),
		Comments: draft,
	}
	if _, err := p.GitHub.CreateReview(ctx, prctx.Owner, prctx.Repo, prctx.Number, review); err != nil {
		return fmt.Errorf("post review comments: %w", err)
	}
	return nil
}

func (p *Pipeline) approve(ctx context.Context, prctx PRContext, sha, body string) error {
	review := &github.PullRequestReviewRequest{
		CommitID: ghclient.Ptr(sha),
		Event:    ghclient.Ptr("APPROVE"),
		Body:     ghclient.Ptr(body),
	}
	if _, err := p.GitHub.CreateReview(ctx, prctx.Owner, prctx.Repo, prctx.Number, review); err != nil {
		return fmt.Errorf("post approval: %w", err)
	}
	return nil
}

// warningComment renders the fixed missing-tests warning, listing the
// uncovered files and the recognized exemption phrases.
func warningComment(missing []string) string {
	var sb strings.Builder
	sb.WriteString("## :warning: Missing tests\n\n")
	sb.WriteString("The following changed files appear to need tests, but no matching test changes were found in this pull request:\n\n")
	for _, f := range missing {
		sb.WriteString("- `")
		sb.WriteString(f)
		sb.WriteString("`\n")
	}
	sb.WriteString("\nIf this change genuinely does not require tests, say so in the PR description using one of these phrases and re-run the review:\n\n")
	for _, kw := range coverage.ExemptionKeywords() {
		sb.WriteString("- `")
		sb.WriteString(kw)
		sb.WriteString("`\n")
	}
	return sb.String()
}
