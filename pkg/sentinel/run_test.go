/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sentinel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pr-sentinel/pkg/aireview"
	ghclient "github.com/example/pr-sentinel/pkg/github"
	"github.com/example/pr-sentinel/pkg/trigger"
)

const utilOnlyDiff = `diff --git a/src/util.ts b/src/util.ts
index 83db48f..bf269f4 100644
--- a/src/util.ts
+++ b/src/util.ts
@@ -1,2 +1,3 @@
 export {}
+export const a = 1
 // EOF
`

const utilWithTestDiff = utilOnlyDiff + `diff --git a/src/util.test.ts b/src/util.test.ts
index 1111111..2222222 100644
--- a/src/util.test.ts
+++ b/src/util.test.ts
@@ -1,2 +1,3 @@
 import {} from "./util"
+test("a", () => {})
 // EOF
`

// eventLog records side effects across fakes to check ordering.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(ev string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeGitHub struct {
	pr         *github.PullRequest
	diff       string
	rangeDiff  string
	log        *eventLog
	comments   []string
	reviews    []*github.PullRequestReviewRequest
	commentErr error
}

func (f *fakeGitHub) GetPR(context.Context, string, string, int) (*github.PullRequest, error) {
	return f.pr, nil
}

func (f *fakeGitHub) GetPRDiff(context.Context, string, string, int) (string, error) {
	return f.diff, nil
}

func (f *fakeGitHub) GetCommitRangeDiff(context.Context, string, string, string, string) (string, error) {
	return f.rangeDiff, nil
}

func (f *fakeGitHub) CreateIssueComment(_ context.Context, _, _ string, _ int, body string) error {
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments = append(f.comments, body)
	if f.log != nil {
		f.log.add("comment")
	}
	return nil
}

func (f *fakeGitHub) CreateReview(_ context.Context, _, _ string, _ int, review *github.PullRequestReviewRequest) (*github.PullRequestReview, error) {
	f.reviews = append(f.reviews, review)
	if f.log != nil {
		f.log.add("review")
	}
	return &github.PullRequestReview{}, nil
}

type stubBackend struct {
	reviews    []aireview.LineComment
	reviewsErr error
	text       string
	textErr    error
	calls      int
}

func (s *stubBackend) Reviews(context.Context, string) ([]aireview.LineComment, error) {
	s.calls++
	return s.reviews, s.reviewsErr
}

func (s *stubBackend) Text(context.Context, string) (string, error) {
	return s.text, s.textErr
}

func testPR(description string) *github.PullRequest {
	return &github.PullRequest{
		Title: ghclient.Ptr("feat: add util"),
		Body:  ghclient.Ptr(description),
		User:  &github.User{Login: ghclient.Ptr("alice")},
		Head:  &github.PullRequestBranch{SHA: ghclient.Ptr("abc123")},
	}
}

func testConfig() Config {
	return Config{
		Provider:    "openai",
		GitHubToken: "token",
		Repository:  "acme/widgets",
		EventName:   "pull_request",
		Actor:       "alice",
	}
}

func openedEvent(t *testing.T) *trigger.Event {
	t.Helper()
	ev, err := trigger.Decode("pull_request", []byte(`{
		"action": "opened",
		"number": 42,
		"pull_request": {"number": 42}
	}`))
	require.NoError(t, err)
	return ev
}

func TestMissingTestsWarnsAndStopsInEvaluateOnlyMode(t *testing.T) {
	// Scenario: one source change, no tests, no exemption,
	// evaluate-tests-only on. Exactly one warning comment, no review,
	// no AI calls.
	gh := &fakeGitHub{pr: testPR("Adds a utility."), diff: utilOnlyDiff}
	backend := &stubBackend{}
	cfg := testConfig()
	cfg.EvaluateTestsOnly = true

	p := &Pipeline{Config: cfg, GitHub: gh, Backend: backend}
	require.NoError(t, p.Process(context.Background(), openedEvent(t)))

	require.Len(t, gh.comments, 1)
	assert.Contains(t, gh.comments[0], "src/util.ts")
	assert.Contains(t, gh.comments[0], "no tests needed")
	assert.Empty(t, gh.reviews)
	assert.Zero(t, backend.calls)
}

func TestCoveredChangeGetsReviewedAndApproved(t *testing.T) {
	// Scenario: source + test change, evaluate-tests-only on. No
	// warning; AI review proceeds; empty findings yield an approval.
	gh := &fakeGitHub{pr: testPR("Adds a utility."), diff: utilWithTestDiff}
	backend := &stubBackend{reviews: []aireview.LineComment{}}
	cfg := testConfig()
	cfg.EvaluateTestsOnly = true

	p := &Pipeline{Config: cfg, GitHub: gh, Backend: backend}
	require.NoError(t, p.Process(context.Background(), openedEvent(t)))

	assert.Empty(t, gh.comments)
	require.Len(t, gh.reviews, 1)
	assert.Equal(t, "APPROVE", gh.reviews[0].GetEvent())
	assert.Equal(t, approveBody, gh.reviews[0].GetBody())
	assert.Positive(t, backend.calls)
}

func TestExemptPRWithFindingsGetsCommentReview(t *testing.T) {
	// Scenario: missing tests but exempted; AI finds one issue. The
	// findings win over the exemption approval.
	gh := &fakeGitHub{pr: testPR("Trivial change, skip tests."), diff: utilOnlyDiff}
	backend := &stubBackend{reviews: []aireview.LineComment{{Line: 12, Body: "consider a named constant"}}}

	p := &Pipeline{Config: testConfig(), GitHub: gh, Backend: backend}
	require.NoError(t, p.Process(context.Background(), openedEvent(t)))

	assert.Empty(t, gh.comments)
	require.Len(t, gh.reviews, 1)
	review := gh.reviews[0]
	assert.Equal(t, "COMMENT", review.GetEvent())
	require.Len(t, review.Comments, 1)
	assert.Equal(t, "src/util.ts", review.Comments[0].GetPath())
	assert.Equal(t, 12, review.Comments[0].GetLine())
	assert.Equal(t, "RIGHT", review.Comments[0].GetSide())
}

func TestExemptPRWithNoFindingsGetsAnnotatedApproval(t *testing.T) {
	gh := &fakeGitHub{pr: testPR("Trivial change, skip tests."), diff: utilOnlyDiff}
	backend := &stubBackend{
		reviews: []aireview.LineComment{},
		text:    "Author states this is a trivial rename.",
	}

	p := &Pipeline{Config: testConfig(), GitHub: gh, Backend: backend}
	require.NoError(t, p.Process(context.Background(), openedEvent(t)))

	assert.Empty(t, gh.comments)
	require.Len(t, gh.reviews, 1)
	review := gh.reviews[0]
	assert.Equal(t, "APPROVE", review.GetEvent())
	assert.Contains(t, review.GetBody(), approveBody)
	assert.Contains(t, review.GetBody(), "Author states this is a trivial rename.")
}

func TestGateRejectionDoesNothing(t *testing.T) {
	gh := &fakeGitHub{pr: testPR(""), diff: utilOnlyDiff}
	ev, err := trigger.Decode("push", []byte(`{"ref": "refs/heads/main"}`))
	require.NoError(t, err)

	p := &Pipeline{Config: testConfig(), GitHub: gh}
	require.NoError(t, p.Process(context.Background(), ev))

	assert.Empty(t, gh.comments)
	assert.Empty(t, gh.reviews)
}

func TestEmptyDiffIsACleanNoop(t *testing.T) {
	gh := &fakeGitHub{pr: testPR(""), diff: "  \n"}
	p := &Pipeline{Config: testConfig(), GitHub: gh}
	require.NoError(t, p.Process(context.Background(), openedEvent(t)))
	assert.Empty(t, gh.comments)
	assert.Empty(t, gh.reviews)
}

func TestMissingBackendIsFatalWhenReviewReachable(t *testing.T) {
	gh := &fakeGitHub{pr: testPR("Adds a utility."), diff: utilWithTestDiff}
	p := &Pipeline{Config: testConfig(), GitHub: gh}
	err := p.Process(context.Background(), openedEvent(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_API_KEY")
}

func TestSynchronizeUsesCommitRangeDiff(t *testing.T) {
	gh := &fakeGitHub{pr: testPR("Adds a utility."), rangeDiff: utilWithTestDiff, diff: "unused"}
	backend := &stubBackend{reviews: []aireview.LineComment{}}
	ev, err := trigger.Decode("pull_request", []byte(`{
		"action": "synchronize",
		"number": 42,
		"before": "aaa",
		"after": "bbb",
		"pull_request": {"number": 42}
	}`))
	require.NoError(t, err)

	p := &Pipeline{Config: testConfig(), GitHub: gh, Backend: backend}
	require.NoError(t, p.Process(context.Background(), ev))

	require.Len(t, gh.reviews, 1)
	assert.Equal(t, "APPROVE", gh.reviews[0].GetEvent())
}

func TestWarningPrecedesWebhook(t *testing.T) {
	log := &eventLog{}
	received := make(chan webhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload webhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		log.add("webhook")
		received <- payload
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gh := &fakeGitHub{pr: testPR("Adds a utility."), diff: utilOnlyDiff, log: log}
	cfg := testConfig()
	cfg.EvaluateTestsOnly = true
	cfg.WebhookURL = srv.URL

	p := &Pipeline{Config: cfg, GitHub: gh}
	require.NoError(t, p.Process(context.Background(), openedEvent(t)))

	assert.Equal(t, []string{"comment", "webhook"}, log.all())

	payload := <-received
	assert.Equal(t, "acme", payload.Repository.Owner)
	assert.Equal(t, "widgets", payload.Repository.Name)
	assert.Equal(t, 42, payload.PullRequest.Number)
	assert.Equal(t, "alice", payload.PullRequest.Author.Login)
	assert.Equal(t, []string{"src/util.ts"}, payload.Analysis.MissingTests)
	assert.False(t, payload.Analysis.HasTests)
	assert.Equal(t, "opened", payload.Metadata.Action)
	assert.Equal(t, "pull_request", payload.Metadata.EventType)
	assert.Equal(t, "alice", payload.Metadata.Actor)
}

func TestWebhookFailureDoesNotAbortRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // deliberately unreachable

	gh := &fakeGitHub{pr: testPR("Adds a utility."), diff: utilOnlyDiff}
	cfg := testConfig()
	cfg.EvaluateTestsOnly = true
	cfg.WebhookURL = srv.URL

	p := &Pipeline{Config: cfg, GitHub: gh}
	require.NoError(t, p.Process(context.Background(), openedEvent(t)))
	require.Len(t, gh.comments, 1)
}

func TestWarningCommentFailureIsFatal(t *testing.T) {
	gh := &fakeGitHub{pr: testPR("Adds a utility."), diff: utilOnlyDiff, commentErr: errors.New("403")}
	cfg := testConfig()
	cfg.EvaluateTestsOnly = true

	p := &Pipeline{Config: cfg, GitHub: gh}
	require.Error(t, p.Process(context.Background(), openedEvent(t)))
	assert.Empty(t, gh.reviews)
}
