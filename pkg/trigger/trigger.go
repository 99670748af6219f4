/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package trigger decides whether an incoming GitHub event warrants a
// sentinel run. Unsupported events are not errors; they decode to an
// event that simply does not process.
package trigger

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"
)

// ReviewCommand is the chat command that requests a review on an
// existing pull request.
const ReviewCommand = "/code_review"

// Event captures the subset of a GitHub event payload the pipeline
// cares about.
type Event struct {
	// Name is the raw event name, e.g. "pull_request" or "issue_comment".
	Name string
	// Action is the event action, e.g. "opened" or "synchronize".
	Action string
	// Number is the pull request number, when one is attached.
	Number int
	// CommentBody is the comment text for issue_comment events.
	CommentBody string
	// Before and After bound the pushed commit range on synchronize.
	Before string
	After  string

	onPullRequest bool
}

// Decode parses a raw GitHub event payload into an Event. Event names
// the gate does not recognize decode to a non-processing Event rather
// than an error.
func Decode(name string, payload []byte) (*Event, error) {
	switch name {
	case "pull_request", "issue_comment":
	default:
		return &Event{Name: name}, nil
	}

	raw, err := github.ParseWebHook(name, payload)
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", name, err)
	}

	switch ev := raw.(type) {
	case *github.PullRequestEvent:
		return &Event{
			Name:          name,
			Action:        ev.GetAction(),
			Number:        ev.GetNumber(),
			Before:        ev.GetBefore(),
			After:         ev.GetAfter(),
			onPullRequest: ev.PullRequest != nil,
		}, nil
	case *github.IssueCommentEvent:
		return &Event{
			Name:          name,
			Action:        ev.GetAction(),
			Number:        ev.GetIssue().GetNumber(),
			CommentBody:   ev.GetComment().GetBody(),
			onPullRequest: ev.GetIssue().IsPullRequest(),
		}, nil
	default:
		return &Event{Name: name}, nil
	}
}

// ShouldProcess reports whether the event warrants a run. The decision
// is a pure function of the event: calling it twice yields the same
// answer.
func (e *Event) ShouldProcess() bool {
	switch e.Name {
	case "pull_request":
		if !e.onPullRequest {
			return false
		}
		switch e.Action {
		case "opened", "reopened", "synchronize":
			return true
		}
		return false
	case "issue_comment":
		if !e.onPullRequest {
			return false
		}
		return strings.HasPrefix(strings.TrimSpace(e.CommentBody), ReviewCommand)
	}
	return false
}

// IsSynchronize reports whether the event is a synchronize push with a
// usable commit range.
func (e *Event) IsSynchronize() bool {
	return e.Name == "pull_request" && e.Action == "synchronize" && e.Before != "" && e.After != ""
}
