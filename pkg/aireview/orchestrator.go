/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package aireview

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/waigani/diffparser"
)

// Comment is one line-anchored review comment ready to post.
type Comment struct {
	Path string
	Line int
	Body string
}

// Orchestrator walks a parsed diff hunk by hunk and collects AI review
// comments. Hunks are processed in file-then-hunk order, so comment
// ordering is deterministic for deterministic backends.
type Orchestrator struct {
	backend Backend
	exclude []string
}

// NewOrchestrator creates an orchestrator using the given backend.
// Files matching any exclude glob are skipped entirely.
func NewOrchestrator(backend Backend, exclude []string) *Orchestrator {
	return &Orchestrator{backend: backend, exclude: exclude}
}

// ReviewDiff reviews every hunk of every non-deleted, non-excluded
// file. A backend failure or malformed response for one hunk is logged
// and contributes no comments; the remaining hunks still run.
func (o *Orchestrator) ReviewDiff(ctx context.Context, title, description string, diff *diffparser.Diff) []Comment {
	log := clog.FromContext(ctx)
	var comments []Comment

	for _, file := range diff.Files {
		if file.NewName == "" {
			continue
		}
		if o.excluded(file.NewName) {
			log.Infof("skipping excluded file %s", file.NewName)
			continue
		}
		for _, hunk := range file.Hunks {
			prompt := BuildHunkPrompt(file.NewName, title, description, hunk)
			reviews, err := o.backend.Reviews(ctx, prompt)
			if err != nil {
				log.Warnf("review of %s hunk failed, continuing: %v", file.NewName, err)
				continue
			}
			for _, r := range reviews {
				comments = append(comments, Comment{
					Path: file.NewName,
					Line: r.Line,
					Body: r.Body,
				})
			}
		}
	}
	return comments
}

// excluded reports whether path matches any configured exclude glob.
// Patterns with ** match by prefix/suffix since filepath.Match has no
// recursive wildcard.
func (o *Orchestrator) excluded(path string) bool {
	for _, pattern := range o.exclude {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.Contains(pattern, "**") {
			parts := strings.SplitN(pattern, "**", 2)
			prefix, suffix := parts[0], strings.TrimPrefix(parts[1], "/")
			if !strings.HasPrefix(path, prefix) {
				continue
			}
			if suffix == "" || strings.HasSuffix(path, suffix) {
				return true
			}
			if ok, _ := filepath.Match(suffix, filepath.Base(path)); ok {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		// Also match against the basename so "*.lock" style patterns
		// apply anywhere in the tree.
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// ExemptionSummary asks the backend for a human-readable summary of the
// author's stated test exemption. Failures and empty responses fall
// back to the provided default; the summary never changes the
// exemption decision itself.
func ExemptionSummary(ctx context.Context, backend Backend, title, description, fallback string) string {
	log := clog.FromContext(ctx)
	if backend == nil {
		return fallback
	}
	text, err := backend.Text(ctx, BuildExemptionPrompt(title, description))
	if err != nil {
		log.Warnf("exemption summary generation failed, using fallback: %v", err)
		return fallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	return text
}
