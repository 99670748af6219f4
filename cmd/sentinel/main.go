/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command sentinel runs the PR review pipeline once for the GitHub
// event it was invoked with, then exits. It is designed to run inside
// a GitHub Actions step, reading the standard GITHUB_* environment.
package main

import (
	"context"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"

	"github.com/example/pr-sentinel/pkg/aireview"
	ghclient "github.com/example/pr-sentinel/pkg/github"
	"github.com/example/pr-sentinel/pkg/sentinel"
	"github.com/example/pr-sentinel/pkg/trigger"
)

func main() {
	ctx := context.Background()

	var cfg sentinel.Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "invalid configuration: %v", err)
	}

	payload, err := os.ReadFile(cfg.EventPath)
	if err != nil {
		clog.FatalContextf(ctx, "reading event payload %s: %v", cfg.EventPath, err)
	}

	ev, err := trigger.Decode(cfg.EventName, payload)
	if err != nil {
		clog.FatalContextf(ctx, "decoding %s event: %v", cfg.EventName, err)
	}

	// The backend is only constructed when a key is present; the
	// pipeline fails if the AI phase is reached without one.
	var backend aireview.Backend
	if cfg.APIKey != "" {
		backend, err = aireview.NewBackend(ctx, cfg.Provider, cfg.APIKey, cfg.Model)
		if err != nil {
			clog.FatalContextf(ctx, "creating %s backend: %v", cfg.Provider, err)
		}
	}

	pipeline := &sentinel.Pipeline{
		Config:  cfg,
		GitHub:  ghclient.NewClient(ctx, cfg.GitHubToken),
		Backend: backend,
	}

	if err := pipeline.Process(ctx, ev); err != nil {
		clog.FatalContextf(ctx, "processing %s event for %s: %v", cfg.EventName, cfg.Repository, err)
	}
}
