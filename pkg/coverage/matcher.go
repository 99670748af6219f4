/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package coverage

import (
	"path"
	"strings"
)

// Analysis is the derived test-coverage picture for one diff.
type Analysis struct {
	// Affected lists every changed file that requires tests.
	Affected []string
	// TestFiles lists every changed file recognized as test evidence.
	TestFiles []string
	// Missing is the subset of Affected with no plausible companion
	// test anywhere in the diff.
	Missing []string
	// HasTests reports whether any test file appeared in the diff at
	// all. This is a global signal, deliberately not scoped per file.
	HasTests bool
}

// TestsRequired reports whether the diff touched anything that needs
// test coverage.
func (a Analysis) TestsRequired() bool {
	return len(a.Affected) > 0
}

// Analyze partitions the changed files of a diff and correlates each
// test-requiring file with candidate companion tests by filename
// heuristics. This is not a build-graph analysis; it optimizes for
// catching obviously-untested new code, and false positives on oddly
// named tests are acceptable.
func Analyze(changed []string) Analysis {
	var a Analysis
	for _, p := range changed {
		if isTestEvidence(p) {
			a.TestFiles = append(a.TestFiles, p)
		}
		if NeedsTests(p) {
			a.Affected = append(a.Affected, p)
		}
	}
	a.HasTests = len(a.TestFiles) > 0

	for _, p := range a.Affected {
		if !hasCompanionTest(p, a.TestFiles) {
			a.Missing = append(a.Missing, p)
		}
	}
	return a
}

// isTestEvidence is broader than IsTestFile: any path containing
// "test" counts, so loosely named tests still satisfy coverage.
func isTestEvidence(p string) bool {
	return IsTestFile(p) || strings.Contains(strings.ToLower(p), "test")
}

// prefixSwaps maps common source-directory prefixes to their usual
// test-directory counterparts.
var prefixSwaps = []struct{ from, to string }{
	{"src/", "test/"},
	{"src/", "tests/"},
	{"app/", "tests/"},
}

// candidateFragments derives the path fragments under which a
// companion test for p would plausibly be named.
func candidateFragments(p string) []string {
	ext := path.Ext(p)
	name := strings.TrimSuffix(path.Base(p), ext)
	stem := strings.TrimSuffix(p, ext)

	frags := []string{
		name + "_test",
		name + ".test",
		name + ".spec",
		"test_" + name,
	}
	for _, swap := range prefixSwaps {
		if strings.HasPrefix(stem, swap.from) {
			frags = append(frags, swap.to+strings.TrimPrefix(stem, swap.from))
		}
	}
	// Django keeps app tests next to views.py/models.py as tests.py.
	if name == "views" || name == "models" {
		frags = append(frags, "tests"+ext)
	}
	return frags
}

func hasCompanionTest(p string, testFiles []string) bool {
	frags := candidateFragments(p)
	for _, tf := range testFiles {
		lower := strings.ToLower(tf)
		for _, frag := range frags {
			if strings.Contains(lower, strings.ToLower(frag)) {
				return true
			}
		}
	}
	return false
}
