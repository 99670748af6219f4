/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package coverage implements the test-coverage policy for pull
// requests: which changed files need tests, which changed files count
// as tests, and whether the author declared an exemption.
package coverage

import (
	"path"
	"strings"
)

// testDirNames are directory segments that mark everything under them
// as test code.
var testDirNames = map[string]bool{
	"test":      true,
	"tests":     true,
	"__tests__": true,
	"testing":   true,
}

// testableExtensions is the allow-list of source extensions that we
// expect to ship with tests.
var testableExtensions = map[string]bool{
	".py":    true,
	".js":    true,
	".jsx":   true,
	".ts":    true,
	".tsx":   true,
	".go":    true,
	".java":  true,
	".rb":    true,
	".php":   true,
	".cs":    true,
	".c":     true,
	".cpp":   true,
	".rs":    true,
	".kt":    true,
	".swift": true,
}

// skipFragments marks generated, config, and framework-boilerplate
// files that never need dedicated tests. Matched as case-insensitive
// substrings of the full path.
var skipFragments = []string{
	".config.",
	".d.ts",
	".min.",
	".stories.",
	"settings.py",
	"manage.py",
	"wsgi.py",
	"asgi.py",
	"conftest.py",
	"__init__.py",
	"setup.py",
	"migrations/",
}

// IsTestFile reports whether a path matches the strict test-location
// and test-naming conventions.
func IsTestFile(p string) bool {
	lower := strings.ToLower(p)
	for _, seg := range strings.Split(path.Dir(lower), "/") {
		if testDirNames[seg] {
			return true
		}
	}
	base := path.Base(lower)
	return strings.Contains(base, "test") || strings.Contains(base, "spec")
}

// NeedsTests reports whether a changed file should be accompanied by
// tests. Test files never need tests themselves. Files without an
// extension (Makefile, Dockerfile, scripts) fail open to false.
func NeedsTests(p string) bool {
	if IsTestFile(p) {
		return false
	}
	ext := strings.ToLower(path.Ext(p))
	if !testableExtensions[ext] {
		return false
	}
	lower := strings.ToLower(p)
	for _, frag := range skipFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	return true
}
