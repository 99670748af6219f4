/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package aireview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// reviewEnvelope is the wire contract expected from every provider:
// {"reviews": [{"lineNumber": ..., "reviewComment": ...}]}.
type reviewEnvelope struct {
	Reviews []reviewEntry `json:"reviews"`
}

type reviewEntry struct {
	LineNumber    flexInt `json:"lineNumber"`
	ReviewComment string  `json:"reviewComment"`
}

// flexInt decodes a JSON number or a quoted numeric string. Models
// routinely disagree on which one "lineNumber" is.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("line number %q is not an integer: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// ExtractReviews pulls the structured reviews contract out of a model
// response that may wrap the JSON in markdown fences or surrounding
// prose. A response that cannot be coerced to the contract is an
// error; callers treat that as "no usable comments" for the hunk.
func ExtractReviews(text string) ([]LineComment, error) {
	cleaned := extractJSON(text)
	if cleaned == "" {
		return nil, fmt.Errorf("response contains no JSON content")
	}

	var env reviewEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return nil, fmt.Errorf("parse reviews response: %w", err)
	}

	comments := make([]LineComment, 0, len(env.Reviews))
	for _, r := range env.Reviews {
		comments = append(comments, LineComment{
			Line: int(r.LineNumber),
			Body: r.ReviewComment,
		})
	}
	return comments, nil
}

// extractJSON extracts JSON content from text that may contain
// markdown code blocks, or a bare JSON object embedded in prose.
func extractJSON(text string) string {
	lines := strings.Split(text, "\n")
	var buf bytes.Buffer
	inBlock := false
	found := false

	for _, line := range lines {
		if !inBlock && strings.TrimSpace(line) == "```json" {
			inBlock = true
			found = true
			continue
		}
		if inBlock && strings.TrimSpace(line) == "```" {
			break
		}
		if inBlock {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(line)
		}
	}
	if found {
		return strings.TrimSpace(buf.String())
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Last resort: slice out the outermost object from surrounding prose.
	if !strings.HasPrefix(text, "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return ""
		}
		text = text[start : end+1]
	}
	return text
}
