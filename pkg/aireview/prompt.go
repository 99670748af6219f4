/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package aireview

import (
	"fmt"
	"strings"

	"github.com/waigani/diffparser"
)

// reviewInstructions are the fixed reviewer rules embedded in every
// hunk prompt.
const reviewInstructions = `You are an expert code reviewer. Review the diff hunk below and respond with a JSON object of the form {"reviews": [{"lineNumber": <number>, "reviewComment": "<comment>"}]}.

Rules:
- Only comment when there is something concrete to improve. If there is nothing to improve, respond with {"reviews": []}.
- Never write positive or complimentary comments.
- Write comments in GitHub-flavored markdown.
- Never suggest adding code comments.
- Use the line numbers given at the start of each diff line.
- Respond in English.`

// BuildHunkPrompt assembles the review prompt for one hunk. Each diff
// line is prefixed with its resolved line number: the new-file number
// when the line exists in the new file, otherwise the old-file number.
func BuildHunkPrompt(path, title, description string, hunk *diffparser.DiffHunk) string {
	var sb strings.Builder
	sb.WriteString(reviewInstructions)
	sb.WriteString("\n\nFile: ")
	sb.WriteString(path)
	sb.WriteString("\n\nPull request title: ")
	sb.WriteString(title)
	sb.WriteString("\n\nPull request description:\n")
	sb.WriteString(description)
	sb.WriteString("\n\nDiff to review:\n```diff\n")
	sb.WriteString(NumberedHunk(hunk))
	sb.WriteString("\n```\n")
	return sb.String()
}

// NumberedHunk renders a hunk with each line prefixed by its resolved
// line number and change marker.
func NumberedHunk(hunk *diffparser.DiffHunk) string {
	var sb strings.Builder
	for i, line := range hunk.WholeRange.Lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		marker := " "
		switch line.Mode {
		case diffparser.ADDED:
			marker = "+"
		case diffparser.REMOVED:
			marker = "-"
		}
		fmt.Fprintf(&sb, "%d: %s%s", line.Number, marker, line.Content)
	}
	return sb.String()
}

// BuildExemptionPrompt asks for a short human-readable summary of the
// author's stated reason for skipping tests.
func BuildExemptionPrompt(title, description string) string {
	var sb strings.Builder
	sb.WriteString("The author of a pull request stated that it does not require tests. ")
	sb.WriteString("Summarize their justification in one or two sentences, in English, suitable for appending to an approval message. ")
	sb.WriteString("Respond with the summary only, no preamble.\n\n")
	sb.WriteString("Pull request title: ")
	sb.WriteString(title)
	sb.WriteString("\n\nPull request description:\n")
	sb.WriteString(description)
	return sb.String()
}
