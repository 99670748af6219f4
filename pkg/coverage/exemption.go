/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package coverage

import "strings"

// exemptionPhrases are the author-declared waivers of the test
// requirement, in English and Portuguese. Matched case-insensitively
// as substrings of the PR description.
var exemptionPhrases = []string{
	"no tests needed",
	"no test needed",
	"tests not required",
	"tests not needed",
	"skip tests",
	"without tests",
	"não precisa de testes",
	"nao precisa de testes",
	"sem necessidade de testes",
	"dispensa testes",
	"sem testes",
}

// FallbackReason is used when the AI backend cannot produce an
// exemption summary.
const FallbackReason = "The author indicated that tests are not required for this change."

// Exemption is the author-declared waiver decision. Reason is advisory
// text only and never feeds back into the boolean.
type Exemption struct {
	Exempt bool
	Reason string
}

// HasExemption reports whether the PR description declares a test
// exemption.
func HasExemption(description string) bool {
	lower := strings.ToLower(description)
	for _, phrase := range exemptionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ExemptionKeywords returns the recognized waiver phrases, for use in
// user-facing guidance.
func ExemptionKeywords() []string {
	out := make([]string, len(exemptionPhrases))
	copy(out, exemptionPhrases)
	return out
}
