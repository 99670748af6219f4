/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasExemption(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        bool
	}{
		{
			name:        "english phrase embedded in sentence",
			description: "This PR needs no tests needed for trivial rename",
			want:        true,
		},
		{
			name:        "case insensitive",
			description: "SKIP TESTS: docs-only change",
			want:        true,
		},
		{
			name:        "portuguese phrase",
			description: "Ajuste de layout, não precisa de testes.",
			want:        true,
		},
		{
			name:        "portuguese without accents",
			description: "nao precisa de testes, apenas renomeia arquivos",
			want:        true,
		},
		{
			name:        "no matching phrase",
			description: "Adds the new widget endpoint with full coverage.",
			want:        false,
		},
		{
			name:        "empty description",
			description: "",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasExemption(tt.description))
		})
	}
}

func TestExemptionKeywordsIsACopy(t *testing.T) {
	kw := ExemptionKeywords()
	assert.NotEmpty(t, kw)
	kw[0] = "mutated"
	assert.NotEqual(t, "mutated", ExemptionKeywords()[0])
}
