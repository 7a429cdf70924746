package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAnswerText(t *testing.T) {
	text, err := ValidateAnswerText("  Keep her ears dry.\n")
	require.NoError(t, err)
	assert.Equal(t, "Keep her ears dry.", text)

	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := ValidateAnswerText(raw)
		assert.ErrorIs(t, err, ErrInvalidResponse, "input %q", raw)
	}
}

func TestParseGuidanceList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "plain array",
			raw:  `["Keep your dog leashed", "Avoid the park"]`,
			want: []string{"Keep your dog leashed", "Avoid the park"},
		},
		{
			name: "json fence",
			raw:  "```json\n[\"Carry water\", \"Walk early\"]\n```",
			want: []string{"Carry water", "Walk early"},
		},
		{
			name: "bare fence",
			raw:  "```\n[\"Carry water\"]\n```",
			want: []string{"Carry water"},
		},
		{
			name: "single line fence",
			raw:  "```json [\"Carry water\"]```",
			want: []string{"Carry water"},
		},
		{
			name: "blank entries dropped and trimmed",
			raw:  `["  Check paws  ", "", "   ", "Report bait"]`,
			want: []string{"Check paws", "Report bait"},
		},
		{
			name:    "non-string element rejects whole list",
			raw:     `["ok", 5, "also ok"]`,
			wantErr: true,
		},
		{
			name:    "nested object rejected",
			raw:     `["ok", {"tip": "no"}]`,
			wantErr: true,
		},
		{
			name:    "null element rejected",
			raw:     `["ok", null]`,
			wantErr: true,
		},
		{
			name:    "object instead of array",
			raw:     `{"items": ["ok"]}`,
			wantErr: true,
		},
		{
			name:    "prose",
			raw:     "Here are some tips: keep your dog close.",
			wantErr: true,
		},
		{
			name:    "empty array",
			raw:     `[]`,
			wantErr: true,
		},
		{
			name:    "only blank strings",
			raw:     `["", "  "]`,
			wantErr: true,
		},
		{
			name:    "empty response",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGuidanceList(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponse)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `["a"]`, stripCodeFence(`["a"]`))
	assert.Equal(t, `["a"]`, stripCodeFence("```json\n[\"a\"]\n```"))
	assert.Equal(t, `["a"]`, stripCodeFence("```\n[\"a\"]\n```"))
	assert.Equal(t, `["a"]`, stripCodeFence("  ```[\"a\"]```  "))
}
