package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"plain array", `[{"name":"Milk"},{"name":"Bread"}]`, 2},
		{"empty array", `[]`, 0},
		{"fenced", "```json\n[{\"name\":\"Milk\"}]\n```", 1},
		{"fenced without language", "```\n[{\"name\":\"Milk\"}]\n```", 1},
		{"fenced on one line", "```json [1, \"x\"]```", 2},
		{"products wrapper", `{"products":[{"name":"Milk"}]}`, 1},
		{"items wrapper", `{"items":[{"name":"Milk"},{}]}`, 2},
		{"mixed elements", `[{"name":"Milk"}, "not a dict", 3]`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseResponse(tt.raw)
			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestParseResponse_Undecodable(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not find any products.",
		`{"name":"Milk"}`,
		`{"products":"none"}`,
		`[{"name":"Milk"`,
		"null",
	} {
		_, err := ParseResponse(raw)
		assert.ErrorIs(t, err, ErrUndecodable, raw)
	}
}
