package webhook_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/fera-prompt/internal/webhook"
)

func TestNormalize_Extracts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"output key", `{"output":"Day 1: ..."}`, "Day 1: ..."},
		{"capitalised Output key", `{"Output":"Day 1"}`, "Day 1"},
		{"output preferred over optimized_prompt", `{"optimized_prompt":"b","output":"a"}`, "a"},
		{"optimized_prompt fallback", `{"optimized_prompt":"Refined: ..."}`, "Refined: ..."},
		{"optimized_prompt preferred over analysis", `{"analysis":"x","optimized_prompt":"y"}`, "y"},
		{"analysis object rendered as JSON", `{"analysis":{"score":9,"tags":["a","b"]}}`, `{"score":9,"tags":["a","b"]}`},
		{"output array rendered as JSON", `{"output":[1,2,3]}`, `[1,2,3]`},
		{"output number", `{"output":42}`, "42"},
		{"output bool", `{"output":true}`, "true"},
		{"escaped string unquoted", `{"output":"line\nnext \"quoted\""}`, "line\nnext \"quoted\""},
		{"no known key returns body", `{"result":"x"}`, `{"result":"x"}`},
		{"array returns body", `[{"output":"x"}]`, `[{"output":"x"}]`},
		{"string returns body", `"plain"`, `"plain"`},
		{"number returns body", `12.5`, `12.5`},
		{"whitespace kept in fallback body", "  {\"other\":1}\n", "  {\"other\":1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := webhook.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_EmptyBody(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := webhook.Normalize(raw)
		assert.ErrorIs(t, err, webhook.ErrEmptyResponse, "raw=%q", raw)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	for _, raw := range []string{`{"output":`, `not json`, `[1,2`} {
		_, err := webhook.Normalize(raw)
		assert.ErrorIs(t, err, webhook.ErrMalformedResponse, "raw=%q", raw)
	}
}

func TestNormalize_Unextractable(t *testing.T) {
	tests := []string{
		`{"output":""}`,
		`{"output":null}`,
		`{"output":null,"optimized_prompt":"ignored"}`,
		`{"analysis":""}`,
	}
	for _, raw := range tests {
		_, err := webhook.Normalize(raw)
		var ue *webhook.UnextractableError
		require.True(t, errors.As(err, &ue), "raw=%q err=%v", raw, err)
		assert.Equal(t, raw, ue.Body)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, webhook.KindObject, webhook.KindOf([]byte(` {"a":1}`)))
	assert.Equal(t, webhook.KindArray, webhook.KindOf([]byte(`[]`)))
	assert.Equal(t, webhook.KindString, webhook.KindOf([]byte(`"s"`)))
	assert.Equal(t, webhook.KindNumber, webhook.KindOf([]byte(`-1`)))
	assert.Equal(t, webhook.KindBool, webhook.KindOf([]byte(`false`)))
	assert.Equal(t, webhook.KindNull, webhook.KindOf([]byte(`null`)))
	assert.Equal(t, webhook.KindInvalid, webhook.KindOf([]byte(``)))
}
