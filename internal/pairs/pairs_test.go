package pairs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NotAList(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{"object", `{"question": "q", "answer": "a"}`, "not a list"},
		{"wrapped object", `{"pairs": [{"question": "q", "answer": "a"}]}`, "not a list"},
		{"string", `"just text"`, "not a list"},
		{"number", `42`, "not a list"},
		{"prose", "I'm sorry, I can't help with that.", "not valid JSON"},
		{"empty", "   ", "empty response"},
		{"only reasoning", "<think>[1,2]</think>", "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res Result
			require.NotPanics(t, func() { res = Parse(tt.raw, QAShape) })

			assert.False(t, res.Valid())
			assert.Empty(t, res.Pairs)
			assert.Contains(t, res.Reason, tt.reason)
		})
	}
}

func TestParse_PartialValidity(t *testing.T) {
	raw := `[
		{"question": "How do I connect?", "answer": "Call connect()."},
		{"question": "What about errors?"}
	]`

	res := Parse(raw, QAShape)

	require.True(t, res.Valid())
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "How do I connect?", res.Pairs[0].Prompt)
	assert.Equal(t, "Call connect().", res.Pairs[0].Completion)
	assert.Equal(t, 2, res.Elements)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, 1, res.Dropped[0].Index)
	assert.Contains(t, res.Dropped[0].Reason, "answer")
}

func TestParse_ElementRejections(t *testing.T) {
	raw := `[
		{"question": "   ", "answer": "blank question"},
		{"question": "numeric answer", "answer": 7},
		"a bare string",
		null,
		{"question": "ok", "answer": "fine", "extra": true},
		{"instruction": "wrong shape", "implementation": "x"}
	]`

	res := Parse(raw, QAShape)

	require.True(t, res.Valid())
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "ok", res.Pairs[0].Prompt)
	assert.Len(t, res.Dropped, 5)
}

func TestParse_InstructionShape(t *testing.T) {
	raw := "```json\n[{\"instruction\": \"Create a mute button\", \"implementation\": \"```tsx\\nexport function Mute() {}\\n```\"}]\n```"

	res := Parse(raw, InstructionShape)
	require.True(t, res.Valid(), "reason: %s", res.Reason)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "```tsx\nexport function Mute() {}\n```", res.Pairs[0].Completion)

	clean := `[{"instruction": "Create a mute button", "implementation": "export function Mute() {}"}]`
	res = Parse(clean, InstructionShape)
	require.True(t, res.Valid())
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "Create a mute button", res.Pairs[0].Prompt)
	assert.Equal(t, "export function Mute() {}", res.Pairs[0].Completion)

	// Q&A elements do not satisfy the instruction shape
	res = Parse(`[{"question": "q", "answer": "a"}]`, InstructionShape)
	assert.True(t, res.Valid())
	assert.Empty(t, res.Pairs)
}

func TestParse_FreeTextWrapping(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{
			name: "markdown fence",
			raw:  "Here you go:\n```json\n[{\"question\": \"q\", \"answer\": \"a\"}]\n```",
			want: 1,
		},
		{
			name: "think tags before answer",
			raw:  "<think>I should return [a list]</think>\n[{\"question\": \"q\", \"answer\": \"a\"}]",
			want: 1,
		},
		{
			name: "literal newlines in strings",
			raw:  "[{\"question\": \"q\", \"answer\": \"line 1\nline 2\"}]",
			want: 1,
		},
		{
			name: "truncated after first element",
			raw:  `[{"question": "q1", "answer": "a1"}, {"question": "q2", "answer": "a`,
			want: 1,
		},
		{
			name: "empty list",
			raw:  `[]`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.raw, QAShape)
			assert.True(t, res.Valid(), "reason: %s", res.Reason)
			assert.Len(t, res.Pairs, tt.want)
		})
	}
}

func TestParse_PreservesNonASCII(t *testing.T) {
	res := Parse(`[{"question": "¿Cómo empiezo?", "answer": "Usa <VoiceProvider> & listo ✓"}]`, QAShape)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "¿Cómo empiezo?", res.Pairs[0].Prompt)
	assert.Equal(t, "Usa <VoiceProvider> & listo ✓", res.Pairs[0].Completion)
}

func TestNewShape(t *testing.T) {
	shape := NewShape("title", "title", "body")
	res := Parse(`[{"title": "t", "body": "b"}, {"title": "t"}]`, shape)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "t", res.Pairs[0].Prompt)
	assert.Equal(t, "b", res.Pairs[0].Completion)
}
