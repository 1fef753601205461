package util

import "testing"

func TestStripThinkTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no tags", `[{"question": "q"}]`, `[{"question": "q"}]`},
		{"think block", "<think>the user wants [a list]</think>\n[1, 2]", "[1, 2]"},
		{"thinking block upper case", "<THINKING>hmm</THINKING> done", "done"},
		{"chinese tags", "<思考>想一想</思考>[]", "[]"},
		{"multiple blocks", "<think>a</think>x<think>b</think>", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripThinkTags(tt.input); got != tt.want {
				t.Errorf("StripThinkTags() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContainsThinkTags(t *testing.T) {
	if !ContainsThinkTags("<think>x</think>") {
		t.Error("expected think tags to be detected")
	}
	if ContainsThinkTags("think about it") {
		t.Error("plain text must not be reported as tagged")
	}
}
