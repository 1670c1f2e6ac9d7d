package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputAction(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Action
	}{
		{
			name: "canonical",
			text: "I should check air quality.\nAction: query_air_quality\nAction Input: 90210,7",
			want: Action{Thought: "I should check air quality.", Name: "query_air_quality", Input: "90210,7"},
		},
		{
			name: "thought label and hallucinated observation",
			text: "Thought: need flu data\nAction: query_flu_data\nAction Input: 4\nObservation: [made up]\nThought: done",
			want: Action{Thought: "need flu data", Name: "query_flu_data", Input: "4"},
		},
		{
			name: "lowercase labels and extra spacing",
			text: "action :  query_fda_enforcements \naction input:   30  ",
			want: Action{Name: "query_fda_enforcements", Input: "30"},
		},
		{
			name: "multiline json input",
			text: "Action: query_hospital_capacity\nAction Input: {\n  \"zip_code\": \"90210\",\n  \"days\": 7\n}",
			want: Action{Name: "query_hospital_capacity", Input: "{\n  \"zip_code\": \"90210\",\n  \"days\": 7\n}"},
		},
		{
			name: "json decision",
			text: `{"thought": "look up recalls", "action": {"tool": "query_fda_enforcements", "input": "14"}, "is_final": false}`,
			want: Action{Thought: "look up recalls", Name: "query_fda_enforcements", Input: "14"},
		},
		{
			name: "final answer phrase inside the thought",
			text: "Thought: look it up before the final answer: pm2.5 first\nAction: query_air_quality\nAction Input: 90210",
			want: Action{Thought: "look it up before the final answer: pm2.5 first", Name: "query_air_quality", Input: "90210"},
		},
		{
			name: "json decision with object input",
			text: `{"thought": "", "action": {"tool": "query_air_quality", "input": {"zip_code": "90210"}}}`,
			want: Action{Name: "query_air_quality", Input: `{"zip_code": "90210"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ParseOutput(tt.text)
			got, ok := out.(Action)
			require.True(t, ok, "expected Action, got %#v", out)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOutputFinalAnswer(t *testing.T) {
	tests := []struct {
		name string
		text string
		want FinalAnswer
	}{
		{
			name: "canonical",
			text: "I now know the final answer\nFinal Answer: PM2.5 is low.",
			want: FinalAnswer{Thought: "I now know the final answer", Answer: "PM2.5 is low."},
		},
		{
			name: "multiline answer",
			text: "Final Answer: Two recalls:\n- metformin\n- heparin",
			want: FinalAnswer{Answer: "Two recalls:\n- metformin\n- heparin"},
		},
		{
			name: "json decision",
			text: "```json\n{\"thought\": \"done\", \"is_final\": true, \"final_answer\": \"Flu is declining.\"}\n```",
			want: FinalAnswer{Thought: "done", Answer: "Flu is declining."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ParseOutput(tt.text)
			got, ok := out.(FinalAnswer)
			require.True(t, ok, "expected FinalAnswer, got %#v", out)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOutputUnparseable(t *testing.T) {
	tests := map[string]string{
		"empty":                  "",
		"whitespace":             "   \n\t",
		"plain prose":            "The air quality is probably fine.",
		"action without input":   "Action: query_flu_data",
		"input before action":    "Action Input: 90210\nAction: query_air_quality",
		"empty action name":      "Action: \nAction Input: 90210",
		"empty final answer":     "Final Answer:   ",
		"action and final":       "Action: query_flu_data\nAction Input: 4\nFinal Answer: flu is low",
		"final then full action": "Final Answer: flu is low\nAction: query_flu_data\nAction Input: 4",
		"json both":              `{"action": {"tool": "query_flu_data", "input": ""}, "final_answer": "low"}`,
		"json neither":           `{"thought": "hmm"}`,
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			out := ParseOutput(text)
			u, ok := out.(Unparseable)
			require.True(t, ok, "expected Unparseable, got %#v", out)
			assert.NotEmpty(t, u.Reason)
			assert.Equal(t, text, u.Raw)
		})
	}
}

func TestParseOutputFinalFlagWithoutAnswer(t *testing.T) {
	for _, text := range []string{
		`{"thought": "done", "is_final": true}`,
		`{"thought": "done", "is_final": true, "action": {"tool": "query_flu_data", "input": "4"}}`,
	} {
		out := ParseOutput(text)
		u, ok := out.(Unparseable)
		require.True(t, ok, "expected Unparseable, got %#v", out)
		assert.Contains(t, u.Reason, "final_answer")
		assert.Equal(t, text, u.Raw)
	}
}
