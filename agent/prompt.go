// Prompt construction.
//
// Information Hiding:
// - Prompt template hidden
// - Scratchpad rendering hidden
// - Query context augmentation hidden

package agent

import (
	"fmt"
	"strings"

	"github.com/richinex/healthradar/model"
	"github.com/richinex/healthradar/tools"
)

// DefaultInstructions open every prompt.
const DefaultInstructions = `You are a public health data assistant. Answer the question using the health surveillance operations below.
Only report figures that appear in an Observation. If an operation returns no rows or an error, say that the data is unavailable instead of guessing.`

const grammar = `Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question`

// StopSequences end a completion before the model writes its own Observation.
var StopSequences = []string{"\nObservation:"}

// invalidFormatPrefix starts the corrective observation for unparseable output.
const invalidFormatPrefix = "Invalid Format: "

// buildPreamble renders everything that precedes the scratchpad.
// It depends only on the registry and the query, so it is built once per run.
func buildPreamble(instructions string, registry *tools.Registry, question string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nYou have access to the following operations:\n\n")
	b.WriteString(registry.Description())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, grammar, strings.Join(registry.Names(), ", "))
	b.WriteString("\n\nBegin!\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nThought:")
	return b.String()
}

// buildPrompt appends every completed step to the preamble.
func buildPrompt(preamble string, steps []Step) string {
	var b strings.Builder
	b.WriteString(preamble)
	for _, s := range steps {
		switch s.Kind {
		case model.StepAction:
			if s.Thought != "" {
				b.WriteString(" ")
				b.WriteString(s.Thought)
			}
			fmt.Fprintf(&b, "\nAction: %s\nAction Input: %s\nObservation: %s\nThought:", s.Action, s.ActionInput, s.Observation)
		case model.StepUnparseable:
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(s.Raw))
			fmt.Fprintf(&b, "\nObservation: %s\nThought:", s.Observation)
		}
	}
	return b.String()
}

// augmentQuestion folds structured context into the question text.
func augmentQuestion(q model.Query) string {
	question := q.Text
	if zip := q.LocationKey(); zip != "" {
		question = fmt.Sprintf("For ZIP code %s: %s", zip, question)
	}
	if days := q.Value(model.ContextLookbackDays); days != "" {
		question = fmt.Sprintf("%s (look back %s days)", question, days)
	}
	if dr := q.Value(model.ContextDateRange); dr != "" {
		question = fmt.Sprintf("%s (date range: %s)", question, dr)
	}
	return question
}
