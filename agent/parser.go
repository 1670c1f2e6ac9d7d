// Output parsing for the Thought/Action/Observation grammar.
//
// Information Hiding:
// - Label matching rules hidden
// - JSON fallback encoding hidden
// - Model text never reaches dispatch without passing through ParseOutput

package agent

import (
	"regexp"
	"strings"

	jsonx "github.com/richinex/healthradar/internal/json"
)

// Output is the tagged result of parsing one model completion.
// It is exactly one of FinalAnswer, Action or Unparseable.
type Output interface {
	isOutput()
}

// FinalAnswer ends the loop.
type FinalAnswer struct {
	Thought string
	Answer  string
}

// Action asks the loop to invoke an operation.
type Action struct {
	Thought string
	Name    string
	Input   string
}

// Unparseable is model text that matched neither form.
type Unparseable struct {
	Reason string
	Raw    string
}

func (FinalAnswer) isOutput() {}
func (Action) isOutput()      {}
func (Unparseable) isOutput() {}

var (
	thoughtLabel     = regexp.MustCompile(`(?i)^\s*thought\s*:\s*`)
	finalAnswerLabel = regexp.MustCompile(`(?im)^[ \t]*final\s+answer\s*:`)
	actionLabel      = regexp.MustCompile(`(?im)^[ \t]*action\s*\d*\s*:`)
	actionInputLabel = regexp.MustCompile(`(?im)^[ \t]*action\s*\d*\s*input\s*\d*\s*:`)
	trailingLabel    = regexp.MustCompile(`(?im)^[ \t]*(observation|thought)\s*:`)
)

// ParseOutput classifies a completion. It is total: every input, including
// the empty string, yields one of the three variants.
func ParseOutput(text string) Output {
	raw := text
	text = strings.TrimSpace(text)
	if text == "" {
		return Unparseable{Reason: "empty response", Raw: raw}
	}

	finalLoc := finalAnswerLabel.FindStringIndex(text)
	inputLoc := actionInputLabel.FindStringIndex(text)
	actionLoc := firstActionLabel(text)

	switch {
	case finalLoc != nil && actionLoc != nil && (actionLoc[0] < finalLoc[0] || inputLoc != nil):
		return Unparseable{Reason: "output contains both an action and a final answer; give exactly one", Raw: raw}

	case finalLoc != nil:
		answer := strings.TrimSpace(text[finalLoc[1]:])
		if answer == "" {
			return Unparseable{Reason: "'Final Answer:' is empty", Raw: raw}
		}
		return FinalAnswer{Thought: thoughtBefore(text, finalLoc[0]), Answer: answer}

	case actionLoc != nil:
		if inputLoc == nil || inputLoc[0] < actionLoc[0] {
			return Unparseable{Reason: "missing 'Action Input:' after 'Action:'", Raw: raw}
		}
		name := firstLine(text[actionLoc[1]:inputLoc[0]])
		if name == "" {
			return Unparseable{Reason: "missing operation name after 'Action:'", Raw: raw}
		}
		return Action{
			Thought: thoughtBefore(text, actionLoc[0]),
			Name:    name,
			Input:   actionInput(text[inputLoc[1]:]),
		}
	}

	if out, ok := parseDecision(text); ok {
		if u, isUnparseable := out.(Unparseable); isUnparseable {
			u.Raw = raw
			return u
		}
		return out
	}
	return Unparseable{Reason: "expected 'Action:' with 'Action Input:', or 'Final Answer:'", Raw: raw}
}

// firstActionLabel finds the first "Action:" line. actionLabel cannot match
// "Action Input:" because a word sits between "action" and the colon.
func firstActionLabel(text string) []int {
	return actionLabel.FindStringIndex(text)
}

// actionInput keeps the first line of input, or a whole JSON object, and drops
// any Observation the model invented.
func actionInput(rest string) string {
	if loc := trailingLabel.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	rest = strings.TrimSpace(rest)
	if jsonx.IsObject(rest) {
		return rest
	}
	return firstLine(rest)
}

func thoughtBefore(text string, end int) string {
	return strings.TrimSpace(thoughtLabel.ReplaceAllString(strings.TrimSpace(text[:end]), ""))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// parseDecision accepts the JSON encoding of a step.
func parseDecision(text string) (Output, bool) {
	d, err := jsonx.ExtractJSONFromResponse[Decision](text)
	if err != nil {
		return nil, false
	}

	hasAction := d.Action != nil && strings.TrimSpace(d.Action.Tool) != ""
	hasFinal := d.FinalAnswer != nil && strings.TrimSpace(*d.FinalAnswer) != ""

	switch {
	case d.IsFinal && !hasFinal:
		return Unparseable{Reason: "is_final is true but final_answer is empty"}, true
	case hasAction && hasFinal:
		return Unparseable{Reason: "output contains both an action and a final answer; give exactly one"}, true
	case hasFinal:
		return FinalAnswer{Thought: d.Thought, Answer: strings.TrimSpace(*d.FinalAnswer)}, true
	case hasAction:
		return Action{Thought: d.Thought, Name: strings.TrimSpace(d.Action.Tool), Input: d.Action.InputText()}, true
	}
	return nil, false
}
