// Package grade turns a free-text research transcript into a sponsor decision.
package grade

import (
	"strings"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

// Lines starting with these words end a reasoning block
var reasoningStops = []string{"SPONSOR", "RESEARCH", "SUMMARY"}

// Extract maps a transcript to a decision. It never fails: a transcript
// without a decision marker is Rejected, and one without a reasoning marker
// gets model.UnparsedReasoning.
//
// Both markers are found in a single top-to-bottom pass that ends as soon as
// the first reasoning block closes. A decision marker placed after the
// reasoning block is therefore not seen.
func Extract(transcript string) model.Decision {
	decision := model.Decision{
		Category:  model.CategoryRejected,
		Reasoning: model.UnparsedReasoning,
	}

	lines := strings.Split(transcript, "\n")
	for i, line := range lines {
		upper := strings.ToUpper(line)

		if strings.Contains(upper, model.DecisionMarker) {
			decision.Category = categoryFromLine(line)
		}

		if strings.Contains(upper, model.ReasoningMarker) {
			decision.Reasoning = reasoningFrom(lines, i)
			break
		}
	}

	return decision
}

// categoryFromLine classifies the text after the last colon on the line
func categoryFromLine(line string) model.Category {
	value := line
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		value = line[idx+1:]
	}
	return model.ParseCategory(strings.TrimSpace(value))
}

// reasoningFrom collects the reasoning that starts on lines[start] and the
// continuation lines that follow it
func reasoningFrom(lines []string, start int) string {
	first := lines[start]
	if idx := strings.Index(first, ":"); idx >= 0 {
		first = first[idx+1:]
	}

	parts := []string{strings.TrimSpace(first)}
	for _, next := range lines[start+1:] {
		trimmed := strings.TrimSpace(next)
		if trimmed == "" || startsWithStop(next) {
			break
		}
		parts = append(parts, trimmed)
	}

	return strings.Join(parts, " ")
}

func startsWithStop(line string) bool {
	upper := strings.ToUpper(line)
	for _, prefix := range reasoningStops {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

// TechnicalError is the terminal decision for a record whose research failed
func TechnicalError() model.Decision {
	return model.TechnicalErrorDecision()
}

// FailureNotes renders the research-notes cell written for a failed record
func FailureNotes(err error) string {
	if err == nil {
		return "Research failed: unknown error"
	}
	return "Research failed: " + err.Error()
}
