// Package scoring holds the pure answer evaluation and XP award logic.
// Nothing in this package performs I/O.
package scoring

import (
	"sort"
	"strings"

	"quizhub-service/internal/domain"
)

// Evaluate reports whether a submitted answer is correct for the given
// question. It is total: malformed authoring data (no correct choice, empty
// choice set) and unknown question types evaluate to false rather than
// erroring, so a bad question can never take down a whole submission.
func Evaluate(q domain.Question, v domain.AnswerValue) bool {
	switch q.Type {
	case domain.QuestionMultipleChoice:
		return evaluateMultipleChoice(q, v)
	case domain.QuestionCheckbox:
		return evaluateCheckbox(q, v)
	case domain.QuestionIdentification:
		return evaluateIdentification(q, v)
	default:
		return false
	}
}

// evaluateMultipleChoice compares the trimmed submission against the trimmed
// text of the first correct choice, case-sensitively. Authoring data with
// more than one correct choice resolves first-match-wins.
func evaluateMultipleChoice(q domain.Question, v domain.AnswerValue) bool {
	for _, c := range q.Choices {
		if c.IsCorrect {
			return strings.TrimSpace(c.Text) == strings.TrimSpace(v.Text())
		}
	}
	return false
}

// evaluateCheckbox requires the submitted set to match the correct set
// exactly: same length, same members, no partial credit. Both sides are
// trimmed and sorted before comparison, so submission order never matters.
func evaluateCheckbox(q domain.Question, v domain.AnswerValue) bool {
	var correct []string
	for _, c := range q.Choices {
		if c.IsCorrect {
			correct = append(correct, strings.TrimSpace(c.Text))
		}
	}
	if len(correct) == 0 {
		return false
	}
	sort.Strings(correct)

	submitted := v.Selections()
	if v.Kind() != domain.AnswerKindMulti {
		// wrap scalar submissions into a one-element set
		submitted = []string{v.Text()}
	}
	for i := range submitted {
		submitted[i] = strings.TrimSpace(submitted[i])
	}
	sort.Strings(submitted)

	if len(submitted) != len(correct) {
		return false
	}
	for i := range correct {
		if submitted[i] != correct[i] {
			return false
		}
	}
	return true
}

// evaluateIdentification accepts any of the correct choice texts,
// case-insensitively and trim-insensitively.
func evaluateIdentification(q domain.Question, v domain.AnswerValue) bool {
	accepted := make(map[string]struct{})
	for _, c := range q.Choices {
		if c.IsCorrect {
			accepted[strings.ToLower(strings.TrimSpace(c.Text))] = struct{}{}
		}
	}
	if len(accepted) == 0 {
		return false
	}
	_, ok := accepted[strings.ToLower(strings.TrimSpace(v.Text()))]
	return ok
}
