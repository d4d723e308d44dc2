package domain

import (
	"encoding/json"
	"fmt"
)

// AnswerKind tags the shape of a submitted answer value.
type AnswerKind int

const (
	AnswerKindUnknown AnswerKind = iota
	AnswerKindSingle             // one choice text (multiple_choice)
	AnswerKindMulti              // a set of choice texts (checkbox)
	AnswerKindText               // free text (identification)
)

// AnswerValue is a tagged union over the three answer shapes. Values are
// constructed either directly or by ParseAnswerValue at the transport
// boundary, so the evaluator never sees an untyped blob.
type AnswerValue struct {
	kind       AnswerKind
	text       string
	selections []string
}

// SingleChoiceAnswer wraps the text of the one selected choice.
func SingleChoiceAnswer(text string) AnswerValue {
	return AnswerValue{kind: AnswerKindSingle, text: text}
}

// MultiChoiceAnswer wraps the texts of all selected choices.
func MultiChoiceAnswer(texts []string) AnswerValue {
	selections := make([]string, len(texts))
	copy(selections, texts)
	return AnswerValue{kind: AnswerKindMulti, selections: selections}
}

// TextAnswer wraps a free-text submission.
func TextAnswer(text string) AnswerValue {
	return AnswerValue{kind: AnswerKindText, text: text}
}

func (v AnswerValue) Kind() AnswerKind { return v.kind }

// Text returns the scalar payload for single-choice and text answers.
func (v AnswerValue) Text() string { return v.text }

// Selections returns the list payload for multi-choice answers.
func (v AnswerValue) Selections() []string {
	out := make([]string, len(v.selections))
	copy(out, v.selections)
	return out
}

// Encode renders the value in its storage form: the raw string for scalar
// kinds, a JSON array for multi-choice.
func (v AnswerValue) Encode() string {
	if v.kind == AnswerKindMulti {
		raw, err := json.Marshal(v.selections)
		if err != nil {
			return "[]"
		}
		return string(raw)
	}
	return v.text
}

// ParseAnswerValue validates a raw JSON answer against the question's own
// type tag and returns the typed value. Checkbox answers accept either a
// JSON array or a bare string (wrapped into a one-element set); the scalar
// kinds accept only a JSON string.
func ParseAnswerValue(qt QuestionType, raw json.RawMessage) (AnswerValue, error) {
	switch qt {
	case QuestionMultipleChoice:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: multiple_choice expects a string", ErrInvalidAnswer)
		}
		return SingleChoiceAnswer(s), nil
	case QuestionIdentification:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: identification expects a string", ErrInvalidAnswer)
		}
		return TextAnswer(s), nil
	case QuestionCheckbox:
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return MultiChoiceAnswer(list), nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return MultiChoiceAnswer([]string{s}), nil
		}
		return AnswerValue{}, fmt.Errorf("%w: checkbox expects a string or array of strings", ErrInvalidAnswer)
	default:
		return AnswerValue{}, fmt.Errorf("%w: unknown question type %q", ErrInvalidAnswer, qt)
	}
}
