package scoring

import (
	"math/rand"
	"testing"

	"quizhub-service/internal/domain"
)

func mcQuestion(correct string, distractors ...string) domain.Question {
	q := domain.Question{ID: "q1", Type: domain.QuestionMultipleChoice}
	q.Choices = append(q.Choices, domain.Choice{ID: "c0", Text: correct, IsCorrect: true})
	for i, d := range distractors {
		q.Choices = append(q.Choices, domain.Choice{ID: string(rune('a' + i)), Text: d})
	}
	return q
}

func checkboxQuestion(correct []string, distractors ...string) domain.Question {
	q := domain.Question{ID: "q1", Type: domain.QuestionCheckbox}
	for _, c := range correct {
		q.Choices = append(q.Choices, domain.Choice{Text: c, IsCorrect: true})
	}
	for _, d := range distractors {
		q.Choices = append(q.Choices, domain.Choice{Text: d})
	}
	return q
}

func identQuestion(accepted ...string) domain.Question {
	q := domain.Question{ID: "q1", Type: domain.QuestionIdentification}
	for _, a := range accepted {
		q.Choices = append(q.Choices, domain.Choice{Text: a, IsCorrect: true})
	}
	return q
}

func TestEvaluateMultipleChoice(t *testing.T) {
	q := mcQuestion("Paris", "London", "Berlin")

	cases := []struct {
		name   string
		answer string
		want   bool
	}{
		{"exact match", "Paris", true},
		{"trimmed match", "  Paris ", true},
		{"wrong option", "London", false},
		{"case matters", "paris", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(q, domain.SingleChoiceAnswer(tc.answer)); got != tc.want {
				t.Fatalf("Evaluate(%q) = %v, want %v", tc.answer, got, tc.want)
			}
		})
	}

	// every distractor text must evaluate false
	for _, c := range q.Choices {
		if c.IsCorrect {
			continue
		}
		if Evaluate(q, domain.SingleChoiceAnswer(c.Text)) {
			t.Fatalf("distractor %q evaluated true", c.Text)
		}
	}
}

func TestEvaluateMultipleChoiceNoCorrectChoice(t *testing.T) {
	q := domain.Question{
		Type:    domain.QuestionMultipleChoice,
		Choices: []domain.Choice{{Text: "A"}, {Text: "B"}},
	}
	if Evaluate(q, domain.SingleChoiceAnswer("A")) {
		t.Fatal("question without a correct choice must evaluate false")
	}
}

func TestEvaluateCheckboxOrderInvariant(t *testing.T) {
	correct := []string{"red", "green", "blue"}
	q := checkboxQuestion(correct, "yellow")

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]string(nil), correct...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if !Evaluate(q, domain.MultiChoiceAnswer(shuffled)) {
			t.Fatalf("shuffle %v evaluated false", shuffled)
		}
	}
}

func TestEvaluateCheckboxNoPartialCredit(t *testing.T) {
	q := checkboxQuestion([]string{"red", "blue"}, "yellow")

	cases := []struct {
		name   string
		answer []string
	}{
		{"subset", []string{"red"}},
		{"superset", []string{"red", "blue", "yellow"}},
		{"swap", []string{"red", "yellow"}},
		{"empty", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if Evaluate(q, domain.MultiChoiceAnswer(tc.answer)) {
				t.Fatalf("partial answer %v evaluated true", tc.answer)
			}
		})
	}

	if !Evaluate(q, domain.MultiChoiceAnswer([]string{" blue", "red "})) {
		t.Fatal("trimmed full set must evaluate true")
	}
}

func TestEvaluateCheckboxScalarWrapped(t *testing.T) {
	q := checkboxQuestion([]string{"only"})
	if !Evaluate(q, domain.SingleChoiceAnswer("only")) {
		t.Fatal("scalar submission should be wrapped into a one-element set")
	}
}

func TestEvaluateIdentification(t *testing.T) {
	q := identQuestion("Paris")

	if !Evaluate(q, domain.TextAnswer("  Paris ")) {
		t.Fatal("trim-insensitive match failed")
	}
	if !Evaluate(q, domain.TextAnswer("paris")) {
		t.Fatal("case-insensitive match failed")
	}
	if Evaluate(q, domain.TextAnswer("Pariss")) {
		t.Fatal("near-miss must evaluate false")
	}

	multi := identQuestion("42", "forty-two")
	if !Evaluate(multi, domain.TextAnswer("FORTY-TWO")) {
		t.Fatal("any accepted answer should match")
	}
}

func TestEvaluateUnknownTypeFailsSafe(t *testing.T) {
	q := domain.Question{Type: "essay", Choices: []domain.Choice{{Text: "x", IsCorrect: true}}}
	if Evaluate(q, domain.TextAnswer("x")) {
		t.Fatal("unknown question type must evaluate false")
	}
}

func TestEvaluateEmptyChoicesFailSafe(t *testing.T) {
	for _, qt := range []domain.QuestionType{
		domain.QuestionMultipleChoice,
		domain.QuestionCheckbox,
		domain.QuestionIdentification,
	} {
		q := domain.Question{Type: qt}
		if Evaluate(q, domain.TextAnswer("anything")) {
			t.Fatalf("%s with no choices must evaluate false", qt)
		}
	}
}
