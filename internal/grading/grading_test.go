package grading

import (
	"testing"

	"github.com/hocthi/examroom-backend/internal/model"
)

func scalar(s string) model.Answer       { return model.Answer{Scalar: s} }
func multi(parts ...string) model.Answer { return model.Answer{Parts: parts} }

func TestCorrect(t *testing.T) {
	tests := []struct {
		name    string
		given   model.Answer
		correct model.Answer
		want    bool
	}{
		{"exact scalar", scalar("A"), scalar("A"), true},
		{"case-insensitive scalar", scalar("a"), scalar("A"), true},
		{"wrong scalar", scalar("B"), scalar("A"), false},
		{"unanswered scalar", scalar(""), scalar("A"), false},
		{"empty key never correct", scalar(""), scalar(""), false},
		{"multi exact", multi("Đ", "S", "Đ"), multi("Đ", "S", "Đ"), true},
		{"multi permutation rejected", multi("S", "Đ", "Đ"), multi("Đ", "S", "Đ"), false},
		{"multi case-sensitive", multi("đ", "S"), multi("Đ", "S"), false},
		{"multi wrong length", multi("Đ", "S"), multi("Đ", "S", "Đ"), false},
		{"multi vs scalar", scalar("Đ"), multi("Đ"), false},
		{"scalar vs multi", multi("A"), scalar("A"), false},
		{"empty multi key never correct", multi(), multi(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Correct(tt.given, tt.correct); got != tt.want {
				t.Errorf("Correct(%+v, %+v) = %v, want %v", tt.given, tt.correct, got, tt.want)
			}
		})
	}
}

func TestGradePerfectScore(t *testing.T) {
	key := map[int]model.Answer{
		1: scalar("A"),
		2: multi("Đ", "S"),
		3: scalar("42"),
	}
	answers := model.AnswerMap{
		1: scalar("a"),
		2: multi("Đ", "S"),
		3: scalar("42"),
	}

	score, total := Grade(answers, key)
	if score != 3 || total != 3 {
		t.Errorf("score = %d/%d, want 3/3", score, total)
	}
}

func TestGradeEmptyAnswers(t *testing.T) {
	key := map[int]model.Answer{1: scalar("A"), 2: scalar("B")}

	score, total := Grade(model.AnswerMap{}, key)
	if score != 0 || total != 2 {
		t.Errorf("score = %d/%d, want 0/2", score, total)
	}

	score, total = Grade(nil, key)
	if score != 0 || total != 2 {
		t.Errorf("nil answers: score = %d/%d, want 0/2", score, total)
	}
}

func TestGradeMixedScenario(t *testing.T) {
	// Three questions keyed A, B, C. Answering a, X, C earns two
	// points: the lowercase a still matches, X does not.
	key := map[int]model.Answer{
		1: scalar("A"),
		2: scalar("B"),
		3: scalar("C"),
	}
	answers := model.AnswerMap{
		1: scalar("a"),
		2: scalar("X"),
		3: scalar("C"),
	}

	score, total := Grade(answers, key)
	if score != 2 || total != 3 {
		t.Errorf("score = %d/%d, want 2/3", score, total)
	}
}

func TestGradeIgnoresExtraAnswers(t *testing.T) {
	key := map[int]model.Answer{1: scalar("A")}
	answers := model.AnswerMap{
		1:  scalar("A"),
		99: scalar("A"),
	}

	score, total := Grade(answers, key)
	if score != 1 || total != 1 {
		t.Errorf("score = %d/%d, want 1/1", score, total)
	}
}
