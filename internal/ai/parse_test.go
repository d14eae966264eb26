package ai

import (
	"errors"
	"testing"

	"github.com/hocthi/examroom-backend/internal/model"
)

func TestParseDraftPlainJSON(t *testing.T) {
	raw := `{"title":"Đề kiểm tra Toán","questions":[
		{"id":1,"type":"multiple_choice","question":"1+1=?","options":["A. 1","B. 2"],"correct_answer":"B"},
		{"id":2,"type":"short_answer","question":"Căn bậc hai của 9?","options":[],"correct_answer":"3"}
	]}`

	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if draft.Title != "Đề kiểm tra Toán" {
		t.Errorf("title = %q", draft.Title)
	}
	if len(draft.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(draft.Questions))
	}
	if draft.Questions[0].CorrectAnswer.Scalar != "B" {
		t.Errorf("q1 answer = %+v", draft.Questions[0].CorrectAnswer)
	}
}

func TestParseDraftStripsFencesAndProse(t *testing.T) {
	raw := "Đây là kết quả phân tích:\n```json\n" +
		`{"title":"Đề thi","questions":[{"question":"Q?","correct_answer":"A"}]}` +
		"\n```\nHy vọng hữu ích!"

	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(draft.Questions) != 1 {
		t.Fatalf("got %d questions", len(draft.Questions))
	}
}

func TestParseDraftNormalizesDefaults(t *testing.T) {
	raw := `{"questions":[
		{"question":"Thiếu mọi trường"},
		{"question":"Cũng thiếu","correct_answer":null}
	]}`

	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if draft.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", draft.Title, DefaultTitle)
	}
	for i, q := range draft.Questions {
		if q.ID != i+1 {
			t.Errorf("q%d id = %d, want %d", i, q.ID, i+1)
		}
		if q.Type != model.QuestionMultipleChoice {
			t.Errorf("q%d type = %q", i, q.Type)
		}
		if q.Options == nil {
			t.Errorf("q%d options is nil", i)
		}
		if !q.CorrectAnswer.IsEmpty() {
			t.Errorf("q%d answer = %+v, want empty", i, q.CorrectAnswer)
		}
	}
}

func TestParseDraftReassignsDuplicateIDs(t *testing.T) {
	raw := `{"title":"T","questions":[
		{"id":1,"question":"a","correct_answer":"A"},
		{"id":1,"question":"b","correct_answer":"B"},
		{"id":3,"question":"c","correct_answer":"C"},
		{"id":0,"question":"d","correct_answer":"D"}
	]}`

	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	seen := make(map[int]bool)
	for i, q := range draft.Questions {
		if q.ID <= 0 {
			t.Errorf("q%d id = %d, want positive", i, q.ID)
		}
		if seen[q.ID] {
			t.Errorf("q%d id = %d collides with an earlier question", i, q.ID)
		}
		seen[q.ID] = true
	}
	// Existing distinct IDs keep their value; the collision and the
	// missing ID take the lowest free slots.
	want := []int{1, 2, 3, 4}
	for i, q := range draft.Questions {
		if q.ID != want[i] {
			t.Errorf("q%d id = %d, want %d", i, q.ID, want[i])
		}
	}
}

func TestParseDraftTrueFalseAnswers(t *testing.T) {
	raw := `{"title":"T","questions":[
		{"id":1,"type":"true_false","question":"Bảng đúng sai",
		 "sub_questions":[{"content":"ý a","answer":"Đ"},{"content":"ý b","answer":"S"}],
		 "correct_answer":["Đ","S"]}
	]}`

	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := draft.Questions[0]
	if !q.CorrectAnswer.IsMulti() || len(q.CorrectAnswer.Parts) != 2 {
		t.Errorf("answer = %+v, want two parts", q.CorrectAnswer)
	}
	if len(q.SubQuestions) != 2 {
		t.Errorf("sub_questions = %+v", q.SubQuestions)
	}
}

func TestParseDraftRejectsMissingQuestions(t *testing.T) {
	for _, raw := range []string{
		`{"title":"rỗng"}`,
		`{"title":"rỗng","questions":[]}`,
	} {
		if _, err := ParseDraft(raw); !errors.Is(err, ErrNoQuestions) {
			t.Errorf("ParseDraft(%s) err = %v, want ErrNoQuestions", raw, err)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"surrounded", `xx {"a":{"b":2}} yy`, `{"a":{"b":2}}`, true},
		{"brace in string", `{"q":"dùng dấu { trong chuỗi"}`, `{"q":"dùng dấu { trong chuỗi"}`, true},
		{"escaped quote", `{"q":"nói \"xin chào\""}`, `{"q":"nói \"xin chào\""}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"no object", `không có JSON`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			if tt.ok != (err == nil) {
				t.Fatalf("err = %v, want ok=%v", err, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	in := "```json\n{\"a\":1}\n```"
	if got := StripFences(in); got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
	if got := StripFences("  plain  "); got != "plain" {
		t.Errorf("got %q", got)
	}
}
