package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hocthi/examroom-backend/internal/model"
)

// ErrNoQuestions is returned when the model answered but produced no
// usable questions array.
var ErrNoQuestions = errors.New("response contains no questions")

// ExamDraft is the normalized extraction result, ready to become an exam.
type ExamDraft struct {
	Title     string           `json:"title"`
	Questions []model.Question `json:"questions"`
}

// DefaultTitle is used when the model finds no exam title.
const DefaultTitle = "Đề thi"

type rawDraft struct {
	Title     string           `json:"title"`
	ExamTitle string           `json:"exam_title"`
	Questions []model.Question `json:"questions"`
}

// ParseDraft turns a raw model response into a normalized ExamDraft.
// Models routinely wrap the JSON in markdown fences or prose despite
// being told not to, so the object is located by brace matching.
func ParseDraft(raw string) (*ExamDraft, error) {
	cleaned := StripFences(raw)

	obj, err := ExtractJSONObject(cleaned)
	if err != nil {
		return nil, err
	}

	var parsed rawDraft
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("parse response JSON: %w", err)
	}

	if len(parsed.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	draft := &ExamDraft{
		Title:     parsed.Title,
		Questions: parsed.Questions,
	}
	if draft.Title == "" {
		draft.Title = parsed.ExamTitle
	}
	if draft.Title == "" {
		draft.Title = DefaultTitle
	}

	normalize(draft.Questions)
	return draft, nil
}

// normalize fills in the defaults the models tend to omit: sequential
// IDs, the multiple_choice type, empty option lists, empty answers.
// IDs key the answer map and the grading key, so a missing, negative,
// or duplicated ID is reassigned to the lowest unused number.
func normalize(questions []model.Question) {
	seen := make(map[int]bool, len(questions))
	next := 1
	for i := range questions {
		q := &questions[i]
		if q.ID <= 0 || seen[q.ID] {
			for seen[next] {
				next++
			}
			q.ID = next
		}
		seen[q.ID] = true
		if q.Type == "" {
			q.Type = model.QuestionMultipleChoice
		}
		if q.Options == nil {
			q.Options = []string{}
		}
	}
}

// StripFences removes markdown code fences around a response.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the first balanced top-level JSON object in
// s, skipping braces inside string literals.
func ExtractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errors.New("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", errors.New("unbalanced JSON object in response")
}
