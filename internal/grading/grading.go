// Package grading scores a submission against an exam's answer key.
package grading

import (
	"strings"

	"github.com/hocthi/examroom-backend/internal/model"
)

// Grade scores the given answers against the answer key. Total is the
// number of questions in the key; every key entry is worth one point
// regardless of how many parts it has.
func Grade(answers model.AnswerMap, key map[int]model.Answer) (score, total int) {
	total = len(key)
	for qid, correct := range key {
		given, ok := answers[qid]
		if !ok {
			continue
		}
		if Correct(given, correct) {
			score++
		}
	}
	return score, total
}

// Correct reports whether a given answer matches the correct one.
//
// Scalar answers compare case-insensitively, so "a" matches "A".
// Multi-part answers (true/false tables) compare element-wise and
// order-sensitively with exact equality; a permutation of the right
// parts is wrong. A question whose key holds no answer can never be
// scored correct.
func Correct(given, correct model.Answer) bool {
	if correct.IsEmpty() {
		return false
	}

	if correct.IsMulti() {
		if !given.IsMulti() || len(given.Parts) != len(correct.Parts) {
			return false
		}
		for i := range correct.Parts {
			if given.Parts[i] != correct.Parts[i] {
				return false
			}
		}
		return true
	}

	if given.IsMulti() {
		return false
	}
	return strings.EqualFold(given.Scalar, correct.Scalar)
}
