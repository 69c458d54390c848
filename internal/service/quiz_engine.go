package service

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/model"
)

// AnswerLabelPrefix is the wire form of a chosen option: "answer1".."answer4".
const AnswerLabelPrefix = "answer"

// HasExpired reports whether an attempt window has elapsed. A nil end time
// means no live window, which never counts as expired.
func HasExpired(now time.Time, endTime *time.Time) bool {
	return endTime != nil && !now.Before(*endTime)
}

func SequentialIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// SelectQuestionIndices picks the pool positions one student will see, in
// display order. Showing the whole pool returns the identity sequence with no
// shuffling; otherwise a Fisher-Yates shuffle of the full range is truncated
// to questionsToShow, keeping the shuffle order.
func SelectQuestionIndices(poolSize, questionsToShow int) []int {
	if questionsToShow <= 0 || questionsToShow >= poolSize {
		return SequentialIndices(poolSize)
	}

	indices := SequentialIndices(poolSize)
	for i := len(indices) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}
	return indices[:questionsToShow]
}

// ParseAnswerLabel turns "answerN" into N. Anything else, including an empty
// label, reports false so junk input scores zero instead of failing.
func ParseAnswerLabel(label string) (int, bool) {
	if !strings.HasPrefix(label, AnswerLabelPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(label, AnswerLabelPrefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ScoreAttempt computes the final score from persisted state alone: one point
// per selected question whose recorded answer matches the correct option.
// Unanswered and unparseable entries contribute nothing. Re-running it on the
// same state always yields the same score.
func ScoreAttempt(pool []model.QuizQuestion, selection []int, answers map[int]string) int {
	score := 0
	for i, poolIdx := range selection {
		if poolIdx < 0 || poolIdx >= len(pool) {
			continue
		}
		label, ok := answers[i]
		if !ok {
			continue
		}
		n, ok := ParseAnswerLabel(label)
		if !ok {
			continue
		}
		if n == pool[poolIdx].CorrectAnswer {
			score++
		}
	}
	return score
}

// EscapeSpecialCharacters guards against double-encoded legacy content. Text
// that parses as JSON is re-serialized with quotes and backslashes escaped
// inside every string value; plain text passes through untouched.
func EscapeSpecialCharacters(text string) string {
	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return text
	}
	out, err := json.Marshal(escapeStrings(parsed))
	if err != nil {
		return text
	}
	return string(out)
}

var specialCharReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeStrings(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return specialCharReplacer.Replace(t)
	case []interface{}:
		for i := range t {
			t[i] = escapeStrings(t[i])
		}
		return t
	case map[string]interface{}:
		for k := range t {
			t[k] = escapeStrings(t[k])
		}
		return t
	default:
		return v
	}
}

// effectiveQuestionsToShow clamps the configured subset size to the actual
// pool; misconfigured quizzes fall back to showing everything.
func effectiveQuestionsToShow(quiz *model.Quiz, poolSize int) int {
	n := quiz.QuestionsToShow
	if n <= 0 || n > poolSize {
		return poolSize
	}
	return n
}
