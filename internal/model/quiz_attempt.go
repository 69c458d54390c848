package model

import (
	"encoding/json"
	"time"
)

const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
)

// QuizAttempt is one student's pass through one quiz. Exactly one row exists
// per (user, quiz) pair; it is created on the first start call and mutated in
// place until it reaches the completed state, which is terminal.
type QuizAttempt struct {
	BaseModel

	UserID uint `gorm:"index:idx_user_quiz,unique;type:bigint unsigned" json:"userId"`
	QuizID uint `gorm:"index:idx_user_quiz,unique;type:bigint unsigned" json:"quizId"`

	Status string `gorm:"size:20;not null;default:'in_progress'" json:"status"`

	// SelectedIndices holds the JSON-encoded pool positions chosen for this
	// student, in display order. Empty until the selector runs, then fixed
	// for the life of the attempt.
	SelectedIndices string `gorm:"type:json" json:"selectedIndices"`

	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`

	Score    int        `json:"score"`
	SolvedAt *time.Time `json:"solvedAt,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) InProgress() bool {
	return a.Status == AttemptInProgress
}

func (a *QuizAttempt) Completed() bool {
	return a.Status == AttemptCompleted
}

// Selection decodes the stored indices. A missing or malformed value decodes
// to nil so legacy rows fall back to sequential order at read time.
func (a *QuizAttempt) Selection() []int {
	if a.SelectedIndices == "" {
		return nil
	}
	var indices []int
	if err := json.Unmarshal([]byte(a.SelectedIndices), &indices); err != nil {
		return nil
	}
	return indices
}

func (a *QuizAttempt) SetSelection(indices []int) {
	raw, _ := json.Marshal(indices)
	a.SelectedIndices = string(raw)
}

// QuizAttemptAnswer is the answer recorded for one display position of an
// attempt. At most one row exists per (attempt, position); a re-answer
// replaces the previous row.
type QuizAttemptAnswer struct {
	BaseModel

	AttemptID uint `gorm:"index:idx_attempt_position,unique;type:bigint unsigned" json:"attemptId"`

	// Position is the 0-based display position within the attempt's
	// selection, not the pool index.
	Position int `gorm:"index:idx_attempt_position,unique" json:"position"`

	// Selected is the option label the student chose, e.g. "answer2".
	Selected   string    `gorm:"size:20;not null" json:"selected"`
	AnsweredAt time.Time `json:"answeredAt"`
}

func (QuizAttemptAnswer) TableName() string {
	return "quiz_attempt_answers"
}
