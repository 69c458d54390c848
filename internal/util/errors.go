package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuizNotAvailable   = errors.New("quiz not active or not visible")
	ErrQuizAccessDenied   = errors.New("no access to this quiz")
	ErrGradeMismatch      = errors.New("grade mismatch")
	ErrAttemptNotFound    = errors.New("quiz not started")
	ErrAttemptNotFinished = errors.New("quiz attempt not completed yet")
	ErrQuizCompleted      = errors.New("quiz already completed")
	ErrQuizTimeExpired    = errors.New("quiz time has expired")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAnswersHidden      = errors.New("answers are not shown for this quiz")
	ErrInvalidOption      = errors.New("invalid answer option")
	ErrInvalidPosition    = errors.New("question position out of range")
	ErrCodeNotFound       = errors.New("code not found")
	ErrCodeAlreadyUsed    = errors.New("code already used")
	ErrCodeTypeMismatch   = errors.New("code cannot be used for this content")
	ErrChapterNotFound    = errors.New("chapter not found")
	ErrAlreadyPurchased   = errors.New("content already purchased")
)
