package service

import "testing"

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestCreateQuizRequiresQuestions(t *testing.T) {
	svc := &QuizService{}

	req := QuizReq{
		Name:            strPtr("Algebra"),
		Grade:           strPtr("grade1"),
		DurationMinutes: intPtr(10),
		Questions:       &[]QuizQuestionReq{},
	}
	if _, err := svc.CreateQuiz(req); err == nil {
		t.Fatal("expected error for empty question list")
	}
}

func TestCreateQuizRejectsOversizedSubset(t *testing.T) {
	svc := &QuizService{}

	req := QuizReq{
		Name:            strPtr("Algebra"),
		Grade:           strPtr("grade1"),
		DurationMinutes: intPtr(10),
		QuestionsToShow: intPtr(5),
		Questions: &[]QuizQuestionReq{
			{Title: "q0", Answer1: "a", Answer2: "b", CorrectAnswer: 1},
		},
	}
	if _, err := svc.CreateQuiz(req); err == nil {
		t.Fatal("expected error for questionsToShow larger than the pool")
	}
}

func TestUpdateQuizRejectsEmptyPool(t *testing.T) {
	svc := &QuizService{}

	empty := []QuizQuestionReq{}
	if _, err := svc.UpdateQuiz(1, QuizReq{Questions: &empty}); err == nil {
		t.Fatal("expected error when replacing the pool with nothing")
	}
}
