package service

import (
	"testing"
	"time"

	"github.com/DeifMohamed2/mrRaafat/internal/model"
)

func TestHasExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if HasExpired(now, nil) {
		t.Fatal("attempt without an end time must never expire")
	}

	past := now.Add(-time.Second)
	if !HasExpired(now, &past) {
		t.Fatal("end time in the past must expire")
	}

	future := now.Add(time.Second)
	if HasExpired(now, &future) {
		t.Fatal("end time in the future must not expire")
	}

	if !HasExpired(now, &now) {
		t.Fatal("end time equal to now must expire")
	}
}

func TestSelectQuestionIndicesIdentity(t *testing.T) {
	// Showing the whole pool keeps original order without shuffling.
	sel := SelectQuestionIndices(4, 4)
	for i, v := range sel {
		if v != i {
			t.Fatalf("expected identity selection, got %v", sel)
		}
	}

	// Asking for more than the pool behaves the same.
	sel = SelectQuestionIndices(3, 10)
	if len(sel) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(sel))
	}
	for i, v := range sel {
		if v != i {
			t.Fatalf("expected identity selection, got %v", sel)
		}
	}
}

func TestSelectQuestionIndicesSubset(t *testing.T) {
	const poolSize, toShow = 20, 5

	for round := 0; round < 50; round++ {
		sel := SelectQuestionIndices(poolSize, toShow)
		if len(sel) != toShow {
			t.Fatalf("expected %d indices, got %d", toShow, len(sel))
		}

		seen := make(map[int]bool, len(sel))
		for _, v := range sel {
			if v < 0 || v >= poolSize {
				t.Fatalf("index %d out of pool range", v)
			}
			if seen[v] {
				t.Fatalf("duplicate index %d in %v", v, sel)
			}
			seen[v] = true
		}
	}
}

func TestSequentialIndices(t *testing.T) {
	got := SequentialIndices(3)
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if len(SequentialIndices(0)) != 0 {
		t.Fatal("zero length must produce empty slice")
	}
}

func TestParseAnswerLabel(t *testing.T) {
	cases := []struct {
		label string
		n     int
		ok    bool
	}{
		{"answer1", 1, true},
		{"answer4", 4, true},
		{"answer10", 10, true},
		{"answer", 0, false},
		{"answerX", 0, false},
		{"Answer2", 0, false},
		{"", 0, false},
		{"2", 0, false},
	}
	for _, tc := range cases {
		n, ok := ParseAnswerLabel(tc.label)
		if n != tc.n || ok != tc.ok {
			t.Fatalf("ParseAnswerLabel(%q) = %d,%v; want %d,%v", tc.label, n, ok, tc.n, tc.ok)
		}
	}
}

func TestScoreAttempt(t *testing.T) {
	pool := []model.QuizQuestion{
		{Position: 0, CorrectAnswer: 1},
		{Position: 1, CorrectAnswer: 2},
		{Position: 2, CorrectAnswer: 3},
		{Position: 3, CorrectAnswer: 4},
	}

	// Two correct, one wrong, one unanswered.
	score := ScoreAttempt(pool, []int{0, 1, 2, 3}, map[int]string{
		0: "answer1",
		1: "answer2",
		2: "answer1",
	})
	if score != 2 {
		t.Fatalf("expected score 2, got %d", score)
	}

	// Selection reorders the pool; answers are per display position.
	score = ScoreAttempt(pool, []int{3, 0}, map[int]string{
		0: "answer4", // pool index 3
		1: "answer1", // pool index 0
	})
	if score != 2 {
		t.Fatalf("expected score 2 with reordered selection, got %d", score)
	}

	// Unparseable labels score zero without failing the attempt.
	score = ScoreAttempt(pool, []int{0}, map[int]string{0: "garbage"})
	if score != 0 {
		t.Fatalf("expected 0 for unparseable label, got %d", score)
	}

	// Out-of-range pool indices are skipped.
	score = ScoreAttempt(pool, []int{0, 99}, map[int]string{0: "answer1", 1: "answer1"})
	if score != 1 {
		t.Fatalf("expected 1 with out-of-range index, got %d", score)
	}
}

func TestEscapeSpecialCharacters(t *testing.T) {
	// JSON content gets its string values re-escaped.
	in := `{"text":"say \"hi\""}`
	out := EscapeSpecialCharacters(in)
	if out == in {
		t.Fatal("expected embedded quotes to be escaped")
	}

	// Non-JSON text passes through untouched.
	plain := `What is 2+2?`
	if got := EscapeSpecialCharacters(plain); got != plain {
		t.Fatalf("plain text must pass through, got %q", got)
	}

	// Empty input stays empty.
	if got := EscapeSpecialCharacters(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestEffectiveQuestionsToShow(t *testing.T) {
	quiz := &model.Quiz{QuestionsToShow: 5}
	if n := effectiveQuestionsToShow(quiz, 10); n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}
	if n := effectiveQuestionsToShow(quiz, 3); n != 3 {
		t.Fatalf("expected clamp to pool size 3, got %d", n)
	}

	quiz.QuestionsToShow = 0
	if n := effectiveQuestionsToShow(quiz, 7); n != 7 {
		t.Fatalf("expected whole pool when unset, got %d", n)
	}
}
