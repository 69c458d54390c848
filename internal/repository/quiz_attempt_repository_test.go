package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm database: %v", err)
	}

	return gormDB, mock
}

func TestCompleteReportsTransitionWinner(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewQuizAttemptRepository(db)
	solvedAt := time.Now()

	t.Run("open attempt transitions and wins", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `quiz_attempts`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		won, err := repo.Complete(1, 3, solvedAt)
		if err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		if !won {
			t.Fatal("expected to win the transition")
		}
	})

	t.Run("already completed attempt loses", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `quiz_attempts`").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		won, err := repo.Complete(1, 3, solvedAt)
		if err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		if won {
			t.Fatal("expected to lose the transition on a completed attempt")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveSelectionFirstWriterWins(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewQuizAttemptRepository(db)

	// The guard on selected_indices means a second writer updates zero rows.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `quiz_attempts`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.SaveSelection(1, []int{2, 0, 3}); err != nil {
		t.Fatalf("save selection failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindByUserAndQuizMissingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewQuizAttemptRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `quiz_attempts`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	attempt, err := repo.FindByUserAndQuiz(7, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt != nil {
		t.Fatal("expected nil attempt for a missing row")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
